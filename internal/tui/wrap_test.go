package tui

import "testing"

func TestWrapText(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "Fifth up from C?", 40, "Fifth up from C?"},
		{"wraps on spaces", "Fifth up from C?", 8, "Fifth up\nfrom C?"},
		{"zero width passthrough", "abc def", 0, "abc def"},
		{"empty", "   ", 10, ""},
		{"long word own line", "spell antidisestablishment now", 10, "spell\nantidisestablishment\nnow"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := wrapText(tc.in, tc.width); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
