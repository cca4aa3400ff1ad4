package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Item", "Trials"}
	rows := [][]string{
		{"C:fwd", "12"},
		{"F#:rev", "3"},
	}
	lines := formatTable(headers, rows, map[int]bool{1: true})
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	want := []string{
		"Item    Trials",
		"C:fwd       12",
		"F#:rev       3",
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestFormatTableEmpty(t *testing.T) {
	if lines := formatTable(nil, nil, nil); lines != nil {
		t.Fatalf("expected nil for empty input, got %v", lines)
	}
}

func TestFormatTableShortRows(t *testing.T) {
	lines := formatTable([]string{"A", "B"}, [][]string{{"x"}}, nil)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[1] != "x   " {
		t.Fatalf("missing cell should pad to column width, got %q", lines[1])
	}
}

func TestPadCellWideValue(t *testing.T) {
	if got := padCell("toolong", 3, false); got != "toolong" {
		t.Fatalf("over-wide value should pass through, got %q", got)
	}
	if got := padCell("ab", 4, true); got != "  ab" {
		t.Fatalf("expected right-aligned cell, got %q", got)
	}
}
