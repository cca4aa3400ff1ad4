package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapText wraps plain text to the given display width, breaking on
// spaces. Words wider than the width are placed on their own line.
func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}
	var out strings.Builder
	lineWidth := 0
	for i, word := range words {
		w := runewidth.StringWidth(word)
		switch {
		case i == 0:
			out.WriteString(word)
			lineWidth = w
		case lineWidth+1+w <= width:
			out.WriteByte(' ')
			out.WriteString(word)
			lineWidth += 1 + w
		default:
			out.WriteByte('\n')
			out.WriteString(word)
			lineWidth = w
		}
	}
	return out.String()
}
