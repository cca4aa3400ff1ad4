// Package theory defines the static practice item universes.
package theory

import (
	"fmt"
	"sort"
	"strings"
)

// Group is an ordered, disjoint subset of a mode's items.
type Group struct {
	Index int
	Label string
	Items []string
}

// Mode is one practice mode: a fixed item universe with grouping
// metadata, question text, and answer checking.
type Mode struct {
	Name      string
	Title     string
	groups    []Group
	questions map[string]string
	answers   map[string][]string
}

// Groups returns the mode's groups in ascending difficulty order.
func (m *Mode) Groups() []Group {
	return m.groups
}

// Universe returns all item identifiers in group order.
func (m *Mode) Universe() []string {
	var items []string
	for _, g := range m.groups {
		items = append(items, g.Items...)
	}
	return items
}

// Question returns the prompt text for an item.
func (m *Mode) Question(itemID string) (string, bool) {
	q, ok := m.questions[itemID]
	return q, ok
}

// Answer returns the canonical answer for an item, for feedback display.
func (m *Mode) Answer(itemID string) string {
	if answers := m.answers[itemID]; len(answers) > 0 {
		return answers[0]
	}
	return ""
}

// Check reports whether the input answers the item correctly.
// Note-sequence answers also match enharmonic spellings (Gb for F#).
func (m *Mode) Check(itemID, input string) bool {
	normalized := normalizeAnswer(input)
	if normalized == "" {
		return false
	}
	inputPCs, inputIsNotes := pitchClasses(normalized)
	for _, accepted := range m.answers[itemID] {
		acceptedNorm := normalizeAnswer(accepted)
		if normalized == acceptedNorm {
			return true
		}
		if inputIsNotes {
			if acceptedPCs, ok := pitchClasses(acceptedNorm); ok && equalPCs(inputPCs, acceptedPCs) {
				return true
			}
		}
	}
	return false
}

// ItemsForGroups expands enabled group indices into item identifiers.
func (m *Mode) ItemsForGroups(indices []int) []string {
	var items []string
	for _, g := range m.groups {
		if containsIndex(indices, g.Index) {
			items = append(items, g.Items...)
		}
	}
	return items
}

func containsIndex(indices []int, idx int) bool {
	for _, i := range indices {
		if i == idx {
			return true
		}
	}
	return false
}

var registry = buildModes()

// Modes returns all practice modes in a stable order.
func Modes() []*Mode {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Mode, 0, len(names))
	for _, name := range names {
		out = append(out, registry[name])
	}
	return out
}

// ByName looks up a mode by its name.
func ByName(name string) (*Mode, error) {
	mode, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		names := make([]string, 0, len(registry))
		for n := range registry {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown mode %q (available: %s)", name, strings.Join(names, ", "))
	}
	return mode, nil
}

// normalizeAnswer lowercases, folds unicode accidentals to ASCII, and
// collapses separators so "F♯, A, C" and "f# a c" compare equal.
func normalizeAnswer(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	replacer := strings.NewReplacer("♯", "#", "♭", "b", ",", " ", "-", " ", "  ", " ")
	s = replacer.Replace(s)
	s = strings.ReplaceAll(s, " sharps", "#")
	s = strings.ReplaceAll(s, " sharp", "#")
	s = strings.ReplaceAll(s, " flats", "b")
	s = strings.ReplaceAll(s, " flat", "b")
	s = strings.ReplaceAll(s, "sharps", "#")
	s = strings.ReplaceAll(s, "sharp", "#")
	s = strings.ReplaceAll(s, "flats", "b")
	s = strings.ReplaceAll(s, "flat", "b")
	return strings.Join(strings.Fields(s), " ")
}
