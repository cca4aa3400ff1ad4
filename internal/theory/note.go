package theory

import "strings"

// Natural letters in ascending order with their semitone offsets from C.
var letters = []struct {
	name string
	semi int
}{
	{"C", 0}, {"D", 2}, {"E", 4}, {"F", 5}, {"G", 7}, {"A", 9}, {"B", 11},
}

// parseNote parses a note name like "C", "F#", or "Bb" into a pitch class.
func parseNote(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	upper := strings.ToUpper(s[:1])
	base := -1
	for _, l := range letters {
		if l.name == upper {
			base = l.semi
			break
		}
	}
	if base == -1 {
		return 0, false
	}
	for _, r := range s[1:] {
		switch r {
		case '#':
			base++
		case 'b', 'B':
			base--
		default:
			return 0, false
		}
	}
	return ((base % 12) + 12) % 12, true
}

// pitchClasses parses a space-separated note sequence. The second return
// is false if any token is not a note name.
func pitchClasses(s string) ([]int, bool) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, false
	}
	out := make([]int, 0, len(fields))
	for _, f := range fields {
		pc, ok := parseNote(f)
		if !ok {
			return nil, false
		}
		out = append(out, pc)
	}
	return out, true
}

func equalPCs(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// letterIndex returns the position of a note's letter in the natural scale.
func letterIndex(note string) int {
	upper := strings.ToUpper(note[:1])
	for i, l := range letters {
		if l.name == upper {
			return i
		}
	}
	return -1
}

// spellAbove spells the note a given number of letter steps and semitones
// above the root, preserving correct accidentals (M3 above D is F#, not Gb).
func spellAbove(root string, letterSteps, semitones int) string {
	rootPC, ok := parseNote(root)
	if !ok {
		return ""
	}
	idx := letterIndex(root)
	if idx < 0 {
		return ""
	}
	target := letters[(idx+letterSteps)%len(letters)]
	targetPC := (rootPC + semitones) % 12
	delta := ((targetPC - target.semi) % 12 + 12) % 12
	switch delta {
	case 0:
		return target.name
	case 1:
		return target.name + "#"
	case 2:
		return target.name + "##"
	case 11:
		return target.name + "b"
	case 10:
		return target.name + "bb"
	}
	return target.name
}
