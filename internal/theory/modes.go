package theory

import "fmt"

// circle is the circle of fifths in clockwise (ascending-fifth) order.
var circle = []string{"C", "G", "D", "A", "E", "B", "F#", "Db", "Ab", "Eb", "Bb", "F"}

var naturals = []string{"C", "D", "E", "F", "G", "A", "B"}

type intervalDef struct {
	code        string
	display     string
	letterSteps int
	semitones   int
}

var intervalDefs = []intervalDef{
	{"m3", "Minor 3rd", 2, 3},
	{"M3", "Major 3rd", 2, 4},
	{"P4", "Perfect 4th", 3, 5},
	{"P5", "Perfect 5th", 4, 7},
	{"M6", "Major 6th", 5, 9},
	{"m7", "Minor 7th", 6, 10},
}

type triadDef struct {
	code      string
	display   string
	thirdStep int
	thirdSemi int
	fifthSemi int
}

var triadDefs = []triadDef{
	{"maj", "major", 2, 4, 7},
	{"min", "minor", 2, 3, 7},
	{"dim", "diminished", 2, 3, 6},
	{"aug", "augmented", 2, 4, 8},
}

type keySig struct {
	key   string
	kind  string
	count int
	acc   string
}

var keySigs = []keySig{
	{"C", "maj", 0, ""}, {"G", "maj", 1, "#"}, {"D", "maj", 2, "#"},
	{"A", "maj", 3, "#"}, {"E", "maj", 4, "#"}, {"B", "maj", 5, "#"},
	{"F#", "maj", 6, "#"}, {"C#", "maj", 7, "#"},
	{"F", "maj", 1, "b"}, {"Bb", "maj", 2, "b"}, {"Eb", "maj", 3, "b"},
	{"Ab", "maj", 4, "b"}, {"Db", "maj", 5, "b"}, {"Gb", "maj", 6, "b"},
	{"A", "min", 0, ""}, {"E", "min", 1, "#"}, {"B", "min", 2, "#"},
	{"F#", "min", 3, "#"}, {"C#", "min", 4, "#"}, {"G#", "min", 5, "#"},
	{"D", "min", 1, "b"}, {"G", "min", 2, "b"}, {"C", "min", 3, "b"},
	{"F", "min", 4, "b"}, {"Bb", "min", 5, "b"}, {"Eb", "min", 6, "b"},
}

func buildModes() map[string]*Mode {
	modes := map[string]*Mode{}
	for _, m := range []*Mode{buildFifths(), buildIntervals(), buildKeySigs(), buildChords()} {
		modes[m.Name] = m
	}
	return modes
}

func buildFifths() *Mode {
	m := &Mode{
		Name:      "fifths",
		Title:     "Circle of fifths",
		questions: map[string]string{},
		answers:   map[string][]string{},
	}
	fwd := func(i int) string { return circle[(i+1)%len(circle)] }
	rev := func(i int) string { return circle[(i-1+len(circle))%len(circle)] }

	addItem := func(i int, dir string) string {
		note := circle[i]
		id := note + ":" + dir
		if dir == "fwd" {
			m.questions[id] = fmt.Sprintf("Fifth up from %s?", note)
			m.answers[id] = []string{fwd(i)}
		} else {
			m.questions[id] = fmt.Sprintf("Fifth down from %s?", note)
			m.answers[id] = []string{rev(i)}
		}
		return id
	}

	var natFwd, natRev, accFwd, accRev []string
	for i, note := range circle {
		natural := len(note) == 1
		if natural {
			natFwd = append(natFwd, addItem(i, "fwd"))
			natRev = append(natRev, addItem(i, "rev"))
		} else {
			accFwd = append(accFwd, addItem(i, "fwd"))
			accRev = append(accRev, addItem(i, "rev"))
		}
	}
	m.groups = []Group{
		{Index: 0, Label: "Naturals, ascending", Items: natFwd},
		{Index: 1, Label: "Naturals, descending", Items: natRev},
		{Index: 2, Label: "Accidentals, ascending", Items: accFwd},
		{Index: 3, Label: "Accidentals, descending", Items: accRev},
	}
	return m
}

func buildIntervals() *Mode {
	m := &Mode{
		Name:      "intervals",
		Title:     "Intervals",
		questions: map[string]string{},
		answers:   map[string][]string{},
	}
	itemsFor := func(codes ...string) []string {
		var ids []string
		for _, code := range codes {
			var def intervalDef
			for _, d := range intervalDefs {
				if d.code == code {
					def = d
					break
				}
			}
			for _, root := range naturals {
				id := root + ":" + def.code
				m.questions[id] = fmt.Sprintf("%s above %s?", def.display, root)
				m.answers[id] = []string{spellAbove(root, def.letterSteps, def.semitones)}
				ids = append(ids, id)
			}
		}
		return ids
	}
	m.groups = []Group{
		{Index: 0, Label: "Thirds", Items: itemsFor("m3", "M3")},
		{Index: 1, Label: "Fourths and fifths", Items: itemsFor("P4", "P5")},
		{Index: 2, Label: "Sixths and sevenths", Items: itemsFor("M6", "m7")},
	}
	return m
}

func buildKeySigs() *Mode {
	m := &Mode{
		Name:      "keysigs",
		Title:     "Key signatures",
		questions: map[string]string{},
		answers:   map[string][]string{},
	}
	kindName := map[string]string{"maj": "major", "min": "minor"}
	var easy, mid, hard []string
	for _, ks := range keySigs {
		id := ks.key + ":" + ks.kind
		m.questions[id] = fmt.Sprintf("Key signature of %s %s?", ks.key, kindName[ks.kind])
		if ks.count == 0 {
			m.answers[id] = []string{"0", "none"}
		} else {
			accName := "sharps"
			if ks.acc == "b" {
				accName = "flats"
			}
			if ks.count == 1 {
				accName = accName[:len(accName)-1]
			}
			m.answers[id] = []string{
				fmt.Sprintf("%d%s", ks.count, ks.acc),
				fmt.Sprintf("%d %s", ks.count, accName),
			}
		}
		switch {
		case ks.count <= 2:
			easy = append(easy, id)
		case ks.count <= 4:
			mid = append(mid, id)
		default:
			hard = append(hard, id)
		}
	}
	m.groups = []Group{
		{Index: 0, Label: "Up to two accidentals", Items: easy},
		{Index: 1, Label: "Three or four accidentals", Items: mid},
		{Index: 2, Label: "Five or more accidentals", Items: hard},
	}
	return m
}

func buildChords() *Mode {
	m := &Mode{
		Name:      "chords",
		Title:     "Triads",
		questions: map[string]string{},
		answers:   map[string][]string{},
	}
	itemsFor := func(codes ...string) []string {
		var ids []string
		for _, code := range codes {
			var def triadDef
			for _, d := range triadDefs {
				if d.code == code {
					def = d
					break
				}
			}
			for _, root := range naturals {
				id := root + ":" + def.code
				third := spellAbove(root, def.thirdStep, def.thirdSemi)
				fifth := spellAbove(root, 4, def.fifthSemi)
				m.questions[id] = fmt.Sprintf("Spell the %s %s triad", root, def.display)
				m.answers[id] = []string{fmt.Sprintf("%s %s %s", root, third, fifth)}
				ids = append(ids, id)
			}
		}
		return ids
	}
	m.groups = []Group{
		{Index: 0, Label: "Major triads", Items: itemsFor("maj")},
		{Index: 1, Label: "Minor triads", Items: itemsFor("min")},
		{Index: 2, Label: "Diminished and augmented", Items: itemsFor("dim", "aug")},
	}
	return m
}
