package theory

import (
	"math/bits"
	"strings"
)

// Quality is the interval structure of a chord above its root.
type Quality int

const (
	QualityMajor Quality = iota
	QualityMinor
	QualityDiminished
	QualityAugmented
	QualitySus2
	QualitySus4
	QualityDominant7
	QualityMajor7
	QualityMinor7
	QualityHalfDiminished7
	QualityDiminished7
)

// qualityOrder is the lookup order used by Identify.
var qualityOrder = []Quality{
	QualityMajor, QualityMinor, QualityDiminished, QualityAugmented,
	QualitySus2, QualitySus4,
	QualityDominant7, QualityMajor7, QualityMinor7, QualityHalfDiminished7, QualityDiminished7,
}

// Semitones from root, listed root, third, fifth, seventh.
var qualityIntervals = map[Quality][]int{
	QualityMajor:           {0, 4, 7},
	QualityMinor:           {0, 3, 7},
	QualityDiminished:      {0, 3, 6},
	QualityAugmented:       {0, 4, 8},
	QualitySus2:            {0, 2, 7},
	QualitySus4:            {0, 5, 7},
	QualityDominant7:       {0, 4, 7, 10},
	QualityMajor7:          {0, 4, 7, 11},
	QualityMinor7:          {0, 3, 7, 10},
	QualityHalfDiminished7: {0, 3, 6, 10},
	QualityDiminished7:     {0, 3, 6, 9},
}

// Canonical suffixes used when printing symbols.
var qualitySuffix = map[Quality]string{
	QualityMajor:           "",
	QualityMinor:           "m",
	QualityDiminished:      "dim",
	QualityAugmented:       "aug",
	QualitySus2:            "sus2",
	QualitySus4:            "sus4",
	QualityDominant7:       "7",
	QualityMajor7:          "maj7",
	QualityMinor7:          "m7",
	QualityHalfDiminished7: "m7b5",
	QualityDiminished7:     "dim7",
}

// suffixAliases maps every accepted suffix spelling to a quality.
var suffixAliases = map[string]Quality{
	"":       QualityMajor,
	"maj":    QualityMajor,
	"M":      QualityMajor,
	"m":      QualityMinor,
	"min":    QualityMinor,
	"-":      QualityMinor,
	"dim":    QualityDiminished,
	"°":      QualityDiminished,
	"o":      QualityDiminished,
	"aug":    QualityAugmented,
	"+":      QualityAugmented,
	"sus2":   QualitySus2,
	"sus4":   QualitySus4,
	"sus":    QualitySus4,
	"7":      QualityDominant7,
	"dom7":   QualityDominant7,
	"maj7":   QualityMajor7,
	"M7":     QualityMajor7,
	"Δ7":     QualityMajor7,
	"Δ":      QualityMajor7,
	"m7":     QualityMinor7,
	"min7":   QualityMinor7,
	"-7":     QualityMinor7,
	"m7b5":   QualityHalfDiminished7,
	"min7b5": QualityHalfDiminished7,
	"ø":      QualityHalfDiminished7,
	"ø7":     QualityHalfDiminished7,
	"dim7":   QualityDiminished7,
	"°7":     QualityDiminished7,
	"o7":     QualityDiminished7,
}

func (q Quality) String() string {
	switch q {
	case QualityMajor:
		return "major"
	case QualityMinor:
		return "minor"
	case QualityDiminished:
		return "diminished"
	case QualityAugmented:
		return "augmented"
	case QualitySus2:
		return "sus2"
	case QualitySus4:
		return "sus4"
	case QualityDominant7:
		return "dominant7"
	case QualityMajor7:
		return "major7"
	case QualityMinor7:
		return "minor7"
	case QualityHalfDiminished7:
		return "half-diminished7"
	case QualityDiminished7:
		return "diminished7"
	}
	return "unknown"
}

// IsSeventh reports whether the quality has four chord tones.
func (q Quality) IsSeventh() bool {
	return len(qualityIntervals[q]) == 4
}

// ToneRole is a chord tone's function relative to the root.
type ToneRole int

const (
	RoleRoot ToneRole = iota
	RoleThird
	RoleFifth
	RoleSeventh
)

func (r ToneRole) String() string {
	switch r {
	case RoleRoot:
		return "root"
	case RoleThird:
		return "third"
	case RoleFifth:
		return "fifth"
	case RoleSeventh:
		return "seventh"
	}
	return "unknown"
}

// PitchClassSet is a 12-bit mask of pitch classes.
type PitchClassSet uint16

// NewPitchClassSet builds a set from arbitrary pitches or pitch classes.
func NewPitchClassSet(pcs ...int) PitchClassSet {
	var s PitchClassSet
	for _, pc := range pcs {
		s = s.Add(pc)
	}
	return s
}

func (s PitchClassSet) Add(pc int) PitchClassSet { return s | 1<<uint(Mod12(pc)) }
func (s PitchClassSet) Has(pc int) bool          { return s&(1<<uint(Mod12(pc))) != 0 }
func (s PitchClassSet) Len() int                 { return bits.OnesCount16(uint16(s)) }

// Intersects reports whether the two sets share a pitch class.
func (s PitchClassSet) Intersects(o PitchClassSet) bool { return s&o != 0 }

// Minus returns the pitch classes of s not in o.
func (s PitchClassSet) Minus(o PitchClassSet) PitchClassSet { return s &^ o }

// Slice lists the members in ascending order.
func (s PitchClassSet) Slice() []int {
	out := make([]int, 0, s.Len())
	for pc := 0; pc < 12; pc++ {
		if s.Has(pc) {
			out = append(out, pc)
		}
	}
	return out
}

// Chord is a root, a quality and the pitch class that must sound in the bass.
type Chord struct {
	Root    int     `json:"root"`
	Quality Quality `json:"quality"`
	Bass    int     `json:"bass"`
}

// NewChord builds a root-position chord.
func NewChord(root int, q Quality) Chord {
	root = Mod12(root)
	return Chord{Root: root, Quality: q, Bass: root}
}

// WithBass returns the chord over a different bass pitch class.
func (c Chord) WithBass(pc int) Chord {
	c.Bass = Mod12(pc)
	return c
}

// Intervals returns the semitone offsets above the root.
func (c Chord) Intervals() []int {
	return qualityIntervals[c.Quality]
}

// PitchClasses lists chord tones in root, third, fifth, seventh order.
func (c Chord) PitchClasses() []int {
	iv := c.Intervals()
	out := make([]int, len(iv))
	for i, v := range iv {
		out[i] = Mod12(c.Root + v)
	}
	return out
}

// Set returns the chord tones as a mask. A slash bass outside the chord is included.
func (c Chord) Set() PitchClassSet {
	s := NewPitchClassSet(c.PitchClasses()...)
	return s.Add(c.Bass)
}

// Size is the number of distinct tones a complete voicing must contain.
func (c Chord) Size() int {
	return c.Set().Len()
}

// Role returns the function of pc inside the chord.
func (c Chord) Role(pc int) (ToneRole, bool) {
	pc = Mod12(pc)
	for i, t := range c.PitchClasses() {
		if t == pc {
			return ToneRole(i), true
		}
	}
	return 0, false
}

// Inverted reports whether the bass is not the root.
func (c Chord) Inverted() bool {
	return c.Bass != c.Root
}

// Symbol renders the chord with sharps.
func (c Chord) Symbol() string {
	return c.SymbolWith(false)
}

// SymbolWith renders the chord using flats or sharps for accidentals.
func (c Chord) SymbolWith(preferFlats bool) string {
	var sb strings.Builder
	sb.WriteString(PitchClassName(c.Root, preferFlats))
	sb.WriteString(qualitySuffix[c.Quality])
	if c.Inverted() {
		sb.WriteString("/")
		sb.WriteString(PitchClassName(c.Bass, preferFlats))
	}
	return sb.String()
}

func (c Chord) String() string { return c.Symbol() }

// ParseChordSymbol parses symbols such as C, Em, Am7, Cmaj7, Bbdim, F#m7b5, G7/B.
func ParseChordSymbol(symbol string) (Chord, error) {
	raw := symbol
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return Chord{}, &InvalidChordSymbolError{Symbol: raw, Reason: "empty symbol"}
	}

	// Parse bass note if present (e.g., "Emin/G" -> chord="Emin", bass="G")
	baseChord := symbol
	bassNote := ""
	if strings.Contains(symbol, "/") {
		parts := strings.Split(symbol, "/")
		if len(parts) != 2 {
			return Chord{}, &InvalidChordSymbolError{Symbol: raw, Reason: "more than one slash"}
		}
		baseChord = strings.TrimSpace(parts[0])
		bassNote = strings.TrimSpace(parts[1])
		if bassNote == "" {
			return Chord{}, &InvalidChordSymbolError{Symbol: raw, Reason: "missing bass note"}
		}
	}

	root, n, err := parsePitchClass(baseChord)
	if err != nil {
		return Chord{}, &InvalidChordSymbolError{Symbol: raw, Reason: err.Error()}
	}

	suffix := baseChord[n:]
	quality, ok := suffixAliases[suffix]
	if !ok {
		return Chord{}, &InvalidChordSymbolError{Symbol: raw, Reason: "unknown quality " + suffix}
	}

	chord := NewChord(root, quality)
	if bassNote != "" {
		bass, m, err := parsePitchClass(bassNote)
		if err != nil || m != len(bassNote) {
			return Chord{}, &InvalidChordSymbolError{Symbol: raw, Reason: "invalid bass note " + bassNote}
		}
		chord = chord.WithBass(bass)
	}

	return chord, nil
}

// Identify names a pitch-class set as a root-position chord. Symmetric sets
// resolve to the lowest root in quality order.
func Identify(set PitchClassSet) (Chord, bool) {
	for _, q := range qualityOrder {
		if len(qualityIntervals[q]) != set.Len() {
			continue
		}
		for _, root := range set.Slice() {
			c := NewChord(root, q)
			if c.Set() == set {
				return c, true
			}
		}
	}
	return Chord{}, false
}

// MIDINotes stacks the chord in close position from the root in the given
// octave (C4 = 60), with a slash bass one octave lower.
func (c Chord) MIDINotes(octave int) []int {
	rootMIDI := (octave+1)*12 + c.Root
	notes := make([]int, 0, 5)
	if c.Inverted() {
		bassMIDI := octave*12 + c.Bass
		if bassMIDI >= 0 && bassMIDI <= 127 {
			notes = append(notes, bassMIDI)
		}
	}
	for _, interval := range c.Intervals() {
		midiNote := rootMIDI + interval
		if midiNote < 0 || midiNote > 127 {
			continue
		}
		notes = append(notes, midiNote)
	}
	return notes
}
