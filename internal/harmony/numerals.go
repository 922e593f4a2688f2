package harmony

import (
	"strings"

	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

var romanNumerals = [8]string{"", "I", "II", "III", "IV", "V", "VI", "VII"}

// numeralSuffix follows the usual lead-sheet analysis marks.
var numeralSuffix = map[theory.Quality]string{
	theory.QualityDiminished:      "°",
	theory.QualityAugmented:       "+",
	theory.QualitySus2:            "sus2",
	theory.QualitySus4:            "sus4",
	theory.QualityDominant7:       "7",
	theory.QualityMajor7:          "maj7",
	theory.QualityMinor7:          "7",
	theory.QualityHalfDiminished7: "ø7",
	theory.QualityDiminished7:     "°7",
}

func lowerCaseQuality(q theory.Quality) bool {
	switch q {
	case theory.QualityMinor, theory.QualityDiminished, theory.QualityMinor7,
		theory.QualityHalfDiminished7, theory.QualityDiminished7:
		return true
	}
	return false
}

// numeral labels a chord relative to the key, e.g. "IV", "vii°", "bVII".
func numeral(key theory.Key, root int, quality theory.Quality) string {
	accidental := ""
	degree, ok := key.Degree(root)
	if !ok {
		if d, up := key.Degree(root + 1); up {
			accidental, degree = "b", d
		} else if d, down := key.Degree(root - 1); down {
			accidental, degree = "#", d
		}
	}
	if degree == 0 {
		return "?"
	}

	label := romanNumerals[degree]
	if lowerCaseQuality(quality) {
		label = strings.ToLower(label)
	}
	return accidental + label + numeralSuffix[quality]
}

var (
	triadFigures   = map[theory.ToneRole]string{theory.RoleThird: "6", theory.RoleFifth: "64"}
	seventhFigures = map[theory.ToneRole]string{theory.RoleThird: "65", theory.RoleFifth: "43", theory.RoleSeventh: "42"}
)

// RomanNumeral labels an arbitrary chord in a key. Inversions get figured
// bass ("I6", "V65"); a bass outside the chord is spelled after a slash.
func RomanNumeral(key theory.Key, chord theory.Chord) string {
	label := numeral(key, chord.Root, chord.Quality)
	if !chord.Inverted() {
		return label
	}

	role, ok := chord.Role(chord.Bass)
	if !ok {
		return label + "/" + theory.PitchClassName(chord.Bass, spellWithFlats(key, chord.Bass))
	}
	if chord.Quality.IsSeventh() {
		return strings.TrimSuffix(label, "7") + seventhFigures[role]
	}
	return label + triadFigures[role]
}

// spellWithFlats picks the accidental for a chord root or bass. Mode-mixture
// degrees of a major key read as flats, the minor leading tone as a sharp.
func spellWithFlats(key theory.Key, pc int) bool {
	switch theory.Mod12(pc - key.Root) {
	case 11:
		return false
	case 3, 8, 10:
		if key.Major {
			return true
		}
	}
	return key.PrefersFlats()
}
