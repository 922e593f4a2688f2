package theory

import (
	"fmt"
	"strings"
)

var (
	majorScale = [7]int{0, 2, 4, 5, 7, 9, 11}
	minorScale = [7]int{0, 2, 3, 5, 7, 8, 10}
)

// Key is a tonal center: root pitch class plus major/minor mode.
type Key struct {
	Root  int  `json:"root"`
	Major bool `json:"major"`
}

// NewKey builds a key, normalizing the root to 0..11.
func NewKey(root int, major bool) Key {
	return Key{Root: Mod12(root), Major: major}
}

// ParseKey accepts "C", "Am", "F#m", "Bb major", "c# minor".
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Key{}, fmt.Errorf("empty key")
	}

	pc, n, err := parsePitchClass(s)
	if err != nil {
		return Key{}, fmt.Errorf("invalid key %q: %w", s, err)
	}

	mode := strings.ToLower(strings.TrimSpace(s[n:]))
	switch mode {
	case "", "maj", "major":
		return NewKey(pc, true), nil
	case "m", "min", "minor":
		return NewKey(pc, false), nil
	default:
		return Key{}, fmt.Errorf("invalid key mode %q", mode)
	}
}

// Scale returns the seven diatonic pitch classes starting at the tonic.
// Minor keys use the natural minor scale.
func (k Key) Scale() [7]int {
	steps := majorScale
	if !k.Major {
		steps = minorScale
	}
	var out [7]int
	for i, s := range steps {
		out[i] = Mod12(k.Root + s)
	}
	return out
}

// Contains reports scale membership. In minor the raised leading tone
// counts as diatonic.
func (k Key) Contains(pc int) bool {
	_, ok := k.Degree(pc)
	return ok
}

// Degree returns the 1-based scale degree of pc.
func (k Key) Degree(pc int) (int, bool) {
	pc = Mod12(pc)
	for i, s := range k.Scale() {
		if s == pc {
			return i + 1, true
		}
	}
	if !k.Major && pc == Mod12(k.Root+11) {
		return 7, true
	}
	return 0, false
}

// DegreeRoot returns the pitch class of a 1-based scale degree.
func (k Key) DegreeRoot(degree int) int {
	return k.Scale()[(degree-1)%7]
}

// PrefersFlats reports whether chord names in this key read better with flats.
func (k Key) PrefersFlats() bool {
	if k.Major {
		switch k.Root {
		case 5, 10, 3, 8, 1, 6:
			return true
		}
		return false
	}
	switch k.Root {
	case 2, 7, 0, 5, 10, 3:
		return true
	}
	return false
}

func (k Key) String() string {
	name := PitchClassName(k.Root, k.PrefersFlats())
	if k.Major {
		return name + " major"
	}
	return name + " minor"
}
