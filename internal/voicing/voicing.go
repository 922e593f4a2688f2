package voicing

import (
	"fmt"

	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

// Voice indexes the four parts from the bottom up.
type Voice int

const (
	Bass Voice = iota
	Tenor
	Alto
	Soprano
)

var voiceNames = [4]string{"bass", "tenor", "alto", "soprano"}

func (v Voice) String() string {
	return voiceNames[v]
}

// Range is an inclusive MIDI pitch band.
type Range struct {
	Low  int `json:"low" yaml:"low" validate:"gte=0,lte=127"`
	High int `json:"high" yaml:"high" validate:"gte=0,lte=127,gtefield=Low"`
}

// Contains reports whether pitch lies in the band.
func (r Range) Contains(pitch int) bool {
	return pitch >= r.Low && pitch <= r.High
}

// Distance is how many semitones pitch lies outside the band.
func (r Range) Distance(pitch int) int {
	switch {
	case pitch < r.Low:
		return r.Low - pitch
	case pitch > r.High:
		return pitch - r.High
	}
	return 0
}

// Ranges holds one band per voice, indexed by Voice.
type Ranges [4]Range

// DefaultRanges are the customary SATB tessituras.
func DefaultRanges() Ranges {
	return Ranges{
		Bass:    {Low: 40, High: 60},
		Tenor:   {Low: 48, High: 67},
		Alto:    {Low: 55, High: 74},
		Soprano: {Low: 60, High: 79},
	}
}

// Widen extends every band by semitones on both sides, clamped to MIDI.
func (r Ranges) Widen(semitones int) Ranges {
	out := r
	for v := range out {
		out[v].Low = max(0, out[v].Low-semitones)
		out[v].High = min(127, out[v].High+semitones)
	}
	return out
}

// Voicing is one SATB pitch assignment.
type Voicing struct {
	Bass    int `json:"bass"`
	Tenor   int `json:"tenor"`
	Alto    int `json:"alto"`
	Soprano int `json:"soprano"`
}

// Pitches returns the voicing indexed by Voice.
func (v Voicing) Pitches() [4]int {
	return [4]int{v.Bass, v.Tenor, v.Alto, v.Soprano}
}

// FromPitches builds a voicing from a bass-first array.
func FromPitches(p [4]int) Voicing {
	return Voicing{Bass: p[Bass], Tenor: p[Tenor], Alto: p[Alto], Soprano: p[Soprano]}
}

// Ordered reports bass <= tenor <= alto <= soprano.
func (v Voicing) Ordered() bool {
	return v.Bass <= v.Tenor && v.Tenor <= v.Alto && v.Alto <= v.Soprano
}

func (v Voicing) String() string {
	return fmt.Sprintf("S:%s A:%s T:%s B:%s",
		theory.PitchName(v.Soprano), theory.PitchName(v.Alto),
		theory.PitchName(v.Tenor), theory.PitchName(v.Bass))
}
