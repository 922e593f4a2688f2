package voicing

import (
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

// maxUpperGap is the widest allowed interval between adjacent upper voices.
const maxUpperGap = 12

// Generator enumerates complete SATB voicings of a chord.
type Generator struct {
	Ranges        Ranges
	StrictSpacing bool
	AllowCrossing bool
}

// NewGenerator returns a generator with close upper-voice spacing enforced.
func NewGenerator(r Ranges) Generator {
	return Generator{Ranges: r, StrictSpacing: true}
}

// pitchesIn lists, in ascending order, every pitch of rng whose pitch class is in set.
func pitchesIn(rng Range, set theory.PitchClassSet) []int {
	var out []int
	for p := rng.Low; p <= rng.High; p++ {
		if set.Has(p) {
			out = append(out, p)
		}
	}
	return out
}

// VoicingsFor returns every voicing of chord within the ranges. The bass
// carries the chord's bass pitch class, all chord tones sound, and chords
// with four or more tones may drop the fifth. The result is ordered by bass,
// tenor, alto, then soprano pitch. An empty result means the chord does not
// fit.
func (g Generator) VoicingsFor(chord theory.Chord) []Voicing {
	set := chord.Set()
	required := set
	if set.Len() >= 4 {
		if pcs := chord.PitchClasses(); len(pcs) >= 3 && pcs[2] != chord.Bass {
			required = required.Minus(theory.NewPitchClassSet(pcs[2]))
		}
	}
	if required.Len() > 4 {
		return nil
	}

	bass := pitchesIn(g.Ranges[Bass], theory.NewPitchClassSet(chord.Bass))
	tenor := pitchesIn(g.Ranges[Tenor], set)
	alto := pitchesIn(g.Ranges[Alto], set)
	soprano := pitchesIn(g.Ranges[Soprano], set)

	var out []Voicing
	for _, b := range bass {
		for _, t := range tenor {
			if !g.AllowCrossing && t < b {
				continue
			}
			for _, a := range alto {
				if !g.AllowCrossing && a < t {
					continue
				}
				if g.StrictSpacing && a-t > maxUpperGap {
					continue
				}
				for _, s := range soprano {
					if !g.AllowCrossing && s < a {
						continue
					}
					if g.StrictSpacing && s-a > maxUpperGap {
						continue
					}
					sounding := theory.NewPitchClassSet(b, t, a, s)
					if sounding&required != required {
						continue
					}
					out = append(out, Voicing{Bass: b, Tenor: t, Alto: a, Soprano: s})
				}
			}
		}
	}
	return out
}
