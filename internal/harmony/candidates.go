package harmony

import (
	"sort"

	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

// Function is the harmonic role of a chord within the key.
type Function int

const (
	FunctionTonic Function = iota
	FunctionSubdominant
	FunctionDominant
	FunctionChromatic
)

func (f Function) String() string {
	switch f {
	case FunctionTonic:
		return "tonic"
	case FunctionSubdominant:
		return "subdominant"
	case FunctionDominant:
		return "dominant"
	}
	return "chromatic"
}

// Kind tells diatonic candidates from the chromatic ones.
type Kind int

const (
	KindDiatonic Kind = iota
	KindSecondaryDominant
	KindBorrowed
)

func (k Kind) String() string {
	switch k {
	case KindDiatonic:
		return "diatonic"
	case KindSecondaryDominant:
		return "secondary_dominant"
	}
	return "borrowed"
}

// Candidate is one chord proposed for a segment. Degree is 1..7 for diatonic
// chords and 0 for chromatic ones. TargetRoot is only meaningful for
// secondary dominants.
type Candidate struct {
	Symbol     string               `json:"symbol"`
	Numeral    string               `json:"numeral"`
	Root       int                  `json:"root"`
	Quality    theory.Quality       `json:"quality"`
	Degree     int                  `json:"degree"`
	Kind       Kind                 `json:"kind"`
	Function   Function             `json:"function"`
	TargetRoot int                  `json:"target_root"`
	Mask       theory.PitchClassSet `json:"mask"`
}

// Chord returns the root-position chord of the candidate.
func (c Candidate) Chord() theory.Chord {
	return theory.NewChord(c.Root, c.Quality)
}

// Same reports whether two candidates name the same chord.
func (c Candidate) Same(o Candidate) bool {
	return c.Root == o.Root && c.Quality == o.Quality
}

// CandidateProvider proposes chords for one segment. The returned order is
// deterministic and is the tie-break order of the harmonizer.
type CandidateProvider interface {
	Candidates(seg Segment, notes []theory.Note, key theory.Key) []Candidate
}

// TonalProvider offers the diatonic chords touching the melody, and
// chromatic chords when the melody leaves the key.
type TonalProvider struct {
	IncludeSevenths           bool
	IncludeSecondaryDominants bool
	IncludeBorrowed           bool
	MaxChromatic              int
}

// DefaultProvider returns the provider used when none is configured.
func DefaultProvider() TonalProvider {
	return TonalProvider{
		IncludeSecondaryDominants: true,
		IncludeBorrowed:           true,
		MaxChromatic:              3,
	}
}

// degreeFunctions maps scale degrees to their usual function.
var degreeFunctions = [8]Function{
	0: FunctionChromatic,
	1: FunctionTonic,
	2: FunctionSubdominant,
	3: FunctionTonic,
	4: FunctionSubdominant,
	5: FunctionDominant,
	6: FunctionTonic,
	7: FunctionDominant,
}

// Candidates implements CandidateProvider.
func (p TonalProvider) Candidates(seg Segment, notes []theory.Note, key theory.Key) []Candidate {
	if len(seg.NoteIndices) == 0 {
		return []Candidate{diatonicChord(key, 1, false)}
	}

	melody := segmentPitchClasses(seg, notes)
	out := make([]Candidate, 0, 10)
	for degree := 1; degree <= 7; degree++ {
		triad := diatonicChord(key, degree, false)
		if triad.Mask.Intersects(melody) {
			out = appendUnique(out, triad)
		}
		if p.IncludeSevenths || degree == 5 {
			seventh := diatonicChord(key, degree, true)
			if seventh.Mask.Intersects(melody) {
				out = appendUnique(out, seventh)
			}
		}
	}

	var chromaticTones theory.PitchClassSet
	for _, pc := range melody.Slice() {
		if !key.Contains(pc) {
			chromaticTones = chromaticTones.Add(pc)
		}
	}
	if chromaticTones == 0 || p.MaxChromatic <= 0 {
		return out
	}

	var chromatic []Candidate
	if p.IncludeSecondaryDominants {
		chromatic = append(chromatic, secondaryDominants(key, p.IncludeSevenths)...)
	}
	if p.IncludeBorrowed {
		chromatic = append(chromatic, borrowedChords(key)...)
	}
	sort.SliceStable(chromatic, func(i, j int) bool {
		ri := theory.Mod12(chromatic[i].Root - key.Root)
		rj := theory.Mod12(chromatic[j].Root - key.Root)
		if ri != rj {
			return ri < rj
		}
		return chromatic[i].Quality < chromatic[j].Quality
	})

	added := 0
	for _, c := range chromatic {
		if added >= p.MaxChromatic {
			break
		}
		if !c.Mask.Intersects(chromaticTones) {
			continue
		}
		before := len(out)
		out = appendUnique(out, c)
		if len(out) > before {
			added++
		}
	}
	return out
}

func appendUnique(list []Candidate, c Candidate) []Candidate {
	for _, existing := range list {
		if existing.Same(c) {
			return list
		}
	}
	return append(list, c)
}

// diatonicTones stacks thirds on a degree. Minor keys raise the leading
// tone for V and vii.
func diatonicTones(key theory.Key, degree int, seventh bool) []int {
	scale := key.Scale()
	if !key.Major && (degree == 5 || degree == 7) {
		scale[6] = theory.Mod12(key.Root + 11)
	}
	count := 3
	if seventh {
		count = 4
	}
	tones := make([]int, count)
	for i := 0; i < count; i++ {
		tones[i] = scale[(degree-1+2*i)%7]
	}
	return tones
}

// diatonicChord names the chord built on a scale degree.
func diatonicChord(key theory.Key, degree int, seventh bool) Candidate {
	tones := diatonicTones(key, degree, seventh)
	root := tones[0]
	quality := theory.QualityMajor
	if id, ok := theory.Identify(theory.NewPitchClassSet(tones...)); ok {
		quality = id.Quality
	}
	chord := theory.NewChord(root, quality)
	return Candidate{
		Symbol:   chord.SymbolWith(spellWithFlats(key, root)),
		Numeral:  numeral(key, root, quality),
		Root:     root,
		Quality:  quality,
		Degree:   degree,
		Kind:     KindDiatonic,
		Function: degreeFunctions[degree],
		Mask:     chord.Set(),
	}
}

// secondaryDominants returns V/x (and V7/x) for every major or minor
// diatonic target that is not the tonic.
func secondaryDominants(key theory.Key, sevenths bool) []Candidate {
	var out []Candidate
	for degree := 2; degree <= 7; degree++ {
		target := diatonicChord(key, degree, false)
		if target.Quality != theory.QualityMajor && target.Quality != theory.QualityMinor {
			continue
		}
		qualities := []theory.Quality{theory.QualityMajor}
		if sevenths {
			qualities = append(qualities, theory.QualityDominant7)
		}
		for _, q := range qualities {
			root := theory.Mod12(target.Root + 7)
			chord := theory.NewChord(root, q)
			if isDiatonicChord(key, chord) {
				continue
			}
			prefix := "V/"
			if q == theory.QualityDominant7 {
				prefix = "V7/"
			}
			out = append(out, Candidate{
				Symbol:     chord.SymbolWith(spellWithFlats(key, root)),
				Numeral:    prefix + target.Numeral,
				Root:       root,
				Quality:    q,
				Kind:       KindSecondaryDominant,
				Function:   FunctionChromatic,
				TargetRoot: target.Root,
				Mask:       chord.Set(),
			})
		}
	}
	return out
}

// borrowedChords returns mode-mixture chords from the parallel key.
func borrowedChords(key theory.Key) []Candidate {
	type borrowed struct {
		interval int
		quality  theory.Quality
		function Function
	}
	var specs []borrowed
	if key.Major {
		specs = []borrowed{
			{3, theory.QualityMajor, FunctionTonic},
			{5, theory.QualityMinor, FunctionSubdominant},
			{8, theory.QualityMajor, FunctionSubdominant},
			{10, theory.QualityMajor, FunctionDominant},
		}
	} else {
		specs = []borrowed{
			{0, theory.QualityMajor, FunctionTonic},
			{5, theory.QualityMajor, FunctionSubdominant},
		}
	}

	out := make([]Candidate, 0, len(specs))
	for _, s := range specs {
		root := theory.Mod12(key.Root + s.interval)
		chord := theory.NewChord(root, s.quality)
		if isDiatonicChord(key, chord) {
			continue
		}
		out = append(out, Candidate{
			Symbol:   chord.SymbolWith(spellWithFlats(key, root)),
			Numeral:  numeral(key, root, s.quality),
			Root:     root,
			Quality:  s.quality,
			Kind:     KindBorrowed,
			Function: s.function,
			Mask:     chord.Set(),
		})
	}
	return out
}

func isDiatonicChord(key theory.Key, chord theory.Chord) bool {
	for degree := 1; degree <= 7; degree++ {
		for _, seventh := range []bool{false, true} {
			c := diatonicChord(key, degree, seventh)
			if c.Root == chord.Root && c.Quality == chord.Quality {
				return true
			}
		}
	}
	return false
}
