package harmony

import (
	"math/big"

	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

// FitScorer prices a candidate against the melody of one segment.
// Implementations must be pure and return values >= 0.
type FitScorer interface {
	FitCost(c Candidate, seg Segment, notes []theory.Note, key theory.Key) float64
}

// TransitionScorer prices moving from one candidate to the next.
// Implementations must be pure and return values >= 0.
type TransitionScorer interface {
	TransitionCost(from, to Candidate) float64
}

// FitScorerFunc adapts a function to FitScorer.
type FitScorerFunc func(c Candidate, seg Segment, notes []theory.Note, key theory.Key) float64

func (f FitScorerFunc) FitCost(c Candidate, seg Segment, notes []theory.Note, key theory.Key) float64 {
	return f(c, seg, notes, key)
}

// ChordPrior prices a candidate on its own, once per segment it occupies.
// Implementations must be pure and return values >= 0.
type ChordPrior interface {
	PriorCost(c Candidate) float64
}

// RepetitionScorer is implemented by transition scorers that let a chord be
// held for RepeatTolerance consecutive repetitions for free and charge
// RepeatCost for each repetition past that. The pairwise TransitionCost of a
// repeated chord must not include this charge.
type RepetitionScorer interface {
	TransitionScorer
	RepeatTolerance() int
	RepeatCost() float64
}

// TransitionScorerFunc adapts a function to TransitionScorer.
type TransitionScorerFunc func(from, to Candidate) float64

func (f TransitionScorerFunc) TransitionCost(from, to Candidate) float64 {
	return f(from, to)
}

// TonalFitScorer charges non-chord tones by their share of the segment's
// sounding time and doubles the charge for tones outside the key. A segment
// whose notes are all chord tones costs nothing.
type TonalFitScorer struct {
	NonChordTone    float64
	ChromaticFactor float64
}

// DefaultFitScorer returns the tuned fit scorer.
func DefaultFitScorer() TonalFitScorer {
	return TonalFitScorer{
		NonChordTone:    1.0,
		ChromaticFactor: 2.0,
	}
}

// FitCost implements FitScorer.
func (s TonalFitScorer) FitCost(c Candidate, seg Segment, notes []theory.Note, key theory.Key) float64 {
	if len(seg.NoteIndices) == 0 {
		return 0
	}

	total := new(big.Rat)
	for _, idx := range seg.NoteIndices {
		total.Add(total, notes[idx].Duration)
	}
	totalF, _ := total.Float64()
	if totalF <= 0 {
		return 0
	}

	var cost float64
	for _, idx := range seg.NoteIndices {
		n := notes[idx]
		if c.Mask.Has(n.Pitch) {
			continue
		}
		d, _ := n.Duration.Float64()
		penalty := s.NonChordTone * d / totalF
		if !key.Contains(n.Pitch) {
			penalty *= s.ChromaticFactor
		}
		cost += penalty
	}
	return cost
}

// TonalPrior charges each chord by scale degree and quality, independent of
// the melody. Degree is indexed 1..7; chromatic chords pay Chromatic.
type TonalPrior struct {
	Degree    [8]float64
	Seventh   float64
	Chromatic float64
}

// DefaultPrior favours the tonic, then the primary triads.
func DefaultPrior() TonalPrior {
	return TonalPrior{
		Degree:    [8]float64{0, 0, 0.3, 0.5, 0.2, 0.2, 0.4, 0.8},
		Seventh:   0.1,
		Chromatic: 0.6,
	}
}

// PriorCost implements ChordPrior.
func (p TonalPrior) PriorCost(c Candidate) float64 {
	if c.Kind != KindDiatonic {
		return p.Chromatic
	}
	cost := p.Degree[c.Degree]
	if c.Quality.IsSeventh() {
		cost += p.Seventh
	}
	return cost
}

// FunctionalTransitionScorer follows tonic/subdominant/dominant practice.
// Matrix is indexed [from][to] over the three diatonic functions. Moving to
// the same chord costs nothing; holding it past Tolerance repetitions costs
// RepeatPenalty per extra segment.
type FunctionalTransitionScorer struct {
	Matrix              [3][3]float64
	Tolerance           int
	RepeatPenalty       float64
	SecondaryResolution float64
	SecondaryDeceptive  float64
	IntoSecondary       float64
	Weight              float64
}

// DefaultTransitionScorer returns the tuned transition scorer.
func DefaultTransitionScorer() FunctionalTransitionScorer {
	return FunctionalTransitionScorer{
		Matrix: [3][3]float64{
			FunctionTonic:       {FunctionTonic: 0.3, FunctionSubdominant: 0.1, FunctionDominant: 0.7},
			FunctionSubdominant: {FunctionTonic: 0.6, FunctionSubdominant: 0.3, FunctionDominant: 0.1},
			FunctionDominant:    {FunctionTonic: 0.5, FunctionSubdominant: 1.2, FunctionDominant: 0.4},
		},
		Tolerance:           1,
		RepeatPenalty:       0.8,
		SecondaryResolution: 0.1,
		SecondaryDeceptive:  1.0,
		IntoSecondary:       0.6,
		Weight:              1.0,
	}
}

// TransitionCost implements TransitionScorer.
func (s FunctionalTransitionScorer) TransitionCost(from, to Candidate) float64 {
	return s.Weight * s.raw(from, to)
}

// RepeatTolerance implements RepetitionScorer.
func (s FunctionalTransitionScorer) RepeatTolerance() int { return s.Tolerance }

// RepeatCost implements RepetitionScorer.
func (s FunctionalTransitionScorer) RepeatCost() float64 { return s.Weight * s.RepeatPenalty }

func (s FunctionalTransitionScorer) raw(from, to Candidate) float64 {
	if from.Same(to) {
		return 0
	}
	if from.Kind == KindSecondaryDominant {
		if to.Root == from.TargetRoot {
			return s.SecondaryResolution
		}
		return s.SecondaryDeceptive
	}
	if to.Kind == KindSecondaryDominant {
		return s.IntoSecondary
	}
	return s.Matrix[from.Function][to.Function]
}
