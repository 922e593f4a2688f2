package voicing

// CostWeights prices each voice-leading concern. HarmonicFunction scales
// chord-to-chord function costs in the harmonizer.
type CostWeights struct {
	Motion           float64 `json:"motion" yaml:"motion" validate:"gte=0"`
	ParallelFifth    float64 `json:"parallel_fifth" yaml:"parallel_fifth" validate:"gte=0"`
	ParallelOctave   float64 `json:"parallel_octave" yaml:"parallel_octave" validate:"gte=0"`
	VoiceCrossing    float64 `json:"voice_crossing" yaml:"voice_crossing" validate:"gte=0"`
	HiddenParallel   float64 `json:"hidden_parallel" yaml:"hidden_parallel" validate:"gte=0"`
	Range            float64 `json:"range" yaml:"range" validate:"gte=0"`
	Spacing          float64 `json:"spacing" yaml:"spacing" validate:"gte=0"`
	HarmonicFunction float64 `json:"harmonic_function" yaml:"harmonic_function" validate:"gte=0"`
}

// DefaultWeights returns the weights used when no profile is loaded.
func DefaultWeights() CostWeights {
	return CostWeights{
		Motion:           1,
		ParallelFifth:    50,
		ParallelOctave:   60,
		VoiceCrossing:    40,
		HiddenParallel:   4,
		Range:            10,
		Spacing:          5,
		HarmonicFunction: 1,
	}
}

// Violations counts part-writing faults in one transition.
type Violations struct {
	ParallelFifths  int `json:"parallel_fifths"`
	ParallelOctaves int `json:"parallel_octaves"`
	HiddenParallels int `json:"hidden_parallels"`
	VoiceCrossings  int `json:"voice_crossings"`
}

// Hard is the number of faults that Strict mode refuses.
func (v Violations) Hard() int {
	return v.ParallelFifths + v.ParallelOctaves + v.VoiceCrossings
}

// CostModel scores single voicings and transitions between them.
type CostModel struct {
	Weights CostWeights
	Ranges  Ranges
}

// NewCostModel creates a cost model.
func NewCostModel(w CostWeights, r Ranges) CostModel {
	return CostModel{Weights: w, Ranges: r}
}

// VoicingCost charges pitches outside their range and upper-voice gaps wider
// than an octave, per semitone. The tenor-bass gap is never charged.
func (m CostModel) VoicingCost(v Voicing) float64 {
	p := v.Pitches()
	outside := 0
	for voice := Bass; voice <= Soprano; voice++ {
		outside += m.Ranges[voice].Distance(p[voice])
	}
	return m.Weights.Range*float64(outside) + m.Weights.Spacing*float64(spacingExcess(v))
}

// TransitionCost is Evaluate without the violation counts.
func (m CostModel) TransitionCost(prev, next Voicing) float64 {
	cost, _ := m.Evaluate(prev, next)
	return cost
}

// Evaluate prices moving from prev to next: semitone motion plus a penalty
// per detected fault.
func (m CostModel) Evaluate(prev, next Voicing) (float64, Violations) {
	v := Detect(prev, next)
	w := m.Weights
	cost := w.Motion*float64(Motion(prev, next)) +
		w.ParallelFifth*float64(v.ParallelFifths) +
		w.ParallelOctave*float64(v.ParallelOctaves) +
		w.VoiceCrossing*float64(v.VoiceCrossings) +
		w.HiddenParallel*float64(v.HiddenParallels)
	return cost, v
}

// Motion is the summed absolute semitone movement of the four voices.
func Motion(prev, next Voicing) int {
	p, n := prev.Pitches(), next.Pitches()
	total := 0
	for i := range p {
		total += abs(n[i] - p[i])
	}
	return total
}

// Detect finds parallel fifths and octaves between any two voices, hidden
// fifths and octaves between the outer voices, and crossings in next.
//
// Two voices move in parallel when both move in the same direction and the
// interval between them, reduced mod 12, is the same perfect fifth or
// octave/unison before and after. A hidden parallel is similar motion of bass
// and soprano into a fifth or octave that was not one before, with a soprano
// leap wider than a whole step.
func Detect(prev, next Voicing) Violations {
	var v Violations
	p, n := prev.Pitches(), next.Pitches()

	for i := 0; i < len(p); i++ {
		for j := i + 1; j < len(p); j++ {
			mi, mj := n[i]-p[i], n[j]-p[j]
			if !similarMotion(mi, mj) {
				continue
			}
			before := abs(p[j]-p[i]) % 12
			after := abs(n[j]-n[i]) % 12
			switch {
			case before == 7 && after == 7:
				v.ParallelFifths++
			case before == 0 && after == 0:
				v.ParallelOctaves++
			}
		}
	}

	mb, ms := n[Bass]-p[Bass], n[Soprano]-p[Soprano]
	if similarMotion(mb, ms) && abs(ms) > 2 {
		before := abs(p[Soprano]-p[Bass]) % 12
		after := abs(n[Soprano]-n[Bass]) % 12
		if (after == 0 || after == 7) && before != after {
			v.HiddenParallels++
		}
	}

	v.VoiceCrossings = crossings(next)
	return v
}

// crossings counts adjacent voice pairs sounding out of order.
func crossings(v Voicing) int {
	p := v.Pitches()
	count := 0
	for i := 0; i+1 < len(p); i++ {
		if p[i] > p[i+1] {
			count++
		}
	}
	return count
}

// spacingExcess is the number of semitones by which the soprano-alto and
// alto-tenor gaps exceed an octave.
func spacingExcess(v Voicing) int {
	excess := 0
	if gap := v.Soprano - v.Alto; gap > maxUpperGap {
		excess += gap - maxUpperGap
	}
	if gap := v.Alto - v.Tenor; gap > maxUpperGap {
		excess += gap - maxUpperGap
	}
	return excess
}

// spacingViolations counts upper-voice gaps wider than an octave.
func spacingViolations(v Voicing) int {
	count := 0
	if v.Soprano-v.Alto > maxUpperGap {
		count++
	}
	if v.Alto-v.Tenor > maxUpperGap {
		count++
	}
	return count
}

func similarMotion(a, b int) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
