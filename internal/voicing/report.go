package voicing

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Report summarizes the part-writing quality of a voicing sequence.
type Report struct {
	TotalMovement     float64            `json:"total_movement"`
	AverageMovement   float64            `json:"average_movement"`
	MovementStdDev    float64            `json:"movement_stddev"`
	MovementByVoice   map[string]float64 `json:"movement_by_voice"`
	ParallelFifths    int                `json:"parallel_fifths"`
	ParallelOctaves   int                `json:"parallel_octaves"`
	HiddenParallels   int                `json:"hidden_parallels"`
	VoiceCrossings    int                `json:"voice_crossings"`
	SpacingViolations int                `json:"spacing_violations"`
	QualityScore      float64            `json:"quality_score"`
}

// Quality score deductions.
const (
	motionDeduction    = 1.6
	hardFaultDeduction = 10
	softFaultDeduction = 5
	maxQualityScore    = 100
)

// Analyze counts motion and faults across a voicing sequence and rates it
// from 0 to 100.
func Analyze(voicings []Voicing) Report {
	r := Report{MovementByVoice: make(map[string]float64, 4)}

	perVoice := make([]float64, 4)
	moves := make([]float64, 0, len(voicings))
	for i, v := range voicings {
		r.SpacingViolations += spacingViolations(v)
		if i == 0 {
			r.VoiceCrossings += crossings(v)
			continue
		}

		prev := voicings[i-1]
		p, n := prev.Pitches(), v.Pitches()
		step := make([]float64, 4)
		for voice := range p {
			step[voice] = math.Abs(float64(n[voice] - p[voice]))
		}
		floats.Add(perVoice, step)
		moves = append(moves, floats.Sum(step))

		fault := Detect(prev, v)
		r.ParallelFifths += fault.ParallelFifths
		r.ParallelOctaves += fault.ParallelOctaves
		r.HiddenParallels += fault.HiddenParallels
		r.VoiceCrossings += fault.VoiceCrossings
	}

	for voice := Bass; voice <= Soprano; voice++ {
		r.MovementByVoice[voice.String()] = perVoice[voice]
	}
	if len(moves) > 0 {
		r.TotalMovement = floats.Sum(moves)
		r.AverageMovement = stat.Mean(moves, nil)
	}
	if len(moves) > 1 {
		r.MovementStdDev = stat.StdDev(moves, nil)
	}

	score := maxQualityScore -
		motionDeduction*r.AverageMovement -
		hardFaultDeduction*float64(r.ParallelFifths+r.ParallelOctaves+r.VoiceCrossings) -
		softFaultDeduction*float64(r.HiddenParallels+r.SpacingViolations)
	r.QualityScore = math.Max(0, math.Min(maxQualityScore, score))
	return r
}
