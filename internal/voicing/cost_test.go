package voicing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name       string
		prev, next Voicing
		want       Violations
	}{
		{
			name: "parallel fifth and octave in block motion",
			prev: Voicing{Bass: 48, Tenor: 55, Alto: 60, Soprano: 64},
			next: Voicing{Bass: 50, Tenor: 57, Alto: 62, Soprano: 66},
			want: Violations{ParallelFifths: 1, ParallelOctaves: 1},
		},
		{
			name: "contrary motion avoids parallels",
			prev: Voicing{Bass: 48, Tenor: 55, Alto: 64, Soprano: 72},
			next: Voicing{Bass: 53, Tenor: 57, Alto: 65, Soprano: 69},
			want: Violations{},
		},
		{
			name: "held fifth is not parallel",
			prev: Voicing{Bass: 48, Tenor: 55, Alto: 64, Soprano: 72},
			next: Voicing{Bass: 48, Tenor: 55, Alto: 65, Soprano: 69},
			want: Violations{},
		},
		{
			name: "compound fifths in similar motion",
			prev: Voicing{Bass: 48, Tenor: 55, Alto: 64, Soprano: 67},
			next: Voicing{Bass: 43, Tenor: 55, Alto: 62, Soprano: 62},
			want: Violations{ParallelFifths: 1},
		},
		{
			name: "hidden octave in outer voices",
			prev: Voicing{Bass: 48, Tenor: 55, Alto: 60, Soprano: 64},
			next: Voicing{Bass: 55, Tenor: 59, Alto: 62, Soprano: 67},
			want: Violations{HiddenParallels: 1},
		},
		{
			name: "stepwise soprano is not hidden",
			prev: Voicing{Bass: 48, Tenor: 55, Alto: 64, Soprano: 65},
			next: Voicing{Bass: 55, Tenor: 59, Alto: 62, Soprano: 67},
			want: Violations{},
		},
		{
			name: "crossing in target",
			prev: Voicing{Bass: 48, Tenor: 55, Alto: 64, Soprano: 72},
			next: Voicing{Bass: 48, Tenor: 67, Alto: 64, Soprano: 72},
			want: Violations{VoiceCrossings: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.prev, tt.next))
		})
	}
}

func TestEvaluate(t *testing.T) {
	m := NewCostModel(DefaultWeights(), DefaultRanges())
	prev := Voicing{Bass: 48, Tenor: 55, Alto: 60, Soprano: 64}
	next := Voicing{Bass: 50, Tenor: 57, Alto: 62, Soprano: 66}

	cost, v := m.Evaluate(prev, next)
	assert.Equal(t, 2, v.Hard())
	assert.InDelta(t, 8+50+60, cost, 1e-9)
	assert.InDelta(t, cost, m.TransitionCost(prev, next), 1e-9)
	assert.Zero(t, m.TransitionCost(prev, prev))
}

func TestEvaluateIsDirectional(t *testing.T) {
	m := NewCostModel(DefaultWeights(), DefaultRanges())
	c := Voicing{Bass: 48, Tenor: 55, Alto: 60, Soprano: 64}
	g := Voicing{Bass: 55, Tenor: 59, Alto: 62, Soprano: 67}

	assert.NotEqual(t, m.TransitionCost(c, g), m.TransitionCost(g, c))
}

func TestVoicingCost(t *testing.T) {
	m := NewCostModel(DefaultWeights(), DefaultRanges())

	assert.Zero(t, m.VoicingCost(Voicing{Bass: 48, Tenor: 55, Alto: 64, Soprano: 72}))
	assert.InDelta(t, 10*2, m.VoicingCost(Voicing{Bass: 38, Tenor: 55, Alto: 64, Soprano: 72}), 1e-9)
	assert.InDelta(t, 5*3, m.VoicingCost(Voicing{Bass: 48, Tenor: 55, Alto: 60, Soprano: 75}), 1e-9)
	assert.Zero(t, m.VoicingCost(Voicing{Bass: 40, Tenor: 60, Alto: 64, Soprano: 67}), "tenor-bass gap is exempt")
}

func TestMotion(t *testing.T) {
	assert.Equal(t, 0, Motion(Voicing{48, 55, 64, 72}, Voicing{48, 55, 64, 72}))
	assert.Equal(t, 9, Motion(Voicing{48, 55, 64, 72}, Voicing{53, 57, 65, 71}))
}
