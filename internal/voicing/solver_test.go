package voicing

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

// forcedParallels leaves exactly one voicing for C and for D, a whole step apart in every voice.
var forcedParallels = Ranges{
	Bass:    {Low: 48, High: 50},
	Tenor:   {Low: 55, High: 57},
	Alto:    {Low: 60, High: 62},
	Soprano: {Low: 64, High: 66},
}

func TestSolveCadence(t *testing.T) {
	sol, err := NewSolver(DefaultOptions()).SolveSymbols(context.Background(), []string{"C", "F", "G", "C"})
	require.NoError(t, err)

	require.True(t, sol.IsValid)
	require.Len(t, sol.Voicings, 4)
	assert.Empty(t, sol.Warnings)
	assert.Equal(t, []string{"C", "F", "G", "C"}, sol.Chords)

	r := sol.Report
	require.NotNil(t, r)
	assert.Zero(t, r.ParallelFifths)
	assert.Zero(t, r.ParallelOctaves)
	assert.Zero(t, r.HiddenParallels)
	assert.Zero(t, r.VoiceCrossings)
	assert.Zero(t, r.SpacingViolations)
	assert.InDelta(t, r.TotalMovement/3, r.AverageMovement, 1e-9)
	assert.InDelta(t, 100-1.6*r.AverageMovement, r.QualityScore, 1e-9)
	assert.InDelta(t, r.TotalMovement, sol.TotalCost, 1e-9, "a clean path costs only its motion")

	for i, chord := range []string{"C", "F", "G", "C"} {
		v := sol.Voicings[i]
		assert.True(t, v.Ordered())
		assert.Equal(t, mustChord(t, chord).Root, theory.Mod12(v.Bass))
	}
}

func TestSolveDeterministic(t *testing.T) {
	progression := []string{"C", "Am", "Dm7", "G7", "Em", "Am", "F", "G", "C"}

	opts := DefaultOptions()
	opts.Workers = 1
	first, err := NewSolver(opts).SolveSymbols(context.Background(), progression)
	require.NoError(t, err)

	for _, workers := range []int{2, 3, 8, 64} {
		opts.Workers = workers
		again, err := NewSolver(opts).SolveSymbols(context.Background(), progression)
		require.NoError(t, err)
		assert.Equal(t, first, again, "workers=%d", workers)
	}
}

func TestSolveRepeatedChordHoldsVoicing(t *testing.T) {
	sol, err := NewSolver(DefaultOptions()).SolveSymbols(context.Background(), []string{"C", "C"})
	require.NoError(t, err)
	require.True(t, sol.IsValid)
	require.Len(t, sol.Voicings, 2)

	assert.Equal(t, sol.Voicings[0], sol.Voicings[1])
	assert.Zero(t, sol.TotalCost)
	assert.Zero(t, sol.Report.TotalMovement)
}

func TestSolveStrictInfeasible(t *testing.T) {
	opts := DefaultOptions()
	opts.Ranges = forcedParallels
	opts.Mode = ModeStrict

	sol, err := NewSolver(opts).SolveSymbols(context.Background(), []string{"C", "D"})
	require.NoError(t, err)
	assert.False(t, sol.IsValid)
	require.NotEmpty(t, sol.Warnings)
	assert.Contains(t, sol.Warnings[0], "chord 1 (D)")
	assert.Empty(t, sol.Voicings)
}

func TestSolveDefaultChargesForcedParallels(t *testing.T) {
	opts := DefaultOptions()
	opts.Ranges = forcedParallels

	sol, err := NewSolver(opts).SolveSymbols(context.Background(), []string{"C", "D"})
	require.NoError(t, err)
	require.True(t, sol.IsValid)
	assert.Equal(t, []Voicing{{48, 55, 60, 64}, {50, 57, 62, 66}}, sol.Voicings)
	assert.InDelta(t, 8+50+60, sol.TotalCost, 1e-9)
	assert.Equal(t, 1, sol.Report.ParallelFifths)
	assert.Equal(t, 1, sol.Report.ParallelOctaves)
}

func TestSolveStrictHasNoHardFaults(t *testing.T) {
	pool := []string{"C", "Dm", "Em", "F", "G", "Am", "G7", "C/E", "Bdim", "Dm7", "F/A"}
	rng := rand.New(rand.NewSource(7))

	opts := DefaultOptions()
	opts.Mode = ModeStrict
	solver := NewSolver(opts)

	for trial := 0; trial < 40; trial++ {
		n := 2 + rng.Intn(4)
		progression := make([]string, n)
		for i := range progression {
			progression[i] = pool[rng.Intn(len(pool))]
		}

		sol, err := solver.SolveSymbols(context.Background(), progression)
		require.NoError(t, err)
		if !sol.IsValid {
			assert.NotEmpty(t, sol.Warnings)
			continue
		}
		assert.Zero(t, sol.Report.ParallelFifths, "%v", progression)
		assert.Zero(t, sol.Report.ParallelOctaves, "%v", progression)
		assert.Zero(t, sol.Report.VoiceCrossings, "%v", progression)
		for _, v := range sol.Voicings {
			assert.True(t, v.Ordered())
		}
	}
}

func TestSolveStrictIgnoresAllowCrossing(t *testing.T) {
	// Every C voicing here puts the tenor below the bass.
	crossed := Ranges{
		Bass:    {Low: 60, High: 64},
		Tenor:   {Low: 48, High: 55},
		Alto:    {Low: 64, High: 67},
		Soprano: {Low: 67, High: 72},
	}

	t.Run("default honours allow crossing", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Ranges = crossed
		opts.AllowCrossing = true
		sol, err := NewSolver(opts).SolveSymbols(context.Background(), []string{"C"})
		require.NoError(t, err)
		assert.True(t, sol.IsValid)
		assert.Equal(t, 1, sol.Report.VoiceCrossings)
	})

	t.Run("strict rejects a crossed first chord", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Ranges = crossed
		opts.AllowCrossing = true
		opts.Mode = ModeStrict
		for _, progression := range [][]string{{"C"}, {"C", "C"}} {
			sol, err := NewSolver(opts).SolveSymbols(context.Background(), progression)
			require.NoError(t, err)
			assert.False(t, sol.IsValid, "%v", progression)
			assert.Contains(t, sol.Warnings[0], "chord 0 (C)")
		}
	})

	t.Run("strict solutions stay ordered", func(t *testing.T) {
		opts := DefaultOptions()
		opts.AllowCrossing = true
		opts.Mode = ModeStrict
		sol, err := NewSolver(opts).SolveSymbols(context.Background(), []string{"C", "F", "G", "C"})
		require.NoError(t, err)
		require.True(t, sol.IsValid)
		assert.Zero(t, sol.Report.VoiceCrossings)
		for _, v := range sol.Voicings {
			assert.True(t, v.Ordered(), v.String())
		}
	})
}

func TestSolveMatchesExhaustiveSearch(t *testing.T) {
	ranges := Ranges{
		Bass:    {Low: 43, High: 53},
		Tenor:   {Low: 52, High: 60},
		Alto:    {Low: 57, High: 65},
		Soprano: {Low: 64, High: 72},
	}
	opts := DefaultOptions()
	opts.Ranges = ranges
	model := NewCostModel(opts.Weights, ranges)
	gen := NewGenerator(ranges)

	for _, progression := range [][]string{{"C", "F", "G"}, {"Am", "Dm", "E"}, {"C", "G/B", "Am"}} {
		layers := make([][]Voicing, len(progression))
		for i, sym := range progression {
			layers[i] = gen.VoicingsFor(mustChord(t, sym))
			require.NotEmpty(t, layers[i], sym)
		}

		best := math.Inf(1)
		var walk func(i int, prev Voicing, cost float64)
		walk = func(i int, prev Voicing, cost float64) {
			if i == len(layers) {
				best = math.Min(best, cost)
				return
			}
			for _, v := range layers[i] {
				step := model.VoicingCost(v)
				if i > 0 {
					step += model.TransitionCost(prev, v)
				}
				walk(i+1, v, cost+step)
			}
		}
		walk(0, Voicing{}, 0)

		sol, err := NewSolver(opts).SolveSymbols(context.Background(), progression)
		require.NoError(t, err)
		require.True(t, sol.IsValid)
		assert.InDelta(t, best, sol.TotalCost, 1e-9, "%v", progression)
	}
}

func TestSolveEmptyVoicingPolicies(t *testing.T) {
	narrow := Ranges{
		Bass:    {Low: 60, High: 61},
		Tenor:   {Low: 60, High: 61},
		Alto:    {Low: 60, High: 61},
		Soprano: {Low: 60, High: 61},
	}

	t.Run("widen", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Ranges = narrow
		sol, err := NewSolver(opts).SolveSymbols(context.Background(), []string{"C"})
		require.NoError(t, err)
		assert.True(t, sol.IsValid)
		require.Len(t, sol.Warnings, 1)
		assert.Contains(t, sol.Warnings[0], "widened")
		require.Len(t, sol.Voicings, 1)
		assert.Greater(t, sol.TotalCost, 0.0, "widened voicings pay the range penalty")
	})

	t.Run("invalid", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Ranges = narrow
		opts.EmptyVoicingPolicy = PolicyInvalid
		sol, err := NewSolver(opts).SolveSymbols(context.Background(), []string{"C"})
		require.NoError(t, err)
		assert.False(t, sol.IsValid)
		assert.Contains(t, sol.Warnings[0], "chord 0 (C)")
	})

	t.Run("strict never widens", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Ranges = narrow
		opts.Mode = ModeStrict
		sol, err := NewSolver(opts).SolveSymbols(context.Background(), []string{"C"})
		require.NoError(t, err)
		assert.False(t, sol.IsValid)
		assert.NotEmpty(t, sol.Warnings)
	})
}

func TestSolveEmptyProgression(t *testing.T) {
	sol, err := NewSolver(DefaultOptions()).Solve(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, sol.IsValid)
	assert.Empty(t, sol.Voicings)
	assert.Zero(t, sol.TotalCost)
}

func TestSolveInvalidSymbol(t *testing.T) {
	_, err := NewSolver(DefaultOptions()).SolveSymbols(context.Background(), []string{"C", "Hm"})
	var symErr *theory.InvalidChordSymbolError
	require.True(t, errors.As(err, &symErr))
	assert.Equal(t, "Hm", symErr.Symbol)
}

func TestSolveRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSolver(DefaultOptions()).SolveSymbols(ctx, []string{"C", "G"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseModeAndPolicy(t *testing.T) {
	m, err := ParseMode("Strict")
	require.NoError(t, err)
	assert.Equal(t, ModeStrict, m)
	_, err = ParseMode("lenient")
	assert.Error(t, err)

	p, err := ParseEmptyVoicingPolicy("invalid")
	require.NoError(t, err)
	assert.Equal(t, PolicyInvalid, p)
	_, err = ParseEmptyVoicingPolicy("relax")
	assert.Error(t, err)
}

func TestAnalyze(t *testing.T) {
	voicings := []Voicing{
		{48, 55, 60, 64},
		{50, 57, 62, 66},
		{50, 57, 62, 81},
	}
	r := Analyze(voicings)
	assert.InDelta(t, 8+15, r.TotalMovement, 1e-9)
	assert.InDelta(t, 11.5, r.AverageMovement, 1e-9)
	assert.Equal(t, 1, r.ParallelFifths)
	assert.Equal(t, 1, r.ParallelOctaves)
	assert.Equal(t, 1, r.SpacingViolations)
	assert.InDelta(t, 2.0, r.MovementByVoice["bass"], 1e-9)
	assert.InDelta(t, 17.0, r.MovementByVoice["soprano"], 1e-9)
	assert.InDelta(t, 100-1.6*11.5-20-5, r.QualityScore, 1e-9)

	empty := Analyze(nil)
	assert.Equal(t, 100.0, empty.QualityScore)
}
