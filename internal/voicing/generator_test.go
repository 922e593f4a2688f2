package voicing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

func mustChord(t *testing.T, symbol string) theory.Chord {
	t.Helper()
	c, err := theory.ParseChordSymbol(symbol)
	require.NoError(t, err)
	return c
}

func TestVoicingsForInvariants(t *testing.T) {
	gen := NewGenerator(DefaultRanges())

	for _, symbol := range []string{"C", "Dm", "G7", "Bdim", "C/E", "F/C", "Am7", "Bbmaj7"} {
		t.Run(symbol, func(t *testing.T) {
			chord := mustChord(t, symbol)
			voicings := gen.VoicingsFor(chord)
			require.NotEmpty(t, voicings)

			set := chord.Set()
			for _, v := range voicings {
				assert.True(t, v.Ordered(), v.String())
				assert.Equal(t, chord.Bass, theory.Mod12(v.Bass), v.String())
				for voice, p := range v.Pitches() {
					assert.True(t, DefaultRanges()[voice].Contains(p), "%s out of range in %s", Voice(voice), v)
					assert.True(t, set.Has(p), "non-chord tone in %s", v)
				}
				assert.LessOrEqual(t, v.Soprano-v.Alto, 12)
				assert.LessOrEqual(t, v.Alto-v.Tenor, 12)
			}
		})
	}
}

func TestVoicingsForCompleteness(t *testing.T) {
	gen := NewGenerator(DefaultRanges())

	for _, v := range gen.VoicingsFor(mustChord(t, "C")) {
		sounding := theory.NewPitchClassSet(v.Bass, v.Tenor, v.Alto, v.Soprano)
		assert.Equal(t, mustChord(t, "C").Set(), sounding, v.String())
	}

	omitted := false
	for _, v := range gen.VoicingsFor(mustChord(t, "G7")) {
		sounding := theory.NewPitchClassSet(v.Bass, v.Tenor, v.Alto, v.Soprano)
		assert.True(t, sounding.Has(7) && sounding.Has(11) && sounding.Has(5), v.String())
		if !sounding.Has(2) {
			omitted = true
		}
	}
	assert.True(t, omitted, "seventh chords may drop the fifth")
}

func TestVoicingsForStableOrder(t *testing.T) {
	gen := NewGenerator(DefaultRanges())
	voicings := gen.VoicingsFor(mustChord(t, "F"))

	less := func(a, b Voicing) bool {
		pa, pb := a.Pitches(), b.Pitches()
		for i := range pa {
			if pa[i] != pb[i] {
				return pa[i] < pb[i]
			}
		}
		return false
	}
	for i := 1; i < len(voicings); i++ {
		assert.True(t, less(voicings[i-1], voicings[i]), "%s before %s", voicings[i-1], voicings[i])
	}
	assert.Equal(t, voicings, gen.VoicingsFor(mustChord(t, "F")))
}

func TestVoicingsForSpacingOptional(t *testing.T) {
	strict := NewGenerator(DefaultRanges())
	loose := strict
	loose.StrictSpacing = false

	c := mustChord(t, "C")
	assert.Greater(t, len(loose.VoicingsFor(c)), len(strict.VoicingsFor(c)))
}

func TestVoicingsForCrossing(t *testing.T) {
	gen := NewGenerator(DefaultRanges())
	gen.AllowCrossing = true

	crossed := false
	for _, v := range gen.VoicingsFor(mustChord(t, "C")) {
		if !v.Ordered() {
			crossed = true
			break
		}
	}
	assert.True(t, crossed)
}

func TestVoicingsForImpossibleRanges(t *testing.T) {
	narrow := Ranges{
		Bass:    {Low: 60, High: 61},
		Tenor:   {Low: 60, High: 61},
		Alto:    {Low: 60, High: 61},
		Soprano: {Low: 60, High: 61},
	}
	assert.Empty(t, NewGenerator(narrow).VoicingsFor(mustChord(t, "C")))
	assert.NotEmpty(t, NewGenerator(narrow.Widen(widenSemitones)).VoicingsFor(mustChord(t, "C")))
}

func TestRanges(t *testing.T) {
	r := Range{Low: 48, High: 60}
	assert.True(t, r.Contains(48))
	assert.False(t, r.Contains(61))
	assert.Equal(t, 3, r.Distance(45))
	assert.Equal(t, 2, r.Distance(62))
	assert.Equal(t, 0, r.Distance(50))

	w := Ranges{{Low: 2, High: 125}}.Widen(6)
	assert.Equal(t, Range{Low: 0, High: 127}, w[Bass])
}
