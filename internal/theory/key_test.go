package theory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		input       string
		want        Key
		expectError bool
	}{
		{"C", Key{Root: 0, Major: true}, false},
		{"Am", Key{Root: 9, Major: false}, false},
		{"F#m", Key{Root: 6, Major: false}, false},
		{"Bb major", Key{Root: 10, Major: true}, false},
		{"c# minor", Key{Root: 1, Major: false}, false},
		{"", Key{}, true},
		{"X", Key{}, true},
		{"C dorian", Key{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			key, err := ParseKey(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}
}

func TestKeyDegree(t *testing.T) {
	c := NewKey(0, true)
	deg, ok := c.Degree(7)
	require.True(t, ok)
	assert.Equal(t, 5, deg)
	_, ok = c.Degree(6)
	assert.False(t, ok)

	a := NewKey(9, false)
	deg, ok = a.Degree(7)
	require.True(t, ok, "natural seventh")
	assert.Equal(t, 7, deg)
	deg, ok = a.Degree(8)
	require.True(t, ok, "leading tone")
	assert.Equal(t, 7, deg)
	assert.False(t, a.Contains(1))

	assert.Equal(t, 4, c.DegreeRoot(3))
	assert.Equal(t, 0, a.DegreeRoot(3))
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "C major", NewKey(0, true).String())
	assert.Equal(t, "Bb major", NewKey(10, true).String())
	assert.Equal(t, "F# minor", NewKey(6, false).String())
	assert.Equal(t, "D minor", NewKey(2, false).String())
}

func TestNoteNameToMIDI(t *testing.T) {
	tests := []struct {
		name        string
		expected    int
		expectError bool
	}{
		{"C4", 60, false},
		{"A4", 69, false},
		{"E1", 28, false},
		{"F#3", 54, false},
		{"Bb2", 46, false},
		{"C-1", 0, false},
		{"c5", 72, false},
		{"H4", 0, true},
		{"C", 0, true},
		{"C#", 0, true},
		{"G10", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NoteNameToMIDI(tt.name)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNoteHelpers(t *testing.T) {
	n := Note{Pitch: 61, Start: Rat(1, 4), Duration: Rat(1, 8)}
	assert.Equal(t, 1, n.PitchClass())
	assert.Equal(t, "3/8", n.End().RatString())
	assert.Equal(t, "C#4", PitchName(61))
	assert.Equal(t, 11, Mod12(-1))

	r, err := ParseRat("0.5")
	require.NoError(t, err)
	assert.Equal(t, "1/2", r.RatString())
	_, err = ParseRat("half")
	assert.Error(t, err)
}

func TestParseMelody(t *testing.T) {
	notes, err := ParseMelody("C4:1/4 r:1/8 E4:1/8 G4:1/2")
	require.NoError(t, err)
	require.Len(t, notes, 3)

	assert.Equal(t, []int{60, 64, 67}, []int{notes[0].Pitch, notes[1].Pitch, notes[2].Pitch})
	assert.Equal(t, "0", notes[0].Start.RatString())
	assert.Equal(t, "3/8", notes[1].Start.RatString())
	assert.Equal(t, "1/2", notes[2].Start.RatString())
	assert.Equal(t, "1", notes[2].End().RatString())

	empty, err := ParseMelody("   ")
	require.NoError(t, err)
	assert.Empty(t, empty)

	for _, bad := range []string{"C4", "C4:0", "C4:x", "H4:1/4", "C4:-1/4"} {
		_, err := ParseMelody(bad)
		assert.Error(t, err, bad)
	}
}
