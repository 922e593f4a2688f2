package theory

import (
	"fmt"
	"math/big"
	"strings"
)

// Note is a single melody event. Start and Duration are measured in whole
// notes (a quarter note has Duration 1/4).
type Note struct {
	Pitch    int      `json:"pitch"`
	Start    *big.Rat `json:"start"`
	Duration *big.Rat `json:"duration"`
	Velocity float64  `json:"velocity"`
}

// End returns Start+Duration as a fresh value.
func (n Note) End() *big.Rat {
	return new(big.Rat).Add(n.Start, n.Duration)
}

// PitchClass returns the note's pitch class (0=C ... 11=B).
func (n Note) PitchClass() int {
	return Mod12(n.Pitch)
}

// Mod12 reduces any integer to 0..11.
func Mod12(v int) int {
	v %= 12
	if v < 0 {
		v += 12
	}
	return v
}

// ParseRat parses "1/4", "0.5" or "2" into a rational.
func ParseRat(s string) (*big.Rat, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return nil, fmt.Errorf("invalid rational %q", s)
	}
	return r, nil
}

// Rat is a shorthand for big.NewRat.
func Rat(a, b int64) *big.Rat {
	return big.NewRat(a, b)
}

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
var flatNames = [12]string{"C", "Db", "D", "Eb", "E", "F", "Gb", "G", "Ab", "A", "Bb", "B"}

// noteOffsets are semitone offsets from C for natural note letters
var noteOffsets = map[byte]int{
	'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11,
}

// PitchClassName spells a pitch class with sharps or flats.
func PitchClassName(pc int, preferFlats bool) string {
	if preferFlats {
		return flatNames[Mod12(pc)]
	}
	return sharpNames[Mod12(pc)]
}

// PitchName returns scientific pitch notation for a MIDI note (60 = "C4").
func PitchName(midi int) string {
	return fmt.Sprintf("%s%d", sharpNames[Mod12(midi)], midi/12-1)
}

// parsePitchClass reads a note letter plus optional accidental from the
// front of s and returns the pitch class and the number of bytes consumed.
func parsePitchClass(s string) (int, int, error) {
	if len(s) == 0 {
		return 0, 0, fmt.Errorf("empty note name")
	}

	offset, ok := noteOffsets[strings.ToUpper(s[:1])[0]]
	if !ok {
		return 0, 0, fmt.Errorf("invalid note letter: %s", s[:1])
	}

	idx := 1
	for idx < len(s) && (s[idx] == '#' || s[idx] == 'b') {
		if s[idx] == '#' {
			offset++
		} else {
			offset--
		}
		idx++
	}

	return Mod12(offset), idx, nil
}

// NoteNameToMIDI converts a note name like "E1", "C4", "F#3", "Bb2" to MIDI note number
// Format: <note><accidental?><octave> where:
//   - note: A-G (case insensitive)
//   - accidental: # (sharp) or b (flat), optional
//   - octave: -1 to 9 (C4 = 60 = middle C)
func NoteNameToMIDI(noteName string) (int, error) {
	noteName = strings.TrimSpace(noteName)
	if len(noteName) < 2 {
		return 0, fmt.Errorf("note name too short: %s", noteName)
	}

	letter := strings.ToUpper(noteName[:1])[0]
	semitone, ok := noteOffsets[letter]
	if !ok {
		return 0, fmt.Errorf("invalid note letter: %c", letter)
	}

	idx := 1
	if noteName[idx] == '#' {
		semitone++
		idx++
	} else if noteName[idx] == 'b' {
		semitone--
		idx++
	}

	if idx >= len(noteName) {
		return 0, fmt.Errorf("missing octave in note name: %s", noteName)
	}

	var octave int
	if _, err := fmt.Sscanf(noteName[idx:], "%d", &octave); err != nil {
		return 0, fmt.Errorf("invalid octave in note name %s: %w", noteName, err)
	}

	// C-1 = 0, C0 = 12, C4 = 60
	midiNote := (octave+1)*12 + semitone
	if midiNote < 0 || midiNote > 127 {
		return 0, fmt.Errorf("note %s out of MIDI range", noteName)
	}

	return midiNote, nil
}

// ParseMelody reads consecutive notes from text such as "C4:1/4 D4:1/8 r:1/8".
// Each token is a note name (or "r" for a rest) and a duration in whole
// notes; onsets follow from the running sum of durations.
func ParseMelody(text string) ([]Note, error) {
	notes := []Note{}
	pos := new(big.Rat)
	for i, tok := range strings.Fields(text) {
		name, durText, ok := strings.Cut(tok, ":")
		if !ok {
			return nil, fmt.Errorf("token %d %q: want NAME:DURATION", i, tok)
		}
		dur, err := ParseRat(durText)
		if err != nil {
			return nil, fmt.Errorf("token %d %q: %w", i, tok, err)
		}
		if dur.Sign() <= 0 {
			return nil, fmt.Errorf("token %d %q: duration must be positive", i, tok)
		}
		if !strings.EqualFold(name, "r") {
			pitch, err := NoteNameToMIDI(name)
			if err != nil {
				return nil, fmt.Errorf("token %d %q: %w", i, tok, err)
			}
			notes = append(notes, Note{
				Pitch:    pitch,
				Start:    new(big.Rat).Set(pos),
				Duration: dur,
				Velocity: defaultVelocity,
			})
		}
		pos.Add(pos, dur)
	}
	return notes, nil
}

const defaultVelocity = 0.8
