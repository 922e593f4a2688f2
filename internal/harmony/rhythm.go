package harmony

import (
	"math/big"

	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

// Segment is a span of the melody that receives one chord. NoteIndices
// point into the melody slice the segment was built from.
type Segment struct {
	Start       *big.Rat `json:"start"`
	End         *big.Rat `json:"end"`
	NoteIndices []int    `json:"note_indices"`
}

// RhythmStrategy partitions a time-ordered melody into contiguous segments.
// Every note lands in exactly one segment, by onset.
type RhythmStrategy interface {
	Segment(notes []theory.Note, key theory.Key) ([]Segment, error)
}

// DefaultGranularity is one chord per half note.
var DefaultGranularity = big.NewRat(1, 2)

// validateMelody checks ordering and timing of the input notes.
func validateMelody(notes []theory.Note) error {
	zero := new(big.Rat)
	for i, n := range notes {
		if n.Start == nil || n.Duration == nil {
			return &InvalidInputError{Index: i, Reason: "missing start or duration"}
		}
		if n.Start.Cmp(zero) < 0 {
			return &InvalidInputError{Index: i, Reason: "negative start"}
		}
		if n.Duration.Cmp(zero) <= 0 {
			return &InvalidInputError{Index: i, Reason: "duration must be positive"}
		}
		if n.Pitch < 0 || n.Pitch > 127 {
			return &InvalidInputError{Index: i, Reason: "pitch out of MIDI range"}
		}
		if i > 0 && n.Start.Cmp(notes[i-1].Start) < 0 {
			return &InvalidInputError{Index: i, Reason: "melody is not time-ordered"}
		}
	}
	return nil
}

// maxEnd returns the latest note end in the melody.
func maxEnd(notes []theory.Note) *big.Rat {
	end := new(big.Rat)
	for _, n := range notes {
		if e := n.End(); e.Cmp(end) > 0 {
			end = e
		}
	}
	return end
}

// closeSegments fills in End for each segment: the next segment's start,
// and the melody end for the last one.
func closeSegments(segs []Segment, notes []theory.Note) []Segment {
	for i := range segs {
		if i+1 < len(segs) {
			segs[i].End = new(big.Rat).Set(segs[i+1].Start)
		} else {
			segs[i].End = maxEnd(notes)
		}
	}
	return segs
}

// BeatStrategy opens a segment on every grid window of Granularity that
// contains a note onset. Empty windows are absorbed by the preceding segment.
type BeatStrategy struct {
	Granularity *big.Rat
}

func (s BeatStrategy) Segment(notes []theory.Note, _ theory.Key) ([]Segment, error) {
	if err := validateMelody(notes); err != nil {
		return nil, err
	}
	g := s.Granularity
	if g == nil || g.Sign() <= 0 {
		g = DefaultGranularity
	}

	segs := []Segment{}
	var current *big.Int
	for i, n := range notes {
		q := new(big.Rat).Quo(n.Start, g)
		window := new(big.Int).Quo(q.Num(), q.Denom())
		if current == nil || window.Cmp(current) != 0 {
			current = window
			start := new(big.Rat).Mul(new(big.Rat).SetInt(window), g)
			segs = append(segs, Segment{Start: start})
		}
		last := &segs[len(segs)-1]
		last.NoteIndices = append(last.NoteIndices, i)
	}
	return closeSegments(segs, notes), nil
}

// RestStrategy starts a new segment whenever a note begins at least MinRest
// after every earlier note has ended. A nil MinRest means any gap.
type RestStrategy struct {
	MinRest *big.Rat
}

func (s RestStrategy) Segment(notes []theory.Note, _ theory.Key) ([]Segment, error) {
	if err := validateMelody(notes); err != nil {
		return nil, err
	}

	segs := []Segment{}
	var sounding *big.Rat
	for i, n := range notes {
		newSegment := sounding == nil
		if sounding != nil {
			gap := new(big.Rat).Sub(n.Start, sounding)
			if s.MinRest == nil {
				newSegment = gap.Sign() > 0
			} else {
				newSegment = gap.Sign() > 0 && gap.Cmp(s.MinRest) >= 0
			}
		}
		if newSegment {
			segs = append(segs, Segment{Start: new(big.Rat).Set(n.Start)})
		}
		last := &segs[len(segs)-1]
		last.NoteIndices = append(last.NoteIndices, i)

		if e := n.End(); sounding == nil || e.Cmp(sounding) > 0 {
			sounding = e
		}
	}
	return closeSegments(segs, notes), nil
}

// NoteCountStrategy groups Count consecutive notes per segment. Notes that
// share an onset with the last note of a group stay in that group.
type NoteCountStrategy struct {
	Count int
}

func (s NoteCountStrategy) Segment(notes []theory.Note, _ theory.Key) ([]Segment, error) {
	if err := validateMelody(notes); err != nil {
		return nil, err
	}
	if s.Count <= 0 {
		return nil, &InvalidInputError{Index: -1, Reason: "note count must be positive"}
	}

	segs := []Segment{}
	for i, n := range notes {
		if len(segs) > 0 {
			last := &segs[len(segs)-1]
			prev := notes[last.NoteIndices[len(last.NoteIndices)-1]]
			if len(last.NoteIndices) < s.Count || prev.Start.Cmp(n.Start) == 0 {
				last.NoteIndices = append(last.NoteIndices, i)
				continue
			}
		}
		segs = append(segs, Segment{Start: new(big.Rat).Set(n.Start), NoteIndices: []int{i}})
	}
	return closeSegments(segs, notes), nil
}

// segmentPitchClasses returns the pitch classes sounding in a segment.
func segmentPitchClasses(seg Segment, notes []theory.Note) theory.PitchClassSet {
	var set theory.PitchClassSet
	for _, idx := range seg.NoteIndices {
		set = set.Add(notes[idx].Pitch)
	}
	return set
}
