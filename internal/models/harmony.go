package models

import (
	"errors"

	"github.com/Conceptual-Machines/magda-harmony/internal/config"
	"github.com/Conceptual-Machines/magda-harmony/internal/harmony"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
	"github.com/Conceptual-Machines/magda-harmony/internal/voicing"
)

// NoteInput is one melody note on the wire. Pitch may be given as a MIDI
// number or a note name ("C4"); Start and Duration are rational strings in
// whole notes ("1/4").
type NoteInput struct {
	Pitch    *int    `json:"pitch,omitempty" binding:"omitempty,gte=0,lte=127"`
	Name     string  `json:"name,omitempty"`
	Start    string  `json:"start" binding:"required"`
	Duration string  `json:"duration" binding:"required"`
	Velocity float64 `json:"velocity" binding:"gte=0,lte=1"`
}

// RhythmInput selects the harmonic rhythm strategy
type RhythmInput struct {
	Strategy    string `json:"strategy" binding:"omitempty,oneof=beat rest count"` // default "beat"
	Granularity string `json:"granularity,omitempty"`                              // beat: rational window
	MinRest     string `json:"min_rest,omitempty"`                                 // rest: shortest gap that splits
	Count       int    `json:"count,omitempty" binding:"gte=0"`                    // count: notes per segment
}

// CandidateInput toggles the chord vocabulary
type CandidateInput struct {
	IncludeSevenths           *bool `json:"include_sevenths,omitempty"`
	IncludeSecondaryDominants *bool `json:"include_secondary_dominants,omitempty"`
	IncludeBorrowed           *bool `json:"include_borrowed,omitempty"`
	MaxChromatic              *int  `json:"max_chromatic,omitempty" binding:"omitempty,gte=0"`
}

// VoicingInput overrides the loaded cost profile for one request
type VoicingInput struct {
	Mode               string               `json:"mode,omitempty" binding:"omitempty,oneof=default strict"`
	EmptyVoicingPolicy string               `json:"empty_voicing_policy,omitempty" binding:"omitempty,oneof=widen invalid"`
	Weights            *voicing.CostWeights `json:"weights,omitempty"`
	Ranges             *config.VoiceRanges  `json:"ranges,omitempty"`
	AllowCrossing      *bool                `json:"allow_crossing,omitempty"`
	StrictSpacing      *bool                `json:"strict_spacing,omitempty"`
}

// HarmonizeRequest asks for a chord sequence under a melody
type HarmonizeRequest struct {
	Key        string          `json:"key" binding:"required"`
	Melody     []NoteInput     `json:"melody" binding:"dive"`
	Rhythm     *RhythmInput    `json:"rhythm,omitempty"`
	Candidates *CandidateInput `json:"candidates,omitempty"`
}

// HarmonizeResponse is the chosen chord timeline
type HarmonizeResponse struct {
	Key       string               `json:"key"`
	Chords    []harmony.ChordEvent `json:"chords"`
	TotalCost float64              `json:"total_cost"`
	RunID     string               `json:"run_id,omitempty"`
}

// VoiceLeadRequest asks for SATB voicings of a chord progression
type VoiceLeadRequest struct {
	Chords  []string      `json:"chords"`
	Voicing *VoicingInput `json:"voicing,omitempty"`
}

// VoiceLeadResponse wraps the solver output
type VoiceLeadResponse struct {
	*voicing.Solution
	RunID string `json:"run_id,omitempty"`
}

// ArrangeRequest harmonizes a melody and voice-leads the result
type ArrangeRequest struct {
	HarmonizeRequest
	Voicing *VoicingInput `json:"voicing,omitempty"`
}

// ArrangeResponse carries both stages
type ArrangeResponse struct {
	Harmonization HarmonizeResponse `json:"harmonization"`
	Voicing       *voicing.Solution `json:"voicing"`
	RunID         string            `json:"run_id,omitempty"`
}

var errMissingPitch = errors.New("note needs a pitch or a name")

// Notes converts wire notes to theory notes. Failures are reported as
// *harmony.InvalidInputError naming the offending note.
func (r HarmonizeRequest) Notes() ([]theory.Note, error) {
	notes := make([]theory.Note, len(r.Melody))
	for i, in := range r.Melody {
		n, err := in.Note()
		if err != nil {
			return nil, &harmony.InvalidInputError{Index: i, Reason: err.Error()}
		}
		notes[i] = n
	}
	return notes, nil
}

// Note converts one wire note.
func (n NoteInput) Note() (theory.Note, error) {
	var pitch int
	switch {
	case n.Pitch != nil:
		pitch = *n.Pitch
	case n.Name != "":
		p, err := theory.NoteNameToMIDI(n.Name)
		if err != nil {
			return theory.Note{}, err
		}
		pitch = p
	default:
		return theory.Note{}, errMissingPitch
	}

	start, err := theory.ParseRat(n.Start)
	if err != nil {
		return theory.Note{}, err
	}
	dur, err := theory.ParseRat(n.Duration)
	if err != nil {
		return theory.Note{}, err
	}
	return theory.Note{Pitch: pitch, Start: start, Duration: dur, Velocity: n.Velocity}, nil
}

// NoteInputs converts parsed notes back to the wire form.
func NoteInputs(notes []theory.Note) []NoteInput {
	out := make([]NoteInput, len(notes))
	for i, n := range notes {
		pitch := n.Pitch
		out[i] = NoteInput{
			Pitch:    &pitch,
			Start:    n.Start.RatString(),
			Duration: n.Duration.RatString(),
			Velocity: n.Velocity,
		}
	}
	return out
}
