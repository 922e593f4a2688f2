package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Conceptual-Machines/magda-harmony/internal/harmony"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
	"github.com/Conceptual-Machines/magda-harmony/internal/voicing"
)

// profileValidate checks decoded profiles. Initialized in init() with the
// "rational" validator.
var profileValidate *validator.Validate

func init() {
	profileValidate = validator.New()
	_ = profileValidate.RegisterValidation("rational", validateRational)
}

// validateRational accepts a positive rational string such as "1/2" or "0.25".
func validateRational(fl validator.FieldLevel) bool {
	r, err := theory.ParseRat(fl.Field().String())
	return err == nil && r.Sign() > 0
}

// VoiceRanges names the four SATB bands for YAML.
type VoiceRanges struct {
	Bass    voicing.Range `yaml:"bass" json:"bass"`
	Tenor   voicing.Range `yaml:"tenor" json:"tenor"`
	Alto    voicing.Range `yaml:"alto" json:"alto"`
	Soprano voicing.Range `yaml:"soprano" json:"soprano"`
}

// Ranges converts to the solver's voice-indexed form.
func (r VoiceRanges) Ranges() voicing.Ranges {
	return voicing.Ranges{
		voicing.Bass:    r.Bass,
		voicing.Tenor:   r.Tenor,
		voicing.Alto:    r.Alto,
		voicing.Soprano: r.Soprano,
	}
}

// Profile is a cost profile: the tunable knobs of both engines.
type Profile struct {
	Weights            voicing.CostWeights `yaml:"weights" json:"weights"`
	Ranges             VoiceRanges         `yaml:"ranges" json:"ranges"`
	Mode               string              `yaml:"mode" json:"mode" validate:"oneof=default strict"`
	EmptyVoicingPolicy string              `yaml:"empty_voicing_policy" json:"empty_voicing_policy" validate:"oneof=widen invalid"`
	Granularity        string              `yaml:"granularity" json:"granularity" validate:"rational"`
	StrictSpacing      bool                `yaml:"strict_spacing" json:"strict_spacing"`
	AllowCrossing      bool                `yaml:"allow_crossing" json:"allow_crossing"`
}

// DefaultProfile mirrors the engines' built-in defaults.
func DefaultProfile() Profile {
	r := voicing.DefaultRanges()
	return Profile{
		Weights: voicing.DefaultWeights(),
		Ranges: VoiceRanges{
			Bass:    r[voicing.Bass],
			Tenor:   r[voicing.Tenor],
			Alto:    r[voicing.Alto],
			Soprano: r[voicing.Soprano],
		},
		Mode:               voicing.ModeDefault.String(),
		EmptyVoicingPolicy: voicing.PolicyWiden.String(),
		Granularity:        harmony.DefaultGranularity.RatString(),
		StrictSpacing:      true,
	}
}

// LoadProfile reads a YAML profile from path over DefaultProfile. An empty
// path returns the defaults.
func LoadProfile(path string) (Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read cost profile: %w", err)
	}
	p, err := ParseProfile(data)
	if err != nil {
		return Profile{}, fmt.Errorf("cost profile %s: %w", path, err)
	}
	return p, nil
}

// ParseProfile decodes YAML over DefaultProfile and validates the result.
// Unknown keys are rejected.
func ParseProfile(data []byte) (Profile, error) {
	p := DefaultProfile()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Profile{}, fmt.Errorf("parse: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Validate checks weights are non-negative, pitches are MIDI, every band has
// low <= high and the enums and granularity parse.
func (p Profile) Validate() error {
	if err := profileValidate.Struct(p); err != nil {
		return fmt.Errorf("invalid: %w", err)
	}
	return nil
}

// SolverOptions builds voice-leading options from the profile. Workers is
// left to the solver default.
func (p Profile) SolverOptions() (voicing.Options, error) {
	mode, err := voicing.ParseMode(p.Mode)
	if err != nil {
		return voicing.Options{}, err
	}
	policy, err := voicing.ParseEmptyVoicingPolicy(p.EmptyVoicingPolicy)
	if err != nil {
		return voicing.Options{}, err
	}
	return voicing.Options{
		Weights:            p.Weights,
		Ranges:             p.Ranges.Ranges(),
		Mode:               mode,
		EmptyVoicingPolicy: policy,
		StrictSpacing:      p.StrictSpacing,
		AllowCrossing:      p.AllowCrossing,
	}, nil
}

// HarmonicRhythm returns the beat granularity as a rational.
func (p Profile) HarmonicRhythm() (*big.Rat, error) {
	return theory.ParseRat(p.Granularity)
}

// TransitionScorer scales the default functional scorer by the profile's
// harmonic function weight.
func (p Profile) TransitionScorer() harmony.FunctionalTransitionScorer {
	s := harmony.DefaultTransitionScorer()
	s.Weight = p.Weights.HarmonicFunction
	return s
}
