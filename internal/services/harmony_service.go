package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/Conceptual-Machines/magda-harmony/internal/config"
	"github.com/Conceptual-Machines/magda-harmony/internal/database"
	"github.com/Conceptual-Machines/magda-harmony/internal/harmony"
	"github.com/Conceptual-Machines/magda-harmony/internal/logger"
	"github.com/Conceptual-Machines/magda-harmony/internal/metrics"
	"github.com/Conceptual-Machines/magda-harmony/internal/models"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
	"github.com/Conceptual-Machines/magda-harmony/internal/voicing"
)

// ErrPersistenceDisabled is returned by run lookups when no database is configured.
var ErrPersistenceDisabled = errors.New("run persistence is disabled")

// InvalidOptionsError reports request options that fail validation.
type InvalidOptionsError struct {
	Reason string
}

func (e *InvalidOptionsError) Error() string {
	return "invalid options: " + e.Reason
}

// RunStore persists runs. *database.Store implements it.
type RunStore interface {
	SaveRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, id string) (*models.Run, error)
	ListRuns(ctx context.Context, f database.RunFilter) ([]models.Run, error)
}

// HarmonyService runs the harmonizer and voice-leading solver under a per-call
// deadline, records metrics and stores each successful call.
type HarmonyService struct {
	profile     config.Profile
	granularity *big.Rat
	timeout     time.Duration

	store      RunStore
	collector  *metrics.Collector
	sentry     *metrics.SentryMetrics
	cloudwatch *metrics.Client
}

// ServiceOption wires optional collaborators.
type ServiceOption func(*HarmonyService)

// WithStore enables run persistence.
func WithStore(store RunStore) ServiceOption {
	return func(s *HarmonyService) { s.store = store }
}

// WithCollector records Prometheus metrics.
func WithCollector(c *metrics.Collector) ServiceOption {
	return func(s *HarmonyService) { s.collector = c }
}

// WithSentryMetrics records Sentry spans.
func WithSentryMetrics(m *metrics.SentryMetrics) ServiceOption {
	return func(s *HarmonyService) { s.sentry = m }
}

// WithCloudWatch publishes CloudWatch metrics.
func WithCloudWatch(c *metrics.Client) ServiceOption {
	return func(s *HarmonyService) { s.cloudwatch = c }
}

func NewHarmonyService(profile config.Profile, timeout time.Duration, opts ...ServiceOption) (*HarmonyService, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	g, err := profile.HarmonicRhythm()
	if err != nil {
		return nil, err
	}
	s := &HarmonyService{profile: profile, granularity: g, timeout: timeout}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Profile returns the loaded cost profile.
func (s *HarmonyService) Profile() config.Profile {
	return s.profile
}

// PersistenceEnabled reports whether runs are stored.
func (s *HarmonyService) PersistenceEnabled() bool {
	return s.store != nil
}

// Harmonize picks a chord sequence for the request's melody.
func (s *HarmonyService) Harmonize(ctx context.Context, req models.HarmonizeRequest, userID string) (*models.HarmonizeResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	resp, err := s.harmonize(ctx, req)
	duration := time.Since(start)
	s.record(ctx, models.RunKindHarmonize, duration, err, true)
	if err != nil {
		return nil, err
	}

	logger.LogSolve(ctx, models.RunKindHarmonize, duration, logger.Fields{
		"key":        resp.Key,
		"segments":   len(resp.Chords),
		"total_cost": resp.TotalCost,
		"user_id":    userID,
	})
	resp.RunID = s.persist(ctx, &models.Run{
		Kind:       models.RunKindHarmonize,
		Key:        resp.Key,
		TotalCost:  resp.TotalCost,
		IsValid:    true,
		DurationMs: duration.Milliseconds(),
		UserID:     userID,
	}, req, resp)
	return resp, nil
}

// VoiceLead voices the request's chord progression in four parts.
func (s *HarmonyService) VoiceLead(ctx context.Context, req models.VoiceLeadRequest, userID string) (*models.VoiceLeadResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	sol, err := s.voiceLead(ctx, req.Chords, req.Voicing)
	duration := time.Since(start)
	s.record(ctx, models.RunKindVoiceLead, duration, err, err == nil && sol.IsValid)
	if err != nil {
		return nil, err
	}

	logger.LogSolve(ctx, models.RunKindVoiceLead, duration, logger.Fields{
		"chords":     len(sol.Chords),
		"total_cost": sol.TotalCost,
		"is_valid":   sol.IsValid,
		"user_id":    userID,
	})
	if !sol.IsValid {
		logger.Warn("Voice-leading found no valid solution", logger.Fields{"warnings": sol.Warnings})
	}

	resp := &models.VoiceLeadResponse{Solution: sol}
	resp.RunID = s.persist(ctx, &models.Run{
		Kind:       models.RunKindVoiceLead,
		TotalCost:  sol.TotalCost,
		IsValid:    sol.IsValid,
		DurationMs: duration.Milliseconds(),
		UserID:     userID,
	}, req, resp)
	return resp, nil
}

// Arrange harmonizes a melody and voice-leads the chosen chords. Both stages
// share one deadline.
func (s *HarmonyService) Arrange(ctx context.Context, req models.ArrangeRequest, userID string) (*models.ArrangeResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	resp, err := s.arrange(ctx, req)
	duration := time.Since(start)
	s.record(ctx, models.RunKindArrange, duration, err, err == nil && resp.Voicing.IsValid)
	if err != nil {
		return nil, err
	}

	logger.LogSolve(ctx, models.RunKindArrange, duration, logger.Fields{
		"key":        resp.Harmonization.Key,
		"segments":   len(resp.Harmonization.Chords),
		"total_cost": resp.Voicing.TotalCost,
		"is_valid":   resp.Voicing.IsValid,
		"user_id":    userID,
	})
	resp.RunID = s.persist(ctx, &models.Run{
		Kind:       models.RunKindArrange,
		Key:        resp.Harmonization.Key,
		TotalCost:  resp.Harmonization.TotalCost + resp.Voicing.TotalCost,
		IsValid:    resp.Voicing.IsValid,
		DurationMs: duration.Milliseconds(),
		UserID:     userID,
	}, req, resp)
	return resp, nil
}

// GetRun loads a stored run.
func (s *HarmonyService) GetRun(ctx context.Context, id string) (*models.Run, error) {
	if s.store == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.store.GetRun(ctx, id)
}

// ListRuns lists stored runs, newest first.
func (s *HarmonyService) ListRuns(ctx context.Context, f database.RunFilter) ([]models.RunSummary, error) {
	if s.store == nil {
		return nil, ErrPersistenceDisabled
	}
	runs, err := s.store.ListRuns(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]models.RunSummary, len(runs))
	for i, r := range runs {
		out[i] = r.Summary()
	}
	return out, nil
}

func (s *HarmonyService) harmonize(ctx context.Context, req models.HarmonizeRequest) (*models.HarmonizeResponse, error) {
	key, err := theory.ParseKey(req.Key)
	if err != nil {
		return nil, &harmony.InvalidInputError{Index: -1, Reason: err.Error()}
	}
	notes, err := req.Notes()
	if err != nil {
		return nil, err
	}
	h, err := s.harmonizer(req)
	if err != nil {
		return nil, err
	}

	result, err := h.Harmonize(ctx, notes, key)
	if err != nil {
		return nil, err
	}
	return &models.HarmonizeResponse{Key: key.String(), Chords: result.Chords, TotalCost: result.TotalCost}, nil
}

func (s *HarmonyService) voiceLead(ctx context.Context, chords []string, in *models.VoicingInput) (*voicing.Solution, error) {
	opts, err := s.solverOptions(in)
	if err != nil {
		return nil, err
	}
	return voicing.NewSolver(opts).SolveSymbols(ctx, chords)
}

func (s *HarmonyService) arrange(ctx context.Context, req models.ArrangeRequest) (*models.ArrangeResponse, error) {
	harm, err := s.harmonize(ctx, req.HarmonizeRequest)
	if err != nil {
		return nil, err
	}
	symbols := make([]string, len(harm.Chords))
	for i, c := range harm.Chords {
		symbols[i] = c.Symbol
	}
	sol, err := s.voiceLead(ctx, symbols, req.Voicing)
	if err != nil {
		return nil, err
	}
	return &models.ArrangeResponse{Harmonization: *harm, Voicing: sol}, nil
}

// harmonizer builds a harmonizer from the profile and request overrides.
func (s *HarmonyService) harmonizer(req models.HarmonizeRequest) (*harmony.Harmonizer, error) {
	rhythm, err := s.rhythm(req.Rhythm)
	if err != nil {
		return nil, err
	}

	provider := harmony.DefaultProvider()
	if c := req.Candidates; c != nil {
		if c.IncludeSevenths != nil {
			provider.IncludeSevenths = *c.IncludeSevenths
		}
		if c.IncludeSecondaryDominants != nil {
			provider.IncludeSecondaryDominants = *c.IncludeSecondaryDominants
		}
		if c.IncludeBorrowed != nil {
			provider.IncludeBorrowed = *c.IncludeBorrowed
		}
		if c.MaxChromatic != nil {
			provider.MaxChromatic = *c.MaxChromatic
		}
	}

	return harmony.NewHarmonizer(
		harmony.WithRhythm(rhythm),
		harmony.WithProvider(provider),
		harmony.WithTransitionScorer(s.profile.TransitionScorer()),
	), nil
}

func (s *HarmonyService) rhythm(in *models.RhythmInput) (harmony.RhythmStrategy, error) {
	if in == nil {
		return harmony.BeatStrategy{Granularity: s.granularity}, nil
	}

	positive := func(field, text string) (*big.Rat, error) {
		r, err := theory.ParseRat(text)
		if err != nil || r.Sign() <= 0 {
			return nil, &InvalidOptionsError{Reason: fmt.Sprintf("%s must be a positive rational, got %q", field, text)}
		}
		return r, nil
	}

	switch in.Strategy {
	case "", "beat":
		if in.Granularity == "" {
			return harmony.BeatStrategy{Granularity: s.granularity}, nil
		}
		g, err := positive("granularity", in.Granularity)
		if err != nil {
			return nil, err
		}
		return harmony.BeatStrategy{Granularity: g}, nil
	case "rest":
		if in.MinRest == "" {
			return harmony.RestStrategy{}, nil
		}
		r, err := positive("min_rest", in.MinRest)
		if err != nil {
			return nil, err
		}
		return harmony.RestStrategy{MinRest: r}, nil
	case "count":
		if in.Count <= 0 {
			return nil, &InvalidOptionsError{Reason: "count must be positive"}
		}
		return harmony.NoteCountStrategy{Count: in.Count}, nil
	}
	return nil, &InvalidOptionsError{Reason: fmt.Sprintf("unknown rhythm strategy %q", in.Strategy)}
}

// solverOptions applies request overrides to a copy of the profile and
// validates the result.
func (s *HarmonyService) solverOptions(in *models.VoicingInput) (voicing.Options, error) {
	p := s.profile
	if in != nil {
		if in.Mode != "" {
			p.Mode = in.Mode
		}
		if in.EmptyVoicingPolicy != "" {
			p.EmptyVoicingPolicy = in.EmptyVoicingPolicy
		}
		if in.Weights != nil {
			p.Weights = *in.Weights
		}
		if in.Ranges != nil {
			p.Ranges = *in.Ranges
		}
		if in.AllowCrossing != nil {
			p.AllowCrossing = *in.AllowCrossing
		}
		if in.StrictSpacing != nil {
			p.StrictSpacing = *in.StrictSpacing
		}
	}
	if err := p.Validate(); err != nil {
		return voicing.Options{}, &InvalidOptionsError{Reason: err.Error()}
	}
	opts, err := p.SolverOptions()
	if err != nil {
		return voicing.Options{}, &InvalidOptionsError{Reason: err.Error()}
	}
	return opts, nil
}

func (s *HarmonyService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// record feeds every configured metrics sink.
func (s *HarmonyService) record(ctx context.Context, kind string, duration time.Duration, err error, valid bool) {
	outcome := metrics.OutcomeOK
	switch {
	case err != nil:
		outcome = metrics.OutcomeError
	case !valid:
		outcome = metrics.OutcomeInvalid
	}

	if s.collector != nil {
		s.collector.RecordSolve(kind, outcome, duration)
	}
	if s.sentry != nil {
		s.sentry.RecordSolve(ctx, kind, duration, outcome == metrics.OutcomeOK)
	}
	if s.cloudwatch != nil && err == nil {
		s.cloudwatch.RecordSolve(kind, duration, valid)
	}
}

// persist stores the run and returns its id, or "" when persistence is off
// or the write failed. Failures are logged and never surface to the caller.
func (s *HarmonyService) persist(ctx context.Context, run *models.Run, input, output any) string {
	if s.store == nil {
		return ""
	}

	run.ID = uuid.NewString()
	in, err := json.Marshal(input)
	if err == nil {
		var out []byte
		out, err = json.Marshal(output)
		run.Input, run.Output = string(in), string(out)
	}
	if err == nil {
		err = s.store.SaveRun(context.WithoutCancel(ctx), run)
	}
	if err != nil {
		logger.Error("Failed to persist run", err, logger.Fields{"kind": run.Kind, "run_id": run.ID})
		return ""
	}
	return run.ID
}
