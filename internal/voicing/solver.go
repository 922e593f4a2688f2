package voicing

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

// Mode selects how part-writing faults are treated.
type Mode int

const (
	// ModeDefault charges faults as finite penalties.
	ModeDefault Mode = iota
	// ModeStrict prunes any transition with parallel fifths, parallel
	// octaves or voice crossing.
	ModeStrict
)

func (m Mode) String() string {
	if m == ModeStrict {
		return "strict"
	}
	return "default"
}

// ParseMode accepts "default" or "strict".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return ModeDefault, nil
	case "strict":
		return ModeStrict, nil
	}
	return ModeDefault, fmt.Errorf("unknown mode %q", s)
}

// EmptyVoicingPolicy decides what Default mode does with a chord that has
// no voicing inside the configured ranges.
type EmptyVoicingPolicy int

const (
	// PolicyWiden retries once with every range widened by an octave.
	PolicyWiden EmptyVoicingPolicy = iota
	// PolicyInvalid reports the solution as invalid.
	PolicyInvalid
)

func (p EmptyVoicingPolicy) String() string {
	if p == PolicyInvalid {
		return "invalid"
	}
	return "widen"
}

// ParseEmptyVoicingPolicy accepts "widen" or "invalid".
func ParseEmptyVoicingPolicy(s string) (EmptyVoicingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "widen":
		return PolicyWiden, nil
	case "invalid":
		return PolicyInvalid, nil
	}
	return PolicyWiden, fmt.Errorf("unknown empty voicing policy %q", s)
}

// widenSemitones is split across both ends of each range.
const widenSemitones = 6

// Options configures a Solver. It is read-only during a solve.
type Options struct {
	Weights            CostWeights
	Ranges             Ranges
	Mode               Mode
	EmptyVoicingPolicy EmptyVoicingPolicy
	StrictSpacing      bool
	AllowCrossing      bool
	Workers            int
}

// DefaultOptions returns Default mode with the standard weights and ranges.
func DefaultOptions() Options {
	return Options{
		Weights:            DefaultWeights(),
		Ranges:             DefaultRanges(),
		Mode:               ModeDefault,
		EmptyVoicingPolicy: PolicyWiden,
		StrictSpacing:      true,
		Workers:            runtime.GOMAXPROCS(0),
	}
}

// Solution is the chosen voicing sequence. When IsValid is false Voicings is
// empty and Warnings names the chord that could not be voiced or reached.
type Solution struct {
	Chords    []string  `json:"chords"`
	Voicings  []Voicing `json:"voicings"`
	TotalCost float64   `json:"total_cost"`
	IsValid   bool      `json:"is_valid"`
	Warnings  []string  `json:"warnings"`
	Report    *Report   `json:"report,omitempty"`
}

// Solver finds the cheapest voicing path through a chord progression.
type Solver struct {
	opts  Options
	model CostModel
}

// NewSolver creates a solver.
func NewSolver(opts Options) *Solver {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Solver{opts: opts, model: NewCostModel(opts.Weights, opts.Ranges)}
}

// Options returns the solver configuration.
func (s *Solver) Options() Options {
	return s.opts
}

// SolveSymbols parses chord symbols and solves the progression.
func (s *Solver) SolveSymbols(ctx context.Context, symbols []string) (*Solution, error) {
	chords := make([]theory.Chord, len(symbols))
	for i, sym := range symbols {
		c, err := theory.ParseChordSymbol(sym)
		if err != nil {
			return nil, err
		}
		chords[i] = c
	}
	names := make([]string, len(symbols))
	for i, sym := range symbols {
		names[i] = strings.TrimSpace(sym)
	}
	return s.solve(ctx, chords, names)
}

// searchNode lives in the arena. voicing indexes the chord's voicing layer
// and pred is the arena id of the predecessor, -1 at the first chord.
type searchNode struct {
	chord   int
	voicing int
	cost    float64
	pred    int
}

// edgeBest is the cheapest known way into one successor voicing.
type edgeBest struct {
	cost    float64
	pred    int
	reached bool
}

// Solve runs a uniform-cost search over the layered graph of voicings. Layers
// are relaxed in chord order and the context is checked between layers.
func (s *Solver) Solve(ctx context.Context, chords []theory.Chord) (*Solution, error) {
	names := make([]string, len(chords))
	for i, c := range chords {
		names[i] = c.Symbol()
	}
	return s.solve(ctx, chords, names)
}

func (s *Solver) solve(ctx context.Context, chords []theory.Chord, names []string) (*Solution, error) {
	sol := &Solution{
		Chords:   names,
		Voicings: []Voicing{},
		IsValid:  true,
		Warnings: []string{},
	}
	if len(chords) == 0 {
		report := Analyze(nil)
		sol.Report = &report
		return sol, nil
	}

	layers, widened, err := s.expand(chords)
	if err != nil {
		return nil, err
	}
	for i := range chords {
		if len(layers[i]) == 0 {
			sol.IsValid = false
			sol.Warnings = append(sol.Warnings,
				fmt.Sprintf("chord %d (%s): no voicing fits the configured ranges", i, sol.Chords[i]))
			return sol, nil
		}
		if widened[i] {
			sol.Warnings = append(sol.Warnings,
				fmt.Sprintf("chord %d (%s): no voicing fits the configured ranges; ranges widened by an octave", i, sol.Chords[i]))
		}
	}

	total := 0
	for _, l := range layers {
		total += len(l)
	}
	arena := make([]searchNode, 0, total)
	frontier := make([]int, 0, len(layers[0]))
	for v, voicing := range layers[0] {
		arena = append(arena, searchNode{chord: 0, voicing: v, cost: s.model.VoicingCost(voicing), pred: -1})
		frontier = append(frontier, len(arena)-1)
	}

	for i := 1; i < len(chords); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		best, err := s.relax(arena, frontier, layers[i-1], layers[i])
		if err != nil {
			return nil, err
		}
		next := make([]int, 0, len(best))
		for v, b := range best {
			if !b.reached {
				continue
			}
			arena = append(arena, searchNode{chord: i, voicing: v, cost: b.cost, pred: b.pred})
			next = append(next, len(arena)-1)
		}
		if len(next) == 0 {
			sol.IsValid = false
			sol.Warnings = append(sol.Warnings,
				fmt.Sprintf("chord %d (%s): every transition from chord %d breaks the parallel fifth, parallel octave or voice crossing rule",
					i, sol.Chords[i], i-1))
			return sol, nil
		}
		frontier = next
	}

	goal := frontier[0]
	for _, id := range frontier[1:] {
		if arena[id].cost < arena[goal].cost {
			goal = id
		}
	}

	sol.Voicings = make([]Voicing, len(chords))
	for id := goal; id >= 0; id = arena[id].pred {
		n := arena[id]
		sol.Voicings[n.chord] = layers[n.chord][n.voicing]
	}
	sol.TotalCost = arena[goal].cost
	report := Analyze(sol.Voicings)
	sol.Report = &report
	return sol, nil
}

// expand generates every chord's voicings concurrently. Default mode widens
// empty layers once when the policy allows it. Strict mode never generates
// crossed voicings, so chord 0 obeys the crossing rule like every later chord.
func (s *Solver) expand(chords []theory.Chord) ([][]Voicing, []bool, error) {
	gen := Generator{
		Ranges:        s.opts.Ranges,
		StrictSpacing: s.opts.StrictSpacing,
		AllowCrossing: s.opts.AllowCrossing && s.opts.Mode != ModeStrict,
	}
	wide := gen
	wide.Ranges = s.opts.Ranges.Widen(widenSemitones)

	layers := make([][]Voicing, len(chords))
	widened := make([]bool, len(chords))

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, chord := range chords {
		g.Go(func() error {
			layers[i] = gen.VoicingsFor(chord)
			if len(layers[i]) == 0 && s.opts.Mode == ModeDefault && s.opts.EmptyVoicingPolicy == PolicyWiden {
				layers[i] = wide.VoicingsFor(chord)
				widened[i] = len(layers[i]) > 0
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return layers, widened, nil
}

// relax prices every edge from the frontier into the next layer. The
// frontier is split into contiguous chunks; each worker keeps its own best
// table and a single reducer merges them in chunk order, so equal costs keep
// the predecessor with the lowest voicing index.
func (s *Solver) relax(arena []searchNode, frontier []int, prevLayer, nextLayer []Voicing) ([]edgeBest, error) {
	nodeCost := make([]float64, len(nextLayer))
	for v, voicing := range nextLayer {
		nodeCost[v] = s.model.VoicingCost(voicing)
	}

	workers := min(s.opts.Workers, len(frontier))
	chunk := (len(frontier) + workers - 1) / workers
	partial := make([][]edgeBest, workers)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		lo := min(w*chunk, len(frontier))
		hi := min(lo+chunk, len(frontier))
		g.Go(func() error {
			local := make([]edgeBest, len(nextLayer))
			for _, id := range frontier[lo:hi] {
				from := arena[id]
				prev := prevLayer[from.voicing]
				for v, next := range nextLayer {
					edge, fault := s.model.Evaluate(prev, next)
					if s.opts.Mode == ModeStrict && fault.Hard() > 0 {
						continue
					}
					cost := from.cost + edge + nodeCost[v]
					if !local[v].reached || cost < local[v].cost {
						local[v] = edgeBest{cost: cost, pred: id, reached: true}
					}
				}
			}
			partial[w] = local
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := make([]edgeBest, len(nextLayer))
	for _, local := range partial {
		for v, cand := range local {
			if !cand.reached {
				continue
			}
			if !best[v].reached || cand.cost < best[v].cost {
				best[v] = cand
			}
		}
	}
	return best, nil
}
