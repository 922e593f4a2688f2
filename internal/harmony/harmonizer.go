package harmony

import (
	"context"
	"math"
	"math/big"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

// ChordEvent is one chord of a harmonization, placed on its segment.
type ChordEvent struct {
	Start    *big.Rat `json:"start"`
	End      *big.Rat `json:"end"`
	Symbol   string   `json:"symbol"`
	Numeral  string   `json:"numeral"`
	Function string   `json:"function"`
}

// Result is the chosen chord sequence and its total cost.
type Result struct {
	Chords    []ChordEvent `json:"chords"`
	TotalCost float64      `json:"total_cost"`
}

// Symbols lists the chord symbols in order.
func (r *Result) Symbols() []string {
	out := make([]string, len(r.Chords))
	for i, c := range r.Chords {
		out[i] = c.Symbol
	}
	return out
}

// Harmonizer picks the cheapest chord sequence for a melody by dynamic
// programming over per-segment candidate sets.
type Harmonizer struct {
	rhythm     RhythmStrategy
	provider   CandidateProvider
	fit        FitScorer
	prior      ChordPrior
	transition TransitionScorer
	workers    int
}

// Option configures a Harmonizer.
type Option func(*Harmonizer)

// WithRhythm sets the segmentation strategy.
func WithRhythm(r RhythmStrategy) Option {
	return func(h *Harmonizer) { h.rhythm = r }
}

// WithProvider sets the chord candidate provider.
func WithProvider(p CandidateProvider) Option {
	return func(h *Harmonizer) { h.provider = p }
}

// WithFitScorer sets the melody fit scorer.
func WithFitScorer(s FitScorer) Option {
	return func(h *Harmonizer) { h.fit = s }
}

// WithPrior sets the per-chord prior. A nil prior charges nothing.
func WithPrior(p ChordPrior) Option {
	return func(h *Harmonizer) { h.prior = p }
}

// WithTransitionScorer sets the chord transition scorer.
func WithTransitionScorer(s TransitionScorer) Option {
	return func(h *Harmonizer) { h.transition = s }
}

// WithWorkers bounds the goroutines used per lattice layer.
func WithWorkers(n int) Option {
	return func(h *Harmonizer) {
		if n > 0 {
			h.workers = n
		}
	}
}

// NewHarmonizer creates a harmonizer with default strategies, overridden by opts.
func NewHarmonizer(opts ...Option) *Harmonizer {
	h := &Harmonizer{
		rhythm:     BeatStrategy{Granularity: DefaultGranularity},
		provider:   DefaultProvider(),
		fit:        DefaultFitScorer(),
		prior:      DefaultPrior(),
		transition: DefaultTransitionScorer(),
		workers:    runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// latticeNode is one (segment, candidate, run) cell of the DP table. run
// counts how many segments in a row ending here hold the candidate's chord,
// capped one past the repetition tolerance. pred is the flat index of the
// cell in the previous layer, -1 for the first segment and for cells no
// path reaches.
type latticeNode struct {
	cost    float64
	pred    int
	reached bool
}

// Harmonize segments the melody and returns the minimum-cost chord sequence.
// The context is checked once per segment.
func (h *Harmonizer) Harmonize(ctx context.Context, notes []theory.Note, key theory.Key) (*Result, error) {
	segs, err := h.rhythm.Segment(notes, key)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return &Result{Chords: []ChordEvent{}}, nil
	}

	cands := make([][]Candidate, len(segs))
	for i, seg := range segs {
		cands[i] = h.provider.Candidates(seg, notes, key)
		if len(cands[i]) == 0 {
			return nil, &UnharmonizableSegmentError{Segment: i, Start: seg.Start}
		}
	}

	path, total, err := h.solve(ctx, segs, cands, notes, key)
	if err != nil {
		return nil, err
	}

	result := &Result{Chords: make([]ChordEvent, len(segs)), TotalCost: total}
	for i, c := range path {
		cand := cands[i][c]
		result.Chords[i] = ChordEvent{
			Start:    new(big.Rat).Set(segs[i].Start),
			End:      new(big.Rat).Set(segs[i].End),
			Symbol:   cand.Symbol,
			Numeral:  cand.Numeral,
			Function: cand.Function.String(),
		}
	}
	return result, nil
}

// solve fills the lattice layer by layer and follows backpointers from the
// cheapest final cell. Equal costs keep the lower candidate index. Each
// candidate has one cell per run length so that a held chord can be charged
// once it exceeds the transition scorer's tolerance.
func (h *Harmonizer) solve(ctx context.Context, segs []Segment, cands [][]Candidate, notes []theory.Note, key theory.Key) ([]int, float64, error) {
	runs, repeat := 1, 0.0
	if rs, ok := h.transition.(RepetitionScorer); ok {
		runs = max(rs.RepeatTolerance(), 0) + 1
		repeat = rs.RepeatCost()
	}

	offsets := make([]int, len(cands)+1)
	for i, cs := range cands {
		offsets[i+1] = offsets[i] + len(cs)*runs
	}
	lattice := make([]latticeNode, offsets[len(cands)])

	for i := range segs {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}

		layer := lattice[offsets[i]:offsets[i+1]]
		var prev []latticeNode
		if i > 0 {
			prev = lattice[offsets[i-1]:offsets[i]]
		}

		// Each goroutine owns one candidate's cells; Wait is the layer barrier.
		var g errgroup.Group
		g.SetLimit(h.workers)
		for c := range cands[i] {
			g.Go(func() error {
				h.fill(layer[c*runs:(c+1)*runs], prev, cands, i, c, runs, repeat, segs[i], notes, key)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, 0, err
		}
	}

	last := len(cands) - 1
	final := lattice[offsets[last]:offsets[last+1]]
	bestIdx := -1
	for j, node := range final {
		if node.reached && (bestIdx < 0 || node.cost < final[bestIdx].cost) {
			bestIdx = j
		}
	}
	if math.IsInf(final[bestIdx].cost, 1) {
		i := firstUnreachable(lattice, offsets)
		return nil, 0, &UnharmonizableSegmentError{Segment: i, Start: segs[i].Start, Pruned: true}
	}

	path := make([]int, len(cands))
	j := bestIdx
	for i := last; i >= 0; i-- {
		path[i] = j / runs
		j = lattice[offsets[i]+j].pred
	}
	return path, final[bestIdx].cost, nil
}

// fill computes the run cells of candidate c in segment i. An edge from a
// cell holding the same chord extends its run; past the tolerance the run
// stays at the cap and pays repeat. Any other edge starts a new run.
func (h *Harmonizer) fill(cells, prev []latticeNode, cands [][]Candidate, i, c, runs int, repeat float64, seg Segment, notes []theory.Note, key theory.Key) {
	cand := cands[i][c]
	local := h.fit.FitCost(cand, seg, notes, key)
	if h.prior != nil {
		local += h.prior.PriorCost(cand)
	}

	for r := range cells {
		cells[r] = latticeNode{cost: math.Inf(1), pred: -1}
	}
	if prev == nil {
		cells[0] = latticeNode{cost: local, pred: -1, reached: true}
		return
	}

	for pj, from := range prev {
		if !from.reached {
			continue
		}
		pc, pr := pj/runs, pj%runs
		v := from.cost + h.transition.TransitionCost(cands[i-1][pc], cand)
		r := 0
		if cands[i-1][pc].Same(cand) {
			if pr == runs-1 {
				v += repeat
			}
			r = min(pr+1, runs-1)
		}
		// The first reaching edge always sets pred, even when every edge
		// costs +Inf.
		if !cells[r].reached || v < cells[r].cost {
			cells[r] = latticeNode{cost: v, pred: pj, reached: true}
		}
	}
	for r := range cells {
		if cells[r].reached {
			cells[r].cost += local
		}
	}
}

// firstUnreachable returns the first segment whose every cell costs +Inf.
func firstUnreachable(lattice []latticeNode, offsets []int) int {
layers:
	for i := 0; i+1 < len(offsets); i++ {
		for _, node := range lattice[offsets[i]:offsets[i+1]] {
			if node.reached && !math.IsInf(node.cost, 1) {
				continue layers
			}
		}
		return i
	}
	return len(offsets) - 2
}
