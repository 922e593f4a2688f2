package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "harmony"

// Outcome labels for harmony_solves_total.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Collector exposes solve counters and latencies on its own registry, so
// several can coexist in one process.
type Collector struct {
	registry      *prometheus.Registry
	solvesTotal   *prometheus.CounterVec
	solveDuration *prometheus.HistogramVec
}

// NewCollector creates and registers the solve metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		solvesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: promNamespace,
				Name:      "solves_total",
				Help:      "Harmonization and voice-leading calls by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		solveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: promNamespace,
				Name:      "solve_duration_seconds",
				Help:      "Solve latency in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"kind"},
		),
	}
	c.registry.MustRegister(c.solvesTotal, c.solveDuration)
	return c
}

// RecordSolve counts one call and observes its latency.
func (c *Collector) RecordSolve(kind, outcome string, duration time.Duration) {
	c.solvesTotal.WithLabelValues(kind, outcome).Inc()
	c.solveDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// SolvesTotal returns the counter for one kind and outcome.
func (c *Collector) SolvesTotal(kind, outcome string) prometheus.Counter {
	return c.solvesTotal.WithLabelValues(kind, outcome)
}

// Totals sums harmony_solves_total into kind -> outcome -> count.
func (c *Collector) Totals() (map[string]map[string]float64, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return nil, err
	}

	totals := make(map[string]map[string]float64)
	for _, mf := range families {
		if mf.GetName() != promNamespace+"_solves_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			var kind, outcome string
			for _, lp := range m.GetLabel() {
				switch lp.GetName() {
				case "kind":
					kind = lp.GetValue()
				case "outcome":
					outcome = lp.GetValue()
				}
			}
			if totals[kind] == nil {
				totals[kind] = make(map[string]float64)
			}
			totals[kind][outcome] += m.GetCounter().GetValue()
		}
	}
	return totals, nil
}
