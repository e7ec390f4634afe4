package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records assistant turns and per-stage outcomes on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	Turns         prometheus.Counter
	TurnDuration  prometheus.Histogram
	StageOutcomes *prometheus.CounterVec
}

// NewMetrics creates and registers all assistant metrics, together with the
// Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Turns: factory.NewCounter(prometheus.CounterOpts{
			Name: "assistant_turns_total",
			Help: "Total number of turns that reached the speaking stage",
		}),
		TurnDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "assistant_turn_duration_seconds",
			Help:    "Duration of completed turns, from listening to the end of playback",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s to ~1 minute
		}),
		StageOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_stage_outcomes_total",
			Help: "Total number of outcomes per pipeline stage",
		}, []string{"stage", "outcome"}),
	}
}

// ObserveStage increments the outcome counter for a pipeline stage
func (m *Metrics) ObserveStage(stage, outcome string) {
	m.StageOutcomes.WithLabelValues(stage, outcome).Inc()
}

// ObserveTurn counts a completed turn and records its duration
func (m *Metrics) ObserveTurn(duration time.Duration) {
	m.Turns.Inc()
	m.TurnDuration.Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
