package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "outliner"

// Metrics holds the generation collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	CallsTotal      *prometheus.CounterVec
	CallDuration    *prometheus.HistogramVec
	AttemptsFailed  *prometheus.CounterVec
	StageDuration   *prometheus.HistogramVec
	StagesTotal     *prometheus.CounterVec
	ScenesGenerated prometheus.Counter
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		CallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "calls_total",
				Help:      "Total number of LLM calls by outcome",
			},
			[]string{"stage", "outcome"},
		),

		CallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "llm",
				Name:      "call_duration_seconds",
				Help:      "LLM call duration in seconds",
				Buckets:   []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"stage"},
		),

		AttemptsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "generation",
				Name:      "failed_attempts_total",
				Help:      "Generation attempts discarded and retried",
			},
			[]string{"stage", "reason"},
		),

		StageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "stage",
				Name:      "duration_seconds",
				Help:      "Stage duration in seconds",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"stage"},
		),

		StagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "stage",
				Name:      "runs_total",
				Help:      "Stage runs by status",
			},
			[]string{"stage", "status"},
		),

		ScenesGenerated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "story",
				Name:      "scenes_total",
				Help:      "Scenes accepted into story outlines",
			},
		),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveCall(stage, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.CallsTotal.WithLabelValues(stage, outcome).Inc()
	m.CallDuration.WithLabelValues(stage).Observe(seconds)
}

func (m *Metrics) FailedAttempt(stage, reason string) {
	if m == nil {
		return
	}
	m.AttemptsFailed.WithLabelValues(stage, reason).Inc()
}

func (m *Metrics) ObserveStage(stage, status string, seconds float64) {
	if m == nil {
		return
	}
	m.StagesTotal.WithLabelValues(stage, status).Inc()
	m.StageDuration.WithLabelValues(stage).Observe(seconds)
}

func (m *Metrics) AddScenes(n int) {
	if m == nil {
		return
	}
	m.ScenesGenerated.Add(float64(n))
}
