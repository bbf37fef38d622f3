// Package metrics exposes Prometheus instruments for dialogue sessions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Turns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "souschef_turns_total",
			Help: "Processed dialogue turns by classified intent",
		},
		[]string{"intent"},
	)

	ClassificationFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "souschef_classification_fallbacks_total",
			Help: "Utterances classified by keywords after the model classifier failed",
		},
	)

	CompletionFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "souschef_completion_failures_total",
			Help: "Answers replaced by the rephrase message after a completion failure",
		},
	)

	ListenTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "souschef_listen_timeouts_total",
			Help: "Listen attempts that captured no speech",
		},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "souschef_sessions_active",
			Help: "Dialogue sessions that have not ended",
		},
	)

	SessionsEnded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "souschef_sessions_ended_total",
			Help: "Dialogue sessions that reached a terminal state",
		},
		[]string{"outcome"},
	)

	CompletionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "souschef_completion_seconds",
			Help:    "Completion service latency in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
		[]string{"op"},
	)
)

// ObserveCompletion records how long a completion call took.
func ObserveCompletion(op string, start time.Time) {
	CompletionLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
