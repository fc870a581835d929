// Package metrics exposes prometheus instrumentation for review resolution.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Resolutions counts terminal outcomes per calling surface.
	Resolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewero_resolutions_total",
		Help: "Total number of resolution requests by surface and terminal state.",
	}, []string{"surface", "state"}) // surface: interactive, protocol

	// ClassifiedErrors counts every classified failure.
	ClassifiedErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reviewero_classified_errors_total",
		Help: "Total number of classified errors by originating service and kind.",
	}, []string{"service", "kind"})

	// SynthesisDuration tracks model latency.
	SynthesisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reviewero_synthesis_duration_seconds",
		Help:    "Duration of review generation calls in seconds.",
		Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32},
	})

	// EnrichmentFailures counts best-effort candidate enrichments that degraded to empty fields.
	EnrichmentFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reviewero_enrichment_failures_total",
		Help: "Total number of movie candidates returned without enrichment.",
	})
)

// RecordSynthesis records the time taken by one model call.
func RecordSynthesis(start time.Time) {
	SynthesisDuration.Observe(time.Since(start).Seconds())
}
