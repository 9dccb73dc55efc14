// Package scoring loads fitted artifacts and scores premodel CSVs.
package scoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScoringRunsTotal tracks scoring runs by outcome
	ScoringRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_runs_total",
			Help: "Total number of scoring runs",
		},
		[]string{"status"}, // success, failure, empty
	)

	// ScoringRowsTotal tracks input rows by disposition
	ScoringRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_rows_total",
			Help: "Total number of input rows processed",
		},
		[]string{"disposition"}, // scored, dropped
	)

	// ScoringFallbacksTotal tracks missing-column fallbacks
	ScoringFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_fallbacks_total",
			Help: "Total number of missing-column fallbacks applied",
		},
		[]string{"strategy"}, // train_median, constant_missing
	)

	// ScoringDuration tracks scoring run latency
	ScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scoring_duration_seconds",
			Help:    "Scoring run latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ArtifactReloadsTotal tracks artifact refreshes
	ArtifactReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifact_reloads_total",
			Help: "Total number of artifact reloads",
		},
		[]string{"status"},
	)
)
