package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result outcomes recorded by quakelens_coordinator_results_total.
const (
	OutcomeAccepted    = "accepted"
	OutcomeStale       = "stale"
	OutcomeCancelled   = "cancelled"
	OutcomeUnavailable = "unavailable"
	OutcomeFailed      = "failed"
)

// Cache lookup results recorded by quakelens_cache_lookups_total.
const (
	lookupHit    = "hit"
	lookupMiss   = "miss"
	lookupShared = "shared"
)

// Metrics holds the coordinator's Prometheus collectors.
type Metrics struct {
	requests     *prometheus.CounterVec
	results      *prometheus.CounterVec
	compute      *prometheus.HistogramVec
	cacheLookups *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// Labels: kind
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakelens",
			Subsystem: "coordinator",
			Name:      "requests_total",
			Help:      "Analysis requests submitted",
		}, []string{"kind"}),

		// Labels: kind, outcome (accepted, stale, cancelled, unavailable, failed)
		results: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakelens",
			Subsystem: "coordinator",
			Name:      "results_total",
			Help:      "Analysis results by delivery outcome",
		}, []string{"kind", "outcome"}),

		compute: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quakelens",
			Subsystem: "coordinator",
			Name:      "compute_seconds",
			Help:      "Time spent computing an analysis, cache hits included",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),

		// Labels: result (hit, miss, shared)
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quakelens",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Derived-value cache lookups",
		}, []string{"result"}),
	}
}
