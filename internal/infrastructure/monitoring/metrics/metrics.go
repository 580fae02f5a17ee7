// Package metrics exposes the Prometheus instrumentation for the resolution
// pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for external lookups.
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeError = "error"
)

// Metrics bundles the collectors used across the resolution pipeline.  A
// single instance is created at startup and threaded through the
// infrastructure clients and the batch orchestrator.
type Metrics struct {
	registry *prometheus.Registry

	// CompoundLookups counts external compound database calls by outcome.
	CompoundLookups *prometheus.CounterVec
	// AssistantCalls counts language-assistant invocations by operation
	// and outcome.
	AssistantCalls *prometheus.CounterVec
	// Resolutions counts settled components by resolution source.
	Resolutions *prometheus.CounterVec
	// BatchDuration observes wall time for a full batch resolution.
	BatchDuration prometheus.Histogram
	// CacheHits counts compound cache hits and misses.
	CacheHits *prometheus.CounterVec
}

// New builds a Metrics instance backed by its own registry, with the standard
// Go and process collectors attached.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		CompoundLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reagent",
			Name:      "compound_lookups_total",
			Help:      "External compound database lookups by outcome.",
		}, []string{"outcome"}),
		AssistantCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reagent",
			Name:      "assistant_calls_total",
			Help:      "Language assistant invocations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		Resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reagent",
			Name:      "resolutions_total",
			Help:      "Settled components by resolution source.",
		}, []string{"source"}),
		BatchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "reagent",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of a full batch resolution.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reagent",
			Name:      "compound_cache_requests_total",
			Help:      "Compound cache requests by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.CompoundLookups, m.AssistantCalls, m.Resolutions, m.BatchDuration, m.CacheHits)
	return m
}

// Handler returns the HTTP handler serving this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for test assertions.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
