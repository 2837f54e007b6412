package cache

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricCacheHits   = "cache_hits_total"
	MetricCacheMisses = "cache_misses_total"
	MetricCacheErrors = "cache_errors_total"
	MetricCacheSets   = "cache_sets_total"
)

// Metrics contains Prometheus metrics for cache store usage.
// All operations are thread-safe.
type Metrics struct {
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec
	errors *prometheus.CounterVec
	sets   *prometheus.CounterVec
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		hits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCacheHits,
				Help: "Total number of cache hits by namespace",
			},
			[]string{"namespace"},
		),
		misses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCacheMisses,
				Help: "Total number of cache misses by namespace",
			},
			[]string{"namespace"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCacheErrors,
				Help: "Total number of cache store errors by namespace (fail-open events)",
			},
			[]string{"namespace"},
		),
		sets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricCacheSets,
				Help: "Total number of cache write-throughs by namespace",
			},
			[]string{"namespace"},
		),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.hits,
		m.misses,
		m.errors,
		m.sets,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncHit increments the hit counter for a namespace.
func (m *Metrics) IncHit(namespace string) {
	m.hits.WithLabelValues(namespace).Inc()
}

// IncMiss increments the miss counter for a namespace.
func (m *Metrics) IncMiss(namespace string) {
	m.misses.WithLabelValues(namespace).Inc()
}

// IncError increments the error counter for a namespace.
func (m *Metrics) IncError(namespace string) {
	m.errors.WithLabelValues(namespace).Inc()
}

// IncSet increments the write-through counter for a namespace.
func (m *Metrics) IncSet(namespace string) {
	m.sets.WithLabelValues(namespace).Inc()
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.hits,
		m.misses,
		m.errors,
		m.sets,
	}
}
