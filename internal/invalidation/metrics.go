package invalidation

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricInvalidationEvents             = "invalidation_events_total"
	MetricInvalidationDeletedKeys        = "invalidation_deleted_keys_total"
	MetricInvalidationFailures           = "invalidation_failures_total"
	MetricInvalidationPatternUnsupported = "invalidation_pattern_unsupported_total"
)

// Metrics contains Prometheus metrics for invalidation processing.
// All operations are thread-safe.
type Metrics struct {
	events             *prometheus.CounterVec
	deletedKeys        prometheus.Counter
	failures           prometheus.Counter
	patternUnsupported prometheus.Counter
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register
// them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricInvalidationEvents,
				Help: "Total number of mutation events processed by kind",
			},
			[]string{"kind"},
		),
		deletedKeys: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricInvalidationDeletedKeys,
				Help: "Total number of cache keys evicted by invalidation",
			},
		),
		failures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricInvalidationFailures,
				Help: "Total number of best-effort invalidation failures (TTL fallback events)",
			},
		),
		patternUnsupported: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricInvalidationPatternUnsupported,
				Help: "Total number of pattern evictions skipped because the store lacks pattern delete",
			},
		),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.events,
		m.deletedKeys,
		m.failures,
		m.patternUnsupported,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncEvent increments the processed-event counter for a kind.
func (m *Metrics) IncEvent(kind string) {
	m.events.WithLabelValues(kind).Inc()
}

// AddDeletedKeys adds to the evicted-key counter.
func (m *Metrics) AddDeletedKeys(n int) {
	m.deletedKeys.Add(float64(n))
}

// IncFailure increments the failure counter.
func (m *Metrics) IncFailure() {
	m.failures.Inc()
}

// IncPatternUnsupported increments the skipped-pattern counter.
func (m *Metrics) IncPatternUnsupported() {
	m.patternUnsupported.Inc()
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.events,
		m.deletedKeys,
		m.failures,
		m.patternUnsupported,
	}
}
