package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the neom binaries. It satisfies
// ddd.Observer and wire.Observer.
type Metrics struct {
	InstancesConstructed *prometheus.CounterVec
	ValidationFailures   *prometheus.CounterVec
	CapabilityResolved   *prometheus.CounterVec
	CapabilityUnresolved *prometheus.CounterVec
	RepositoryOps        *prometheus.CounterVec
	RepositoryLatency    *prometheus.HistogramVec
}

// New creates and registers all metrics with the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers the metrics with reg; tests pass a fresh
// prometheus.NewRegistry().
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		InstancesConstructed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "neom_ddd_instances_constructed_total",
			Help: "Instances constructed per schema",
		}, []string{"schema"}),
		ValidationFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "neom_ddd_validation_failures_total",
			Help: "Constructions aborted by the validation hook per schema",
		}, []string{"schema"}),
		CapabilityResolved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "neom_wire_resolved_total",
			Help: "Capabilities resolved per interface",
		}, []string{"interface"}),
		CapabilityUnresolved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "neom_wire_unresolved_total",
			Help: "Resolutions of interfaces that were never wired",
		}, []string{"interface"}),
		RepositoryOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "neom_repository_operations_total",
			Help: "Repository operations by operation and result",
		}, []string{"op", "result"}),
		RepositoryLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "neom_repository_operation_duration_seconds",
			Help:    "Repository operation latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
}

func (m *Metrics) Constructed(schema string) {
	m.InstancesConstructed.WithLabelValues(schema).Inc()
}

func (m *Metrics) ValidationFailed(schema string) {
	m.ValidationFailures.WithLabelValues(schema).Inc()
}

func (m *Metrics) Resolved(iface string) {
	m.CapabilityResolved.WithLabelValues(iface).Inc()
}

func (m *Metrics) Unresolved(iface string) {
	m.CapabilityUnresolved.WithLabelValues(iface).Inc()
}

// ObserveRepository records one repository call.
func (m *Metrics) ObserveRepository(op, result string, seconds float64) {
	m.RepositoryOps.WithLabelValues(op, result).Inc()
	m.RepositoryLatency.WithLabelValues(op).Observe(seconds)
}
