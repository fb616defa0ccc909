package broker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Label constants for broker metrics.
const (
	labelOperation = "operation"
	labelError     = "error"
)

// Metrics is the narrow instrumentation surface the scheduler calls into.
// Implementations must be safe to call from arbitrary workers.
type Metrics interface {
	// IncOperations increments operations_total{type} on acceptance.
	IncOperations(op OperationType)

	// IncFailures increments operation_failures_total{type,error} on any
	// failure, immediate or asynchronous.
	IncFailures(op OperationType, code ErrorCode)

	// ObserveLatency observes operation_latency_ms{type} on success.
	ObserveLatency(op OperationType, d time.Duration)
}

// NoopMetrics discards every observation. It is the default when metrics
// are disabled.
type NoopMetrics struct{}

// IncOperations implements Metrics.
func (NoopMetrics) IncOperations(OperationType) {}

// IncFailures implements Metrics.
func (NoopMetrics) IncFailures(OperationType, ErrorCode) {}

// ObserveLatency implements Metrics.
func (NoopMetrics) ObserveLatency(OperationType, time.Duration) {}

// PromMetrics is the Prometheus-backed Metrics implementation.
type PromMetrics struct {
	operationsTotal *prometheus.CounterVec
	failuresTotal   *prometheus.CounterVec
	latencyMs       *prometheus.HistogramVec
}

// NewPromMetrics creates and registers the broker's Prometheus metrics. If
// registry is nil, metrics are created but not registered, which is useful
// for tests.
func NewPromMetrics(registry prometheus.Registerer) *PromMetrics {
	m := &PromMetrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "resbroker",
				Subsystem: "operations",
				Name:      "total",
				Help:      "Total number of operations accepted.",
			},
			[]string{labelOperation},
		),
		failuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "resbroker",
				Subsystem: "operations",
				Name:      "failures_total",
				Help:      "Total number of operation failures, immediate or asynchronous.",
			},
			[]string{labelOperation, labelError},
		),
		latencyMs: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "resbroker",
				Subsystem: "operations",
				Name:      "latency_ms",
				Help:      "Operation latency in milliseconds, observed on success.",
				Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000, 10000},
			},
			[]string{labelOperation},
		),
	}

	if registry != nil {
		registry.MustRegister(m.operationsTotal, m.failuresTotal, m.latencyMs)
	}

	return m
}

// IncOperations implements Metrics.
func (m *PromMetrics) IncOperations(op OperationType) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(op.String()).Inc()
}

// IncFailures implements Metrics.
func (m *PromMetrics) IncFailures(op OperationType, code ErrorCode) {
	if m == nil {
		return
	}
	m.failuresTotal.WithLabelValues(op.String(), string(code)).Inc()
}

// ObserveLatency implements Metrics.
func (m *PromMetrics) ObserveLatency(op OperationType, d time.Duration) {
	if m == nil {
		return
	}
	m.latencyMs.WithLabelValues(op.String()).Observe(float64(d.Microseconds()) / 1000.0)
}
