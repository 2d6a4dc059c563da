package observability

import (
	"context"
	"errors"

	"github.com/aretw0/outline/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels.
const (
	OutcomeSuccess   = "success"
	OutcomeRejected  = "rejected"
	OutcomeTransport = "transport_failure"
	OutcomeInvariant = "invariant_violation"
	OutcomeError     = "error"
)

// Outcome classifies the terminal error of an operation.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, domain.ErrTransportFailure):
		return OutcomeTransport
	case errors.Is(err, domain.ErrRemoteRejected):
		return OutcomeRejected
	case errors.Is(err, domain.ErrInvariantViolation):
		return OutcomeInvariant
	default:
		return OutcomeError
	}
}

// Metrics holds the Prometheus collectors for operations.
type Metrics struct {
	Operations *prometheus.CounterVec
	Rollbacks  *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	InFlight   *prometheus.GaugeVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "outline_operations_total",
				Help: "Total number of finished outline operations",
			},
			[]string{"kind", "outcome"},
		),
		Rollbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "outline_rollbacks_total",
				Help: "Total number of optimistic changes rolled back",
			},
			[]string{"kind"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "outline_operation_duration_seconds",
				Help:    "Duration of outline operations from commit to settlement",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "outline_activity_in_flight",
				Help: "Operations in flight per activity indicator",
			},
			[]string{"activity"},
		),
	}
	for _, c := range []prometheus.Collector{m.Operations, m.Rollbacks, m.Duration, m.InFlight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnOperationStart: func(_ context.Context, e *domain.OperationEvent) {
			if a := e.Kind.Activity(); a != "" {
				m.InFlight.WithLabelValues(string(a)).Inc()
			}
		},
		OnOperationEnd: func(_ context.Context, e *domain.OperationEvent) {
			if a := e.Kind.Activity(); a != "" {
				m.InFlight.WithLabelValues(string(a)).Dec()
			}
			m.Operations.WithLabelValues(string(e.Kind), Outcome(e.Err)).Inc()
			m.Duration.WithLabelValues(string(e.Kind)).Observe(e.Duration.Seconds())
		},
		OnRollback: func(_ context.Context, e *domain.OperationEvent) {
			m.Rollbacks.WithLabelValues(string(e.Kind)).Inc()
		},
	}
}
