package observability

import (
	"github.com/aretw0/outline/pkg/authority"
	"github.com/prometheus/client_golang/prometheus"
)

// ChangeCounter counts changes committed by an authority service.
type ChangeCounter struct {
	Changes *prometheus.CounterVec
}

// NewChangeCounter creates the collector and registers it on reg.
func NewChangeCounter(reg prometheus.Registerer) (*ChangeCounter, error) {
	c := &ChangeCounter{
		Changes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "outline_authority_changes_total",
				Help: "Total number of node changes committed by the authority",
			},
			[]string{"action"},
		),
	}
	if err := reg.Register(c.Changes); err != nil {
		return nil, err
	}
	return c, nil
}

// Observe records c. It has the signature of authority.WithObserver.
func (c *ChangeCounter) Observe(change authority.Change) {
	c.Changes.WithLabelValues(string(change.Action)).Inc()
}
