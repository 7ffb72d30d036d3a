package session

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	operations *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moodiary",
		Subsystem: "session",
		Name:      "operations_total",
		Help:      "Session store operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	if reg == nil {
		return &metrics{operations: operations}, nil
	}

	if err := reg.Register(operations); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		operations = existing
	}
	return &metrics{operations: operations}, nil
}

func (m *metrics) observe(operation string, outcome Outcome) {
	m.operations.WithLabelValues(operation, outcome.String()).Inc()
}
