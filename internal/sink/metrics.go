package sink

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"relay/internal/message"
)

// Metrics counts messages in Prometheus.
type Metrics struct {
	messages *prometheus.CounterVec
	failures prometheus.Counter
	severity prometheus.Histogram
}

// NewMetrics creates the relay message metrics under namespace and registers
// them with reg. A nil reg skips registration.
func NewMetrics(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "messages_total",
			Help:      "Messages received, by kind and status",
		}, []string{"kind", "status"}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "failures_total",
			Help:      "Failure messages received",
		}),
		severity: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "message_severity",
			Help:      "Severity of received messages",
			Buckets:   []float64{0, 0.25, 0.5, 0.75, 1},
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.messages, m.failures, m.severity} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				return nil, fmt.Errorf("relay metrics already registered: %w", err)
			}
			return nil, fmt.Errorf("register relay metrics: %w", err)
		}
	}
	return m, nil
}

// OnMessage updates the counters for m.
func (s *Metrics) OnMessage(m *message.Message) {
	status := m.Status().String()
	if m.Status() == message.StatusNotApplicable {
		status = m.OperationStatus().String()
	}
	s.messages.WithLabelValues(m.Kind().String(), status).Inc()
	s.severity.Observe(float64(m.Severity()))
	if m.IsFailure() {
		s.failures.Inc()
	}
}

// Messages exposes the per-kind counter for inspection.
func (s *Metrics) Messages() *prometheus.CounterVec { return s.messages }

// Failures exposes the failure counter for inspection.
func (s *Metrics) Failures() prometheus.Counter { return s.failures }

// Flush is a no-op.
func (s *Metrics) Flush() error { return nil }

// Close is a no-op; collectors stay registered.
func (s *Metrics) Close() error { return nil }
