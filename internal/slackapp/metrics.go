package slackapp

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts the events the bot receives and the handlers that fail.
type Metrics struct {
	events *prometheus.CounterVec
	errors *prometheus.CounterVec
}

// NewMetrics creates the bot's metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := Metrics{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gerald_events_total",
			Help: "Total number of Slack events and interactions received.",
		}, []string{"type"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gerald_handler_errors_total",
			Help: "Total number of failed handler invocations.",
		}, []string{"handler"}),
	}
	for _, c := range []prometheus.Collector{m.events, m.errors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

func (m *Metrics) event(eventType string) {
	if m != nil {
		m.events.WithLabelValues(eventType).Inc()
	}
}

func (m *Metrics) failure(handler string) {
	if m != nil {
		m.errors.WithLabelValues(handler).Inc()
	}
}
