// Package metrics exposes Prometheus counters for the site's write paths.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registration outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeInvalid   = "invalid"
	OutcomeNotFound  = "not_found"
	OutcomeFull      = "full"
	OutcomeDuplicate = "duplicate"
	OutcomeEmpty     = "empty"
	OutcomeError     = "error"
)

type Metrics struct {
	Registrations *prometheus.CounterVec
	Exports       *prometheus.CounterVec
	Messages      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iedc",
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"outcome"}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iedc",
			Name:      "exports_total",
			Help:      "Spreadsheet exports by scope and outcome.",
		}, []string{"scope", "outcome"}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "iedc",
			Name:      "contact_messages_total",
			Help:      "Contact form submissions by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.Registrations, m.Exports, m.Messages)
	return m
}

func (m *Metrics) Registration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Export(scope, outcome string) {
	if m == nil {
		return
	}
	m.Exports.WithLabelValues(scope, outcome).Inc()
}

func (m *Metrics) Message(outcome string) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(outcome).Inc()
}
