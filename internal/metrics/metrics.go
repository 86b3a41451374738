// Package metrics holds the Prometheus collectors of the reminder pipeline
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the reminder collectors
type Metrics struct {
	RemindersSent    prometheus.Counter
	ReminderFailures prometheus.Counter
	PlantsStored     prometheus.Gauge

	registry *prometheus.Registry
}

// New creates the collectors and registers them on a private registry
func New() *Metrics {
	m := &Metrics{
		RemindersSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plantmanager_reminders_sent_total",
			Help: "Watering reminders handed to the notifier.",
		}),
		ReminderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plantmanager_reminder_failures_total",
			Help: "Watering reminders that could not be delivered or rescheduled.",
		}),
		PlantsStored: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "plantmanager_plants_stored",
			Help: "Plants in the store at the last reminder run.",
		}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(m.RemindersSent, m.ReminderFailures, m.PlantsStored)
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
