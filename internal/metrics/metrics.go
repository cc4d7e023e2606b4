// Package metrics exposes the notifier's Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/temperature-notifier/internal/logic"
)

// Metrics holds the collectors, registered on their own registry.
type Metrics struct {
	registry      *prometheus.Registry
	temperature   prometheus.Gauge
	state         prometheus.Gauge
	transitions   *prometheus.CounterVec
	notifications *prometheus.CounterVec
	sensorErrors  prometheus.Counter
	storeErrors   *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "temperature_celsius",
			Help: "Last temperature reading in degrees Celsius.",
		}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "temperature_state",
			Help: "Current temperature state (0 low, 1 nominal, 2 high).",
		}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "temperature_transitions_total",
			Help: "State transitions by target state.",
		}, []string{"to"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "temperature_notifications_total",
			Help: "Notifications attempted by kind and result.",
		}, []string{"kind", "result"}),
		sensorErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "temperature_sensor_errors_total",
			Help: "Failed sensor reads.",
		}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "temperature_state_store_errors_total",
			Help: "State record failures by operation.",
		}, []string{"op"}),
	}

	m.registry.MustRegister(
		m.temperature,
		m.state,
		m.transitions,
		m.notifications,
		m.sensorErrors,
		m.storeErrors,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveDecision records a completed cycle.
func (m *Metrics) ObserveDecision(d logic.Decision) {
	m.temperature.Set(d.Temperature)
	m.state.Set(float64(d.Current.Ordinal()))
	if d.Changed {
		m.transitions.WithLabelValues(d.Current.String()).Inc()
	}
}

// ObserveNotification records one notification attempt.
func (m *Metrics) ObserveNotification(kind logic.MessageKind, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.notifications.WithLabelValues(string(kind), result).Inc()
}

// SensorError records a failed sensor read.
func (m *Metrics) SensorError() {
	m.sensorErrors.Inc()
}

// StoreError records a failed state load or save ("load" or "save").
func (m *Metrics) StoreError(op string) {
	m.storeErrors.WithLabelValues(op).Inc()
}
