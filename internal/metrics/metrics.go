// Package metrics holds the Prometheus collectors of the coordinator.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcomes
const (
	LoginSuccess            = "success"
	LoginInvalidCredentials = "invalid_credentials"
	LoginLocked             = "locked"
)

// Metrics groups the collectors. Each coordinator owns its own set,
// so tests can build several without registry collisions.
type Metrics struct {
	EventsPublished   prometheus.Counter
	EventsDropped     prometheus.Counter
	EventsDelivered   prometheus.Counter
	DeliveryFailures  prometheus.Counter
	LoginAttempts     *prometheus.CounterVec
	SecurityEvents    *prometheus.CounterVec
	ActiveSessions    prometheus.Gauge
	SessionsEvicted   prometheus.Counter
	ActiveConnections prometheus.Gauge
}

// New creates an unregistered set of collectors
func New() *Metrics {
	return &Metrics{
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mpcoord_events_published_total",
			Help: "Total number of events accepted onto the event queue",
		}),
		EventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mpcoord_events_dropped_total",
			Help: "Total number of events rejected because the queue was full",
		}),
		EventsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mpcoord_event_deliveries_total",
			Help: "Total number of event frames handed to real-time connections",
		}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mpcoord_event_delivery_failures_total",
			Help: "Total number of event frames a connection could not accept",
		}),
		LoginAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mpcoord_login_attempts_total",
				Help: "Total number of login attempts by outcome",
			},
			[]string{"outcome"},
		),
		SecurityEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mpcoord_security_events_total",
				Help: "Total number of security events by kind",
			},
			[]string{"kind"},
		),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mpcoord_active_sessions",
			Help: "Number of player sessions currently tracked",
		}),
		SessionsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mpcoord_sessions_evicted_total",
			Help: "Total number of sessions removed by the liveness sweep",
		}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mpcoord_realtime_connections",
			Help: "Number of live real-time connections",
		}),
	}
}

// Register registers all collectors with reg.
// Panics if registration fails (following prometheus convention).
func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(
		m.EventsPublished,
		m.EventsDropped,
		m.EventsDelivered,
		m.DeliveryFailures,
		m.LoginAttempts,
		m.SecurityEvents,
		m.ActiveSessions,
		m.SessionsEvicted,
		m.ActiveConnections,
	)
}

// NewRegistry returns a private registry holding m plus the Go and process collectors
func NewRegistry(m *Metrics) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m.Register(reg)
	return reg
}

// Handler serves the registry in the Prometheus exposition format
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
