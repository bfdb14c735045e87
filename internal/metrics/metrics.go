// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for reservation transitions.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics contains the service's collectors, registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests           *prometheus.CounterVec
	HTTPDuration           *prometheus.HistogramVec
	ReservationTransitions *prometheus.CounterVec
	EventSubscribers       prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wishlist_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wishlist_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ReservationTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wishlist_reservation_transitions_total",
				Help: "Total number of reserve/unreserve attempts by outcome",
			},
			[]string{"action", "outcome"},
		),
		EventSubscribers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "wishlist_event_subscribers",
				Help: "Number of open wishlist event streams",
			},
		),
	}

	registry.MustRegister(m.HTTPRequests, m.HTTPDuration, m.ReservationTransitions, m.EventSubscribers)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveReservation counts one reserve or unreserve attempt.
func (m *Metrics) ObserveReservation(action string, ok bool) {
	outcome := OutcomeSuccess
	if !ok {
		outcome = OutcomeFailure
	}
	m.ReservationTransitions.WithLabelValues(action, outcome).Inc()
}
