// Package metrics defines the Prometheus collectors of the guest list
// service and exposes them on /metrics.
//
// Collectors are registered on an injected registry rather than the global
// one, so tests can build as many instances as they like.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "guestlist"

// Metrics holds every collector of the service.
type Metrics struct {
	// RequestsTotal counts HTTP requests.
	// Labels: method, route (chi pattern, e.g. /api/guests/{id}), status
	RequestsTotal *prometheus.CounterVec

	// RequestDuration measures HTTP handling time.
	// Labels: method, route
	RequestDuration *prometheus.HistogramVec

	// CheckInsTotal counts check-in attempts.
	// Labels: result (ok, already_entered, forbidden, not_found, error)
	CheckInsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"method", "route"},
		),
		CheckInsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkins_total",
				Help:      "Total number of guest check-in attempts by result",
			},
			[]string{"result"},
		),
		registry: reg,
	}
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveCheckIn records the outcome of one check-in attempt.
func (m *Metrics) ObserveCheckIn(result string) {
	m.CheckInsTotal.WithLabelValues(result).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
