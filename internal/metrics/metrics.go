package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus instruments on a private registry, so tests
// can build as many instances as they need without duplicate registration.
type Metrics struct {
	SystemLoad prometheus.Gauge
	Decisions  *prometheus.CounterVec
	Requests   *prometheus.CounterVec
	Latency    *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates and registers all instruments.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		SystemLoad: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aethernav_system_load",
			Help: "Current sampled system load in [0,1).",
		}),
		Decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aethernav_decisions_total",
				Help: "Navigation decisions by outcome.",
			},
			[]string{"outcome"},
		),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "aethernav_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		Latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "aethernav_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		registry: registry,
	}

	registry.MustRegister(m.SystemLoad)
	registry.MustRegister(m.Decisions)
	registry.MustRegister(m.Requests)
	registry.MustRegister(m.Latency)

	return m
}

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
