// Package metrics holds the Prometheus collectors of the API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors and the registry they are registered on.
type Metrics struct {
	registry *prometheus.Registry

	// RequestsTotal counts finished requests by method, route template and
	// status. Route is the template (/links/{token}) to keep cardinality low.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration observes request latency in seconds.
	RequestDuration *prometheus.HistogramVec

	// InflightRequests is the number of requests being served.
	InflightRequests prometheus.Gauge

	// DecodeFailures counts tokens that did not decode to a link id.
	DecodeFailures prometheus.Counter
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_request_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency distributions.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		InflightRequests: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_inflight_requests",
				Help: "Current number of in-flight HTTP requests.",
			},
		),
		DecodeFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "shortlink_decode_failures_total",
				Help: "Tokens rejected by the short code decoder.",
			},
		),
	}

	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.InflightRequests,
		m.DecodeFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
