// Package metrics exposes Prometheus metrics for refresh runs and the HTTP API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry          *prometheus.Registry
	refreshTotal      *prometheus.CounterVec
	phaseTotal        *prometheus.CounterVec
	refreshDuration   prometheus.Histogram
	channelsPublished prometheus.Gauge
	lastSuccess       prometheus.Gauge
	requestsTotal     prometheus.Counter
	errorsTotal       prometheus.Counter
}

// New creates and registers the collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	refreshTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drtv_refresh_total",
		Help: "Refresh runs by outcome (published, empty, failed)",
	}, []string{"outcome"})
	phaseTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "drtv_phase_results_total",
		Help: "Pipeline phase results by phase and status",
	}, []string{"phase", "status"})
	refreshDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "drtv_refresh_duration_seconds",
		Help:    "Wall time of a full pipeline run",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})
	channelsPublished := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "drtv_channels_published",
		Help: "Number of channels in the last published state",
	})
	lastSuccess := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "drtv_last_publish_timestamp_seconds",
		Help: "Unix time of the last successful publish",
	})
	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "drtv_http_requests_total",
		Help: "Total number of HTTP API requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "drtv_http_errors_total",
		Help: "Total number of HTTP API responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(
		refreshTotal,
		phaseTotal,
		refreshDuration,
		channelsPublished,
		lastSuccess,
		requestsTotal,
		errorsTotal,
	)

	return &Metrics{
		registry:          registry,
		refreshTotal:      refreshTotal,
		phaseTotal:        phaseTotal,
		refreshDuration:   refreshDuration,
		channelsPublished: channelsPublished,
		lastSuccess:       lastSuccess,
		requestsTotal:     requestsTotal,
		errorsTotal:       errorsTotal,
	}
}

// ObservePhase counts one phase result.
func (m *Metrics) ObservePhase(phase, status string) {
	if m == nil {
		return
	}
	m.phaseTotal.WithLabelValues(phase, status).Inc()
}

// ObserveRefresh counts one refresh run and its duration.
func (m *Metrics) ObserveRefresh(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(outcome).Inc()
	m.refreshDuration.Observe(d.Seconds())
}

// SetPublished records a successful publish of n channels at t.
func (m *Metrics) SetPublished(n int, t time.Time) {
	if m == nil {
		return
	}
	m.channelsPublished.Set(float64(n))
	m.lastSuccess.Set(float64(t.Unix()))
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	if m == nil {
		return
	}
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}

// Handler returns an http.Handler that serves the registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
