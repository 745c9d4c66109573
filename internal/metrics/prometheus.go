package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// PrometheusMetrics holds the collectors exposed on /metrics
type PrometheusMetrics struct {
	registry *prometheus.Registry

	requestsTotal      *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	generationsTotal   *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
}

// NewPrometheusMetrics registers the studio collectors on a fresh registry
func NewPrometheusMetrics() *PrometheusMetrics {
	m := &PrometheusMetrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "image_studio",
				Subsystem: "api",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "image_studio",
				Subsystem: "api",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"method", "endpoint"},
		),
		generationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "image_studio",
				Subsystem: "relay",
				Name:      "generations_total",
				Help:      "Relayed generations by model and response status",
			},
			[]string{"model", "status"},
		),
		generationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "image_studio",
				Subsystem: "relay",
				Name:      "generation_duration_seconds",
				Help:      "Upstream generation latency in seconds",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60, 120},
			},
			[]string{"model"},
		),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.generationsTotal,
		m.generationDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry to expose over HTTP
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordAPIRequest counts a request and observes its latency
func (m *PrometheusMetrics) RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordGeneration counts a relayed generation and observes its latency
func (m *PrometheusMetrics) RecordGeneration(model string, statusCode int, duration time.Duration) {
	m.generationsTotal.WithLabelValues(model, strconv.Itoa(statusCode)).Inc()
	m.generationDuration.WithLabelValues(model).Observe(duration.Seconds())
}
