package metrics

import (
	"context"
	"time"
)

// Collector fans request and generation observations out to every metrics sink
type Collector struct {
	Sentry     *SentryMetrics
	CloudWatch *CloudWatchClient
	Prometheus *PrometheusMetrics
}

// NewCollector wires the three sinks. CloudWatch stays disabled outside production.
func NewCollector(ctx context.Context, environment string) *Collector {
	return &Collector{
		Sentry:     NewSentryMetrics(),
		CloudWatch: NewCloudWatchClient(ctx, environment),
		Prometheus: NewPrometheusMetrics(),
	}
}

// RecordAPIRequest records one completed HTTP request
func (c *Collector) RecordAPIRequest(ctx context.Context, method, endpoint string, statusCode int, duration time.Duration) {
	c.Sentry.RecordAPIRequest(ctx, endpoint, statusCode, duration)
	c.CloudWatch.RecordAPIRequest(endpoint, statusCode, duration)
	c.Prometheus.RecordAPIRequest(method, endpoint, statusCode, duration)
}

// RecordGeneration records one relayed generation and the status returned to the caller
func (c *Collector) RecordGeneration(ctx context.Context, model string, statusCode int, duration time.Duration) {
	c.Sentry.RecordGeneration(ctx, model, statusCode, duration)
	c.CloudWatch.RecordGeneration(model, statusCode, duration)
	c.Prometheus.RecordGeneration(model, statusCode, duration)
}
