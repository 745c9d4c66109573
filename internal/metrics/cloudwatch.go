package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/Conceptual-Machines/image-studio/internal/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	namespace                = "ImageStudio/API"
	httpStatusServerError    = 500
	cloudwatchTimeoutSeconds = 5
	environmentProduction    = "production"
)

// metricPutter is the subset of the CloudWatch client we call
type metricPutter interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchClient wraps CloudWatch for custom metrics
type CloudWatchClient struct {
	client      metricPutter
	enabled     bool
	environment string
}

// NewCloudWatchClient creates a CloudWatch metrics client.
// Outside production, or when AWS config cannot be loaded, it returns a disabled client.
func NewCloudWatchClient(ctx context.Context, environment string) *CloudWatchClient {
	if environment != environmentProduction {
		logger.Info("CloudWatch metrics disabled", logger.Fields{"environment": environment})
		return &CloudWatchClient{enabled: false, environment: environment}
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Warn("Failed to load AWS config for CloudWatch", logger.Fields{"error": err.Error()})
		return &CloudWatchClient{enabled: false, environment: environment}
	}

	logger.Info("CloudWatch metrics enabled", logger.Fields{"namespace": namespace})
	return &CloudWatchClient{
		client:      cloudwatch.NewFromConfig(cfg),
		enabled:     true,
		environment: environment,
	}
}

// Enabled reports whether metrics are shipped
func (m *CloudWatchClient) Enabled() bool {
	return m.enabled
}

// RecordAPIRequest records an API request count and latency
func (m *CloudWatchClient) RecordAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	go func() {
		ctx := context.Background()
		metricName := "APIRequests"
		if statusCode >= httpStatusServerError {
			metricName = "APIErrors"
		}

		dimensions := []types.Dimension{
			{Name: aws.String("Endpoint"), Value: aws.String(endpoint)},
			{Name: aws.String("Environment"), Value: aws.String(m.environment)},
		}

		if err := m.putMetric(ctx, metricName, 1, types.StandardUnitCount, dimensions); err != nil {
			logger.Warn("Failed to record CloudWatch metric", logger.Fields{"metric": metricName, "error": err.Error()})
		}

		latencyMs := float64(duration.Milliseconds())
		if err := m.putMetric(ctx, "APILatency", latencyMs, types.StandardUnitMilliseconds, dimensions); err != nil {
			logger.Warn("Failed to record CloudWatch metric", logger.Fields{"metric": "APILatency", "error": err.Error()})
		}
	}()
}

// RecordGeneration records one relayed generation: its duration and upstream outcome
func (m *CloudWatchClient) RecordGeneration(model string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	go func() {
		ctx := context.Background()
		dimensions := []types.Dimension{
			{Name: aws.String("Model"), Value: aws.String(model)},
			{Name: aws.String("Success"), Value: aws.String(strconv.FormatBool(statusCode < 400))},
			{Name: aws.String("Environment"), Value: aws.String(m.environment)},
		}

		durationMs := float64(duration.Milliseconds())
		if err := m.putMetric(ctx, "GenerationDuration", durationMs, types.StandardUnitMilliseconds, dimensions); err != nil {
			logger.Warn("Failed to record CloudWatch metric", logger.Fields{"metric": "GenerationDuration", "error": err.Error()})
		}
	}()
}

// putMetric sends a metric to CloudWatch
func (m *CloudWatchClient) putMetric(
	_ context.Context,
	metricName string,
	value float64,
	unit types.StandardUnit,
	dimensions []types.Dimension,
) error {
	if !m.enabled || m.client == nil {
		return nil
	}

	timeout := time.Duration(cloudwatchTimeoutSeconds) * time.Second
	cwCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	_, err := m.client.PutMetricData(cwCtx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Value:      aws.Float64(value),
				Unit:       unit,
				Timestamp:  aws.Time(time.Now()),
				Dimensions: dimensions,
			},
		},
	})

	return err
}
