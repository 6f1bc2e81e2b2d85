package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchAPI is the subset of the CloudWatch client used for metrics
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchRecorder sends pipeline metrics to CloudWatch
type CloudWatchRecorder struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger
}

// NewCloudWatchRecorder creates a new CloudWatch recorder
func NewCloudWatchRecorder(namespace string, client CloudWatchAPI, logger *zap.Logger) *CloudWatchRecorder {
	return &CloudWatchRecorder{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// RecordCacheLookup counts a cache lookup by outcome
func (m *CloudWatchRecorder) RecordCacheLookup(ctx context.Context, outcome string) {
	m.put(ctx, types.MetricDatum{
		MetricName: aws.String("CacheLookup"),
		Dimensions: []types.Dimension{
			{Name: aws.String("Outcome"), Value: aws.String(outcome)},
		},
		Value:     aws.Float64(1),
		Unit:      types.StandardUnitCount,
		Timestamp: aws.Time(time.Now()),
	})
}

// RecordCacheWrite counts cache writes by status
func (m *CloudWatchRecorder) RecordCacheWrite(ctx context.Context, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.put(ctx, types.MetricDatum{
		MetricName: aws.String("CacheWrite"),
		Dimensions: []types.Dimension{
			{Name: aws.String("Status"), Value: aws.String(status)},
		},
		Value:     aws.Float64(1),
		Unit:      types.StandardUnitCount,
		Timestamp: aws.Time(time.Now()),
	})
}

// RecordGeneration records generation latency and count by result code
func (m *CloudWatchRecorder) RecordGeneration(ctx context.Context, code string, duration time.Duration) {
	dims := []types.Dimension{
		{Name: aws.String("Result"), Value: aws.String(code)},
	}
	now := aws.Time(time.Now())
	m.put(ctx,
		types.MetricDatum{
			MetricName: aws.String("GenerationLatency"),
			Dimensions: dims,
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  now,
		},
		types.MetricDatum{
			MetricName: aws.String("GenerationCount"),
			Dimensions: dims,
			Value:      aws.Float64(1),
			Unit:       types.StandardUnitCount,
			Timestamp:  now,
		},
	)
}

func (m *CloudWatchRecorder) put(ctx context.Context, data ...types.MetricDatum) {
	if m.client == nil {
		return
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}

	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		// Metrics are best effort
		m.logger.Warn("Failed to send metrics", zap.Error(err))
	}
}
