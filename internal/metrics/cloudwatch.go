package metrics

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

const (
	defaultNamespace         = "MAGDA/Harmony"
	httpStatusServerError    = 500
	cloudwatchTimeoutSeconds = 5
)

// Client wraps CloudWatch client for custom metrics
type Client struct {
	client      *cloudwatch.Client
	enabled     bool
	environment string
	namespace   string
}

// NewClient creates a new CloudWatch metrics client
func NewClient(ctx context.Context, environment, namespace string) (*Client, error) {
	if namespace == "" {
		namespace = defaultNamespace
	}

	// Only enable in production
	if environment != "production" {
		log.Printf("📊 CloudWatch Metrics: DISABLED (environment: %s)", environment)
		return &Client{
			enabled:     false,
			environment: environment,
			namespace:   namespace,
		}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		log.Printf("⚠️  Failed to load AWS config for CloudWatch: %v", err)
		return &Client{enabled: false, environment: environment, namespace: namespace}, nil
	}

	client := cloudwatch.NewFromConfig(cfg)
	log.Printf("📊 CloudWatch Metrics: ✅ ENABLED (namespace: %s)", namespace)

	return &Client{
		client:      client,
		enabled:     true,
		environment: environment,
		namespace:   namespace,
	}, nil
}

// RecordAPIRequest records a request count (APIRequests or APIErrors) and
// its latency, dimensioned by route
func (m *Client) RecordAPIRequest(endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	countName := "APIRequests"
	if statusCode >= httpStatusServerError {
		countName = "APIErrors"
	}
	dims := m.dimensions("Endpoint", endpoint)
	m.publish(
		datum(countName, 1, types.StandardUnitCount, dims),
		datum("APILatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dims),
	)
}

// RecordSolve records the latency of one harmonize/voicelead/arrange call
// and whether its result was invalid
func (m *Client) RecordSolve(kind string, duration time.Duration, valid bool) {
	if !m.enabled {
		return
	}

	invalid := 0.0
	if !valid {
		invalid = 1.0
	}
	dims := m.dimensions("Kind", kind)
	m.publish(
		datum("SolveDuration", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dims),
		datum("SolveInvalid", invalid, types.StandardUnitCount, dims),
	)
}

// dimensions pairs one metric-specific dimension with the environment.
func (m *Client) dimensions(name, value string) []types.Dimension {
	return []types.Dimension{
		{Name: aws.String(name), Value: aws.String(value)},
		{Name: aws.String("Environment"), Value: aws.String(m.environment)},
	}
}

func datum(name string, value float64, unit types.StandardUnit, dims []types.Dimension) types.MetricDatum {
	return types.MetricDatum{
		MetricName: aws.String(name),
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now()),
		Dimensions: dims,
	}
}

// publish sends the data points in one PutMetricData call, off the request
// goroutine. Failures are only logged.
func (m *Client) publish(data ...types.MetricDatum) {
	if m.client == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cloudwatchTimeoutSeconds*time.Second)
		defer cancel()

		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: data,
		})
		if err != nil {
			log.Printf("Failed to publish %d CloudWatch metrics (first: %s): %v", len(data), aws.ToString(data[0].MetricName), err)
		}
	}()
}

// Enabled reports whether metrics are sent to CloudWatch
func (m *Client) Enabled() bool {
	return m.enabled
}
