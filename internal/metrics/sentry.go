package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	// HTTP status code threshold for considering a request successful
	successStatusCodeThreshold = http.StatusBadRequest
)

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client. Spans are only
// recorded when a DSN was configured.
func NewSentryMetrics(enabled bool) *SentryMetrics {
	return &SentryMetrics{
		enabled: enabled,
	}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if !m.enabled {
		return
	}

	// Create a span for API request tracking using the request context
	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	// Set span tags
	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", fmt.Sprintf("%d", statusCode))
	span.SetTag("success", fmt.Sprintf("%t", statusCode < successStatusCodeThreshold))

	// Set span data
	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("endpoint", endpoint)
	span.SetData("status_code", statusCode)

	// Set span status based on response
	if statusCode < successStatusCodeThreshold {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	// Set span description
	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// RecordSolve records one harmonize or voicelead call as a child span of
// the request transaction
func (m *SentryMetrics) RecordSolve(ctx context.Context, kind string, duration time.Duration, ok bool) {
	if !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "harmony."+kind)
	defer span.Finish()

	span.SetTag("kind", kind)
	span.SetTag("valid", fmt.Sprintf("%t", ok))
	span.SetData("duration_ms", duration.Milliseconds())

	if ok {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInvalidArgument
	}

	span.Description = fmt.Sprintf("Solve: %s", kind)
}
