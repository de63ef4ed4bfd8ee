package metrics

import (
	"context"
	"time"
)

// Recorder fans each measurement out to CloudWatch and Sentry. A nil Recorder records nothing.
type Recorder struct {
	cloudwatch *Client
	sentry     *SentryMetrics
}

// NewRecorder combines the two backends; either may be nil
func NewRecorder(cloudwatch *Client, sentryMetrics *SentryMetrics) *Recorder {
	return &Recorder{cloudwatch: cloudwatch, sentry: sentryMetrics}
}

// RecordAPIRequest records one HTTP request
func (r *Recorder) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if r == nil {
		return
	}
	if r.cloudwatch != nil {
		r.cloudwatch.RecordAPIRequest(endpoint, statusCode, duration)
	}
	if r.sentry != nil {
		r.sentry.RecordAPIRequest(ctx, endpoint, statusCode, duration)
	}
}

// RecordTokenUsage records the token counts of one model call
func (r *Recorder) RecordTokenUsage(ctx context.Context, model string, totalTokens, inputTokens, outputTokens int) {
	if r == nil {
		return
	}
	if r.cloudwatch != nil {
		r.cloudwatch.RecordTokenUsage(model, totalTokens, inputTokens, outputTokens)
	}
	if r.sentry != nil {
		r.sentry.RecordTokenUsage(ctx, model, totalTokens, inputTokens, outputTokens)
	}
}

// RecordGeneration records the outcome of one learning generation
func (r *Recorder) RecordGeneration(ctx context.Context, modality string, duration time.Duration, success bool) {
	if r == nil {
		return
	}
	if r.cloudwatch != nil {
		r.cloudwatch.RecordGeneration(modality, duration, success)
	}
	if r.sentry != nil {
		r.sentry.RecordGeneration(ctx, modality, duration, success)
	}
}
