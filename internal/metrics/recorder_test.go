package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_DisabledOutsideProduction(t *testing.T) {
	client, err := NewClient(context.Background(), "development")
	require.NoError(t, err)
	assert.False(t, client.enabled)
	assert.Nil(t, client.client)

	// disabled clients drop measurements without touching AWS
	client.RecordAPIRequest("/health", 200, time.Millisecond)
	client.RecordTokenUsage("gemini-3-flash-preview", 10, 4, 6)
	client.RecordGeneration("text", time.Second, true)
	assert.NoError(t, client.putMetric(context.Background(), "Generations", 1, "Count", nil))
}

func TestRecorder_NilSafe(t *testing.T) {
	ctx := context.Background()

	var nilRecorder *Recorder
	assert.NotPanics(t, func() {
		nilRecorder.RecordAPIRequest(ctx, "/health", 200, time.Millisecond)
		nilRecorder.RecordTokenUsage(ctx, "model", 1, 1, 0)
		nilRecorder.RecordGeneration(ctx, "text", time.Millisecond, true)
	})

	empty := NewRecorder(nil, nil)
	assert.NotPanics(t, func() {
		empty.RecordGeneration(ctx, "code", time.Millisecond, false)
	})
}

func TestRecorder_WithDisabledBackends(t *testing.T) {
	ctx := context.Background()
	client, err := NewClient(ctx, "test")
	require.NoError(t, err)

	recorder := NewRecorder(client, NewSentryMetrics(false))
	assert.NotPanics(t, func() {
		recorder.RecordAPIRequest(ctx, "/api/v1/generations/text", 502, time.Second)
		recorder.RecordTokenUsage(ctx, "gemini-3-pro-preview", 100, 40, 60)
		recorder.RecordGeneration(ctx, "visual", time.Second, false)
	})
}

func TestSentryMetrics_EnabledWithoutClient(t *testing.T) {
	// spans are no-ops when sentry.Init was never called
	ctx := context.Background()
	m := NewSentryMetrics(true)
	assert.NotPanics(t, func() {
		m.RecordAPIRequest(ctx, "/health", 200, time.Millisecond)
		m.RecordTokenUsage(ctx, "gpt-5-mini", 3, 1, 2)
		m.RecordGeneration(ctx, "audio", time.Millisecond, true)
	})
}
