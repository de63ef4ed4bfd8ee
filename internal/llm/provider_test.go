package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpstreamError(t *testing.T) {
	cause := errors.New("quota exceeded")
	err := NewUpstreamError("gemini", "image", cause)

	assert.Equal(t, "gemini image failed: quota exceeded", err.Error())
	assert.ErrorIs(t, err, cause)

	var wrapped error = err
	var upstream *UpstreamError
	require.True(t, errors.As(wrapped, &upstream))
	assert.Equal(t, "image", upstream.Operation)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
	assert.Equal(t, "", truncate("", 3))
}

func TestDiagramPromptsSchema(t *testing.T) {
	schema := DiagramPromptsSchema(3)
	require.NotNil(t, schema)
	assert.Equal(t, DiagramPromptsSchemaName, schema.Name)
	assert.Equal(t, "object", schema.Schema["type"])

	properties, ok := schema.Schema["properties"].(map[string]any)
	require.True(t, ok)
	prompts, ok := properties["prompts"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "array", prompts["type"])
	assert.Equal(t, 3, prompts["maxItems"])

	unbounded := DiagramPromptsSchema(0)
	prompts = unbounded.Schema["properties"].(map[string]any)["prompts"].(map[string]any)
	_, hasMax := prompts["maxItems"]
	assert.False(t, hasMax)
}

func TestProviderForModel(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"gpt-5-mini", "openai"},
		{"GPT-4o", "openai"},
		{"gpt-image-1", "openai"},
		{"tts-1", "openai"},
		{"dall-e-3", "openai"},
		{"o3-mini", "openai"},
		{"gemini-3-flash-preview", "gemini"},
		{"gemini-2.5-flash-preview-tts", "gemini"},
		{"", "gemini"},
		{"something-else", "gemini"},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, ProviderForModel(tt.model))
		})
	}
}

func TestProviderFactory_GetProvider(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit openai", func(t *testing.T) {
		factory := NewProviderFactory("sk-test", "")
		provider, err := factory.GetProvider(ctx, "gemini-3-flash-preview", "OpenAI")
		require.NoError(t, err)
		assert.Equal(t, "openai", provider.Name())
	})

	t.Run("inferred openai", func(t *testing.T) {
		factory := NewProviderFactory("sk-test", "")
		provider, err := factory.GetProvider(ctx, "gpt-5-mini", "")
		require.NoError(t, err)
		assert.Equal(t, "openai", provider.Name())
	})

	t.Run("inferred gemini", func(t *testing.T) {
		factory := NewProviderFactory("", "test-gemini-key")
		provider, err := factory.GetProvider(ctx, "gemini-3-flash-preview", "")
		require.NoError(t, err)
		assert.Equal(t, "gemini", provider.Name())
	})

	t.Run("missing openai key", func(t *testing.T) {
		factory := NewProviderFactory("", "test-gemini-key")
		_, err := factory.GetProvider(ctx, "gpt-5-mini", "")
		assert.ErrorContains(t, err, "openai API key not configured")
	})

	t.Run("missing gemini key", func(t *testing.T) {
		factory := NewProviderFactory("sk-test", "")
		_, err := factory.GetProvider(ctx, "gemini-3-pro-preview", "")
		assert.ErrorContains(t, err, "gemini API key not configured")
	})

	t.Run("providers are reused", func(t *testing.T) {
		factory := NewProviderFactory("sk-test", "")
		first, err := factory.GetProvider(ctx, "gpt-5-mini", "")
		require.NoError(t, err)
		second, err := factory.GetProvider(ctx, "gpt-4o", "openai")
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("unknown provider", func(t *testing.T) {
		factory := NewProviderFactory("sk-test", "test-gemini-key")
		_, err := factory.GetProvider(ctx, "", "anthropic")
		assert.ErrorContains(t, err, "unknown provider: anthropic")
	})
}
