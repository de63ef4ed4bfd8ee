package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ProviderFactory creates providers based on model name or explicit provider choice.
// Each provider is created once and reused.
type ProviderFactory struct {
	openaiAPIKey string
	geminiAPIKey string

	mu        sync.Mutex
	providers map[string]Provider
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(openaiAPIKey, geminiAPIKey string) *ProviderFactory {
	return &ProviderFactory{
		openaiAPIKey: openaiAPIKey,
		geminiAPIKey: geminiAPIKey,
		providers:    make(map[string]Provider),
	}
}

// GetProvider returns the appropriate provider for the given model/provider name
func (f *ProviderFactory) GetProvider(ctx context.Context, model, providerName string) (Provider, error) {
	// If provider is explicitly specified, use that
	if providerName != "" {
		return f.getProviderByName(ctx, providerName)
	}

	// Otherwise, infer from model name
	return f.getProviderByName(ctx, ProviderForModel(model))
}

// getProviderByName returns the cached provider or creates it
func (f *ProviderFactory) getProviderByName(ctx context.Context, providerName string) (Provider, error) {
	name := strings.ToLower(providerName)

	f.mu.Lock()
	defer f.mu.Unlock()

	if provider, ok := f.providers[name]; ok {
		return provider, nil
	}

	provider, err := f.newProvider(ctx, name, providerName)
	if err != nil {
		return nil, err
	}
	f.providers[name] = provider
	return provider, nil
}

func (f *ProviderFactory) newProvider(ctx context.Context, name, providerName string) (Provider, error) {
	switch name {
	case providerNameOpenAI:
		if f.openaiAPIKey == "" {
			return nil, fmt.Errorf("openai API key not configured")
		}
		return NewOpenAIProvider(f.openaiAPIKey), nil

	case providerNameGemini:
		if f.geminiAPIKey == "" {
			return nil, fmt.Errorf("gemini API key not configured")
		}
		return NewGeminiProvider(ctx, f.geminiAPIKey)

	default:
		return nil, fmt.Errorf("unknown provider: %s (allowed: gemini, openai)", providerName)
	}
}

var openAIModelPrefixes = []string{"gpt-", "tts-", "dall-e", "o1", "o3", "o4"}

// ProviderForModel infers the provider name from a model name. Unknown models go to Gemini.
func ProviderForModel(model string) string {
	modelLower := strings.ToLower(model)
	for _, prefix := range openAIModelPrefixes {
		if strings.HasPrefix(modelLower, prefix) {
			return providerNameOpenAI
		}
	}
	return providerNameGemini
}
