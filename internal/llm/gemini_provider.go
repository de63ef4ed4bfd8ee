package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"google.golang.org/genai"
)

const (
	providerNameGemini = "gemini"
	mimeTypeJSON       = "application/json"
	modalityAudio      = "AUDIO"

	opText       = "text"
	opStructured = "structured"
	opAudio      = "audio"
	opImage      = "image"
)

// GeminiProvider implements the Provider interface using Google's Gemini API
type GeminiProvider struct {
	client *genai.Client
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return providerNameGemini
}

// GenerateText sends a single prompt and returns the response text
func (p *GeminiProvider) GenerateText(ctx context.Context, request *TextRequest) (*TextResponse, error) {
	config := &genai.GenerateContentConfig{}
	if request.ThinkingBudget > 0 {
		config.ThinkingConfig = &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(request.ThinkingBudget),
		}
	}

	result, err := p.generate(ctx, opText, request.Model, genai.Text(request.Prompt), config)
	if err != nil {
		return nil, err
	}

	return &TextResponse{
		Text:  result.Text(),
		Usage: geminiUsage(result),
	}, nil
}

// GenerateStructured asks Gemini for a JSON response, constrained by request.Schema when set
func (p *GeminiProvider) GenerateStructured(ctx context.Context, request *StructuredRequest) (*TextResponse, error) {
	config := structuredConfig(request)

	result, err := p.generate(ctx, opStructured, request.Model, genai.Text(request.Prompt), config)
	if err != nil {
		return nil, err
	}

	text := result.Text()
	if strings.TrimSpace(text) == "" {
		return nil, NewUpstreamError(providerNameGemini, opStructured, errors.New("response did not include any output text"))
	}
	log.Printf("📝 GEMINI STRUCTURED OUTPUT: %s", truncate(text, maxOutputTrunc))

	return &TextResponse{
		Text:  text,
		Usage: geminiUsage(result),
	}, nil
}

func structuredConfig(request *StructuredRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: mimeTypeJSON,
	}
	if request.Schema != nil && request.Schema.Schema != nil {
		config.ResponseJsonSchema = request.Schema.Schema
	}
	return config
}

// GenerateAudio asks a TTS model for speech with a prebuilt voice
func (p *GeminiProvider) GenerateAudio(ctx context.Context, request *AudioRequest) (*AudioResponse, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{modalityAudio},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: request.Voice},
			},
		},
	}

	result, err := p.generate(ctx, opAudio, request.Model, genai.Text(request.Prompt), config)
	if err != nil {
		return nil, err
	}

	blob := firstInlineData(result)
	if blob == nil {
		return nil, NewUpstreamError(providerNameGemini, opAudio, errors.New("response did not include inline audio data"))
	}

	return &AudioResponse{
		Data:     base64.StdEncoding.EncodeToString(blob.Data),
		MIMEType: blob.MIMEType,
		Usage:    geminiUsage(result),
	}, nil
}

// GenerateImage asks an image model for pictures. Every inline part of the first candidate is
// returned in order.
func (p *GeminiProvider) GenerateImage(ctx context.Context, request *ImageRequest) (*ImageResponse, error) {
	config := &genai.GenerateContentConfig{}
	if request.AspectRatio != "" {
		config.ImageConfig = &genai.ImageConfig{AspectRatio: request.AspectRatio}
	}

	result, err := p.generate(ctx, opImage, request.Model, genai.Text(request.Prompt), config)
	if err != nil {
		return nil, err
	}

	return &ImageResponse{
		Images: inlineImages(result),
		Usage:  geminiUsage(result),
	}, nil
}

// generate runs one GenerateContent call inside a Sentry transaction
func (p *GeminiProvider) generate(
	ctx context.Context, operation, model string, contents []*genai.Content, config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {
	transaction := sentry.StartTransaction(ctx, "gemini."+operation)
	defer transaction.Finish()

	transaction.SetTag("model", model)
	transaction.SetTag("provider", providerNameGemini)

	log.Printf("🎓 GEMINI %s REQUEST STARTED (Model: %s)", strings.ToUpper(operation), model)

	span := transaction.StartChild("gemini.api_call")
	start := time.Now()
	result, err := p.client.Models.GenerateContent(ctx, model, contents, config)
	duration := time.Since(start)
	span.Finish()

	if err != nil {
		log.Printf("❌ GEMINI %s FAILED after %v: %v", strings.ToUpper(operation), duration, err)
		transaction.SetTag("success", "false")
		sentry.CaptureException(err)
		return nil, NewUpstreamError(providerNameGemini, operation, err)
	}

	if len(result.Candidates) == 0 {
		transaction.SetTag("success", "false")
		return nil, NewUpstreamError(providerNameGemini, operation, errors.New("no candidates in response"))
	}

	if result.UsageMetadata != nil {
		log.Printf("📊 GEMINI USAGE: input=%d, output=%d, total=%d",
			result.UsageMetadata.PromptTokenCount,
			result.UsageMetadata.CandidatesTokenCount,
			result.UsageMetadata.TotalTokenCount)
	}

	log.Printf("⏱️  GEMINI %s COMPLETED in %v", strings.ToUpper(operation), duration)
	transaction.SetTag("success", "true")
	return result, nil
}

// firstInlineData returns the first inline blob of the first candidate
func firstInlineData(result *genai.GenerateContentResponse) *genai.Blob {
	for _, part := range candidateParts(result) {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData
		}
	}
	return nil
}

// inlineImages base64-encodes every inline blob of the first candidate
func inlineImages(result *genai.GenerateContentResponse) []string {
	images := []string{}
	for _, part := range candidateParts(result) {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			images = append(images, base64.StdEncoding.EncodeToString(part.InlineData.Data))
		}
	}
	return images
}

func candidateParts(result *genai.GenerateContentResponse) []*genai.Part {
	if result == nil || len(result.Candidates) == 0 {
		return nil
	}
	candidate := result.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return nil
	}
	parts := make([]*genai.Part, 0, len(candidate.Content.Parts))
	for _, part := range candidate.Content.Parts {
		if part != nil {
			parts = append(parts, part)
		}
	}
	return parts
}

func geminiUsage(result *genai.GenerateContentResponse) Usage {
	if result == nil || result.UsageMetadata == nil {
		return Usage{}
	}
	return Usage{
		InputTokens:  int(result.UsageMetadata.PromptTokenCount),
		OutputTokens: int(result.UsageMetadata.CandidatesTokenCount),
		TotalTokens:  int(result.UsageMetadata.TotalTokenCount),
	}
}
