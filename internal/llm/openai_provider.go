package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
)

const (
	providerNameOpenAI = "openai"
	mimeTypePCM        = "audio/pcm"
	defaultSchemaName  = "structured_output"
)

// OpenAIProvider implements the Provider interface using OpenAI's Responses, Speech and Images APIs
type OpenAIProvider struct {
	client *openai.Client
}

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{
		client: &client,
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return providerNameOpenAI
}

// GenerateText sends a single prompt through the Responses API
func (p *OpenAIProvider) GenerateText(ctx context.Context, request *TextRequest) (*TextResponse, error) {
	params := responses.ResponseNewParams{
		Model: request.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(request.Prompt),
		},
	}
	return p.respond(ctx, opText, params)
}

// GenerateStructured requests JSON Schema constrained output
func (p *OpenAIProvider) GenerateStructured(ctx context.Context, request *StructuredRequest) (*TextResponse, error) {
	schema := request.Schema
	if schema == nil {
		schema = &OutputSchema{
			Name:   defaultSchemaName,
			Schema: map[string]any{"type": "object"},
		}
	}

	params := responses.ResponseNewParams{
		Model: request.Model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(request.Prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigParamOfJSONSchema(schema.Name, schema.Schema),
		},
	}
	log.Printf("📋 JSON SCHEMA CONFIGURED: %s", schema.Name)

	return p.respond(ctx, opStructured, params)
}

// GenerateAudio uses the Speech API with raw PCM output (24kHz, 16-bit, mono)
func (p *OpenAIProvider) GenerateAudio(ctx context.Context, request *AudioRequest) (*AudioResponse, error) {
	transaction := sentry.StartTransaction(ctx, "openai.audio")
	defer transaction.Finish()
	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)

	start := time.Now()
	resp, err := p.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(request.Model),
		Input:          request.Prompt,
		Voice:          openai.AudioSpeechNewParamsVoice(strings.ToLower(request.Voice)),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatPCM,
	})
	if err != nil {
		return nil, p.fail(transaction, opAudio, start, err)
	}
	defer resp.Body.Close()

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, p.fail(transaction, opAudio, start, fmt.Errorf("reading speech body: %w", err))
	}
	if len(pcm) == 0 {
		return nil, p.fail(transaction, opAudio, start, errors.New("empty speech body"))
	}

	log.Printf("⏱️  OPENAI AUDIO COMPLETED in %v (%d bytes)", time.Since(start), len(pcm))
	transaction.SetTag("success", "true")

	return &AudioResponse{
		Data:     base64.StdEncoding.EncodeToString(pcm),
		MIMEType: mimeTypePCM,
	}, nil
}

// GenerateImage uses the Images API with base64 output
func (p *OpenAIProvider) GenerateImage(ctx context.Context, request *ImageRequest) (*ImageResponse, error) {
	transaction := sentry.StartTransaction(ctx, "openai.image")
	defer transaction.Finish()
	transaction.SetTag("model", request.Model)
	transaction.SetTag("provider", providerNameOpenAI)

	start := time.Now()
	resp, err := p.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Model:          openai.ImageModel(request.Model),
		Prompt:         request.Prompt,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
		Size:           openAIImageSize(request.AspectRatio),
	})
	if err != nil {
		return nil, p.fail(transaction, opImage, start, err)
	}

	images := []string{}
	for _, image := range resp.Data {
		if image.B64JSON != "" {
			images = append(images, image.B64JSON)
		}
	}

	log.Printf("⏱️  OPENAI IMAGE COMPLETED in %v (%d images)", time.Since(start), len(images))
	transaction.SetTag("success", "true")

	return &ImageResponse{Images: images}, nil
}

func (p *OpenAIProvider) respond(ctx context.Context, operation string, params responses.ResponseNewParams) (*TextResponse, error) {
	transaction := sentry.StartTransaction(ctx, "openai."+operation)
	defer transaction.Finish()
	transaction.SetTag("model", params.Model)
	transaction.SetTag("provider", providerNameOpenAI)

	log.Printf("🎓 OPENAI %s REQUEST STARTED (Model: %s)", strings.ToUpper(operation), params.Model)

	span := transaction.StartChild("openai.api_call")
	start := time.Now()
	resp, err := p.client.Responses.New(ctx, params)
	span.Finish()
	if err != nil {
		return nil, p.fail(transaction, operation, start, err)
	}

	text := resp.OutputText()
	if operation == opStructured && strings.TrimSpace(text) == "" {
		return nil, p.fail(transaction, operation, start, errors.New("response did not include any output text"))
	}

	if operation == opStructured {
		log.Printf("📝 OPENAI STRUCTURED OUTPUT: %s", truncate(text, maxOutputTrunc))
	}
	log.Printf("📊 OPENAI USAGE: input=%d, output=%d, total=%d",
		resp.Usage.InputTokens, resp.Usage.OutputTokens, resp.Usage.TotalTokens)
	log.Printf("⏱️  OPENAI %s COMPLETED in %v", strings.ToUpper(operation), time.Since(start))
	transaction.SetTag("success", "true")

	return &TextResponse{
		Text: text,
		Usage: Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
			TotalTokens:  int(resp.Usage.TotalTokens),
		},
	}, nil
}

func (p *OpenAIProvider) fail(transaction *sentry.Span, operation string, start time.Time, err error) error {
	log.Printf("❌ OPENAI %s FAILED after %v: %v", strings.ToUpper(operation), time.Since(start), err)
	transaction.SetTag("success", "false")
	sentry.CaptureException(err)
	return NewUpstreamError(providerNameOpenAI, operation, err)
}

// openAIImageSize maps an aspect ratio onto the closest supported size
func openAIImageSize(aspectRatio string) openai.ImageGenerateParamsSize {
	switch aspectRatio {
	case "16:9", "4:3", "3:2":
		return openai.ImageGenerateParamsSize1792x1024
	case "9:16", "3:4", "2:3":
		return openai.ImageGenerateParamsSize1024x1792
	default:
		return openai.ImageGenerateParamsSize1024x1024
	}
}
