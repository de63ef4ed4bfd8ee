package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Conceptual-Machines/gyanguru-api/internal/audio"
	"github.com/Conceptual-Machines/gyanguru-api/internal/extract"
	"github.com/Conceptual-Machines/gyanguru-api/internal/llm"
	"github.com/Conceptual-Machines/gyanguru-api/internal/metrics"
	"github.com/Conceptual-Machines/gyanguru-api/internal/models"
	"github.com/Conceptual-Machines/gyanguru-api/internal/observability"
	"github.com/Conceptual-Machines/gyanguru-api/internal/prompt"
	"golang.org/x/sync/errgroup"
)

const (
	imageDataURIPrefix = "data:image/png;base64,"
	serviceName        = "learning"

	stepText    = "text"
	stepCode    = "code"
	stepScript  = "audio_script"
	stepSpeech  = "audio_speech"
	stepPrompts = "diagram_prompts"
	stepImage   = "diagram_image"
)

// ProviderSource resolves the provider serving a model
type ProviderSource interface {
	GetProvider(ctx context.Context, model, providerName string) (llm.Provider, error)
}

// LearningService generates learning material in each modality
type LearningService struct {
	providers ProviderSource
	prompts   *prompt.Builder
	parser    *extract.Parser
	options   LearningOptions
	metrics   *metrics.Recorder
	langfuse  *observability.LangfuseClient
}

// NewLearningService creates a learning service. recorder and langfuse may be nil.
func NewLearningService(
	providers ProviderSource,
	prompts *prompt.Builder,
	options LearningOptions,
	recorder *metrics.Recorder,
	langfuse *observability.LangfuseClient,
) *LearningService {
	if langfuse == nil {
		langfuse = observability.GetClient()
	}
	return &LearningService{
		providers: providers,
		prompts:   prompts,
		parser:    extract.NewParser(prompts.Language()),
		options:   options,
		metrics:   recorder,
		langfuse:  langfuse,
	}
}

// Explain returns a written explanation of the topic at the requested depth
func (s *LearningService) Explain(ctx context.Context, req models.GenerationRequest) (result *models.TextExplanation, err error) {
	run := s.begin(ctx, models.ModalityText, req.Topic)
	defer func() { run.end(err) }()

	text, err := s.prompts.TextExplanation(req)
	if err != nil {
		return nil, err
	}

	resp, err := s.generateText(ctx, run, stepText, &llm.TextRequest{Model: s.options.TextModel, Prompt: text})
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(resp.Text)
	if content == "" {
		return nil, llm.NewUpstreamError(run.providerName(s.options.TextModel), stepText, errors.New("empty explanation"))
	}

	return &models.TextExplanation{
		Topic:      req.Topic,
		Complexity: req.Complexity,
		Content:    content,
	}, nil
}

// GenerateCode returns a commented implementation split into dependencies, code and prose
func (s *LearningService) GenerateCode(ctx context.Context, req models.GenerationRequest) (result *models.CodeGenerationResult, err error) {
	run := s.begin(ctx, models.ModalityCode, req.Topic)
	defer func() { run.end(err) }()

	text, err := s.prompts.CodeImplementation(req)
	if err != nil {
		return nil, err
	}

	resp, err := s.generateText(ctx, run, stepCode, &llm.TextRequest{
		Model:          s.options.CodeModel,
		Prompt:         text,
		ThinkingBudget: int32(s.options.ThinkingBudget),
	})
	if err != nil {
		return nil, err
	}

	extracted := s.parser.Parse(resp.Text)
	return &extracted, nil
}

// GenerateAudioLesson writes a short lesson script, has it spoken and returns it as a WAV data URI
func (s *LearningService) GenerateAudioLesson(ctx context.Context, topic string) (result *models.AudioLesson, err error) {
	run := s.begin(ctx, models.ModalityAudio, topic)
	defer func() { run.end(err) }()

	scriptPrompt, err := s.prompts.AudioScript(topic)
	if err != nil {
		return nil, err
	}
	scriptResp, err := s.generateText(ctx, run, stepScript, &llm.TextRequest{Model: s.options.TextModel, Prompt: scriptPrompt})
	if err != nil {
		return nil, err
	}
	script := strings.TrimSpace(scriptResp.Text)
	if script == "" {
		return nil, llm.NewUpstreamError(run.providerName(s.options.TextModel), stepScript, errors.New("empty script"))
	}

	speechPrompt, err := s.prompts.AudioTTS(script)
	if err != nil {
		return nil, err
	}
	provider, err := s.provider(ctx, s.options.TTSModel)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	speech, err := provider.GenerateAudio(ctx, &llm.AudioRequest{
		Model:  s.options.TTSModel,
		Prompt: speechPrompt,
		Voice:  s.options.Voice,
	})
	if err != nil {
		return nil, err
	}
	run.record(stepSpeech, s.options.TTSModel, speechPrompt, "", speech.Usage, start)
	if speech.Data == "" {
		return nil, llm.NewUpstreamError(provider.Name(), stepSpeech, errors.New("response did not include audio data"))
	}

	sampleRate := audio.SampleRateFromMIME(speech.MIMEType, s.options.sampleRate())
	buf, err := audio.DecodeTranscode(speech.Data, sampleRate, s.options.channels())
	if err != nil {
		return nil, err
	}
	audioURL, err := audio.WAVDataURI(buf)
	if err != nil {
		return nil, err
	}

	return &models.AudioLesson{
		Topic:      topic,
		Script:     script,
		AudioURL:   audioURL,
		SampleRate: buf.SampleRate,
		Channels:   buf.Channels,
		FrameCount: buf.FrameCount(),
		Duration:   buf.Duration().Seconds(),
	}, nil
}

// GenerateVisualDiagrams asks for diagram descriptions and renders each one. Images are
// requested concurrently; ImageURLs keep the order of Prompts.
func (s *LearningService) GenerateVisualDiagrams(ctx context.Context, topic string) (result *models.VisualDiagrams, err error) {
	run := s.begin(ctx, models.ModalityVisual, topic)
	defer func() { run.end(err) }()

	request, err := s.prompts.DiagramPrompts(topic)
	if err != nil {
		return nil, err
	}
	provider, err := s.provider(ctx, s.options.TextModel)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := provider.GenerateStructured(ctx, &llm.StructuredRequest{
		Model:  s.options.TextModel,
		Prompt: request,
		Schema: llm.DiagramPromptsSchema(s.prompts.DiagramCount()),
	})
	if err != nil {
		return nil, err
	}
	run.record(stepPrompts, s.options.TextModel, request, resp.Text, resp.Usage, start)

	prompts, err := ParseDiagramPrompts(resp.Text)
	if err != nil {
		return nil, llm.NewUpstreamError(provider.Name(), stepPrompts, err)
	}

	imageURLs, err := s.renderDiagrams(ctx, run, prompts)
	if err != nil {
		return nil, err
	}

	return &models.VisualDiagrams{
		Topic:     topic,
		Prompts:   prompts,
		ImageURLs: imageURLs,
	}, nil
}

// renderDiagrams generates the images of every prompt, at most DiagramConcurrency at a time
func (s *LearningService) renderDiagrams(ctx context.Context, run *generationRun, prompts []string) ([]string, error) {
	provider, err := s.provider(ctx, s.options.ImageModel)
	if err != nil {
		return nil, err
	}

	perPrompt := make([][]string, len(prompts))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.options.diagramConcurrency())

	for i, description := range prompts {
		group.Go(func() error {
			imagePrompt, err := s.prompts.DiagramImage(description)
			if err != nil {
				return err
			}
			start := time.Now()
			resp, err := provider.GenerateImage(groupCtx, &llm.ImageRequest{
				Model:       s.options.ImageModel,
				Prompt:      imagePrompt,
				AspectRatio: s.options.AspectRatio,
			})
			if err != nil {
				return err
			}
			run.record(stepImage, s.options.ImageModel, imagePrompt, "", resp.Usage, start)

			urls := make([]string, 0, len(resp.Images))
			for _, image := range resp.Images {
				urls = append(urls, imageDataURIPrefix+image)
			}
			perPrompt[i] = urls
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	imageURLs := []string{}
	for _, urls := range perPrompt {
		imageURLs = append(imageURLs, urls...)
	}
	return imageURLs, nil
}

// ParseDiagramPrompts accepts a JSON array of strings or an object with a "prompts" array
func ParseDiagramPrompts(text string) ([]string, error) {
	text = strings.TrimSpace(text)

	var prompts []string
	if err := json.Unmarshal([]byte(text), &prompts); err == nil {
		return nonNil(prompts), nil
	}

	var wrapped struct {
		Prompts *[]string `json:"prompts"`
	}
	if err := json.Unmarshal([]byte(text), &wrapped); err != nil {
		return nil, fmt.Errorf("diagram prompts are not a JSON array of strings: %w", err)
	}
	if wrapped.Prompts == nil {
		return nil, errors.New(`diagram prompts object has no "prompts" array`)
	}
	return nonNil(*wrapped.Prompts), nil
}

func nonNil(prompts []string) []string {
	if prompts == nil {
		return []string{}
	}
	return prompts
}

func (s *LearningService) provider(ctx context.Context, model string) (llm.Provider, error) {
	provider, err := s.providers.GetProvider(ctx, model, s.options.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to get provider for %s: %w", model, err)
	}
	return provider, nil
}

func (s *LearningService) generateText(
	ctx context.Context, run *generationRun, step string, request *llm.TextRequest,
) (*llm.TextResponse, error) {
	provider, err := s.provider(ctx, request.Model)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := provider.GenerateText(ctx, request)
	if err != nil {
		return nil, err
	}
	run.record(step, request.Model, request.Prompt, resp.Text, resp.Usage, start)
	return resp, nil
}
