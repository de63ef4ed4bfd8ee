package services

import (
	"github.com/Conceptual-Machines/gyanguru-api/internal/audio"
	"github.com/Conceptual-Machines/gyanguru-api/internal/config"
	"github.com/Conceptual-Machines/gyanguru-api/internal/models"
)

const defaultDiagramConcurrency = 3

// LearningOptions holds the per-modality model choices and tuning of the learning service
type LearningOptions struct {
	Provider string // Explicit provider name; empty infers it from each model name

	TextModel  string
	CodeModel  string
	TTSModel   string
	ImageModel string

	Voice              string
	ThinkingBudget     int
	AspectRatio        string
	DiagramConcurrency int

	SampleRate int
	Channels   int
}

// OptionsFromConfig reads LearningOptions from the application configuration
func OptionsFromConfig(cfg *config.Config) LearningOptions {
	return LearningOptions{
		Provider:           cfg.LLMProvider,
		TextModel:          cfg.TextModel,
		CodeModel:          cfg.CodeModel,
		TTSModel:           cfg.TTSModel,
		ImageModel:         cfg.ImageModel,
		Voice:              cfg.TTSVoice,
		ThinkingBudget:     cfg.CodeThinkingBudget,
		AspectRatio:        cfg.ImageAspectRatio,
		DiagramConcurrency: cfg.DiagramConcurrency,
		SampleRate:         cfg.AudioSampleRate,
		Channels:           cfg.AudioChannels,
	}
}

// ModelFor returns the model used for the first call of a modality. Audio lessons also call
// TTSModel and visual diagrams also call ImageModel.
func (o LearningOptions) ModelFor(modality models.ModalityType) string {
	switch modality {
	case models.ModalityCode:
		return o.CodeModel
	default:
		return o.TextModel
	}
}

func (o LearningOptions) diagramConcurrency() int {
	if o.DiagramConcurrency < 1 {
		return defaultDiagramConcurrency
	}
	return o.DiagramConcurrency
}

func (o LearningOptions) sampleRate() int {
	if o.SampleRate == 0 {
		return audio.DefaultSampleRate
	}
	return o.SampleRate
}

func (o LearningOptions) channels() int {
	if o.Channels == 0 {
		return audio.DefaultChannels
	}
	return o.Channels
}
