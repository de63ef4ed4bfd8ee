package models

import (
	"fmt"
	"strings"
)

// ModalityType identifies which kind of learning material a generation produced
type ModalityType string

const (
	ModalityText   ModalityType = "Text"
	ModalityCode   ModalityType = "Code"
	ModalityAudio  ModalityType = "Audio"
	ModalityVisual ModalityType = "Visual"
)

// AllModalities lists the modalities in display order
var AllModalities = []ModalityType{ModalityText, ModalityCode, ModalityAudio, ModalityVisual}

// ParseModality accepts a modality name in any letter case
func ParseModality(s string) (ModalityType, error) {
	for _, m := range AllModalities {
		if strings.EqualFold(string(m), strings.TrimSpace(s)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown modality %q (allowed: Text, Code, Audio, Visual)", s)
}

// ComplexityLevel controls how deep a generated explanation goes
type ComplexityLevel string

const (
	ComplexityBrief         ComplexityLevel = "Brief"
	ComplexityDetailed      ComplexityLevel = "Detailed"
	ComplexityComprehensive ComplexityLevel = "Comprehensive"
)

// DefaultComplexity is used when a request leaves the level empty
const DefaultComplexity = ComplexityDetailed

// ParseComplexity accepts a level name in any letter case. Empty input yields the default.
func ParseComplexity(s string) (ComplexityLevel, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultComplexity, nil
	}
	for _, c := range []ComplexityLevel{ComplexityBrief, ComplexityDetailed, ComplexityComprehensive} {
		if strings.EqualFold(string(c), s) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown complexity %q (allowed: Brief, Detailed, Comprehensive)", s)
}

// GenerationRequest is the input of a single generate action
type GenerationRequest struct {
	Topic      string
	Complexity ComplexityLevel
}

// NewGenerationRequest validates the topic and complexity of a generate action
func NewGenerationRequest(topic, complexity string) (GenerationRequest, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return GenerationRequest{}, fmt.Errorf("topic is required")
	}
	level, err := ParseComplexity(complexity)
	if err != nil {
		return GenerationRequest{}, err
	}
	return GenerationRequest{Topic: topic, Complexity: level}, nil
}

// TextExplanation is the result of the text modality
type TextExplanation struct {
	Topic      string          `json:"topic"`
	Complexity ComplexityLevel `json:"complexity"`
	Content    string          `json:"content"`
}

// CodeGenerationResult is what gets extracted from a code generation response
type CodeGenerationResult struct {
	Dependencies []string `json:"dependencies"`
	Code         string   `json:"code"`
	Explanation  string   `json:"explanation"`
}

// AudioLesson is the result of the audio modality
type AudioLesson struct {
	Topic      string  `json:"topic"`
	Script     string  `json:"script"`
	AudioURL   string  `json:"audio_url"`
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
	FrameCount int     `json:"frame_count"`
	Duration   float64 `json:"duration_seconds"`
}

// VisualDiagrams is the result of the visual modality. ImageURLs follow the order of Prompts.
type VisualDiagrams struct {
	Topic     string   `json:"topic"`
	Prompts   []string `json:"prompts"`
	ImageURLs []string `json:"image_urls"`
}
