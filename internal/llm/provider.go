package llm

import (
	"context"
	"fmt"
)

// Provider defines the generative backend the learning service talks to.
// Each call is a single request/response round trip keyed by model name and prompt.
type Provider interface {
	// GenerateText returns the free-text answer to a prompt
	GenerateText(ctx context.Context, request *TextRequest) (*TextResponse, error)

	// GenerateStructured returns a JSON document as text
	GenerateStructured(ctx context.Context, request *StructuredRequest) (*TextResponse, error)

	// GenerateAudio returns base64-encoded raw 16-bit PCM speech for a prompt
	GenerateAudio(ctx context.Context, request *AudioRequest) (*AudioResponse, error)

	// GenerateImage returns base64-encoded images for a prompt
	GenerateImage(ctx context.Context, request *ImageRequest) (*ImageResponse, error)

	// Name returns the provider name (e.g., "gemini", "openai")
	Name() string
}

// TextRequest contains the parameters of a text generation
type TextRequest struct {
	Model  string
	Prompt string
	// ThinkingBudget caps reasoning tokens when the model supports it; 0 leaves the default
	ThinkingBudget int32
}

// StructuredRequest asks for JSON output. Schema is optional; providers that require one get
// a generic object schema.
type StructuredRequest struct {
	Model  string
	Prompt string
	Schema *OutputSchema
}

// OutputSchema defines the expected JSON output structure
type OutputSchema struct {
	Name        string
	Description string
	Schema      map[string]any // JSON Schema object
}

// AudioRequest asks for speech
type AudioRequest struct {
	Model  string
	Prompt string
	Voice  string
}

// ImageRequest asks for one or more images
type ImageRequest struct {
	Model       string
	Prompt      string
	AspectRatio string
}

// Usage holds token counts reported by the backend
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// TextResponse contains text output
type TextResponse struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}

// AudioResponse contains base64 PCM output
type AudioResponse struct {
	Data     string `json:"data"`
	MIMEType string `json:"mime_type"`
	Usage    Usage  `json:"usage"`
}

// ImageResponse contains base64 image payloads in the order the backend returned them
type ImageResponse struct {
	Images []string `json:"images"`
	Usage  Usage    `json:"usage"`
}

// UpstreamError reports a failed backend call or a response of the wrong shape
type UpstreamError struct {
	Provider  string
	Operation string
	Err       error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Operation, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError wraps err as an UpstreamError
func NewUpstreamError(provider, operation string, err error) *UpstreamError {
	return &UpstreamError{Provider: provider, Operation: operation, Err: err}
}

const maxOutputTrunc = 200

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
