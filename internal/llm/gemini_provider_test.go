package llm

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiProvider_Name(t *testing.T) {
	provider := &GeminiProvider{client: nil}
	assert.Equal(t, "gemini", provider.Name())
}

func responseWithParts(parts ...*genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Role: "model", Parts: parts}},
		},
	}
}

func TestFirstInlineData(t *testing.T) {
	pcm := []byte{0x00, 0x40, 0x00, 0x80}

	tests := []struct {
		name     string
		response *genai.GenerateContentResponse
		want     []byte
	}{
		{
			name:     "nil response",
			response: nil,
			want:     nil,
		},
		{
			name:     "no candidates",
			response: &genai.GenerateContentResponse{},
			want:     nil,
		},
		{
			name:     "text only",
			response: responseWithParts(&genai.Part{Text: "hello"}),
			want:     nil,
		},
		{
			name: "skips text and empty blobs",
			response: responseWithParts(
				&genai.Part{Text: "preamble"},
				&genai.Part{InlineData: &genai.Blob{MIMEType: "audio/L16;rate=24000"}},
				nil,
				&genai.Part{InlineData: &genai.Blob{MIMEType: "audio/L16;rate=24000", Data: pcm}},
			),
			want: pcm,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := firstInlineData(tt.response)
			if tt.want == nil {
				assert.Nil(t, blob)
				return
			}
			require.NotNil(t, blob)
			assert.Equal(t, tt.want, blob.Data)
		})
	}
}

func TestInlineImages_PreservesOrder(t *testing.T) {
	first := []byte("first-png")
	second := []byte("second-png")

	images := inlineImages(responseWithParts(
		&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: first}},
		&genai.Part{Text: "caption"},
		&genai.Part{InlineData: &genai.Blob{MIMEType: "image/png", Data: second}},
	))

	require.Len(t, images, 2)
	assert.Equal(t, base64.StdEncoding.EncodeToString(first), images[0])
	assert.Equal(t, base64.StdEncoding.EncodeToString(second), images[1])

	assert.Empty(t, inlineImages(responseWithParts(&genai.Part{Text: "no image"})))
	assert.NotNil(t, inlineImages(nil))
}

func TestGeminiUsage(t *testing.T) {
	assert.Equal(t, Usage{}, geminiUsage(nil))
	assert.Equal(t, Usage{}, geminiUsage(&genai.GenerateContentResponse{}))

	usage := geminiUsage(&genai.GenerateContentResponse{
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     12,
			CandidatesTokenCount: 30,
			TotalTokenCount:      42,
		},
	})
	assert.Equal(t, Usage{InputTokens: 12, OutputTokens: 30, TotalTokens: 42}, usage)
}

func TestStructuredConfig(t *testing.T) {
	schema := DiagramPromptsSchema(3)

	config := structuredConfig(&StructuredRequest{Prompt: "diagrams", Schema: schema})
	assert.Equal(t, "application/json", config.ResponseMIMEType)
	assert.Equal(t, schema.Schema, config.ResponseJsonSchema)

	unconstrained := structuredConfig(&StructuredRequest{Prompt: "anything"})
	assert.Equal(t, "application/json", unconstrained.ResponseMIMEType)
	assert.Nil(t, unconstrained.ResponseJsonSchema)
}
