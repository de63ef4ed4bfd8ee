package prompt

import (
	"strings"

	"github.com/Conceptual-Machines/gyanguru-api/internal/extract"
	"github.com/Conceptual-Machines/gyanguru-api/internal/models"
)

// DefaultDiagramCount is the number of diagram descriptions requested per topic
const DefaultDiagramCount = 3

// Builder builds the prompts sent for each learning modality
type Builder struct {
	loader       *Loader
	language     string
	diagramCount int
}

// NewPromptBuilder creates a new prompt builder. An empty language means Python and a
// non-positive diagram count means DefaultDiagramCount.
func NewPromptBuilder(language string, diagramCount int) (*Builder, error) {
	loader, err := NewPromptLoader()
	if err != nil {
		return nil, err
	}
	if language == "" {
		language = extract.DefaultLanguage
	}
	if diagramCount <= 0 {
		diagramCount = DefaultDiagramCount
	}
	return &Builder{
		loader:       loader,
		language:     strings.ToLower(language),
		diagramCount: diagramCount,
	}, nil
}

// Language returns the code fence tag the code prompt asks for
func (b *Builder) Language() string {
	return b.language
}

// DiagramCount returns how many diagram descriptions are requested
func (b *Builder) DiagramCount() int {
	return b.diagramCount
}

// TextExplanation builds the tutor prompt for a written explanation
func (b *Builder) TextExplanation(req models.GenerationRequest) (string, error) {
	return b.loader.Render(TextExplanation, map[string]any{
		"Topic":      req.Topic,
		"Complexity": req.Complexity,
	})
}

// CodeImplementation builds the prompt for a commented implementation with a dependency line
func (b *Builder) CodeImplementation(req models.GenerationRequest) (string, error) {
	return b.loader.Render(CodeImplementation, map[string]any{
		"Topic":            req.Topic,
		"Complexity":       req.Complexity,
		"Language":         b.language,
		"LanguageName":     languageName(b.language),
		"DependencyMarker": extract.DependencyMarker,
	})
}

// AudioScript builds the prompt for a short conversational lesson script
func (b *Builder) AudioScript(topic string) (string, error) {
	return b.loader.Render(AudioScript, map[string]any{"Topic": topic})
}

// AudioTTS wraps a script for the speech model
func (b *Builder) AudioTTS(script string) (string, error) {
	return b.loader.Render(AudioTTS, map[string]any{"Script": script})
}

// DiagramPrompts builds the request for a JSON array of diagram descriptions
func (b *Builder) DiagramPrompts(topic string) (string, error) {
	return b.loader.Render(DiagramPrompts, map[string]any{
		"Topic": topic,
		"Count": b.diagramCount,
	})
}

// DiagramImage builds the image prompt for one diagram description
func (b *Builder) DiagramImage(description string) (string, error) {
	return b.loader.Render(DiagramImage, map[string]any{"Description": description})
}

var languageNames = map[string]string{
	"python":     "Python",
	"go":         "Go",
	"javascript": "JavaScript",
	"typescript": "TypeScript",
	"cpp":        "C++",
	"csharp":     "C#",
	"rust":       "Rust",
	"java":       "Java",
	"r":          "R",
	"julia":      "Julia",
}

func languageName(language string) string {
	if name, ok := languageNames[language]; ok {
		return name
	}
	if language == "" {
		return language
	}
	return strings.ToUpper(language[:1]) + language[1:]
}
