package prompt

import (
	"fmt"
	"path"
	"strings"
	"text/template"

	"github.com/Conceptual-Machines/gyanguru-api/pkg/embedded"
)

// Template names, one per embedded file
const (
	TextExplanation    = "text_explanation.tmpl"
	CodeImplementation = "code_implementation.tmpl"
	AudioScript        = "audio_script.tmpl"
	AudioTTS           = "audio_tts.tmpl"
	DiagramPrompts     = "diagram_prompts.tmpl"
	DiagramImage       = "diagram_image.tmpl"
)

// Loader parses the embedded prompt templates
type Loader struct {
	templates *template.Template
}

// NewPromptLoader parses every embedded template. It fails only if an embedded file is malformed.
func NewPromptLoader() (*Loader, error) {
	templates, err := template.New("prompts").
		Option("missingkey=error").
		ParseFS(embedded.PromptTemplates, path.Join(embedded.PromptTemplateDir, "*.tmpl"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt templates: %w", err)
	}
	return &Loader{templates: templates}, nil
}

// Render executes a named template with data and trims surrounding whitespace
func (l *Loader) Render(name string, data any) (string, error) {
	tmpl := l.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("unknown prompt template: %s", name)
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s: %w", name, err)
	}
	return strings.TrimSpace(sb.String()), nil
}
