package embedded

import (
	"embed"
)

// PromptTemplates holds the text/template sources used to build model prompts
//
//go:embed data/prompts/*.tmpl
var PromptTemplates embed.FS

// PromptTemplateDir is the directory inside PromptTemplates holding the templates
const PromptTemplateDir = "data/prompts"
