package llm

const (
	// DiagramPromptsSchemaName names the schema used when asking for diagram prompts
	DiagramPromptsSchemaName = "diagram_prompts"

	diagramPromptsMin = 1
)

// DiagramPromptsSchema returns the JSON schema for a list of image prompts.
// OpenAI requires an object at the root, so the list is wrapped in a "prompts" property.
func DiagramPromptsSchema(count int) *OutputSchema {
	prompts := map[string]any{
		"type":     "array",
		"items":    map[string]any{"type": "string"},
		"minItems": diagramPromptsMin,
	}
	if count > 0 {
		prompts["maxItems"] = count
	}

	return &OutputSchema{
		Name:        DiagramPromptsSchemaName,
		Description: "Detailed prompts for educational diagrams",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"prompts": prompts,
			},
			"required":             []string{"prompts"},
			"additionalProperties": false,
		},
	}
}
