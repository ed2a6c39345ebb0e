package chat

import "github.com/DavidBatoDev/wally-chat-bot/internal/provider"

// Tool names the model may invoke instead of answering in free text.
// The decoder in decode.go maps each to exactly one UI action; names the
// decoder does not recognize degrade to a generic acknowledgment.
const (
	ToolButtons   = "ui.buttons"
	ToolInputs    = "ui.inputs"
	ToolTranslate = "doc.translate"
)

// ToolSchemas returns the fixed tool set sent to the backend on every
// invocation.
func ToolSchemas() []provider.ToolSchema {
	return []provider.ToolSchema{
		{
			Name:        ToolButtons,
			Description: "Offer the user a small fixed set of choices as tappable buttons.",
			Parameters: map[string]any{
				"prompt": map[string]any{
					"type":        "string",
					"description": "Short question shown above the buttons.",
				},
				"buttons": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Button labels, one per choice.",
				},
			},
		},
		{
			Name:        ToolInputs,
			Description: "Ask the user for structured values via a small form.",
			Parameters: map[string]any{
				"prompt": map[string]any{
					"type":        "string",
					"description": "Short explanation of what is being requested.",
				},
				"fields": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"name":  map[string]any{"type": "string"},
							"label": map[string]any{"type": "string"},
							"type":  map[string]any{"type": "string"},
						},
						"required": []string{"name", "label"},
					},
					"description": "Fields to collect from the user.",
				},
			},
		},
		{
			Name:        ToolTranslate,
			Description: "Start a document translation job once the document and target language are known.",
			Parameters: map[string]any{
				"project_id": map[string]any{
					"type":        "string",
					"description": "Identifier of the project holding the document.",
				},
				"page_id": map[string]any{
					"type":        "string",
					"description": "Optional page identifier; empty means the whole document.",
				},
				"target_language": map[string]any{
					"type":        "string",
					"description": "Language to translate into, e.g. 'French'.",
				},
			},
		},
	}
}
