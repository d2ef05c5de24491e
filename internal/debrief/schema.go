package debrief

import "github.com/cbot-lab/cbot/internal/llm"

// DebriefSchema constrains the study-plan response.
var DebriefSchema = &llm.Schema{
	Name:        "attempt-debrief",
	Description: "Study plan for the topics an examinee missed in a test attempt",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "2-3 sentence overview of where the examinee lost marks",
			},
			"topics": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"topic": map[string]any{
							"type":        "string",
							"description": "Topic name exactly as given in the input",
						},
						"focus": map[string]any{
							"type":        "string",
							"description": "What to revise for this topic (1-2 sentences)",
						},
						"pages": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Page references to revisit, taken from the input",
						},
					},
					"required":             []any{"topic", "focus", "pages"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"summary", "topics"},
		"additionalProperties": false,
	},
}
