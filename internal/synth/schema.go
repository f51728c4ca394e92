package synth

import "quizforge/internal/llm"

// ItemSchema defines the JSON schema for item synthesis responses.
var ItemSchema = &llm.Schema{
	Name:        "quiz-item",
	Description: "A single multiple-choice quiz question with explanation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"question_text": map[string]any{
				"type":        "string",
				"description": "The question prompt shown to the player, in plain text",
			},
			"options": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "string",
				},
				"description": "Exactly 4 answer options, one of which is correct",
			},
			"correct_index": map[string]any{
				"type":        "integer",
				"minimum":     0,
				"maximum":     3,
				"description": "Zero-based index of the correct option",
			},
			"difficulty": map[string]any{
				"type":        "integer",
				"minimum":     1,
				"maximum":     5,
				"description": "Self-assessed difficulty from 1 (easy) to 5 (hard)",
			},
			"explanation": map[string]any{
				"type":        "string",
				"description": "A brief explanation of why the correct answer is right",
			},
			"illustration_prompt": map[string]any{
				"type":        "string",
				"description": "A short visual description for an optional illustration, or empty when no image would help",
			},
		},
		"required":             []any{"question_text", "options", "correct_index", "difficulty", "explanation", "illustration_prompt"},
		"additionalProperties": false,
	},
}
