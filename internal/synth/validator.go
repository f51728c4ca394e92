package synth

import (
	"fmt"

	"quizforge/internal/item"
)

// Validator checks a synthesized item for correctness.
// Implementations should be stateless and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier for this validator, e.g.
	// "structural".
	Name() string

	// Validate checks the item and returns nil if it passes.
	Validate(it *item.Item, input Input) *ValidationError
}

// ValidationError describes why an item failed validation.
type ValidationError struct {
	Validator string // Name of the validator that failed
	Message   string // Human-readable description of the failure
	Retryable bool   // Whether regeneration is likely to fix this
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// StructuralValidator checks that required fields are present, within
// length limits, and have valid enum values.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(it *item.Item, input Input) *ValidationError {
	if it.Text == "" {
		return &ValidationError{
			Validator: v.Name(),
			Message:   "question_text is empty",
			Retryable: true,
		}
	}
	if len(it.Text) > 500 {
		return &ValidationError{
			Validator: v.Name(),
			Message:   "question_text exceeds 500 characters",
			Retryable: true,
		}
	}
	if it.Explanation == "" {
		return &ValidationError{
			Validator: v.Name(),
			Message:   "explanation is empty",
			Retryable: true,
		}
	}
	if len(it.Options) != 4 {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("expected 4 options, got %d", len(it.Options)),
			Retryable: true,
		}
	}
	for i, opt := range it.Options {
		if opt == "" {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("option %d is empty", i),
				Retryable: true,
			}
		}
	}
	if it.CorrectIndex < 0 || it.CorrectIndex >= len(it.Options) {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("correct_index %d out of range", it.CorrectIndex),
			Retryable: true,
		}
	}
	if it.Difficulty < item.MinDifficulty || it.Difficulty > item.MaxDifficulty {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("difficulty must be between %d and %d", item.MinDifficulty, item.MaxDifficulty),
			Retryable: true,
		}
	}
	if !input.Category.Valid() {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("unknown category %q", input.Category),
			Retryable: false,
		}
	}
	return nil
}
