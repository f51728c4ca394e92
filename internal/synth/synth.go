// Package synth adapts the llm provider layer into the narrow
// request/response contract the content-supply engine consumes: turn a
// category/difficulty tuple into a quiz item, or a prompt into an
// illustration.
package synth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"quizforge/internal/item"
	"quizforge/internal/llm"
)

// Input holds all context needed to synthesize one item.
type Input struct {
	Category   item.Category
	Difficulty int

	// PreviousKind is the kind of the item most recently queued or shown,
	// passed through so the backend can vary formats.
	PreviousKind item.Kind

	// BannedTopics lists subjects the backend must avoid.
	BannedTopics []string

	// PriorTexts contains question texts already in circulation, included
	// in the prompt so the backend avoids repeats.
	PriorTexts []string
}

// Synthesizer produces quiz items and illustrations from a generative
// backend. Illustration support depends on the configured provider.
type Synthesizer struct {
	provider llm.Provider
	images   llm.ImageProvider
	config   Config
}

// New creates a Synthesizer with the given provider and config.
func New(provider llm.Provider, cfg Config) *Synthesizer {
	s := &Synthesizer{provider: provider, config: cfg}
	if ip, ok := llm.ImageFrom(provider); ok {
		s.images = ip
	}
	return s
}

// itemOutput is the raw backend response before validation.
type itemOutput struct {
	QuestionText       string   `json:"question_text"`
	Options            []string `json:"options"`
	CorrectIndex       int      `json:"correct_index"`
	Difficulty         int      `json:"difficulty"`
	Explanation        string   `json:"explanation"`
	IllustrationPrompt string   `json:"illustration_prompt"`
}

// SynthesizeItem produces a single validated item for the given input.
func (s *Synthesizer) SynthesizeItem(ctx context.Context, input Input) (*item.Item, error) {
	ctx = llm.WithPurpose(ctx, "item-gen")

	req := llm.Request{
		System: systemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildUserMessage(input, s.config)},
		},
		Schema:      ItemSchema,
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("item synthesis failed: %w", err)
	}

	var raw itemOutput
	if err := json.Unmarshal(resp.Content, &raw); err != nil {
		return nil, fmt.Errorf("parse synthesis response: %w", err)
	}

	it := &item.Item{
		ID:                 uuid.NewString(),
		Category:           input.Category,
		Kind:               item.KindMultipleChoice,
		Difficulty:         raw.Difficulty,
		Text:               raw.QuestionText,
		Options:            raw.Options,
		CorrectIndex:       raw.CorrectIndex,
		Explanation:        raw.Explanation,
		IllustrationPrompt: raw.IllustrationPrompt,
	}

	// Run validators in order.
	for _, v := range s.config.Validators {
		if verr := v.Validate(it, input); verr != nil {
			return nil, verr
		}
	}

	return it, nil
}

// SynthesizeIllustration renders an image for the prompt. Returns
// (nil, nil) when the configured provider has no image support or the
// backend declines the prompt; illustration is always optional.
func (s *Synthesizer) SynthesizeIllustration(ctx context.Context, prompt string) ([]byte, error) {
	if s.images == nil || prompt == "" {
		return nil, nil
	}
	img, err := s.images.Illustrate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("illustration synthesis failed: %w", err)
	}
	return img, nil
}
