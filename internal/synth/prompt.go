package synth

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a trivia question writer for a general-knowledge quiz game.

Rules:
- Generate a single multiple-choice question for the given category and difficulty.
- The question text should be clear, self-contained, and answerable without external context.
- Provide exactly 4 options where exactly one is correct. Distractors should be plausible, not absurd.
- Difficulty 1 means common knowledge; difficulty 5 means expert trivia. Match the requested level.
- The explanation should briefly say why the correct answer is right.
- Suggest a short illustration_prompt describing a simple picture for the question, or leave it empty when no image would help.
- Never write questions about any of the banned topics.
- Do not repeat or lightly rephrase any question from the "already in circulation" list.
- Vary the question style from the previous item when one is given.`

// buildUserMessage constructs the user message from Input and Config limits.
func buildUserMessage(input Input, cfg Config) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Category: %s\n", input.Category.DisplayName())
	fmt.Fprintf(&b, "Difficulty: %d\n", input.Difficulty)
	if input.PreviousKind != "" {
		fmt.Fprintf(&b, "Previous item kind: %s\n", input.PreviousKind)
	}

	b.WriteString("\nBanned topics:\n")
	b.WriteString(buildList(input.BannedTopics, 0))

	b.WriteString("\n\nAlready in circulation:\n")
	b.WriteString(buildList(input.PriorTexts, cfg.MaxPriorTexts))

	return b.String()
}

// buildList formats entries for the prompt, keeping only the most recent
// max entries when max > 0. Returns "None" for an empty list.
func buildList(entries []string, max int) string {
	if len(entries) == 0 {
		return "None"
	}

	if max > 0 && len(entries) > max {
		entries = entries[len(entries)-max:]
	}

	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. %s\n", i+1, e)
	}
	return strings.TrimRight(b.String(), "\n")
}
