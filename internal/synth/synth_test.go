package synth

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizforge/internal/item"
	"quizforge/internal/llm"
)

func validOutput() json.RawMessage {
	return json.RawMessage(`{
		"question_text": "Which planet is known as the red planet?",
		"options": ["Venus", "Mars", "Jupiter", "Mercury"],
		"correct_index": 1,
		"difficulty": 2,
		"explanation": "Iron oxide gives Mars its reddish color.",
		"illustration_prompt": "a red planet in space"
	}`)
}

func TestSynthesizeItem(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: validOutput()})
	s := New(mock, DefaultConfig())

	it, err := s.SynthesizeItem(context.Background(), Input{
		Category:   item.CategoryScience,
		Difficulty: 2,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, it.ID)
	assert.Equal(t, item.CategoryScience, it.Category)
	assert.Equal(t, item.KindMultipleChoice, it.Kind)
	assert.Equal(t, "Which planet is known as the red planet?", it.Text)
	assert.Equal(t, 1, it.CorrectIndex)
	assert.Equal(t, "a red planet in space", it.IllustrationPrompt)
}

func TestSynthesizeItem_BackendError(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{}})
	s := New(mock, DefaultConfig())

	_, err := s.SynthesizeItem(context.Background(), Input{Category: item.CategoryScience, Difficulty: 1})
	require.Error(t, err)

	var unavail *llm.ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavail)
}

func TestSynthesizeItem_MalformedResponse(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`not json`)})
	s := New(mock, DefaultConfig())

	_, err := s.SynthesizeItem(context.Background(), Input{Category: item.CategoryScience, Difficulty: 1})
	require.Error(t, err)
}

func TestSynthesizeItem_ValidatorRejects(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(`{
		"question_text": "Which planet?",
		"options": ["Venus", "Mars"],
		"correct_index": 1,
		"difficulty": 2,
		"explanation": "x",
		"illustration_prompt": ""
	}`)})
	s := New(mock, DefaultConfig())

	_, err := s.SynthesizeItem(context.Background(), Input{Category: item.CategoryScience, Difficulty: 2})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "structural", verr.Validator)
}

func TestSynthesizeItem_PromptCarriesContext(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: validOutput()})
	s := New(mock, DefaultConfig())

	_, err := s.SynthesizeItem(context.Background(), Input{
		Category:     item.CategoryHistory,
		Difficulty:   3,
		PreviousKind: item.KindPlacement,
		BannedTopics: []string{"wars"},
		PriorTexts:   []string{"Who was the first emperor of Rome?"},
	})
	require.NoError(t, err)

	require.Len(t, mock.Calls, 1)
	msg := mock.Calls[0].Messages[0].Content
	assert.Contains(t, msg, "History")
	assert.Contains(t, msg, "Difficulty: 3")
	assert.Contains(t, msg, "placement")
	assert.Contains(t, msg, "wars")
	assert.Contains(t, msg, "Who was the first emperor of Rome?")
}

func TestSynthesizeItem_PriorTextsBounded(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: validOutput()})
	cfg := DefaultConfig()
	cfg.MaxPriorTexts = 2
	s := New(mock, cfg)

	_, err := s.SynthesizeItem(context.Background(), Input{
		Category:   item.CategoryHistory,
		Difficulty: 1,
		PriorTexts: []string{"first", "second", "third"},
	})
	require.NoError(t, err)

	msg := mock.Calls[0].Messages[0].Content
	assert.NotContains(t, msg, "first")
	assert.Contains(t, msg, "second")
	assert.Contains(t, msg, "third")
}

func TestSynthesizeIllustration(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.Image = []byte{0x89}
	s := New(mock, DefaultConfig())

	img, err := s.SynthesizeIllustration(context.Background(), "a red planet")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89}, img)
}

func TestSynthesizeIllustration_EmptyPrompt(t *testing.T) {
	mock := llm.NewMockProvider()
	mock.Image = []byte{0x89}
	s := New(mock, DefaultConfig())

	img, err := s.SynthesizeIllustration(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, img)
	assert.Zero(t, mock.IllustrateCall)
}
