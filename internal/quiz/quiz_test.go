package quiz

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizforge/internal/item"
)

type fakeBuffer struct {
	resets      []struct {
		category   item.Category
		difficulty int
	}
	ensures     int
	difficulty  int
	nextCounter int
}

func (f *fakeBuffer) Reset(category item.Category, difficulty int) {
	f.resets = append(f.resets, struct {
		category   item.Category
		difficulty int
	}{category, difficulty})
}

func (f *fakeBuffer) EnsureFilled() { f.ensures++ }

func (f *fakeBuffer) TakeNext(_ context.Context) *item.Item {
	f.nextCounter++
	return &item.Item{
		ID:                 fmt.Sprintf("serve-%d", f.nextCounter),
		RecordID:           fmt.Sprintf("rec-%d", f.nextCounter),
		Category:           item.CategoryScience,
		Kind:               item.KindMultipleChoice,
		Difficulty:         2,
		Text:               "Which metal is liquid at room temperature?",
		Options:            []string{"Iron", "Mercury", "Gold", "Tin"},
		CorrectIndex:       1,
		Explanation:        "Mercury melts at about -39 C.",
		IllustrationPrompt: "a silvery liquid metal drop",
	}
}

func (f *fakeBuffer) SetDifficulty(d int) { f.difficulty = d }

type fakeStore struct {
	difficultyUpdates map[string]int
	blocked           []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{difficultyUpdates: map[string]int{}}
}

func (f *fakeStore) UpdateDifficulty(_ context.Context, recordID string, level int) error {
	f.difficultyUpdates[recordID] = level
	return nil
}

func (f *fakeStore) BlockIllustration(_ context.Context, prompt string) error {
	f.blocked = append(f.blocked, prompt)
	return nil
}

func newController() (*Controller, *fakeBuffer, *fakeStore) {
	buf := &fakeBuffer{}
	store := newFakeStore()
	c := New(buf, store, nil)
	c.StartSession(item.CategoryScience, 2)
	return c, buf, store
}

func TestStartSessionResetsAndWarmsBuffer(t *testing.T) {
	c, buf, _ := newController()

	require.Len(t, buf.resets, 1)
	assert.Equal(t, item.CategoryScience, buf.resets[0].category)
	assert.Equal(t, 2, buf.resets[0].difficulty)
	assert.Equal(t, 1, buf.ensures)
	assert.Equal(t, Stats{}, c.Stats())
}

func TestReportOutcomeTracksStats(t *testing.T) {
	c, _, _ := newController()

	a := c.TakeNext(context.Background())
	b := c.TakeNext(context.Background())
	c.ReportOutcome(a.ID, true)
	c.ReportOutcome(b.ID, false)

	stats := c.Stats()
	assert.Equal(t, 2, stats.Answered)
	assert.Equal(t, 1, stats.Correct)
}

func TestReportOutcomeIgnoresUnknownID(t *testing.T) {
	c, _, _ := newController()

	c.ReportOutcome("never-served", true)

	assert.Equal(t, Stats{}, c.Stats())
}

func TestStreakRaisesDifficulty(t *testing.T) {
	c, buf, _ := newController()

	for i := 0; i < 3; i++ {
		it := c.TakeNext(context.Background())
		c.ReportOutcome(it.ID, true)
	}

	assert.Equal(t, 3, c.Difficulty())
	assert.Equal(t, 3, buf.difficulty)
}

func TestWrongStreakLowersDifficulty(t *testing.T) {
	c, buf, _ := newController()

	for i := 0; i < 2; i++ {
		it := c.TakeNext(context.Background())
		c.ReportOutcome(it.ID, false)
	}

	assert.Equal(t, 1, c.Difficulty())
	assert.Equal(t, 1, buf.difficulty)
}

func TestDifficultyStaysInRange(t *testing.T) {
	c, _, _ := newController()

	for i := 0; i < 30; i++ {
		it := c.TakeNext(context.Background())
		c.ReportOutcome(it.ID, true)
	}
	assert.Equal(t, item.MaxDifficulty, c.Difficulty())

	for i := 0; i < 30; i++ {
		it := c.TakeNext(context.Background())
		c.ReportOutcome(it.ID, false)
	}
	assert.Equal(t, item.MinDifficulty, c.Difficulty())
}

func TestReportTooHardEscalatesRecordAndRefills(t *testing.T) {
	c, buf, store := newController()

	it := c.TakeNext(context.Background())
	require.NoError(t, c.ReportTooHard(context.Background(), it.ID))

	// The stored record is marked one level harder than labeled.
	assert.Equal(t, it.Difficulty+1, store.difficultyUpdates[it.RecordID])

	// The session steps down a level and the buffer is rebuilt.
	assert.Equal(t, 1, c.Difficulty())
	require.Len(t, buf.resets, 2)
	assert.Equal(t, 1, buf.resets[1].difficulty)
	assert.Equal(t, 2, buf.ensures)
}

func TestReportTooHardUnknownIDIsNoOp(t *testing.T) {
	c, buf, store := newController()

	require.NoError(t, c.ReportTooHard(context.Background(), "never-served"))

	assert.Empty(t, store.difficultyUpdates)
	assert.Len(t, buf.resets, 1)
	assert.Equal(t, 2, c.Difficulty())
}

func TestReportBadIllustrationBlocksPrompt(t *testing.T) {
	c, _, store := newController()

	it := c.TakeNext(context.Background())
	require.NoError(t, c.ReportBadIllustration(context.Background(), it.IllustrationPrompt))

	assert.Equal(t, []string{"a silvery liquid metal drop"}, store.blocked)
}

func TestReportBadIllustrationEmptyPrompt(t *testing.T) {
	c, _, store := newController()

	require.NoError(t, c.ReportBadIllustration(context.Background(), ""))

	assert.Empty(t, store.blocked)
}
