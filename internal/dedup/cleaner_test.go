package dedup

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizforge/internal/item"
	"quizforge/internal/llm"
)

type fakeLister struct {
	items []*item.Item
	err   error
}

func (f *fakeLister) AllItems(_ context.Context) ([]*item.Item, error) {
	return f.items, f.err
}

type fakeDeleter struct {
	mu      sync.Mutex
	batches [][]string
	err     error
}

func (f *fakeDeleter) DeleteItems(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, append([]string(nil), ids...))
	return nil
}

func (f *fakeDeleter) deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []string
	for _, b := range f.batches {
		all = append(all, b...)
	}
	return all
}

func corpusItem(recordID string, text string) *item.Item {
	return &item.Item{
		RecordID: recordID,
		Category: item.CategoryHistory,
		Kind:     item.KindMultipleChoice,
		Text:     text,
	}
}

func TestCleaner_DeletesDuplicates(t *testing.T) {
	lister := &fakeLister{items: []*item.Item{
		corpusItem("r1", "Which empire built the Colosseum in Rome?"),
		corpusItem("r2", "Which empire built the Colosseum in Rome??"),
		corpusItem("r3", "Which dynasty built the Great Wall of China?"),
	}}
	deleter := &fakeDeleter{}

	c := NewCleaner(lister, deleter, nil)
	n, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"r2"}, deleter.deleted())
}

func TestCleaner_NoDuplicatesNoDeletes(t *testing.T) {
	lister := &fakeLister{items: []*item.Item{
		corpusItem("r1", "Which empire built the Colosseum in Rome?"),
		corpusItem("r2", "Which dynasty built the Great Wall of China?"),
	}}
	deleter := &fakeDeleter{}

	c := NewCleaner(lister, deleter, nil)
	n, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, deleter.batches)
}

func TestCleaner_ListFailureAbortsBeforeDeletes(t *testing.T) {
	lister := &fakeLister{err: assert.AnError}
	deleter := &fakeDeleter{}

	c := NewCleaner(lister, deleter, nil)
	_, err := c.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, deleter.batches)
}

func TestCleaner_BoundedBatches(t *testing.T) {
	base := "Which empire built the Colosseum in Rome?"
	items := []*item.Item{corpusItem("keep", base)}
	for i := 0; i < 7; i++ {
		// Each variant is a near-duplicate of the canonical first item.
		items = append(items, corpusItem(string(rune('a'+i)), base+"?"))
	}
	lister := &fakeLister{items: items}
	deleter := &fakeDeleter{}

	c := NewCleaner(lister, deleter, nil)
	c.BatchSize = 3
	c.Parallelism = 1
	n, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	require.Len(t, deleter.batches, 3)
	for _, b := range deleter.batches {
		assert.LessOrEqual(t, len(b), 3)
	}
}

func TestCleaner_QuotaSignalStopsPass(t *testing.T) {
	base := "Which empire built the Colosseum in Rome?"
	items := []*item.Item{corpusItem("keep", base)}
	for i := 0; i < 7; i++ {
		items = append(items, corpusItem(string(rune('a'+i)), base+"?"))
	}
	lister := &fakeLister{items: items}
	deleter := &fakeDeleter{err: &llm.ErrRateLimit{Err: assert.AnError}}

	c := NewCleaner(lister, deleter, nil)
	c.BatchSize = 3
	c.Parallelism = 1
	_, err := c.Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, deleter.batches)
}
