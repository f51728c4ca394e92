package prefetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizforge/internal/corpus"
	"quizforge/internal/item"
	"quizforge/internal/picker"
)

type stubSelector struct {
	mu    sync.Mutex
	calls int
	reqs  []picker.Request

	// gate, when non-nil, holds every Select until it is closed.
	gate chan struct{}

	// prompt, when set, is attached to every produced item.
	prompt string
}

func (s *stubSelector) Select(_ context.Context, req picker.Request) *item.Item {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.reqs = append(s.reqs, req)
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return &item.Item{
		ID:                 fmt.Sprintf("it-%d", n),
		Category:           req.Category,
		Kind:               item.KindMultipleChoice,
		Difficulty:         req.Difficulty,
		Text:               fmt.Sprintf("question %d", n),
		Options:            []string{"a", "b", "c", "d"},
		Explanation:        "because",
		IllustrationPrompt: s.prompt,
	}
}

func (s *stubSelector) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubIllustrator struct {
	mu    sync.Mutex
	image []byte
	err   error
	calls int
}

func (s *stubIllustrator) SynthesizeIllustration(_ context.Context, _ string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.image, s.err
}

func (s *stubIllustrator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubCache struct {
	mu      sync.Mutex
	entries map[string]*corpus.Illustration
}

func newStubCache() *stubCache {
	return &stubCache{entries: map[string]*corpus.Illustration{}}
}

func (s *stubCache) Illustration(_ context.Context, prompt string) (*corpus.Illustration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[prompt], nil
}

func (s *stubCache) PutIllustration(_ context.Context, prompt string, image []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[prompt] = &corpus.Illustration{Prompt: prompt, Image: image}
	return nil
}

func newManager(t *testing.T, sel Selector, images Illustrator, cache ImageCache) *Manager {
	t.Helper()
	m := New(Config{TargetSize: 5, MaxConcurrent: 8}, sel, images, cache, nil, nil)
	m.Reset(item.CategoryScience, 2)
	return m
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 3*time.Second, 5*time.Millisecond, msg)
}

func TestEnsureFilledDispatchesUpToTarget(t *testing.T) {
	sel := &stubSelector{}
	m := newManager(t, sel, nil, nil)

	m.EnsureFilled()

	waitFor(t, func() bool { return m.QueueLen() == 5 }, "queue never filled")
	assert.Equal(t, 5, sel.callCount())
}

func TestEnsureFilledIsIdempotent(t *testing.T) {
	sel := &stubSelector{gate: make(chan struct{})}
	m := newManager(t, sel, nil, nil)

	m.EnsureFilled()
	waitFor(t, func() bool { return sel.callCount() == 5 }, "first fill never dispatched")

	m.EnsureFilled()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 5, sel.callCount(), "second call must dispatch nothing")

	close(sel.gate)
	waitFor(t, func() bool { return m.QueueLen() == 5 }, "queue never filled")
}

func TestEnsureFilledCountsInFlight(t *testing.T) {
	sel := &stubSelector{}
	m := newManager(t, sel, nil, nil)

	// Target 5, two ready, one still in flight: exactly two more.
	m.mu.Lock()
	m.queue = []*item.Item{
		{ID: "q-1", Kind: item.KindMultipleChoice},
		{ID: "q-2", Kind: item.KindMultipleChoice},
	}
	m.inflight = 1
	m.mu.Unlock()

	m.EnsureFilled()

	waitFor(t, func() bool { return m.QueueLen() == 4 }, "arrivals never appended")
	assert.Equal(t, 2, sel.callCount())
}

func TestTakeNextPopsInOrder(t *testing.T) {
	sel := &stubSelector{}
	m := newManager(t, sel, nil, nil)

	m.EnsureFilled()
	waitFor(t, func() bool { return m.QueueLen() == 5 }, "queue never filled")

	first := m.TakeNext(context.Background())
	second := m.TakeNext(context.Background())
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, second, m.Current())
}

func TestTakeNextOnEmptyQueueNeverReturnsNil(t *testing.T) {
	sel := &stubSelector{}
	m := newManager(t, sel, nil, nil)

	it := m.TakeNext(context.Background())

	require.NotNil(t, it)
	assert.Equal(t, item.CategoryScience, it.Category)
	// The emergency fetch also restores the buffer.
	waitFor(t, func() bool { return m.QueueLen() == 5 }, "buffer never restored")
}

func TestResetDiscardsLateArrivals(t *testing.T) {
	sel := &stubSelector{gate: make(chan struct{})}
	m := newManager(t, sel, nil, nil)

	m.EnsureFilled()
	waitFor(t, func() bool { return sel.callCount() == 5 }, "fill never dispatched")

	m.Reset(item.CategoryHistory, 1)
	close(sel.gate)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, m.QueueLen(), "stale results must not reach the new session")

	m.mu.Lock()
	inflight := m.inflight
	m.mu.Unlock()
	assert.Equal(t, 0, inflight)
}

func TestResetSwitchesCategory(t *testing.T) {
	sel := &stubSelector{}
	m := newManager(t, sel, nil, nil)

	m.Reset(item.CategoryGeography, 3)
	it := m.TakeNext(context.Background())

	require.NotNil(t, it)
	assert.Equal(t, item.CategoryGeography, it.Category)
	assert.Equal(t, 3, it.Difficulty)
}

func TestIllustrationResolvedAndPatched(t *testing.T) {
	sel := &stubSelector{prompt: "a red fox in a meadow"}
	ill := &stubIllustrator{image: []byte("png-bytes")}
	cache := newStubCache()
	m := New(Config{TargetSize: 1, MaxConcurrent: 2}, sel, ill, cache, nil, nil)
	events := m.Bus().Subscribe()
	m.Reset(item.CategoryScience, 2)

	m.EnsureFilled()

	select {
	case ev := <-events:
		assert.Equal(t, "a red fox in a meadow", ev.Prompt)
		assert.Equal(t, []byte("png-bytes"), ev.Image)
	case <-time.After(3 * time.Second):
		t.Fatal("no illustration event published")
	}

	waitFor(t, func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		return len(m.queue) == 1 && len(m.queue[0].Image) > 0
	}, "queued item never patched")

	cached, err := cache.Illustration(context.Background(), "a red fox in a meadow")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, []byte("png-bytes"), cached.Image)
}

func TestIllustrationSkipsBlockedPrompt(t *testing.T) {
	sel := &stubSelector{prompt: "a dragon"}
	ill := &stubIllustrator{image: []byte("png-bytes")}
	cache := newStubCache()
	cache.entries["a dragon"] = &corpus.Illustration{Prompt: "a dragon", Blocked: true}
	m := New(Config{TargetSize: 1, MaxConcurrent: 2}, sel, ill, cache, nil, nil)
	m.Reset(item.CategoryScience, 2)

	m.EnsureFilled()
	waitFor(t, func() bool { return m.QueueLen() == 1 }, "queue never filled")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, ill.callCount(), "blocked prompts must not be re-resolved")
	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Empty(t, m.queue[0].Image)
}

func TestIllustrationFailureLeavesItemUsable(t *testing.T) {
	sel := &stubSelector{prompt: "a volcano"}
	ill := &stubIllustrator{err: errors.New("image backend down")}
	m := New(Config{TargetSize: 1, MaxConcurrent: 2}, sel, ill, newStubCache(), nil, nil)
	m.Reset(item.CategoryScience, 2)

	m.EnsureFilled()
	waitFor(t, func() bool { return m.QueueLen() == 1 }, "queue never filled")

	it := m.TakeNext(context.Background())
	require.NotNil(t, it)
	assert.Empty(t, it.Image)
}

func TestOnlyOneDispatchPerBatchMayPlacePlacement(t *testing.T) {
	sel := &stubSelector{}
	m := newManager(t, sel, nil, nil)

	m.EnsureFilled()
	waitFor(t, func() bool { return m.QueueLen() == 5 }, "queue never filled")

	sel.mu.Lock()
	defer sel.mu.Unlock()
	open := 0
	for _, req := range sel.reqs {
		if !req.PlacementQueued {
			open++
		}
	}
	assert.Equal(t, 1, open, "exactly one dispatch may produce a placement item")
}

func TestDispatchCarriesPriorTextsFromQueueAndServed(t *testing.T) {
	sel := &stubSelector{}
	m := newManager(t, sel, nil, nil)

	m.EnsureFilled()
	waitFor(t, func() bool { return m.QueueLen() == 5 }, "queue never filled")

	served := m.TakeNext(context.Background())
	require.NotNil(t, served)
	waitFor(t, func() bool { return m.QueueLen() == 5 }, "top-up never arrived")

	sel.mu.Lock()
	defer sel.mu.Unlock()
	last := sel.reqs[len(sel.reqs)-1]
	// Four left in the queue plus the one just served.
	assert.Len(t, last.PriorTexts, 5)
	assert.Contains(t, last.PriorTexts, served.Text)
}

func TestResetClearsPriorTexts(t *testing.T) {
	sel := &stubSelector{}
	m := newManager(t, sel, nil, nil)

	m.EnsureFilled()
	waitFor(t, func() bool { return m.QueueLen() == 5 }, "queue never filled")
	require.NotNil(t, m.TakeNext(context.Background()))
	waitFor(t, func() bool { return sel.callCount() == 6 }, "top-up never dispatched")

	m.Reset(item.CategoryHistory, 1)
	before := sel.callCount()
	m.EnsureFilled()
	waitFor(t, func() bool { return sel.callCount() == before+5 }, "refill never dispatched")

	sel.mu.Lock()
	defer sel.mu.Unlock()
	for _, req := range sel.reqs[before:] {
		assert.Empty(t, req.PriorTexts, "old session texts must not leak into the new one")
	}
}

func TestDispatchCarriesPreviousKindFromTail(t *testing.T) {
	sel := &stubSelector{}
	m := newManager(t, sel, nil, nil)

	m.mu.Lock()
	m.queue = []*item.Item{
		{ID: "q-1", Kind: item.KindMultipleChoice},
		{ID: "q-2", Kind: item.KindPlacement},
	}
	m.mu.Unlock()

	m.EnsureFilled()
	waitFor(t, func() bool { return sel.callCount() == 3 }, "top-up never dispatched")

	sel.mu.Lock()
	defer sel.mu.Unlock()
	for _, req := range sel.reqs {
		assert.Equal(t, item.KindPlacement, req.PreviousKind)
		assert.True(t, req.PlacementQueued)
	}
}
