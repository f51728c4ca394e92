// Package quiz is the session controller: the single consumer of the
// prefetch buffer and the entry point the presentation layer talks to.
package quiz

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"quizforge/internal/item"
)

// Buffer is the slice of the prefetch manager the controller drives.
type Buffer interface {
	Reset(category item.Category, difficulty int)
	EnsureFilled()
	TakeNext(ctx context.Context) *item.Item
	SetDifficulty(d int)
}

// ItemStore is the slice of the corpus store the controller mutates.
type ItemStore interface {
	UpdateDifficulty(ctx context.Context, recordID string, level int) error
	BlockIllustration(ctx context.Context, prompt string) error
}

// Stats accumulates per-session outcome counters.
type Stats struct {
	Answered int
	Correct  int
	Streak   int // positive: consecutive correct, negative: consecutive wrong
}

// Controller runs one quiz session at a time. It tracks every item it
// has handed out by serving id so outcome reports can be tied back to
// the item's stored record.
type Controller struct {
	buf   Buffer
	store ItemStore
	log   *zap.Logger

	mu         sync.Mutex
	category   item.Category
	difficulty int
	served     map[string]*item.Item
	stats      Stats
}

// New creates a Controller.
func New(buf Buffer, store ItemStore, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{
		buf:    buf,
		store:  store,
		log:    log,
		served: map[string]*item.Item{},
	}
}

// StartSession begins a fresh session for the category, discarding any
// previous session's queue and stats, and warms the buffer.
func (c *Controller) StartSession(category item.Category, difficulty int) {
	difficulty = item.ClampDifficulty(difficulty)

	c.mu.Lock()
	c.category = category
	c.difficulty = difficulty
	c.served = map[string]*item.Item{}
	c.stats = Stats{}
	c.mu.Unlock()

	c.buf.Reset(category, difficulty)
	c.buf.EnsureFilled()
}

// TakeNext returns the next item to display. It never returns nil once a
// session has started.
func (c *Controller) TakeNext(ctx context.Context) *item.Item {
	it := c.buf.TakeNext(ctx)
	if it == nil {
		return nil
	}
	c.mu.Lock()
	c.served[it.ID] = it
	c.mu.Unlock()
	return it
}

// ReportOutcome records whether the player answered the item correctly
// and nudges the session difficulty on streaks: three right in a row
// steps it up, two wrong in a row steps it down. Unknown ids are
// ignored.
func (c *Controller) ReportOutcome(itemID string, correct bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.served[itemID]; !ok {
		return
	}

	c.stats.Answered++
	if correct {
		c.stats.Correct++
		if c.stats.Streak < 0 {
			c.stats.Streak = 0
		}
		c.stats.Streak++
	} else {
		if c.stats.Streak > 0 {
			c.stats.Streak = 0
		}
		c.stats.Streak--
	}

	switch {
	case c.stats.Streak >= 3 && c.difficulty < item.MaxDifficulty:
		c.difficulty++
		c.stats.Streak = 0
		c.buf.SetDifficulty(c.difficulty)
	case c.stats.Streak <= -2 && c.difficulty > item.MinDifficulty:
		c.difficulty--
		c.stats.Streak = 0
		c.buf.SetDifficulty(c.difficulty)
	}
}

// ReportTooHard escalates the stored difficulty of the item's record,
// drops the session down a level, and forces a refill so nothing queued
// at the old level is served.
func (c *Controller) ReportTooHard(ctx context.Context, itemID string) error {
	c.mu.Lock()
	it, ok := c.served[itemID]
	if ok && c.difficulty > item.MinDifficulty {
		c.difficulty--
	}
	category, difficulty := c.category, c.difficulty
	c.stats.Streak = 0
	c.mu.Unlock()

	if !ok {
		return nil
	}

	if it.RecordID != "" {
		level := item.ClampDifficulty(it.Difficulty + 1)
		if err := c.store.UpdateDifficulty(ctx, it.RecordID, level); err != nil {
			c.log.Warn("difficulty update failed", zap.String("record_id", it.RecordID), zap.Error(err))
		}
	}

	c.buf.Reset(category, difficulty)
	c.buf.EnsureFilled()
	return nil
}

// ReportBadIllustration marks the prompt blocked so its image is never
// shown or re-synthesized.
func (c *Controller) ReportBadIllustration(ctx context.Context, prompt string) error {
	if prompt == "" {
		return nil
	}
	return c.store.BlockIllustration(ctx, prompt)
}

// Stats returns a snapshot of the session counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Difficulty returns the current session difficulty.
func (c *Controller) Difficulty() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.difficulty
}

// Category returns the active session category.
func (c *Controller) Category() item.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.category
}
