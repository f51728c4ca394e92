package dedup

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quizforge/internal/item"
	"quizforge/internal/llm"
)

// Lister exposes the corpus read side the cleaner scans.
type Lister interface {
	AllItems(ctx context.Context) ([]*item.Item, error)
}

// Deleter removes corpus entries by record ID. Implementations may be
// backed by local storage, a remote mirror, or both.
type Deleter interface {
	DeleteItems(ctx context.Context, ids []string) error
}

// Cleaner runs a full deduplication pass over a corpus: identify
// redundant entries, then delete them in bounded batches.
type Cleaner struct {
	lister  Lister
	deleter Deleter
	log     *zap.Logger

	// BatchSize bounds how many IDs go into a single delete call.
	BatchSize int

	// Parallelism bounds concurrent delete batches.
	Parallelism int
}

// NewCleaner creates a Cleaner with default batch bounds.
func NewCleaner(lister Lister, deleter Deleter, log *zap.Logger) *Cleaner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Cleaner{
		lister:      lister,
		deleter:     deleter,
		log:         log,
		BatchSize:   25,
		Parallelism: 4,
	}
}

// Run executes one cleanup pass and returns the number of entries
// deleted. A failure during identification aborts before any deletion.
// A rate-limit or quota signal from the backing store short-circuits
// the remaining batches instead of retrying.
func (c *Cleaner) Run(ctx context.Context) (int, error) {
	items, err := c.lister.AllItems(ctx)
	if err != nil {
		return 0, fmt.Errorf("list corpus: %w", err)
	}

	candidates := make([]Candidate, 0, len(items))
	for _, it := range items {
		candidates = append(candidates, Candidate{
			ID:       it.RecordID,
			Category: it.Category,
			Text:     it.Text,
		})
	}

	dupes := IdentifyDuplicates(candidates)
	if len(dupes) == 0 {
		return 0, nil
	}

	c.log.Info("identified duplicate corpus entries",
		zap.Int("scanned", len(candidates)),
		zap.Int("duplicates", len(dupes)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Parallelism)

	for start := 0; start < len(dupes); start += c.BatchSize {
		end := start + c.BatchSize
		if end > len(dupes) {
			end = len(dupes)
		}
		batch := dupes[start:end]

		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			if err := c.deleter.DeleteItems(gctx, batch); err != nil {
				if llm.IsQuotaSignal(err) {
					c.log.Warn("quota signal during dedup deletes, stopping pass", zap.Error(err))
				}
				return fmt.Errorf("delete batch of %d: %w", len(batch), err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(dupes), nil
}
