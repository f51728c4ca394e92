package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Illustration is one entry in the image sub-store, keyed by the prompt
// text that produced it. Blocked entries record that a player flagged
// the image as wrong; the prompt is never re-resolved while blocked.
type Illustration struct {
	Prompt  string
	Image   []byte
	Blocked bool
}

// Illustration looks up a cached illustration by prompt.
// Returns (nil, nil) when the prompt has never been resolved.
func (s *Store) Illustration(ctx context.Context, prompt string) (*Illustration, error) {
	var img []byte
	var blocked int
	err := s.db.QueryRowContext(ctx,
		`SELECT image, blocked FROM illustrations WHERE prompt = ?`, prompt).
		Scan(&img, &blocked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get illustration: %w", err)
	}
	return &Illustration{Prompt: prompt, Image: img, Blocked: blocked != 0}, nil
}

// PutIllustration caches image data for a prompt and evicts the oldest
// entries beyond the retention cap. Eviction ignores the blocked flag:
// old blocked markers age out like anything else.
func (s *Store) PutIllustration(ctx context.Context, prompt string, image []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO illustrations (prompt, image, blocked, created_at)
		 VALUES (?, ?, 0, ?)
		 ON CONFLICT(prompt) DO UPDATE SET image = excluded.image, blocked = 0, created_at = excluded.created_at`,
		prompt, image, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put illustration: %w", err)
	}
	return s.evictIllustrations(ctx)
}

// BlockIllustration sets the blocked marker for a prompt and clears any
// cached image data.
func (s *Store) BlockIllustration(ctx context.Context, prompt string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO illustrations (prompt, image, blocked, created_at)
		 VALUES (?, NULL, 1, ?)
		 ON CONFLICT(prompt) DO UPDATE SET image = NULL, blocked = 1`,
		prompt, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("block illustration: %w", err)
	}
	return s.evictIllustrations(ctx)
}

// IllustrationCount returns the number of retained entries.
func (s *Store) IllustrationCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM illustrations`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count illustrations: %w", err)
	}
	return n, nil
}

func (s *Store) evictIllustrations(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM illustrations WHERE prompt NOT IN (
			SELECT prompt FROM illustrations ORDER BY created_at DESC LIMIT ?
		)`, s.IllustrationCap)
	if err != nil {
		return fmt.Errorf("evict illustrations: %w", err)
	}
	return nil
}
