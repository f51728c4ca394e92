package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizforge/internal/item"
)

// Put persists an item. A missing RecordID is assigned; an existing one
// is upserted in place (difficulty escalation mutates the same row).
func (s *Store) Put(ctx context.Context, it *item.Item) error {
	if it.RecordID == "" {
		it.RecordID = s.newRecordID()
	}

	var options *string
	if len(it.Options) > 0 {
		b, err := json.Marshal(it.Options)
		if err != nil {
			return fmt.Errorf("marshal options: %w", err)
		}
		v := string(b)
		options = &v
	}

	var placement *string
	if it.Placement != nil {
		b, err := json.Marshal(it.Placement)
		if err != nil {
			return fmt.Errorf("marshal placement: %w", err)
		}
		v := string(b)
		placement = &v
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (id, category, kind, difficulty, text, options, correct_index, placement, explanation, illustration_prompt, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			category = excluded.category,
			kind = excluded.kind,
			difficulty = excluded.difficulty,
			text = excluded.text,
			options = excluded.options,
			correct_index = excluded.correct_index,
			placement = excluded.placement,
			explanation = excluded.explanation,
			illustration_prompt = excluded.illustration_prompt`,
		it.RecordID, string(it.Category), string(it.Kind), it.Difficulty, it.Text,
		options, it.CorrectIndex, placement, it.Explanation, it.IllustrationPrompt,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// Get retrieves an item by record ID. Returns (nil, nil) when missing.
func (s *Store) Get(ctx context.Context, recordID string) (*item.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, category, kind, difficulty, text, options, correct_index, placement, explanation, illustration_prompt
		 FROM items WHERE id = ?`, recordID)

	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", recordID, err)
	}
	return it, nil
}

// CountByCategory returns the number of corpus entries in a category.
func (s *Store) CountByCategory(ctx context.Context, cat item.Category) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM items WHERE category = ?`, string(cat)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count category %s: %w", cat, err)
	}
	return n, nil
}

// RandomByCategory picks a uniformly random corpus entry from a category,
// or (nil, nil) when the category is empty. The returned item carries a
// freshly generated serving ID so consumers never see a repeated one.
func (s *Store) RandomByCategory(ctx context.Context, cat item.Category) (*item.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, category, kind, difficulty, text, options, correct_index, placement, explanation, illustration_prompt
		 FROM items WHERE category = ? ORDER BY RANDOM() LIMIT 1`, string(cat))

	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("random item for %s: %w", cat, err)
	}

	it.ID = uuid.NewString()
	return it, nil
}

// UpdateDifficulty sets a new difficulty level for a corpus entry.
// Updating an ID that does not exist is a no-op, not an error.
func (s *Store) UpdateDifficulty(ctx context.Context, recordID string, level int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE items SET difficulty = ? WHERE id = ?`,
		item.ClampDifficulty(level), recordID)
	if err != nil {
		return fmt.Errorf("update difficulty for %s: %w", recordID, err)
	}
	return nil
}

// DeleteItems removes corpus entries by record ID.
func (s *Store) DeleteItems(ctx context.Context, recordIDs []string) error {
	if len(recordIDs) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(recordIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(recordIDs))
	for i, id := range recordIDs {
		args[i] = id
	}

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM items WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("delete %d items: %w", len(recordIDs), err)
	}
	return nil
}

// AllItems returns every corpus entry in insertion order (record IDs are
// ULIDs, so lexicographic order is creation order). Used by dedup passes.
func (s *Store) AllItems(ctx context.Context) ([]*item.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category, kind, difficulty, text, options, correct_index, placement, explanation, illustration_prompt
		 FROM items ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*item.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*item.Item, error) {
	var it item.Item
	var category, kind string
	var options, placement sql.NullString

	err := row.Scan(&it.RecordID, &category, &kind, &it.Difficulty, &it.Text,
		&options, &it.CorrectIndex, &placement, &it.Explanation, &it.IllustrationPrompt)
	if err != nil {
		return nil, err
	}

	it.ID = it.RecordID
	it.Category = item.Category(category)
	it.Kind = item.Kind(kind)

	if options.Valid {
		if err := json.Unmarshal([]byte(options.String), &it.Options); err != nil {
			return nil, fmt.Errorf("unmarshal options: %w", err)
		}
	}
	if placement.Valid {
		it.Placement = &item.PlacementSpec{}
		if err := json.Unmarshal([]byte(placement.String), it.Placement); err != nil {
			return nil, fmt.Errorf("unmarshal placement: %w", err)
		}
	}

	return &it, nil
}
