package corpus

import (
	"context"
	"fmt"
	"time"
)

// SynthEventData captures one call to the generative backend.
type SynthEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// SynthEvent is a persisted SynthEventData row.
type SynthEvent struct {
	ID        int64
	Timestamp time.Time
	SynthEventData
}

// EventLog is the append side of the synthesis audit log. The llm
// package's logging decorator writes through this interface.
type EventLog interface {
	AppendSynthEvent(ctx context.Context, data SynthEventData) error
}

// AppendSynthEvent records a backend call in the audit log.
func (s *Store) AppendSynthEvent(ctx context.Context, data SynthEventData) error {
	success := 0
	if data.Success {
		success = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO synth_events (timestamp, provider, model, purpose, input_tokens, output_tokens, latency_ms, success, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano),
		data.Provider, data.Model, data.Purpose,
		data.InputTokens, data.OutputTokens, data.LatencyMs,
		success, data.ErrorMessage)
	if err != nil {
		return fmt.Errorf("append synth event: %w", err)
	}
	return nil
}

// RecentSynthEvents returns up to limit events, newest first.
func (s *Store) RecentSynthEvents(ctx context.Context, limit int) ([]SynthEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, provider, model, purpose, input_tokens, output_tokens, latency_ms, success, error_message
		 FROM synth_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query synth events: %w", err)
	}
	defer rows.Close()

	var events []SynthEvent
	for rows.Next() {
		var e SynthEvent
		var ts string
		var success int
		if err := rows.Scan(&e.ID, &ts, &e.Provider, &e.Model, &e.Purpose,
			&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &success, &e.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan synth event: %w", err)
		}
		e.Success = success != 0
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		events = append(events, e)
	}
	return events, rows.Err()
}
