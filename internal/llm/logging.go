package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"quizforge/internal/corpus"
)

// LoggingProvider is a decorator that records every backend call in the
// synthesis audit log.
type LoggingProvider struct {
	inner  Provider
	events corpus.EventLog
}

// WithLogging wraps a Provider with event logging.
func WithLogging(p Provider, events corpus.EventLog) Provider {
	return &LoggingProvider{inner: p, events: events}
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	data := corpus.SynthEventData{
		Provider:  l.inner.Name(),
		Model:     l.inner.ModelID(),
		Purpose:   purpose,
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}

	if resp != nil {
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		data.Model = resp.Model
	}

	if err != nil {
		data.ErrorMessage = err.Error()
	}

	// Log the event but don't fail the request if logging fails.
	if logErr := l.events.AppendSynthEvent(ctx, data); logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to log synth event: %v\n", logErr)
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

func (l *LoggingProvider) Name() string {
	return l.inner.Name()
}

// Unwrap exposes the wrapped provider for capability discovery.
func (l *LoggingProvider) Unwrap() Provider {
	return l.inner
}
