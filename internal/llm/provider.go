// Package llm abstracts the generative backends that synthesize quiz
// items and illustrations. Providers are opaque, possibly slow, possibly
// failing remote services; callers recover through their own fallback
// chains rather than retrying blindly.
package llm

import (
	"context"
	"encoding/json"
)

// Provider is the core abstraction for text generation. Consumers call
// Generate with a Request and receive structured JSON.
type Provider interface {
	// Generate sends a prompt to the backend and returns a structured
	// response. The request's Schema field, when set, instructs the
	// provider to return JSON conforming to that schema.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string

	// Name returns the backend name ("anthropic", "openai", ...).
	// Decorators forward to the wrapped provider.
	Name() string
}

// ImageProvider is implemented by providers that can also render an
// illustration from a prompt. Not all backends support it; use ImageFrom
// to discover support through decorator chains.
type ImageProvider interface {
	// Illustrate renders an image for the prompt. Returns the raw image
	// bytes, or (nil, nil) when the backend declines the prompt.
	Illustrate(ctx context.Context, prompt string) ([]byte, error)
}

// Wrapper is implemented by decorators so callers can reach the
// underlying provider (see ImageFrom).
type Wrapper interface {
	Unwrap() Provider
}

// ImageFrom walks a decorator chain looking for image support.
func ImageFrom(p Provider) (ImageProvider, bool) {
	for p != nil {
		if ip, ok := p.(ImageProvider); ok {
			return ip, true
		}
		w, ok := p.(Wrapper)
		if !ok {
			return nil, false
		}
		p = w.Unwrap()
	}
	return nil, false
}

// Request describes what to send to the backend.
type Request struct {
	// System is the system prompt. Sets the model's role and constraints.
	System string

	// Messages is the conversation history. For single-turn generation
	// (the common case here), this contains one user message.
	Messages []Message

	// Schema is the JSON Schema the response must conform to.
	// When set, the provider uses its native structured output mechanism.
	Schema *Schema

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema defines the JSON structure expected from the backend.
type Schema struct {
	// Name identifies this schema (used as tool name for Anthropic,
	// schema name for OpenAI). Kebab-case, e.g. "quiz-item".
	Name string

	// Description is a human-readable description sent to the model.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the backend's output.
type Response struct {
	// Content is the generated output. When a Schema was provided in the
	// request, this is the validated JSON object.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
