// Package llm provides a unified interface for the chat-completion providers
// used to analyse and summarise listings.
package llm

import (
	"context"
	"errors"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a chat message. Images are absolute URLs attached to a
// user message for vision-capable models; other roles ignore them.
type Message struct {
	Role    Role     `json:"role" yaml:"role"`
	Content string   `json:"content" yaml:"content"`
	Images  []string `json:"images,omitempty" yaml:"images,omitempty"`
}

// Request represents a completion request to the LLM.
type Request struct {
	Messages    []Message
	MaxTokens   int
	Temperature float64 // 0 leaves the provider default
	JSONMode    bool    // ask for a bare JSON object where supported
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response represents the result of an LLM execution.
type Response struct {
	Content      string
	FinishReason string
	Usage        Usage
	Model        string // actual model used
	Cost         float64
	Duration     time.Duration
}

// ErrNoProvider is returned when no provider is configured or every provider
// in a chain was skipped.
var ErrNoProvider = errors.New("no LLM provider available")

// Provider is the core interface that all LLM backends must implement.
type Provider interface {
	// Execute sends a completion request and returns the response.
	Execute(ctx context.Context, req Request) (*Response, error)

	// Name returns the provider identifier (e.g., "openai", "anthropic").
	Name() string

	// Model returns the configured model name.
	Model() string
}

// Streamer is an optional interface for providers that can deliver the reply
// incrementally. onChunk receives each text fragment in order; the returned
// Response carries the full text.
type Streamer interface {
	Stream(ctx context.Context, req Request, onChunk func(string)) (*Response, error)
}

// CostEstimator is an optional interface for providers that can estimate
// costs based on token counts without making an API call.
type CostEstimator interface {
	EstimateCost(modelID string, inputTokens, outputTokens int) float64
}

// ProviderConfig holds common configuration for providers.
type ProviderConfig struct {
	APIKey     string
	BaseURL    string // custom endpoint, e.g. an OpenAI-compatible server
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

// DefaultProviderConfig returns sensible defaults.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		MaxRetries: 2,
		Timeout:    120 * time.Second,
	}
}

// CanStream returns true if the provider implements Streamer.
func CanStream(p Provider) bool {
	_, ok := p.(Streamer)
	return ok
}

// AsStreamer returns the provider as a Streamer if it implements the interface.
func AsStreamer(p Provider) (Streamer, bool) {
	s, ok := p.(Streamer)
	return s, ok
}

// StreamOrExecute streams when the provider supports it and otherwise runs a
// single Execute, handing the whole reply to onChunk at once.
func StreamOrExecute(ctx context.Context, p Provider, req Request, onChunk func(string)) (*Response, error) {
	if s, ok := AsStreamer(p); ok {
		return s.Stream(ctx, req, onChunk)
	}
	resp, err := p.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if onChunk != nil && resp.Content != "" {
		onChunk(resp.Content)
	}
	return resp, nil
}

// rates is per-token pricing in USD.
type rates struct {
	prompt     float64
	completion float64
}

func (r rates) cost(in, out int) float64 {
	return float64(in)*r.prompt + float64(out)*r.completion
}
