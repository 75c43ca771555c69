package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmylchreest/stayscout/internal/logger"
)

// Fallback tries each provider in order until one succeeds.
// This is useful for provider failover (e.g., try OpenAI, fall back to Anthropic).
type Fallback struct {
	providers []Provider
}

// NewFallback creates a fallback chain from the given providers. Nil entries
// are skipped.
func NewFallback(providers ...Provider) *Fallback {
	kept := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			kept = append(kept, p)
		}
	}
	return &Fallback{providers: kept}
}

// Execute tries each provider in order until one succeeds.
func (f *Fallback) Execute(ctx context.Context, req Request) (*Response, error) {
	if len(f.providers) == 0 {
		return nil, ErrNoProvider
	}

	var lastErr error
	tried := make([]string, 0, len(f.providers))
	for _, p := range f.providers {
		tried = append(tried, p.Name())
		resp, err := p.Execute(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		logger.Warn("llm provider failed, trying next", "provider", p.Name(), "error", err)
	}

	return nil, fmt.Errorf("all providers failed (tried: %s): %w", strings.Join(tried, ", "), lastErr)
}

// Stream streams from the first provider that succeeds. Once a provider has
// emitted text the chain stops there, so a reply is never duplicated.
func (f *Fallback) Stream(ctx context.Context, req Request, onChunk func(string)) (*Response, error) {
	if len(f.providers) == 0 {
		return nil, ErrNoProvider
	}

	var lastErr error
	tried := make([]string, 0, len(f.providers))
	for _, p := range f.providers {
		tried = append(tried, p.Name())
		emitted := false
		resp, err := StreamOrExecute(ctx, p, req, func(chunk string) {
			emitted = true
			if onChunk != nil {
				onChunk(chunk)
			}
		})
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if emitted || ctx.Err() != nil {
			break
		}
		logger.Warn("llm provider failed, trying next", "provider", p.Name(), "error", err)
	}

	return nil, fmt.Errorf("all providers failed (tried: %s): %w", strings.Join(tried, ", "), lastErr)
}

// Name returns the fallback chain name.
func (f *Fallback) Name() string {
	names := make([]string, 0, len(f.providers))
	for _, p := range f.providers {
		names = append(names, p.Name())
	}
	return "fallback(" + strings.Join(names, "->") + ")"
}

// Model returns the first provider's model.
func (f *Fallback) Model() string {
	if len(f.providers) == 0 {
		return ""
	}
	return f.providers[0].Model()
}

var (
	_ Provider = (*Fallback)(nil)
	_ Streamer = (*Fallback)(nil)
)
