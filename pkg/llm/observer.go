package llm

import (
	"context"
	"time"

	"github.com/jmylchreest/stayscout/internal/logger"
)

// CallEvent describes one finished LLM call.
type CallEvent struct {
	Provider string
	Model    string
	Streamed bool
	Usage    Usage
	Cost     float64
	Duration time.Duration
	Err      error
}

// Observer receives a CallEvent after every call, successful or not.
type Observer interface {
	OnCall(ctx context.Context, event CallEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, event CallEvent)

// OnCall implements Observer.
func (f ObserverFunc) OnCall(ctx context.Context, event CallEvent) { f(ctx, event) }

// LogObserver logs successful calls at debug and failures at warn.
var LogObserver = ObserverFunc(func(ctx context.Context, e CallEvent) {
	if e.Err != nil {
		logger.WarnContext(ctx, "llm call failed",
			"provider", e.Provider,
			"model", e.Model,
			"duration", e.Duration,
			"error", e.Err)
		return
	}
	logger.DebugContext(ctx, "llm call",
		"provider", e.Provider,
		"model", e.Model,
		"streamed", e.Streamed,
		"input_tokens", e.Usage.InputTokens,
		"output_tokens", e.Usage.OutputTokens,
		"cost_usd", e.Cost,
		"duration", e.Duration)
})

// Observed wraps a provider so every call is reported to obs.
type Observed struct {
	Provider
	obs Observer
}

// Observe wraps p. A nil observer returns p unchanged.
func Observe(p Provider, obs Observer) Provider {
	if obs == nil || p == nil {
		return p
	}
	return &Observed{Provider: p, obs: obs}
}

// Execute implements Provider.
func (o *Observed) Execute(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := o.Provider.Execute(ctx, req)
	o.report(ctx, resp, err, false, start)
	return resp, err
}

// Stream implements Streamer, degrading to Execute when the wrapped provider
// cannot stream.
func (o *Observed) Stream(ctx context.Context, req Request, onChunk func(string)) (*Response, error) {
	start := time.Now()
	resp, err := StreamOrExecute(ctx, o.Provider, req, onChunk)
	o.report(ctx, resp, err, CanStream(o.Provider), start)
	return resp, err
}

func (o *Observed) report(ctx context.Context, resp *Response, err error, streamed bool, start time.Time) {
	e := CallEvent{
		Provider: o.Provider.Name(),
		Model:    o.Provider.Model(),
		Streamed: streamed,
		Duration: time.Since(start),
		Err:      err,
	}
	if resp != nil {
		e.Usage = resp.Usage
		e.Cost = resp.Cost
		if resp.Model != "" {
			e.Model = resp.Model
		}
	}
	o.obs.OnCall(ctx, e)
}
