package listing

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/jmylchreest/stayscout/internal/logger"
)

// DefaultProbeTimeout bounds each image existence check.
const DefaultProbeTimeout = 3 * time.Second

// ProbeResult is the outcome of checking one URL.
type ProbeResult struct {
	URL    string
	OK     bool
	Status int   // HTTP status, 0 when no response arrived
	Err    error // transport failure, timeout or non-200 status
}

// Prober checks whether a URL is currently reachable.
type Prober interface {
	Probe(ctx context.Context, url string) ProbeResult
}

// CollyProber issues HEAD requests through a throwaway colly collector.
type CollyProber struct {
	Timeout   time.Duration
	UserAgent string
}

// NewCollyProber creates a HEAD prober. Zero timeout means DefaultProbeTimeout.
func NewCollyProber(timeout time.Duration, userAgent string) *CollyProber {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &CollyProber{Timeout: timeout, UserAgent: userAgent}
}

// Probe sends a HEAD request and accepts only HTTP 200.
func (p *CollyProber) Probe(ctx context.Context, target string) ProbeResult {
	result := ProbeResult{URL: target}
	if err := ctx.Err(); err != nil {
		result.Err = err
		return result
	}

	opts := []colly.CollectorOption{colly.AllowURLRevisit()}
	if p.UserAgent != "" {
		opts = append(opts, colly.UserAgent(p.UserAgent))
	}
	c := colly.NewCollector(opts...)
	c.SetRequestTimeout(p.Timeout)

	c.OnResponse(func(r *colly.Response) {
		result.Status = r.StatusCode
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			result.Status = r.StatusCode
		}
	})

	if err := c.Head(target); err != nil {
		result.Err = fmt.Errorf("head %s: %w", target, err)
		return result
	}
	if result.Status != http.StatusOK {
		result.Err = fmt.Errorf("head %s: status %d", target, result.Status)
		return result
	}

	result.OK = true
	return result
}

// ValidityFilter drops image URLs that fail a probe.
type ValidityFilter struct {
	prober Prober
}

// NewValidityFilter wraps prober; nil selects a CollyProber with defaults.
func NewValidityFilter(prober Prober) *ValidityFilter {
	if prober == nil {
		prober = NewCollyProber(DefaultProbeTimeout, "")
	}
	return &ValidityFilter{prober: prober}
}

// Probe checks every URL in order, one at a time.
func (f *ValidityFilter) Probe(ctx context.Context, urls []string) []ProbeResult {
	results := make([]ProbeResult, 0, len(urls))
	for _, u := range urls {
		results = append(results, f.prober.Probe(ctx, u))
	}
	return results
}

// Filter returns the reachable subset of urls in their original order.
// Failures are logged and skipped; the batch always completes.
func (f *ValidityFilter) Filter(ctx context.Context, urls []string) []string {
	valid := make([]string, 0, len(urls))
	for _, r := range f.Probe(ctx, urls) {
		if !r.OK {
			logger.Warn("skipping image", "url", r.URL, "status", r.Status, "error", r.Err)
			continue
		}
		valid = append(valid, r.URL)
	}
	logger.Debug("image probe complete", "candidates", len(urls), "valid", len(valid))
	return valid
}
