// Package fetcher defines how listing pages are retrieved.
// Search results and detail pages on the rental site are rendered client-side,
// so the CLI normally uses the browser-backed fetcher; the static fetcher
// serves plain HTML sources and tests.
package fetcher

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Fetcher abstracts page fetching strategies.
type Fetcher interface {
	// Fetch retrieves the rendered markup of a URL.
	Fetch(ctx context.Context, url string, opts Options) (Content, error)

	// Close releases any resources (browser instances, etc.).
	Close() error

	// Type returns a string identifying the fetcher type (e.g., "static", "dynamic").
	Type() string
}

// Options controls fetching behavior.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	// WaitForSelector is the readiness contract for dynamic fetchers: the page
	// counts as loaded once an element matching it is ready.
	WaitForSelector string
	WaitDuration    time.Duration // settle delay after readiness
	Headers         map[string]string
}

// Content represents fetched page data.
type Content struct {
	URL         string
	HTML        string
	Title       string
	StatusCode  int
	ContentType string
	FetchedAt   time.Time
}

// Browser identity sent with every page request.
const (
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36"
	DefaultAccept    = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7"
	DefaultLanguage  = "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"
)

// DefaultHeaders returns the request headers used when Options.Headers is empty.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Accept":          DefaultAccept,
		"Accept-Language": DefaultLanguage,
	}
}

// Error types for distinguishing failure reasons.
// Check with errors.Is(err, fetcher.ErrNavigation).
var (
	// ErrNavigation indicates the page could not be loaded or never became ready.
	ErrNavigation = errors.New("navigation failed")
	// ErrBlocked indicates the site served a challenge or block page instead
	// of the listing.
	ErrBlocked = errors.New("blocked by site")
)

// BlockedPage reports whether markup looks like a challenge or block page
// and, if so, what kind.
func BlockedPage(title, markup string) string {
	titleLower := strings.ToLower(title)
	htmlLower := strings.ToLower(markup)

	switch {
	case strings.Contains(titleLower, "just a moment"),
		strings.Contains(htmlLower, "cf-challenge"),
		strings.Contains(htmlLower, "cf_chl_opt"):
		return "cloudflare"
	case strings.Contains(htmlLower, "hcaptcha.com"),
		strings.Contains(htmlLower, "google.com/recaptcha"),
		strings.Contains(htmlLower, "g-recaptcha"):
		return "captcha"
	case strings.Contains(titleLower, "access denied"),
		strings.Contains(htmlLower, "robot or human"):
		return "anti-bot"
	}
	return ""
}

// coalesce returns the first non-empty string.
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
