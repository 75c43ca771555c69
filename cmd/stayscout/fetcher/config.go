// Package fetcher provides the browser-backed fetcher used by the CLI.
// Listing pages render client-side, so pages are loaded in headless Chrome
// and considered ready once the caller's selector appears.
package fetcher

import (
	"time"

	pkgfetcher "github.com/jmylchreest/stayscout/pkg/fetcher"
)

// Config holds configuration for the dynamic fetcher.
type Config struct {
	UserAgent  string
	Language   string // Accept-Language sent with every navigation
	Timeout    time.Duration
	Headless   bool
	ChromePath string // empty means FindChromePath
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		UserAgent: pkgfetcher.DefaultUserAgent,
		Language:  pkgfetcher.DefaultLanguage,
		Timeout:   30 * time.Second,
		Headless:  true,
	}
}
