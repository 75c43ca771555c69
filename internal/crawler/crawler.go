// Package crawler searches the rental site for a location and turns each
// listing it finds into a Record.
//
// Listings are visited one after another. A listing that cannot be loaded or
// parsed is reported as skipped and the crawl moves on.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/jmylchreest/stayscout/internal/advisor"
	"github.com/jmylchreest/stayscout/internal/logger"
	"github.com/jmylchreest/stayscout/pkg/fetcher"
	"github.com/jmylchreest/stayscout/pkg/listing"
)

// Readiness selectors for the two page kinds the crawler visits.
const (
	SearchReadySelector = `meta[itemprop="url"]`
	DetailReadySelector = `h1, [data-section-id="OVERVIEW_DEFAULT"]`
)

// ErrPageTooLarge marks a detail page over Config.MaxPageBytes.
var ErrPageTooLarge = errors.New("page too large")

// Status is the per-listing outcome.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
)

// Outcome says whether a listing made it through the pipeline.
type Outcome struct {
	Status      Status              `json:"status" yaml:"status"`
	Reason      string              `json:"reason,omitempty" yaml:"reason,omitempty"`
	ImageSource listing.ImageSource `json:"image_source,omitempty" yaml:"image_source,omitempty"`
	Err         error               `json:"-" yaml:"-"`
}

// Result is one visited listing.
type Result struct {
	listing.Record `yaml:",inline"`
	ImageAnalysis  string  `json:"image_analysis,omitempty" yaml:"image_analysis,omitempty"`
	Outcome        Outcome `json:"outcome" yaml:"outcome"`
}

// OK reports whether the listing was parsed.
func (r Result) OK() bool {
	return r.Outcome.Status == StatusOK
}

// Digest returns what the summary prompt needs from this result.
func (r Result) Digest() advisor.Digest {
	return advisor.Digest{
		Title:         r.Title,
		Description:   r.Description,
		URL:           r.SourceURL,
		ImageAnalysis: r.ImageAnalysis,
	}
}

// Config holds crawler configuration.
type Config struct {
	SearchBase  string
	MaxListings int // detail pages visited per search; 0 visits all

	// Readiness contract for the dynamic fetcher.
	SearchSelector string
	DetailSelector string
	Settle         time.Duration // extra wait after the selector is ready
	Timeout        time.Duration // per page

	Pace         time.Duration // minimum gap between navigations
	MaxPageBytes uint64        // skip detail pages larger than this; 0 disables

	AnalyzeImages bool // describe each listing's photos with the advisor
	LLMFields     bool // let the advisor fill counts the page text lacks

	Collect listing.CollectOptions
}

// DefaultConfig returns sensible crawler defaults.
func DefaultConfig() Config {
	return Config{
		SearchBase:     DefaultSearchBase,
		MaxListings:    3,
		SearchSelector: SearchReadySelector,
		DetailSelector: DetailReadySelector,
		Settle:         time.Second,
		Timeout:        30 * time.Second,
		Pace:           2 * time.Second,
		MaxPageBytes:   20 * humanize.MByte,
		AnalyzeImages:  true,
		Collect:        listing.DefaultCollectOptions(),
	}
}

// Crawler runs the search, discovery and per-listing pipeline.
type Crawler struct {
	fetcher  fetcher.Fetcher
	filter   *listing.ValidityFilter
	advisor  *advisor.Advisor
	selector *LinkSelector
	limiter  *rate.Limiter
	config   Config
}

// New creates a new Crawler. filter may be nil for the default colly prober;
// adv may be nil to skip every LLM step.
func New(f fetcher.Fetcher, filter *listing.ValidityFilter, adv *advisor.Advisor, cfg Config) *Crawler {
	if filter == nil {
		filter = listing.NewValidityFilter(nil)
	}
	if cfg.Collect.Field == "" {
		cfg.Collect = listing.DefaultCollectOptions()
	}
	if cfg.SearchSelector == "" {
		cfg.SearchSelector = SearchReadySelector
	}
	if cfg.DetailSelector == "" {
		cfg.DetailSelector = DetailReadySelector
	}

	limit := rate.Inf
	if cfg.Pace > 0 {
		limit = rate.Every(cfg.Pace)
	}

	selector, _ := NewLinkSelector("", "", "")

	return &Crawler{
		fetcher:  f,
		filter:   filter,
		advisor:  adv,
		selector: selector,
		limiter:  rate.NewLimiter(limit, 1),
		config:   cfg,
	}
}

// Discover loads the search page for location and returns the listing URLs
// it links to, in page order.
func (c *Crawler) Discover(ctx context.Context, location string) ([]string, error) {
	searchURL := SearchURL(c.config.SearchBase, location)
	logger.Info("searching listings", "location", location, "url", searchURL)

	content, err := c.fetch(ctx, searchURL, c.config.SearchSelector)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", location, err)
	}

	links, err := c.selector.ExtractLinks(content.HTML, searchURL)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", location, err)
	}
	logger.Info("listings discovered", "location", location, "count", len(links))
	return links, nil
}

// Run searches location and visits the first MaxListings listings in order.
// It fails only when the search page itself cannot be used.
func (c *Crawler) Run(ctx context.Context, location string) ([]Result, error) {
	links, err := c.Discover(ctx, location)
	if err != nil {
		return nil, err
	}

	if c.config.MaxListings > 0 && len(links) > c.config.MaxListings {
		links = links[:c.config.MaxListings]
	}

	results := make([]Result, 0, len(links))
	for i, link := range links {
		if ctx.Err() != nil {
			break
		}
		detailURL := SanitizeURL(link)
		logger.Info("crawling detail page", "n", i+1, "of", len(links), "url", detailURL)
		results = append(results, c.Inspect(ctx, detailURL))
	}

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// Inspect runs the per-listing pipeline on one detail page. Failures are
// reported in the result's Outcome, never returned.
func (c *Crawler) Inspect(ctx context.Context, detailURL string) Result {
	result := Result{Record: listing.Record{SourceURL: detailURL}}

	content, err := c.fetch(ctx, detailURL, c.config.DetailSelector)
	if err != nil {
		return skipped(result, err)
	}

	if limit := c.config.MaxPageBytes; limit > 0 && uint64(len(content.HTML)) > limit {
		return skipped(result, fmt.Errorf("%w: %s, limit %s", ErrPageTooLarge,
			humanize.Bytes(uint64(len(content.HTML))), humanize.Bytes(limit)))
	}

	page, err := listing.ParseDetailPage(detailURL, content.HTML, c.config.Collect)
	if err != nil {
		return skipped(result, err)
	}

	if c.config.LLMFields && c.advisor != nil && !page.Fields.HasAllCounts() {
		details := c.advisor.ExtractDetails(ctx, page.Text)
		page.Fields = advisor.FillCounts(page.Fields, details)
	}

	rec := page.Record()
	valid := c.filter.Filter(ctx, rec.ImageURLs)
	result.Record = rec.WithImages(valid)
	result.Outcome = Outcome{Status: StatusOK, ImageSource: page.ImageSource}

	if c.config.AnalyzeImages && c.advisor != nil {
		result.ImageAnalysis = c.advisor.AnalyzeImages(ctx, valid)
	}

	logger.Debug("listing processed",
		"url", detailURL,
		"title", rec.Title,
		"images_found", rec.ImageCount,
		"images_valid", len(valid),
		"page_size", humanize.Bytes(uint64(len(content.HTML))))

	return result
}

func (c *Crawler) fetch(ctx context.Context, target, readySelector string) (fetcher.Content, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return fetcher.Content{}, fmt.Errorf("%w: %v", fetcher.ErrNavigation, err)
	}
	return c.fetcher.Fetch(ctx, target, fetcher.Options{
		Timeout:         c.config.Timeout,
		WaitForSelector: readySelector,
		WaitDuration:    c.config.Settle,
	})
}

func skipped(r Result, err error) Result {
	reason := "parse"
	switch {
	case errors.Is(err, fetcher.ErrNavigation):
		reason = "navigation"
	case errors.Is(err, ErrPageTooLarge):
		reason = "size"
	}
	logger.Warn("skipping listing", "url", r.SourceURL, "reason", reason, "error", err)
	r.Outcome = Outcome{Status: StatusSkipped, Reason: reason + ": " + err.Error(), Err: err}
	return r
}

// Digests converts the successful results for the summary prompt.
func Digests(results []Result) []advisor.Digest {
	out := make([]advisor.Digest, 0, len(results))
	for _, r := range results {
		if r.OK() {
			out = append(out, r.Digest())
		}
	}
	return out
}
