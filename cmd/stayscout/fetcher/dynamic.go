package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/stayscout/internal/logger"
	pkgfetcher "github.com/jmylchreest/stayscout/pkg/fetcher"
)

// DynamicFetcher loads pages in headless Chrome. One browser process is shared
// by every fetch; each fetch gets its own tab.
type DynamicFetcher struct {
	config    Config
	allocCtx  context.Context
	cancelCtx context.CancelFunc
}

// NewDynamicFetcher creates a new dynamic fetcher with a browser allocator.
// The browser itself starts lazily on the first fetch.
func NewDynamicFetcher(cfg Config) (*DynamicFetcher, error) {
	def := DefaultConfig()
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Language == "" {
		cfg.Language = def.Language
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("lang", cfg.Language),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(cfg.UserAgent),
	)

	chromePath := cfg.ChromePath
	if chromePath == "" {
		chromePath = FindChromePath()
	}
	if chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)

	logger.Debug("dynamic fetcher created",
		"headless", cfg.Headless,
		"chrome", chromePath,
		"timeout", cfg.Timeout)

	return &DynamicFetcher{
		config:    cfg,
		allocCtx:  allocCtx,
		cancelCtx: cancelAlloc,
	}, nil
}

// Fetch navigates to targetURL, waits until opts.WaitForSelector is ready
// (body when unset), sleeps opts.WaitDuration, and returns the rendered DOM.
// Any failure is reported as ErrNavigation.
func (f *DynamicFetcher) Fetch(ctx context.Context, targetURL string, opts pkgfetcher.Options) (pkgfetcher.Content, error) {
	result := pkgfetcher.Content{
		URL:       targetURL,
		FetchedAt: time.Now(),
	}

	browserCtx, cancelBrowser := chromedp.NewContext(f.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)
	defer cancelBrowser()

	// Tie the tab to the caller's context as well as the browser's.
	stop := context.AfterFunc(ctx, cancelBrowser)
	defer stop()

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = f.config.Timeout
	}
	timeoutCtx, cancelTimeout := context.WithTimeout(browserCtx, timeout)
	defer cancelTimeout()

	var (
		mu     sync.Mutex
		status int
	)
	chromedp.ListenTarget(timeoutCtx, func(ev any) {
		resp, ok := ev.(*network.EventResponseReceived)
		if !ok || resp.Type != network.ResourceTypeDocument {
			return
		}
		mu.Lock()
		if status == 0 {
			status = int(resp.Response.Status)
		}
		mu.Unlock()
	})

	waitFor := opts.WaitForSelector
	if waitFor == "" {
		waitFor = "body"
	}

	var html, title string
	actions := []chromedp.Action{
		network.Enable(),
		network.SetExtraHTTPHeaders(f.headers(opts)),
		chromedp.Navigate(targetURL),
		chromedp.WaitReady(waitFor, chromedp.ByQuery),
	}
	if opts.WaitDuration > 0 {
		actions = append(actions, chromedp.Sleep(opts.WaitDuration))
	}
	actions = append(actions,
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Title(&title),
	)

	logger.Debug("chromedp navigating",
		"url", targetURL,
		"wait_for", waitFor,
		"settle", opts.WaitDuration,
		"timeout", timeout)

	if err := chromedp.Run(timeoutCtx, actions...); err != nil {
		return result, fmt.Errorf("%w: %s: %v", pkgfetcher.ErrNavigation, targetURL, err)
	}

	mu.Lock()
	result.StatusCode = status
	mu.Unlock()
	result.HTML = html
	result.Title = title

	if kind := pkgfetcher.BlockedPage(title, html); kind != "" {
		logger.Warn("block page detected", "url", targetURL, "type", kind)
		return result, fmt.Errorf("%w: %w: %s", pkgfetcher.ErrNavigation, pkgfetcher.ErrBlocked, kind)
	}

	logger.Debug("dynamic fetch complete",
		"url", targetURL,
		"status", result.StatusCode,
		"title", title,
		"html_size", len(html))

	return result, nil
}

// headers merges the per-request headers over Accept-Language.
func (f *DynamicFetcher) headers(opts pkgfetcher.Options) network.Headers {
	h := network.Headers{"Accept-Language": f.config.Language}
	for k, v := range opts.Headers {
		h[k] = v
	}
	return h
}

// Close shuts down the browser.
func (f *DynamicFetcher) Close() error {
	if f.cancelCtx != nil {
		f.cancelCtx()
	}
	return nil
}

// Type returns the fetcher type.
func (f *DynamicFetcher) Type() string {
	return "dynamic"
}
