package commands

import (
	"context"
	"fmt"

	clifetcher "github.com/jmylchreest/stayscout/cmd/stayscout/fetcher"
	"github.com/jmylchreest/stayscout/internal/advisor"
	"github.com/jmylchreest/stayscout/internal/config"
	"github.com/jmylchreest/stayscout/internal/crawler"
	"github.com/jmylchreest/stayscout/internal/logger"
	"github.com/jmylchreest/stayscout/internal/storage"
	"github.com/jmylchreest/stayscout/pkg/fetcher"
	"github.com/jmylchreest/stayscout/pkg/listing"
	"github.com/jmylchreest/stayscout/pkg/llm"
)

// newFetcher creates the page fetcher named by cfg.Fetcher.
func newFetcher(cfg *config.Config) (fetcher.Fetcher, error) {
	switch cfg.Fetcher {
	case "dynamic", "":
		return clifetcher.NewDynamicFetcher(clifetcher.Config{
			Timeout:    cfg.Timeout,
			Headless:   cfg.Headless,
			ChromePath: cfg.ChromePath,
		})
	case "static":
		return fetcher.NewStatic(fetcher.StaticConfig{Timeout: cfg.Timeout}), nil
	default:
		return nil, fmt.Errorf("unknown fetcher: %s (use 'dynamic' or 'static')", cfg.Fetcher)
	}
}

// newProvider builds the provider chain: the preferred provider first, then
// the configured fallback order. Providers that need a missing API key are
// left out; ollama needs none and is always eligible.
func newProvider(cfg *config.Config) (llm.Provider, error) {
	var chain []llm.Provider
	for _, name := range cfg.ProviderOrder() {
		pc := cfg.ProviderConfig(name)
		if config.NeedsKey(name) && pc.APIKey == "" {
			logger.Debug("provider skipped, no API key", "provider", name, "env", llm.EnvKey(name))
			continue
		}

		p, err := llm.NewProvider(name, pc)
		if err != nil {
			logger.Debug("failed to create provider", "provider", name, "error", err)
			continue
		}
		logger.Debug("added provider to chain", "provider", name, "model", p.Model())
		chain = append(chain, p)
	}

	if len(chain) == 0 {
		return nil, llm.ErrNoProvider
	}

	var p llm.Provider = chain[0]
	if len(chain) > 1 {
		p = llm.NewFallback(chain...)
	}
	return llm.Observe(p, llm.LogObserver), nil
}

// newCrawler wires fetcher, probe filter and advisor into a crawler.
func newCrawler(cfg *config.Config, f fetcher.Fetcher, adv *advisor.Advisor, cc crawler.Config) *crawler.Crawler {
	prober := listing.NewCollyProber(cfg.ProbeTimeout, fetcher.DefaultUserAgent)
	return crawler.New(f, listing.NewValidityFilter(prober), adv, cc)
}

// openStore connects to PostgreSQL when a DSN is configured. It returns nil
// without a DSN.
func openStore(ctx context.Context, cfg *config.Config) (*storage.PostgresStore, error) {
	if cfg.PostgresDSN == "" {
		return nil, nil
	}
	store, err := storage.NewPostgresStore(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return store, nil
}

// saveResults stores results when store is set. Failures are logged; the
// crawl output is still written.
func saveResults(ctx context.Context, store *storage.PostgresStore, location string, results []crawler.Result) {
	if store == nil || len(results) == 0 {
		return
	}
	if _, err := store.SaveResults(ctx, location, results); err != nil {
		logger.Error("failed to save results", "error", err)
	}
}
