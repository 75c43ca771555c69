package commands

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/stayscout/internal/crawler"
	"github.com/jmylchreest/stayscout/internal/logger"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <listing-url>...",
	Short: "Extract one or more listing detail pages",
	Long: `Run the listing pipeline on detail page URLs without searching.

Examples:
  stayscout inspect "https://www.airbnb.co.kr/rooms/1084482008833333635"
  stayscout inspect URL1 URL2 -o json --llm-fields`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	addOutputFlags(inspectCmd)
	inspectCmd.Flags().Bool("no-analysis", false, "skip LLM photo analysis")
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noAnalysis, _ := cmd.Flags().GetBool("no-analysis"); noAnalysis {
		cfg.AnalyzeImages = false
	}

	for _, arg := range args {
		if !strings.HasPrefix(arg, "http://") && !strings.HasPrefix(arg, "https://") {
			return fmt.Errorf("not a URL: %s", arg)
		}
	}

	adv := newOptionalAdvisor(cfg, cfg.AnalyzeImages || cfg.LLMFields)

	f, err := newFetcher(cfg)
	if err != nil {
		logger.Error("failed to create fetcher", "error", err)
		return err
	}
	defer func() { _ = f.Close() }()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return err
	}
	if store != nil {
		defer store.Close()
	}

	writer, closeOut, err := openWriter(cmd, cfg)
	if err != nil {
		return err
	}
	defer closeOut()

	c := newCrawler(cfg, f, adv, cfg.Crawler())
	results := make([]crawler.Result, 0, len(args))
	for _, arg := range args {
		if ctx.Err() != nil {
			break
		}
		r := c.Inspect(ctx, crawler.SanitizeURL(arg))
		if err := writer.Write(r); err != nil {
			logger.Error("failed to write output", "error", err)
			return err
		}
		results = append(results, r)
	}
	if err := writer.Close(); err != nil {
		logger.Error("failed to write output", "error", err)
		return err
	}

	saveResults(ctx, store, "", results)
	return ctx.Err()
}
