package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/stayscout/internal/advisor"
	"github.com/jmylchreest/stayscout/internal/config"
	"github.com/jmylchreest/stayscout/internal/crawler"
	"github.com/jmylchreest/stayscout/internal/logger"
	"github.com/jmylchreest/stayscout/internal/output"
	"github.com/jmylchreest/stayscout/pkg/llm"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl <location>",
	Short: "Search a location and extract its listings",
	Long: `Search the rental site for a location, visit the first listings in
order, and print each listing's details, valid photos and photo analysis.

Examples:
  stayscout crawl 강릉
  stayscout crawl 부산 --max-listings 5 -o jsonl > busan.jsonl
  stayscout crawl 제주 --no-analysis --fetcher static
  stayscout crawl 서울 --summarize`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)
	addOutputFlags(crawlCmd)

	flags := crawlCmd.Flags()
	flags.Bool("no-analysis", false, "skip LLM photo analysis")
	flags.Bool("summarize", false, "print an LLM summary and recommendation after the listings")
}

// addOutputFlags registers the flags shared by crawl and inspect.
func addOutputFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("output", "o", "", "output format: text, json, jsonl, yaml")
	flags.String("out-file", "", "write results to this file (default: stdout)")
	flags.Bool("skip-failed", false, "leave skipped listings out of the output")
	flags.Bool("compact", false, "compact JSON")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	location := strings.Join(args, " ")

	if noAnalysis, _ := cmd.Flags().GetBool("no-analysis"); noAnalysis {
		cfg.AnalyzeImages = false
	}
	summarize, _ := cmd.Flags().GetBool("summarize")

	adv := newOptionalAdvisor(cfg, cfg.AnalyzeImages || cfg.LLMFields || summarize)

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
	logger.Info("starting crawl", "location", location, "fetcher", f.Type(), "max_listings", cfg.MaxListings)

	results, err := c.Run(ctx, location)
	if err != nil && len(results) == 0 {
		logger.Error("crawl failed", "location", location, "error", err)
		return err
	}

	if err := writer.WriteAll(results); err != nil {
		logger.Error("failed to write output", "error", err)
		return err
	}
	if err := writer.Close(); err != nil {
		logger.Error("failed to write output", "error", err)
		return err
	}

	saveResults(ctx, store, location, results)

	ok := len(crawler.Digests(results))
	logger.Info("crawl complete", "location", location, "listings", ok, "skipped", len(results)-ok)

	if summarize && adv != nil && ok > 0 {
		if err := printRecommendation(ctx, os.Stderr, adv, results); err != nil {
			logger.Error("failed to summarize", "error", err)
		}
	}
	return nil
}

// newOptionalAdvisor returns an advisor when one is wanted and a provider can
// be built; without a provider the LLM steps are switched off.
func newOptionalAdvisor(cfg *config.Config, wanted bool) *advisor.Advisor {
	if !wanted {
		return nil
	}
	p, err := newProvider(cfg)
	if err != nil {
		if errors.Is(err, llm.ErrNoProvider) {
			logger.Warn("no LLM provider available, skipping analysis; set OPENAI_API_KEY or ANTHROPIC_API_KEY, or use -p ollama")
		} else {
			logger.Warn("failed to create LLM provider, skipping analysis", "error", err)
		}
		cfg.AnalyzeImages = false
		cfg.LLMFields = false
		return nil
	}
	logger.Debug("llm provider ready", "provider", p.Name(), "model", p.Model())
	return advisor.New(p, advisor.DefaultOptions())
}

// openWriter creates the result writer and returns a function closing the
// output file.
func openWriter(cmd *cobra.Command, cfg *config.Config) (output.Writer, func(), error) {
	name := cfg.Output
	if cmd.Flags().Changed("output") {
		name, _ = cmd.Flags().GetString("output")
	}
	format, err := output.ParseFormat(name)
	if err != nil {
		return nil, nil, err
	}

	var out io.Writer = os.Stdout
	closeOut := func() {}
	if path, _ := cmd.Flags().GetString("out-file"); path != "" {
		f, err := os.Create(path) //#nosec G304 -- CLI tool writes to user-specified output file
		if err != nil {
			logger.Error("failed to create output file", "path", path, "error", err)
			return nil, nil, err
		}
		out = f
		closeOut = func() { _ = f.Close() }
	}

	skipFailed, _ := cmd.Flags().GetBool("skip-failed")
	compact, _ := cmd.Flags().GetBool("compact")
	w, err := output.NewWriter(out, format, output.WithSkipFailed(skipFailed), output.WithPretty(!compact))
	if err != nil {
		closeOut()
		return nil, nil, err
	}
	return w, closeOut, nil
}

// printRecommendation asks for the summary and the recommendation built on it.
func printRecommendation(ctx context.Context, out io.Writer, adv *advisor.Advisor, results []crawler.Result) error {
	summary, err := adv.Summarize(ctx, crawler.Digests(results))
	if err != nil {
		return err
	}
	recommendation, err := adv.Recommend(ctx, summary)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "\n요약:\n%s\n\nLLM 추천:\n%s\n", summary, recommendation)
	return err
}
