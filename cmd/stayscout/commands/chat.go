package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/stayscout/internal/advisor"
	"github.com/jmylchreest/stayscout/internal/crawler"
	"github.com/jmylchreest/stayscout/internal/logger"
	"github.com/jmylchreest/stayscout/internal/session"
	"github.com/jmylchreest/stayscout/internal/storage"
)

const chatPrompt = "무엇을 도와드릴까요? (예: 강릉 숙소 검색해줘, /reset, /quit)"

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the listing assistant",
	Long: `Start a conversation. Ask for listings in a city to run a search
("강릉 숙소 검색해줘"), ask to book ("예약") to get the first listing's link,
or just chat. /reset clears the conversation and /quit leaves.`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	provider, err := newProvider(cfg)
	if err != nil {
		logger.Error("no LLM provider available - set OPENAI_API_KEY or ANTHROPIC_API_KEY, or run Ollama locally", "error", err)
		return err
	}
	adv := advisor.New(provider, advisor.DefaultOptions())

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

	// The session analyses photos itself, after the crawl.
	cc := cfg.Crawler()
	cc.AnalyzeImages = false
	searcher := &savingSearcher{crawler: newCrawler(cfg, f, adv, cc), store: store}

	h := session.NewHandler(provider, searcher, adv)
	return chatLoop(ctx, h, session.New(), cmd.InOrStdin(), cmd.OutOrStdout())
}

// chatLoop reads prompts line by line until EOF, /quit or cancellation.
func chatLoop(ctx context.Context, h *session.Handler, sess *session.Session, in io.Reader, out io.Writer) error {
	logger.Debug("chat session started", "session", sess.ID)
	fmt.Fprintln(out, chatPrompt)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		prompt := strings.TrimSpace(scanner.Text())
		switch prompt {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		}

		if err := h.Handle(ctx, sess, prompt, out); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("prompt failed", "session", sess.ID, "error", err)
		}
	}
}

// savingSearcher stores every search in the configured database.
type savingSearcher struct {
	crawler *crawler.Crawler
	store   *storage.PostgresStore
}

func (s *savingSearcher) Run(ctx context.Context, location string) ([]crawler.Result, error) {
	results, err := s.crawler.Run(ctx, location)
	if err != nil && !errors.Is(err, context.Canceled) {
		return results, err
	}
	saveResults(ctx, s.store, location, results)
	return results, err
}

var _ session.Searcher = (*savingSearcher)(nil)
