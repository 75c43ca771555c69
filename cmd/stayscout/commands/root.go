// Package commands implements the CLI commands for stayscout.
package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/stayscout/internal/config"
	"github.com/jmylchreest/stayscout/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "stayscout",
	Short: "Search rental listings and let an LLM compare them",
	Long: `Stayscout searches airbnb.co.kr for a location, reads each listing's
details and photos, and asks an LLM to describe and compare them.

Examples:
  # Crawl the first three listings for a city
  stayscout crawl 강릉

  # Inspect one listing and print YAML
  stayscout inspect "https://www.airbnb.co.kr/rooms/1084482008833333635" -o yaml

  # Talk to the assistant
  stayscout chat

  # Use a local Ollama vision model
  stayscout chat -p ollama -m llava`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogger()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()

	// Global flags
	flags.String("config", "", "config file (default $HOME/.stayscout.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.BoolP("quiet", "q", false, "only log errors")
	flags.Bool("log-json", false, "log as JSON")

	// LLM settings
	flags.StringP("provider", "p", "", "preferred LLM provider: openai, anthropic, ollama (default: first with a key)")
	flags.StringP("model", "m", "", "model for the preferred provider")
	flags.String("base-url", "", "custom API base URL for the preferred provider")

	// Fetch settings
	flags.String("fetcher", "dynamic", "page fetcher: dynamic (headless Chrome), static (plain HTTP)")
	flags.Bool("headless", true, "run Chrome headless")
	flags.String("chrome-path", "", "Chrome binary (default: search PATH)")
	flags.Duration("timeout", 0, "per-page timeout (default 30s)")
	flags.Duration("settle", 0, "extra wait after a page is ready (default 1s)")
	flags.Duration("pace", 0, "minimum gap between page loads (default 2s)")

	// Crawl settings
	flags.Int("max-listings", 0, "listings visited per search (default 3, 0 in config = all)")
	flags.String("max-page-size", "", "skip detail pages larger than this, e.g. 20MB (0 = unlimited)")
	flags.Bool("llm-fields", false, "ask the LLM for room counts the page text lacks")
	flags.String("postgres-dsn", "", "save crawl results to this PostgreSQL database")

	bind := map[string]string{
		"debug":         "debug",
		"quiet":         "quiet",
		"log_json":      "log-json",
		"provider":      "provider",
		"model":         "model",
		"base_url":      "base-url",
		"fetcher":       "fetcher",
		"headless":      "headless",
		"chrome_path":   "chrome-path",
		"timeout":       "timeout",
		"settle":        "settle",
		"pace":          "pace",
		"max_listings":  "max-listings",
		"max_page_size": "max-page-size",
		"llm_fields":    "llm-fields",
		"postgres_dsn":  "postgres-dsn",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func initConfig() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	config.SetDefaults(viper.GetViper())

	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".stayscout")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("STAYSCOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

func initLogger() error {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		JSON:  viper.GetBool("log_json"),
	})
	if f := viper.ConfigFileUsed(); f != "" {
		logger.Debug("config file loaded", "path", f)
	}
	return nil
}

// loadConfig validates the merged configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return nil, err
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}
