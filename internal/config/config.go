// Package config assembles the CLI configuration from flags, environment,
// the optional .stayscout.yaml file and built-in defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jmylchreest/stayscout/internal/crawler"
	"github.com/jmylchreest/stayscout/pkg/listing"
	"github.com/jmylchreest/stayscout/pkg/llm"
)

// ProviderSettings are per-provider overrides from the config file.
type ProviderSettings struct {
	Model      string        `mapstructure:"model"`
	BaseURL    string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gte=0"`
	MaxRetries int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
}

// Config is the validated CLI configuration.
type Config struct {
	Debug   bool `mapstructure:"debug"`
	Quiet   bool `mapstructure:"quiet"`
	LogJSON bool `mapstructure:"log_json"`

	Fetcher    string        `mapstructure:"fetcher" validate:"oneof=static dynamic"`
	Headless   bool          `mapstructure:"headless"`
	ChromePath string        `mapstructure:"chrome_path" validate:"omitempty,file"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Settle     time.Duration `mapstructure:"settle" validate:"gte=0"`
	Pace       time.Duration `mapstructure:"pace" validate:"gte=0"`

	SearchBase    string        `mapstructure:"search_base" validate:"required,http_url"`
	MaxListings   int           `mapstructure:"max_listings" validate:"gte=0"`
	MaxPageSize   string        `mapstructure:"max_page_size"`
	MaxPageBytes  uint64        `mapstructure:"-"`
	ProbeTimeout  time.Duration `mapstructure:"probe_timeout" validate:"gt=0"`
	AnalyzeImages bool          `mapstructure:"analyze_images"`
	LLMFields     bool          `mapstructure:"llm_fields"`

	Provider      string                      `mapstructure:"provider" validate:"omitempty,provider"`
	Model         string                      `mapstructure:"model"`
	BaseURL       string                      `mapstructure:"base_url" validate:"omitempty,url"`
	FallbackOrder []string                    `mapstructure:"fallback_order" validate:"dive,provider"`
	Providers     map[string]ProviderSettings `mapstructure:"providers" validate:"dive,keys,provider,endkeys"`

	PostgresDSN string `mapstructure:"postgres_dsn"`
	Output      string `mapstructure:"output" validate:"oneof=text json jsonl yaml"`
}

// DefaultFallbackOrder is tried when the config names no fallback_order.
var DefaultFallbackOrder = []string{"openai", "anthropic", "ollama"}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	c := crawler.DefaultConfig()

	v.SetDefault("fetcher", "dynamic")
	v.SetDefault("headless", true)
	v.SetDefault("timeout", c.Timeout)
	v.SetDefault("settle", c.Settle)
	v.SetDefault("pace", c.Pace)
	v.SetDefault("search_base", c.SearchBase)
	v.SetDefault("max_listings", c.MaxListings)
	v.SetDefault("max_page_size", humanize.Bytes(c.MaxPageBytes))
	v.SetDefault("probe_timeout", listing.DefaultProbeTimeout)
	v.SetDefault("analyze_images", c.AnalyzeImages)
	v.SetDefault("llm_fields", c.LLMFields)
	v.SetDefault("fallback_order", DefaultFallbackOrder)
	v.SetDefault("output", "text")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	_ = val.RegisterValidation("provider", func(fl validator.FieldLevel) bool {
		return llm.IsRegistered(fl.Field().String())
	})
	return val
}

// Load reads and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	size := strings.TrimSpace(cfg.MaxPageSize)
	if size != "" && size != "0" {
		n, err := humanize.ParseBytes(size)
		if err != nil {
			return nil, fmt.Errorf("invalid max_page_size %q: %w", cfg.MaxPageSize, err)
		}
		cfg.MaxPageBytes = n
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Crawler returns the crawler settings.
func (c *Config) Crawler() crawler.Config {
	cc := crawler.DefaultConfig()
	cc.SearchBase = c.SearchBase
	cc.MaxListings = c.MaxListings
	cc.Timeout = c.Timeout
	cc.Settle = c.Settle
	cc.Pace = c.Pace
	cc.MaxPageBytes = c.MaxPageBytes
	cc.AnalyzeImages = c.AnalyzeImages
	cc.LLMFields = c.LLMFields
	return cc
}

// ProviderOrder returns the provider names to chain, preferred first, without
// duplicates.
func (c *Config) ProviderOrder() []string {
	order := c.FallbackOrder
	if len(order) == 0 {
		order = DefaultFallbackOrder
	}
	if c.Provider != "" {
		order = append([]string{c.Provider}, order...)
	}

	seen := make(map[string]bool, len(order))
	out := make([]string, 0, len(order))
	for _, name := range order {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// ProviderConfig merges defaults, the providers section, the API key from the
// environment and, for the preferred provider, the --model and --base-url
// overrides.
func (c *Config) ProviderConfig(name string) llm.ProviderConfig {
	pc := llm.DefaultProviderConfig()
	pc.Model = llm.GetDefaultModel(name)
	if env := llm.EnvKey(name); env != "" {
		pc.APIKey = os.Getenv(env)
	}

	if s, ok := c.Providers[name]; ok {
		if s.Model != "" {
			pc.Model = s.Model
		}
		if s.BaseURL != "" {
			pc.BaseURL = s.BaseURL
		}
		if s.Timeout > 0 {
			pc.Timeout = s.Timeout
		}
		if s.MaxRetries > 0 {
			pc.MaxRetries = s.MaxRetries
		}
	}

	if name == c.Provider {
		if c.Model != "" {
			pc.Model = c.Model
		}
		if c.BaseURL != "" {
			pc.BaseURL = c.BaseURL
		}
	}
	return pc
}

// NeedsKey reports whether provider name cannot run without an API key.
func NeedsKey(name string) bool {
	return llm.EnvKey(name) != ""
}
