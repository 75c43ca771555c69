package config

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/jmylchreest/stayscout/pkg/listing"
)

func newViper(t *testing.T, overrides map[string]any) *viper.Viper {
	t.Helper()
	v := viper.New()
	SetDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(newViper(t, nil))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Fetcher != "dynamic" || !cfg.Headless {
		t.Errorf("fetcher = %q headless = %v", cfg.Fetcher, cfg.Headless)
	}
	if cfg.MaxListings != 3 || cfg.Output != "text" {
		t.Errorf("max_listings = %d output = %q", cfg.MaxListings, cfg.Output)
	}
	if cfg.MaxPageBytes != 20_000_000 {
		t.Errorf("MaxPageBytes = %d", cfg.MaxPageBytes)
	}
	if cfg.ProbeTimeout != listing.DefaultProbeTimeout {
		t.Errorf("ProbeTimeout = %v", cfg.ProbeTimeout)
	}

	cc := cfg.Crawler()
	if cc.Pace != 2*time.Second || cc.Settle != time.Second || !cc.AnalyzeImages || cc.LLMFields {
		t.Errorf("Crawler() = %+v", cc)
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(newViper(t, map[string]any{
		"fetcher":       "static",
		"timeout":       "45s",
		"pace":          "0s",
		"max_page_size": "512KiB",
		"max_listings":  10,
		"llm_fields":    true,
		"output":        "yaml",
	}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Timeout != 45*time.Second || cfg.Pace != 0 {
		t.Errorf("durations = %v / %v", cfg.Timeout, cfg.Pace)
	}
	if cfg.MaxPageBytes != 512*1024 {
		t.Errorf("MaxPageBytes = %d", cfg.MaxPageBytes)
	}
	cc := cfg.Crawler()
	if cc.MaxListings != 10 || !cc.LLMFields || cc.MaxPageBytes != 512*1024 {
		t.Errorf("Crawler() = %+v", cc)
	}
}

func TestLoad_UnlimitedPageSize(t *testing.T) {
	cfg, err := Load(newViper(t, map[string]any{"max_page_size": "0"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.MaxPageBytes != 0 {
		t.Errorf("MaxPageBytes = %d, want 0", cfg.MaxPageBytes)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
		wantErr   string
	}{
		{"unknown fetcher", map[string]any{"fetcher": "curl"}, "Fetcher"},
		{"zero timeout", map[string]any{"timeout": "0s"}, "Timeout"},
		{"negative listings", map[string]any{"max_listings": -1}, "MaxListings"},
		{"bad search base", map[string]any{"search_base": "not a url"}, "SearchBase"},
		{"unknown provider", map[string]any{"provider": "gemini"}, "Provider"},
		{"unknown fallback", map[string]any{"fallback_order": []string{"openai", "mystery"}}, "FallbackOrder"},
		{"bad output", map[string]any{"output": "csv"}, "Output"},
		{"bad page size", map[string]any{"max_page_size": "lots"}, "max_page_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newViper(t, tt.overrides))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestProviderOrder(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		order    []string
		want     []string
	}{
		{"default", "", nil, DefaultFallbackOrder},
		{"preferred moves first", "ollama", nil, []string{"ollama", "openai", "anthropic"}},
		{"custom order", "", []string{"anthropic", "openai"}, []string{"anthropic", "openai"}},
		{"preferred not in order", "ollama", []string{"anthropic"}, []string{"ollama", "anthropic"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Provider: tt.provider, FallbackOrder: tt.order}
			if got := c.ProviderOrder(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ProviderOrder() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProviderConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "")

	c := &Config{
		Provider: "openai",
		Model:    "gpt-4o",
		Providers: map[string]ProviderSettings{
			"openai":    {Model: "from-file", MaxRetries: 5},
			"anthropic": {Model: "claude-sonnet-4-5", Timeout: time.Minute},
			"ollama":    {BaseURL: "http://gpu-box:11434/v1"},
		},
	}

	oa := c.ProviderConfig("openai")
	if oa.APIKey != "sk-test" || oa.Model != "gpt-4o" || oa.MaxRetries != 5 {
		t.Errorf("openai = %+v", oa)
	}

	an := c.ProviderConfig("anthropic")
	if an.APIKey != "" || an.Model != "claude-sonnet-4-5" || an.Timeout != time.Minute {
		t.Errorf("anthropic = %+v", an)
	}

	ol := c.ProviderConfig("ollama")
	if ol.BaseURL != "http://gpu-box:11434/v1" || ol.Model != "llava" {
		t.Errorf("ollama = %+v", ol)
	}

	if !NeedsKey("openai") || NeedsKey("ollama") {
		t.Error("NeedsKey mismatch")
	}
}
