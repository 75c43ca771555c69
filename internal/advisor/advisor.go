// Package advisor asks an LLM about crawled listings: it describes photos,
// fills in facts the page parser missed, and writes the summary and
// recommendation shown to the user.
//
// Every call degrades instead of failing the crawl. Image analysis and detail
// extraction turn errors into user-visible text; only the summary steps
// return errors, since there is nothing sensible to show in their place.
package advisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmylchreest/stayscout/internal/logger"
	"github.com/jmylchreest/stayscout/pkg/listing"
	"github.com/jmylchreest/stayscout/pkg/llm"
)

// Messages shown in place of an analysis.
const (
	NoValidImages  = "유효한 이미지 URL이 없습니다."
	imageErrPrefix = "이미지 처리 중 오류: "
	llmErrPrefix   = "LLM 요청 중 오류 발생: "
)

// Options tunes request sizes.
type Options struct {
	ImageTokens   int // max tokens for image analysis
	DetailTokens  int // max tokens for detail extraction
	SummaryTokens int // max tokens for summary and recommendation
	TextLimit     int // runes of page text sent for detail extraction
	MaxImages     int // images attached per analysis; 0 sends all
}

// DefaultOptions returns the limits the prompts were tuned with.
func DefaultOptions() Options {
	return Options{
		ImageTokens:   300,
		DetailTokens:  150,
		SummaryTokens: 500,
		TextLimit:     1000,
	}
}

// Digest is what the summary prompt needs to know about one listing.
type Digest struct {
	Title         string
	Description   string
	URL           string
	ImageAnalysis string
}

// Details is the LLM's reading of a listing's facts.
type Details struct {
	Bedrooms         string `json:"bedrooms"`
	Beds             string `json:"beds"`
	Bathrooms        string `json:"bathrooms"`
	PropertyFeatures string `json:"property_features"`
}

// Advisor wraps a provider with the listing prompts.
type Advisor struct {
	provider llm.Provider
	opts     Options
}

// New creates an Advisor. Zero option fields take their defaults.
func New(provider llm.Provider, opts Options) *Advisor {
	def := DefaultOptions()
	if opts.ImageTokens == 0 {
		opts.ImageTokens = def.ImageTokens
	}
	if opts.DetailTokens == 0 {
		opts.DetailTokens = def.DetailTokens
	}
	if opts.SummaryTokens == 0 {
		opts.SummaryTokens = def.SummaryTokens
	}
	if opts.TextLimit == 0 {
		opts.TextLimit = def.TextLimit
	}
	return &Advisor{provider: provider, opts: opts}
}

// Provider returns the underlying provider.
func (a *Advisor) Provider() llm.Provider {
	return a.provider
}

func (a *Advisor) execute(ctx context.Context, req llm.Request) (string, error) {
	if a.provider == nil {
		return "", llm.ErrNoProvider
	}
	resp, err := a.provider.Execute(ctx, req)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

// AnalyzeImages sends all urls in one vision request and returns a combined
// description of the space. It never fails: an empty list and provider errors
// both come back as readable text.
func (a *Advisor) AnalyzeImages(ctx context.Context, urls []string) string {
	if len(urls) == 0 {
		return NoValidImages
	}
	if a.opts.MaxImages > 0 && len(urls) > a.opts.MaxImages {
		logger.Debug("limiting images sent for analysis", "available", len(urls), "sent", a.opts.MaxImages)
		urls = urls[:a.opts.MaxImages]
	}

	text, err := a.execute(ctx, llm.Request{
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: imagePrompt,
			Images:  urls,
		}},
		MaxTokens: a.opts.ImageTokens,
	})
	if err != nil {
		logger.Warn("image analysis failed", "images", len(urls), "error", err)
		return imageErrPrefix + err.Error()
	}
	return text
}

// ExtractDetails asks the model for the listing counts and a feature summary.
// On any failure the counts are NoInfo and the features carry the error.
func (a *Advisor) ExtractDetails(ctx context.Context, pageText string) Details {
	text, err := a.execute(ctx, llm.Request{
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: BuildDetailsPrompt(pageText, a.opts.TextLimit),
		}},
		MaxTokens: a.opts.DetailTokens,
		JSONMode:  true,
	})
	if err == nil {
		var d Details
		if d, err = ParseDetails(text); err == nil {
			return d
		}
	}

	logger.Warn("detail extraction failed", "error", err)
	return Details{
		Bedrooms:         listing.NoInfo,
		Beds:             listing.NoInfo,
		Bathrooms:        listing.NoInfo,
		PropertyFeatures: llmErrPrefix + err.Error(),
	}
}

// ParseDetails decodes a model reply. Numbers are accepted in place of
// strings and empty counts become NoInfo.
func ParseDetails(reply string) (Details, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(StripMarkdownCodeBlock(reply)), &raw); err != nil {
		return Details{}, fmt.Errorf("decode details: %w", err)
	}
	if raw == nil {
		return Details{}, errors.New("decode details: empty object")
	}

	return Details{
		Bedrooms:         countField(raw["bedrooms"]),
		Beds:             countField(raw["beds"]),
		Bathrooms:        countField(raw["bathrooms"]),
		PropertyFeatures: textField(raw["property_features"]),
	}, nil
}

func countField(v any) string {
	switch x := v.(type) {
	case string:
		if s := strings.TrimSpace(x); s != "" {
			return s
		}
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return listing.NoInfo
}

func textField(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// FillCounts replaces the sentinel counts in f with digit values from d.
// Values that are not plain digits are ignored, so a Record keeps its
// digits-or-sentinel form.
func FillCounts(f listing.Fields, d Details) listing.Fields {
	fill := func(cur, llmValue string) string {
		if cur != listing.NoInfo || !isDigits(llmValue) {
			return cur
		}
		return llmValue
	}
	f.Bedrooms = fill(f.Bedrooms, d.Bedrooms)
	f.Beds = fill(f.Beds, d.Beds)
	f.Bathrooms = fill(f.Bathrooms, d.Bathrooms)
	return f
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Summarize writes a short comparison of the listings.
func (a *Advisor) Summarize(ctx context.Context, listings []Digest) (string, error) {
	text, err := a.execute(ctx, llm.Request{
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: BuildSummaryPrompt(listings)}},
		MaxTokens: a.opts.SummaryTokens,
	})
	if err != nil {
		return "", fmt.Errorf("summarize listings: %w", err)
	}
	return text, nil
}

// Recommend evaluates the listings described by summary.
func (a *Advisor) Recommend(ctx context.Context, summary string) (string, error) {
	text, err := a.execute(ctx, llm.Request{
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: BuildRecommendPrompt(summary)}},
		MaxTokens: a.opts.SummaryTokens,
	})
	if err != nil {
		return "", fmt.Errorf("recommend listings: %w", err)
	}
	return text, nil
}
