package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// Known OpenAI model pricing (per token, USD)
var openaiPricing = map[string]rates{
	"gpt-4o-mini": {0.15 / 1_000_000, 0.60 / 1_000_000},
	"gpt-4o":      {2.50 / 1_000_000, 10.0 / 1_000_000},
	"gpt-4.1":     {2.00 / 1_000_000, 8.00 / 1_000_000},
	"gpt-4-turbo": {10.0 / 1_000_000, 30.0 / 1_000_000},
}

// OpenAIProvider implements Provider and Streamer for the OpenAI chat API and
// servers speaking the same protocol.
type OpenAIProvider struct {
	client openai.Client
	name   string
	model  string
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg ProviderConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key required")
	}
	return newOpenAICompatible("openai", cfg), nil
}

// NewOllamaProvider talks to a local Ollama server through its
// OpenAI-compatible endpoint. No API key is needed.
func NewOllamaProvider(cfg ProviderConfig) (*OpenAIProvider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434/v1"
	}
	if cfg.APIKey == "" {
		cfg.APIKey = "ollama"
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModels["ollama"]
	}
	return newOpenAICompatible("ollama", cfg), nil
}

func newOpenAICompatible(name string, cfg ProviderConfig) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.MaxRetries > 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		name:   name,
		model:  model,
	}
}

func (p *OpenAIProvider) params(req Request) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case RoleUser:
			if len(msg.Images) == 0 {
				messages = append(messages, openai.UserMessage(msg.Content))
				continue
			}
			parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(msg.Images)+1)
			parts = append(parts, openai.TextContentPart(msg.Content))
			for _, u := range msg.Images {
				parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: u}))
			}
			messages = append(messages, openai.UserMessage(parts))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	params := openai.ChatCompletionNewParams{
		Model:     openai.ChatModel(p.model),
		Messages:  messages,
		MaxTokens: openai.Int(int64(maxTokens)),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}
	return params
}

// Execute sends a completion request to OpenAI.
func (p *OpenAIProvider) Execute(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	resp, err := p.client.Chat.Completions.New(ctx, p.params(req))
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	usage := Usage{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
	}

	return &Response{
		Content:      strings.TrimSpace(resp.Choices[0].Message.Content),
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage:        usage,
		Model:        resp.Model,
		Cost:         p.EstimateCost(p.model, usage.InputTokens, usage.OutputTokens),
		Duration:     time.Since(start),
	}, nil
}

// Stream sends the request with server-sent events, forwarding each content
// delta to onChunk.
func (p *OpenAIProvider) Stream(ctx context.Context, req Request, onChunk func(string)) (*Response, error) {
	start := time.Now()

	params := p.params(req)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{
		IncludeUsage: openai.Bool(true),
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" && onChunk != nil {
			onChunk(chunk.Choices[0].Delta.Content)
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("%s stream error: %w", p.name, err)
	}
	if len(acc.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	usage := Usage{
		InputTokens:  int(acc.Usage.PromptTokens),
		OutputTokens: int(acc.Usage.CompletionTokens),
	}

	return &Response{
		Content:      acc.Choices[0].Message.Content,
		FinishReason: string(acc.Choices[0].FinishReason),
		Usage:        usage,
		Model:        acc.Model,
		Cost:         p.EstimateCost(p.model, usage.InputTokens, usage.OutputTokens),
		Duration:     time.Since(start),
	}, nil
}

// Name returns the provider identifier.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Model returns the configured model name.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// EstimateCost calculates cost based on known OpenAI pricing. Self-hosted
// models are free.
func (p *OpenAIProvider) EstimateCost(modelID string, inputTokens, outputTokens int) float64 {
	if p.name == "ollama" {
		return 0
	}
	if r, ok := openaiPricing[modelID]; ok {
		return r.cost(inputTokens, outputTokens)
	}
	// Longest prefix wins so "gpt-4o-mini-2024-07-18" does not price as gpt-4o.
	best := ""
	for id := range openaiPricing {
		if strings.HasPrefix(modelID, id) && len(id) > len(best) {
			best = id
		}
	}
	if best != "" {
		return openaiPricing[best].cost(inputTokens, outputTokens)
	}
	return openaiPricing[DefaultOpenAIModel].cost(inputTokens, outputTokens)
}

var (
	_ Provider      = (*OpenAIProvider)(nil)
	_ Streamer      = (*OpenAIProvider)(nil)
	_ CostEstimator = (*OpenAIProvider)(nil)
)
