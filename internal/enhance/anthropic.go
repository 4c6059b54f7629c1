package enhance

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type AnthropicOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	MaxTokens  int64
	Fallback   Enhancer
	OnFallback func(reason string, err error)
}

const defaultAnthropicModel = "claude-3-5-haiku-20241022"

const defaultAnthropicMaxTokens = 1024

// AnthropicEnhancer rewrites prompts with a Claude model. Any failure routes
// through the fallback chain so enhancement never blocks a generation.
type AnthropicEnhancer struct {
	client     *anthropic.Client
	model      string
	maxTokens  int64
	fallback   Enhancer
	onFallback func(reason string, err error)
}

func NewAnthropicEnhancer(opts AnthropicOptions) (*AnthropicEnhancer, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("anthropic api key is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultAnthropicModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(opts.APIKey))}
	if baseURL := strings.TrimRight(opts.BaseURL, "/"); baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(reqOpts...)
	return &AnthropicEnhancer{
		client:     &client,
		model:      model,
		maxTokens:  maxTokens,
		fallback:   opts.Fallback,
		onFallback: opts.OnFallback,
	}, nil
}

func (a *AnthropicEnhancer) Enhance(ctx context.Context, req EnhanceRequest) (*EnhanceResponse, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   a.maxTokens,
		Temperature: anthropic.Float(0.7),
		System: []anthropic.TextBlockParam{
			{Type: "text", Text: enhanceSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildEnhanceInstruction(req))),
		},
	})
	if err != nil {
		return a.useFallback(ctx, req, "request_failed", err)
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return a.useFallback(ctx, req, "empty_response", errors.New("no text blocks in reply"))
	}
	parsed, err := parseModelPayload[modelEnhancePayload](text)
	if err != nil {
		return a.useFallback(ctx, req, "parse_payload", err)
	}
	return responseFromPayload(parsed, req, anthropicProviderName), nil
}

func (a *AnthropicEnhancer) useFallback(ctx context.Context, req EnhanceRequest, reason string, cause error) (*EnhanceResponse, error) {
	return fallbackEnhance(ctx, a.fallback, req, reason, a.onFallback, cause)
}

var _ Enhancer = (*AnthropicEnhancer)(nil)
