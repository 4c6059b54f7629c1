package enhance

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	Fallback   Enhancer
	OnFallback func(reason string, err error)
}

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIEnhancer rewrites prompts with a chat-completion model, falling back
// the same way the Anthropic enhancer does.
type OpenAIEnhancer struct {
	client     openai.Client
	model      string
	fallback   Enhancer
	onFallback func(reason string, err error)
}

func NewOpenAIEnhancer(opts OpenAIOptions) (*OpenAIEnhancer, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(opts.APIKey))}
	if baseURL := strings.TrimRight(opts.BaseURL, "/"); baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	return &OpenAIEnhancer{
		client:     openai.NewClient(reqOpts...),
		model:      model,
		fallback:   opts.Fallback,
		onFallback: opts.OnFallback,
	}, nil
}

func (o *OpenAIEnhancer) Enhance(ctx context.Context, req EnhanceRequest) (*EnhanceResponse, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(o.model),
		Temperature: openai.Float(0.7),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(enhanceSystemPrompt),
			openai.UserMessage(buildEnhanceInstruction(req)),
		},
	})
	if err != nil {
		return o.useFallback(ctx, req, "request_failed", err)
	}
	if len(resp.Choices) == 0 {
		return o.useFallback(ctx, req, "empty_choices", errors.New("no choices in reply"))
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return o.useFallback(ctx, req, "empty_response", errors.New("empty completion text"))
	}
	parsed, err := parseModelPayload[modelEnhancePayload](text)
	if err != nil {
		return o.useFallback(ctx, req, "parse_payload", err)
	}
	return responseFromPayload(parsed, req, openAIProviderName), nil
}

func (o *OpenAIEnhancer) useFallback(ctx context.Context, req EnhanceRequest, reason string, cause error) (*EnhanceResponse, error) {
	return fallbackEnhance(ctx, o.fallback, req, reason, o.onFallback, cause)
}

var _ Enhancer = (*OpenAIEnhancer)(nil)
