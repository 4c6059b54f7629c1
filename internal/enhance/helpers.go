package enhance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	staticProviderName    = "static"
	anthropicProviderName = "anthropic"
	openAIProviderName    = "openai"
)

const defaultLocale = "en"

const enhanceSystemPrompt = "You are a video prompt director. You rewrite terse ideas into vivid, filmable shot descriptions and respond only with valid JSON."

// modelEnhancePayload is the document providers are instructed to return.
type modelEnhancePayload struct {
	Prompt         string            `json:"prompt"`
	NegativePrompt string            `json:"negative_prompt"`
	Keywords       []string          `json:"keywords"`
	Metadata       map[string]string `json:"metadata"`
}

func buildEnhanceInstruction(req EnhanceRequest) string {
	locale := coalesce(req.Locale, defaultLocale)
	sb := &strings.Builder{}
	sb.WriteString("Rewrite the following idea as a single video generation prompt. Respond strictly with JSON matching this schema: ")
	sb.WriteString(`{"prompt":string,"negative_prompt":string,"keywords":string[],"metadata":{"locale":string}}`)
	fmt.Fprintf(sb, ". Describe camera movement, lighting and mood in under 120 words. Use locale '%s' for language choices. Idea: %q.", locale, req.Prompt)
	if style := strings.TrimSpace(req.Style); style != "" {
		fmt.Fprintf(sb, " Preferred style: %q.", style)
	}
	return sb.String()
}

func responseFromPayload(parsed modelEnhancePayload, req EnhanceRequest, provider string) *EnhanceResponse {
	return &EnhanceResponse{
		Prompt:         coalesce(parsed.Prompt, req.Prompt),
		NegativePrompt: strings.TrimSpace(parsed.NegativePrompt),
		Keywords:       normalizeKeywords(parsed.Keywords, req.Style),
		Metadata:       ensureMetadata(parsed.Metadata, coalesce(req.Locale, defaultLocale)),
		Provider:       provider,
	}
}

// fallbackEnhance runs the configured fallback (or a fresh static enhancer)
// and stamps the result with the reason the primary provider was skipped.
func fallbackEnhance(ctx context.Context, fb Enhancer, req EnhanceRequest, reason string, onFallback func(string, error), cause error) (*EnhanceResponse, error) {
	if onFallback != nil {
		onFallback(reason, cause)
	}
	if fb == nil {
		fb = NewStaticEnhancer()
	}
	res, err := fb.Enhance(ctx, req)
	if res != nil {
		if res.Provider == "" {
			res.Provider = staticProviderName
		}
		if res.Metadata == nil {
			res.Metadata = map[string]string{}
		}
		if reason != "" {
			res.Metadata["fallback_reason"] = reason
		}
	}
	return res, err
}

func ensureMetadata(meta map[string]string, locale string) map[string]string {
	if meta == nil {
		meta = map[string]string{}
	}
	if locale != "" {
		meta["locale"] = locale
	} else if _, ok := meta["locale"]; !ok {
		meta["locale"] = defaultLocale
	}
	return meta
}

func normalizeKeywords(keywords []string, fallback string) []string {
	seen := make(map[string]struct{})
	var result []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		lower := strings.ToLower(kw)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		result = append(result, kw)
	}
	if len(result) == 0 && fallback != "" {
		result = []string{fallback}
	}
	return result
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}

func parseModelPayload[T any](raw string) (T, error) {
	var zero T
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return zero, errors.New("empty payload")
	}
	var decoded T
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return zero, err
	}
	return decoded, nil
}

// extractJSONFragment tolerates code fences and prose around the JSON body
// models sometimes emit despite JSON-only instructions.
func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
