package enhance

import (
	"context"
	"fmt"
	"strings"

	loremgen "github.com/bozaro/golorem"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// EnhanceRequest carries the raw user prompt plus presentation hints picked
// up from the request context.
type EnhanceRequest struct {
	Prompt string
	Locale string
	Style  string
}

// EnhanceResponse is an enriched, generation-ready prompt. Provider names
// the backend that produced it and is kept out of serialized payloads.
type EnhanceResponse struct {
	Prompt         string            `json:"prompt"`
	NegativePrompt string            `json:"negative_prompt,omitempty"`
	Keywords       []string          `json:"keywords,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	Provider       string            `json:"-"`
}

type Enhancer interface {
	Enhance(ctx context.Context, req EnhanceRequest) (*EnhanceResponse, error)
}

// StaticEnhancer rewrites prompts offline with a fixed template. It backs the
// provider chain when no model credentials are configured and never fails.
type StaticEnhancer struct {
	generator *loremgen.Lorem
}

func NewStaticEnhancer() *StaticEnhancer {
	return &StaticEnhancer{generator: loremgen.New()}
}

func (s *StaticEnhancer) Enhance(ctx context.Context, req EnhanceRequest) (*EnhanceResponse, error) {
	subject := strings.TrimSpace(req.Prompt)
	if subject == "" {
		subject = s.generator.Sentence(3, 6)
	}
	style := coalesce(req.Style, "cinematic")
	c := cases.Title(language.Und)
	prompt := fmt.Sprintf("%s shot of %s. Smooth camera movement, natural lighting, rich surface detail.", c.String(style), subject)
	return &EnhanceResponse{
		Prompt:         prompt,
		NegativePrompt: "blurry, low resolution, watermark, distorted motion",
		Keywords:       normalizeKeywords([]string{style, "video"}, style),
		Metadata:       ensureMetadata(nil, req.Locale),
		Provider:       staticProviderName,
	}, nil
}

var _ Enhancer = (*StaticEnhancer)(nil)
