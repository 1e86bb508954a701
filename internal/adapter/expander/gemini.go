// internal/adapter/expander/gemini.go

package expander

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

const promptTemplate = `Convert the following user request into optimized GitHub search keywords.
Keep the output short, only space-separated keywords, no stopwords, no explanations.

Examples:
User: I want a real-time chat app
Output: real-time chat websocket messaging socket.io

User: mcp server for notion
Output: notion mcp integration connector server

User: %s
Output:`

// DefaultModels are tried in order until one answers
var DefaultModels = []string{"gemini-2.5-flash", "gemini-2.5-flash-lite"}

// ErrNoAnswer is returned when no model produced usable text
var ErrNoAnswer = errors.New("no model produced keywords")

// generator is the slice of the genai client the expander needs
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config configures the Gemini expander
type Config struct {
	APIKey    string
	Models    []string
	CacheSize int
}

// GeminiExpander rewrites free text into search keywords with a Gemini model
type GeminiExpander struct {
	models []string
	gen    generator
	cache  *lru.Cache[string, string]
	logger zerolog.Logger
}

// NewGeminiExpander connects to the Gemini API
func NewGeminiExpander(ctx context.Context, cfg Config, logger zerolog.Logger) (*GeminiExpander, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return newExpander(client.Models, cfg, logger), nil
}

func newExpander(gen generator, cfg Config, logger zerolog.Logger) *GeminiExpander {
	models := cfg.Models
	if len(models) == 0 {
		models = DefaultModels
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = 512
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		cache, _ = lru.New[string, string](512)
	}

	return &GeminiExpander{
		models: models,
		gen:    gen,
		cache:  cache,
		logger: logger.With().Str("component", "expander").Logger(),
	}
}

// Expand returns keywords for text. Identical inputs are answered from cache.
func (e *GeminiExpander) Expand(ctx context.Context, text string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(text))
	if key == "" {
		return "", fmt.Errorf("empty text")
	}
	if v, ok := e.cache.Get(key); ok {
		return v, nil
	}

	prompt := fmt.Sprintf(promptTemplate, text)

	var lastErr error
	for _, model := range e.models {
		resp, err := e.gen.GenerateContent(ctx, model, genai.Text(prompt), nil)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			e.logger.Warn().Err(err).Str("model", model).Msg("Model failed, trying next")
			lastErr = err
			continue
		}

		keywords := clean(firstText(resp))
		if keywords == "" {
			lastErr = ErrNoAnswer
			continue
		}
		e.cache.Add(key, keywords)
		return keywords, nil
	}

	if lastErr == nil {
		lastErr = ErrNoAnswer
	}
	return "", lastErr
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil || len(c.Content.Parts) == 0 || c.Content.Parts[0] == nil {
		return ""
	}
	return c.Content.Parts[0].Text
}

// clean keeps the first line, drops an echoed "Output:" label and collapses whitespace
func clean(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimPrefix(s, "Output:")
	s = strings.Trim(s, "`\"' ")
	return strings.Join(strings.Fields(s), " ")
}
