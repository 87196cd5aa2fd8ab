package llm

import (
	"context"
	"fmt"

	"github.com/junosixteen/questengine/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with retry and logging middleware.
// audit may be nil; logging is skipped then.
func NewProvider(ctx context.Context, cfg Config, audit store.AuditRepo) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "mock":
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// Retry wraps logging so each attempt is logged individually.
	wrapped := base
	if audit != nil {
		wrapped = WithLogging(wrapped, audit)
	}
	return WithRetry(wrapped, cfg.Retry), nil
}
