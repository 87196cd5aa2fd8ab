package llm

import (
	"fmt"
	"os"
	"time"
)

// Config selects and configures the narrative model provider.
type Config struct {
	// Provider is one of "anthropic", "openai", "gemini", "openrouter",
	// "mock".
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds a single call including retries.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string // optional, for OpenAI-compatible APIs
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig tunes backoff for transient provider failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig defaults to the mock provider. Missions must plan and run
// without any API key, the model only decorates them.
func DefaultConfig() Config {
	return Config{
		Provider:   "mock",
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

func env(name string, into *string) {
	if v := os.Getenv(name); v != "" {
		*into = v
	}
}

// ConfigFromEnv reads QUESTENGINE_* variables over the defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	env("QUESTENGINE_LLM_PROVIDER", &cfg.Provider)
	env("QUESTENGINE_ANTHROPIC_API_KEY", &cfg.Anthropic.APIKey)
	env("QUESTENGINE_ANTHROPIC_MODEL", &cfg.Anthropic.Model)
	env("QUESTENGINE_OPENAI_API_KEY", &cfg.OpenAI.APIKey)
	env("QUESTENGINE_OPENAI_MODEL", &cfg.OpenAI.Model)
	env("QUESTENGINE_OPENAI_BASE_URL", &cfg.OpenAI.BaseURL)
	env("QUESTENGINE_GEMINI_API_KEY", &cfg.Gemini.APIKey)
	env("QUESTENGINE_GEMINI_MODEL", &cfg.Gemini.Model)
	env("QUESTENGINE_OPENROUTER_API_KEY", &cfg.OpenRouter.APIKey)
	env("QUESTENGINE_OPENROUTER_MODEL", &cfg.OpenRouter.Model)

	return cfg
}

// DiscoverConfig probes the vendors' conventional API key variables in
// priority order and returns a Config for the first key found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	probes := []struct {
		envVar   string
		provider string
		key      *string
	}{
		{"GEMINI_API_KEY", "gemini", &cfg.Gemini.APIKey},
		{"OPENAI_API_KEY", "openai", &cfg.OpenAI.APIKey},
		{"ANTHROPIC_API_KEY", "anthropic", &cfg.Anthropic.APIKey},
		{"OPENROUTER_API_KEY", "openrouter", &cfg.OpenRouter.APIKey},
	}

	for _, p := range probes {
		if k := os.Getenv(p.envVar); k != "" {
			cfg.Provider = p.provider
			*p.key = k
			return cfg, true
		}
	}
	return Config{}, false
}

// Validate checks the selected provider has its API key.
func (c Config) Validate() error {
	switch c.Provider {
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("QUESTENGINE_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("QUESTENGINE_OPENAI_API_KEY is required for the openai provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("QUESTENGINE_GEMINI_API_KEY is required for the gemini provider")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("QUESTENGINE_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case "mock":
	default:
		return fmt.Errorf("unknown provider: %q", c.Provider)
	}
	return nil
}
