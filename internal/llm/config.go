package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all LLM provider configuration. It is read once at process
// start and treated as read-only afterwards.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "gemini", "openai", "anthropic", "openrouter". "mock" is for tests.
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Temperature is applied to every stage call. Default: 0.2.
	Temperature float64

	// Timeout bounds a single LLM request attempt. Zero disables it.
	Timeout time.Duration
}

// Model fields accept the friendly names in each provider's model table
// or a full model ID.
type (
	AnthropicConfig struct {
		APIKey string
		Model  string
	}
	OpenAIConfig struct {
		APIKey  string
		Model   string
		BaseURL string // for OpenAI-compatible APIs
	}
	GeminiConfig struct {
		APIKey string
		Model  string
	}
	OpenRouterConfig struct {
		APIKey  string
		Model   string // vendor-namespaced, passed through
		BaseURL string
	}
)

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "gemini",
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-2.0-flash-exp",
		},
		Retry: RetryConfig{
			MaxAttempts: 5,
			InitialWait: 2 * time.Second,
			MaxWait:     30 * time.Second,
			Multiplier:  1.5,
		},
		Temperature: 0.2,
		Timeout:     60 * time.Second,
	}
}

// providerKeys lists the conventional API key variables in discovery order.
var providerKeys = []struct{ provider, env string }{
	{"gemini", "GEMINI_API_KEY"},
	{"openai", "OPENAI_API_KEY"},
	{"anthropic", "ANTHROPIC_API_KEY"},
	{"openrouter", "OPENROUTER_API_KEY"},
}

// DiscoverConfig returns defaults for the first provider whose conventional
// key variable is set, Gemini first.
func DiscoverConfig() (Config, bool) {
	for _, pk := range providerKeys {
		k := os.Getenv(pk.env)
		if k == "" {
			continue
		}
		cfg := DefaultConfig()
		cfg.Provider = pk.provider
		*cfg.apiKeyRef() = k
		return cfg, true
	}
	return Config{}, false
}

// apiKeyRef points at the key field of the selected provider, or is nil
// for providers without one.
func (c *Config) apiKeyRef() *string {
	switch c.Provider {
	case "gemini":
		return &c.Gemini.APIKey
	case "openai":
		return &c.OpenAI.APIKey
	case "anthropic":
		return &c.Anthropic.APIKey
	case "openrouter":
		return &c.OpenRouter.APIKey
	}
	return nil
}

// APIKey returns the credential of the selected provider.
func (c Config) APIKey() string {
	if ref := c.apiKeyRef(); ref != nil {
		return *ref
	}
	return ""
}

// Validate checks the selected provider has a key and the call settings
// are usable.
func (c Config) Validate() error {
	if c.Provider != "mock" {
		ref := c.apiKeyRef()
		if ref == nil {
			return fmt.Errorf("unknown LLM provider: %q", c.Provider)
		}
		if *ref == "" {
			upper := strings.ToUpper(c.Provider)
			return fmt.Errorf("the %s provider needs an API key (set MCQFLOW_LLM_%s_API_KEY or MCQFLOW_%s_API_KEY)",
				c.Provider, upper, upper)
		}
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2], got %v", c.Temperature)
	}
	return nil
}
