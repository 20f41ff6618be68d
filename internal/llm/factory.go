package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/mcqflow/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with retry, logging and timeout middleware.
// eventRepo may be nil, in which case calls are not recorded.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo) (Provider, error) {
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
	case "mock": // tests only
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return Wrap(base, cfg, eventRepo), nil
}

// Wrap applies the standard middleware chain to base:
// caller → retry → logging → timeout → base.
// Every attempt is logged, so a retried call leaves one event per attempt.
func Wrap(base Provider, cfg Config, eventRepo store.EventRepo) Provider {
	p := base
	if cfg.Timeout > 0 {
		p = WithTimeout(p, cfg.Timeout)
	}
	if eventRepo != nil {
		p = WithLogging(p, cfg.Provider, eventRepo)
	}
	return WithRetry(p, cfg.Retry)
}

// TimeoutProvider bounds each Generate call with a deadline.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps p so that each call is cancelled after d.
func WithTimeout(p Provider, d time.Duration) Provider {
	return &TimeoutProvider{inner: p, timeout: d}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.inner.Generate(ctx, req)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		// A per-attempt deadline is transient; the parent context is still live.
		return nil, &ErrProviderUnavailable{Err: fmt.Errorf("request timed out after %s: %v", t.timeout, err)}
	}
	return resp, err
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
