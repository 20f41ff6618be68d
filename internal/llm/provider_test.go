package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMockProvider_ReturnsCannedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: "- fact one", Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		Text(`[{"question":"q"}]`),
	)

	resp1, err := mock.Generate(context.Background(), UserPrompt("first", 0.2, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp1.Content != "- fact one" {
		t.Fatalf("unexpected content %q", resp1.Content)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}
	if resp1.StopReason != StopEnd {
		t.Fatalf("expected stop reason 'end', got %q", resp1.StopReason)
	}

	resp2, err := mock.Generate(context.Background(), UserPrompt("second", 0.2, true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp2.Content != `[{"question":"q"}]` {
		t.Fatalf("unexpected content %q", resp2.Content)
	}
	if mock.Remaining() != 0 {
		t.Fatalf("expected empty queue, got %d", mock.Remaining())
	}
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_RecordsPrompts(t *testing.T) {
	mock := NewMockProvider(Text("a"), Text("b"))

	_, _ = mock.Generate(context.Background(), UserPrompt("hello", 0.2, false))
	_, _ = mock.Generate(context.Background(), UserPrompt("world", 0.2, true))

	prompts := mock.Prompts()
	if len(prompts) != 2 || prompts[0] != "hello" || prompts[1] != "world" {
		t.Fatalf("unexpected prompts %v", prompts)
	}
	if mock.Calls[0].JSONMode || !mock.Calls[1].JSONMode {
		t.Fatalf("JSONMode not recorded: %+v", mock.Calls)
	}
}

func TestUserPrompt(t *testing.T) {
	req := UserPrompt("Solve this MCQ", 0.2, true)
	if len(req.Messages) != 1 || req.Messages[0].Role != RoleUser {
		t.Fatalf("expected one user message, got %+v", req.Messages)
	}
	if req.Temperature != 0.2 || !req.JSONMode {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestContextLabels(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}
	if id := RunIDFrom(ctx); id != "" {
		t.Fatalf("expected empty run ID, got %q", id)
	}

	ctx = WithRunID(WithPurpose(ctx, "solver"), "run-1")
	if p := PurposeFrom(ctx); p != "solver" {
		t.Fatalf("expected 'solver', got %q", p)
	}
	if id := RunIDFrom(ctx); id != "run-1" {
		t.Fatalf("expected 'run-1', got %q", id)
	}
}

type slowProvider struct{}

func (slowProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowProvider) ModelID() string { return "slow" }

func TestTimeoutProvider_DeadlineIsTransient(t *testing.T) {
	p := WithTimeout(slowProvider{}, 5*time.Millisecond)

	_, err := p.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T (%v)", err, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		t.Fatal("attempt deadline should not surface as a context error")
	}
}

func TestTimeoutProvider_RetriedByRetryProvider(t *testing.T) {
	p := WithRetryLogger(WithTimeout(slowProvider{}, 2*time.Millisecond), retryConfig(), nil)

	_, err := p.Generate(context.Background(), Request{})
	var exhausted *ErrRetriesExhausted
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got: %T (%v)", err, err)
	}
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "mock"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("expected mock provider, got %q", p.ModelID())
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	if _, err := NewProvider(context.Background(), Config{Provider: "nope"}, nil); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestConfig_Validate(t *testing.T) {
	withRetry := func(c Config) Config {
		c.Retry = DefaultConfig().Retry
		return c
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "gemini without key",
			cfg:     withRetry(Config{Provider: "gemini"}),
			wantErr: true,
		},
		{
			name:    "gemini with key",
			cfg:     withRetry(Config{Provider: "gemini", Gemini: GeminiConfig{APIKey: "g-test"}}),
			wantErr: false,
		},
		{
			name:    "anthropic without key",
			cfg:     withRetry(Config{Provider: "anthropic"}),
			wantErr: true,
		},
		{
			name:    "openai with key",
			cfg:     withRetry(Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk-test"}}),
			wantErr: false,
		},
		{
			name:    "openrouter without key",
			cfg:     withRetry(Config{Provider: "openrouter"}),
			wantErr: true,
		},
		{
			name:    "mock needs no key",
			cfg:     withRetry(Config{Provider: "mock"}),
			wantErr: false,
		},
		{
			name:    "zero attempts",
			cfg:     Config{Provider: "mock"},
			wantErr: true,
		},
		{
			name:    "unknown provider",
			cfg:     withRetry(Config{Provider: "unknown"}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDiscoverConfig(t *testing.T) {
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected no provider without keys")
	}

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("OPENROUTER_API_KEY", "sk-or")
	cfg, ok := DiscoverConfig()
	if !ok {
		t.Fatal("expected a provider")
	}
	if cfg.Provider != "anthropic" || cfg.Anthropic.APIKey != "sk-ant" {
		t.Errorf("got provider %q key %q", cfg.Provider, cfg.Anthropic.APIKey)
	}
	if cfg.Retry.MaxAttempts != DefaultConfig().Retry.MaxAttempts {
		t.Errorf("defaults not applied: %+v", cfg.Retry)
	}
}
