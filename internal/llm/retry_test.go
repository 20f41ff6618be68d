package llm

import (
	"bytes"
	"context"
	"errors"
	"log"
	"strings"
	"testing"
	"time"
)

func retryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 1 * time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func quietRetry(p Provider) Provider {
	return WithRetryLogger(p, retryConfig(), nil)
}

func TestRetry_FirstAttemptSucceeds(t *testing.T) {
	mock := NewMockProvider(Text("- bullet"))
	p := quietRetry(mock)

	resp, err := p.Generate(context.Background(), UserPrompt("research", 0.2, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "- bullet" {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestRetry_RecoversAfterTransientFailures(t *testing.T) {
	mock := NewMockProvider(
		Fail(&ErrProviderUnavailable{Err: errors.New("down")}),
		Fail(errors.New("connection reset")),
		Text(`{"ok":true}`),
	)
	p := quietRetry(mock)

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != `{"ok":true}` {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
	if mock.CallCount() != 3 {
		t.Fatalf("expected 3 calls, got %d", mock.CallCount())
	}
}

func TestRetry_ExhaustedWrapsLastError(t *testing.T) {
	last := errors.New("third failure")
	mock := NewMockProvider(
		Fail(&ErrProviderUnavailable{Err: errors.New("down")}),
		Fail(&ErrRateLimit{Err: errors.New("429")}),
		Fail(last),
		Text("never reached"),
	)
	p := quietRetry(mock)

	_, err := p.Generate(context.Background(), Request{})
	var exhausted *ErrRetriesExhausted
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got: %T (%v)", err, err)
	}
	if exhausted.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", exhausted.Attempts)
	}
	if !errors.Is(err, last) {
		t.Fatalf("expected last error to be wrapped, got %v", err)
	}
	if mock.CallCount() != 3 {
		t.Fatalf("expected 3 calls, got %d", mock.CallCount())
	}
}

func TestRetry_ZeroAttemptsStillCallsOnce(t *testing.T) {
	mock := NewMockProvider(Fail(errors.New("boom")))
	p := WithRetryLogger(mock, RetryConfig{}, nil)

	_, err := p.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestRetry_PermanentErrorsNotRetried(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"max tokens", &ErrMaxTokensExceeded{Content: "{"}},
		{"bad key", &ErrRequestRejected{Status: 401, Err: errors.New("invalid x-api-key")}},
		{"unknown model", &ErrRequestRejected{Status: 404, Err: errors.New("model not found")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(Fail(tt.err), Text("unreachable"))
			_, err := quietRetry(mock).Generate(context.Background(), Request{})
			if !errors.Is(err, tt.err) {
				t.Fatalf("expected the original error, got: %v", err)
			}
			var exhausted *ErrRetriesExhausted
			if errors.As(err, &exhausted) {
				t.Fatal("permanent errors must not be reported as exhausted retries")
			}
			if mock.CallCount() != 1 {
				t.Fatalf("expected 1 call (no retry), got %d", mock.CallCount())
			}
		})
	}
}

func TestRetry_InvalidResponseRetriedOnce(t *testing.T) {
	mock := NewMockProvider(
		Fail(&ErrInvalidResponse{Err: errors.New("no candidates")}),
		Fail(&ErrInvalidResponse{Err: errors.New("no candidates")}),
		Text("unreachable"),
	)
	p := quietRetry(mock)

	_, err := p.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	if mock.CallCount() != 2 {
		t.Fatalf("expected 2 calls, got %d", mock.CallCount())
	}
}

func TestRetry_CancelledContextStops(t *testing.T) {
	mock := NewMockProvider(
		Fail(&ErrProviderUnavailable{Err: errors.New("down")}),
		Text("unreachable"),
	)
	p := quietRetry(mock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
}

func TestRetry_RateLimitRespectsRetryAfter(t *testing.T) {
	mock := NewMockProvider(
		Fail(&ErrRateLimit{RetryAfter: 1 * time.Millisecond, Err: errors.New("429")}),
		Text(`{"ok":true}`),
	)
	p := quietRetry(mock)

	resp, err := p.Generate(context.Background(), Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != `{"ok":true}` {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
}

func TestRetry_LogsEachFailedAttempt(t *testing.T) {
	var buf bytes.Buffer
	mock := NewMockProvider(
		Fail(errors.New("first")),
		Text("ok"),
	)
	p := WithRetryLogger(mock, retryConfig(), log.New(&buf, "", 0))

	ctx := WithPurpose(context.Background(), "generator")
	if _, err := p.Generate(ctx, Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "[retry 1/3] mock (generator): first") {
		t.Fatalf("unexpected log output: %q", out)
	}
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected one log line, got %q", out)
	}
}

func TestRetry_BackoffCappedAtMaxWait(t *testing.T) {
	r := &RetryProvider{config: RetryConfig{
		InitialWait: time.Second,
		MaxWait:     2 * time.Second,
		Multiplier:  10,
	}}
	wait := r.backoff(5, errors.New("x"))
	// Jitter is ±20% around the cap.
	if wait > 2400*time.Millisecond || wait < 1600*time.Millisecond {
		t.Fatalf("wait %s outside capped range", wait)
	}
}

func TestRetry_ModelIDDelegates(t *testing.T) {
	p := quietRetry(NewMockProvider())
	if p.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", p.ModelID())
	}
}
