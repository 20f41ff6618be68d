package llm

import (
	"context"
	"errors"
	"log"
	"math"
	"math/rand/v2"
	"time"
)

// RetryProvider is a decorator that retries transient errors with
// exponential backoff and jitter.
type RetryProvider struct {
	inner  Provider
	config RetryConfig
	logger *log.Logger
}

// WithRetry wraps a Provider with retry logic. Failed attempts are logged
// through the standard logger.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &RetryProvider{inner: p, config: cfg, logger: log.Default()}
}

// WithRetryLogger is WithRetry with an explicit attempt logger.
// A nil logger silences attempt logging.
func WithRetryLogger(p Provider, cfg RetryConfig, logger *log.Logger) Provider {
	return &RetryProvider{inner: p, config: cfg, logger: logger}
}

func (r *RetryProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	var lastErr error
	invalidRetried := false
	attempts := max(r.config.MaxAttempts, 1)

	for attempt := range attempts {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		r.logf("[retry %d/%d] %s (%s): %v", attempt+1, attempts, r.inner.ModelID(), PurposeFrom(ctx), err)

		if !r.shouldRetry(ctx, err, &invalidRetried) {
			return nil, err
		}

		// Last attempt, nothing left to wait for.
		if attempt == attempts-1 {
			break
		}

		wait := r.backoff(attempt, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	return nil, &ErrRetriesExhausted{Attempts: attempts, Err: lastErr}
}

func (r *RetryProvider) ModelID() string {
	return r.inner.ModelID()
}

func (r *RetryProvider) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}

// shouldRetry determines if an error is retryable.
func (r *RetryProvider) shouldRetry(ctx context.Context, err error, invalidRetried *bool) bool {
	// A cancelled caller is never retried.
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return false
	}

	// Truncation and rejected requests repeat on every attempt.
	var maxTok *ErrMaxTokensExceeded
	var rejected *ErrRequestRejected
	if errors.As(err, &maxTok) || errors.As(err, &rejected) {
		return false
	}

	// An empty response gets one retry.
	var invResp *ErrInvalidResponse
	if errors.As(err, &invResp) {
		if *invalidRetried {
			return false
		}
		*invalidRetried = true
		return true
	}

	// Rate limits, outages and network errors are all transient.
	return true
}

// backoff computes the wait duration for the given attempt.
func (r *RetryProvider) backoff(attempt int, err error) time.Duration {
	// Respect RetryAfter for rate limits.
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}

	wait := float64(r.config.InitialWait) * math.Pow(r.config.Multiplier, float64(attempt))
	if r.config.MaxWait > 0 && wait > float64(r.config.MaxWait) {
		wait = float64(r.config.MaxWait)
	}

	// Add ±20% jitter.
	jitter := wait * 0.2 * (2*rand.Float64() - 1)
	wait += jitter

	if wait < 0 {
		wait = 0
	}
	return time.Duration(wait)
}
