package llm

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestSystemPrompt(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"plain", Request{System: "be brief"}, "be brief"},
		{"json only", Request{JSONMode: true}, jsonInstruction},
		{"json with system", Request{System: "be brief\n", JSONMode: true}, "be brief\n\n" + jsonInstruction},
		{"empty", Request{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := systemPrompt(tt.req); got != tt.want {
				t.Errorf("systemPrompt() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	cause := errors.New("cause")

	var rl *ErrRateLimit
	if err := classifyStatus(http.StatusTooManyRequests, 3*time.Second, cause); !errors.As(err, &rl) || rl.RetryAfter != 3*time.Second {
		t.Errorf("429: got %v", err)
	}
	for _, status := range []int{400, 401, 403, 404} {
		var rej *ErrRequestRejected
		if err := classifyStatus(status, 0, cause); !errors.As(err, &rej) || rej.Status != status {
			t.Errorf("%d: got %v", status, err)
		}
	}
	for _, status := range []int{0, 500, 503, 408} {
		var un *ErrProviderUnavailable
		if err := classifyStatus(status, 0, cause); !errors.As(err, &un) {
			t.Errorf("%d: got %v", status, err)
		}
	}
	if err := classifyStatus(500, 0, cause); !errors.Is(err, cause) {
		t.Error("cause should be wrapped")
	}
}

func TestRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	if retryAfter(nil) != 0 || retryAfter(resp) != 0 {
		t.Error("missing header should give zero")
	}
	resp.Header.Set("Retry-After", "12")
	if got := retryAfter(resp); got != 12*time.Second {
		t.Errorf("retryAfter = %v", got)
	}
	resp.Header.Set("Retry-After", "Wed, 21 Oct 2015 07:28:00 GMT")
	if retryAfter(resp) != 0 {
		t.Error("HTTP dates are not parsed")
	}
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		models map[string]string
		in     string
		want   string
	}{
		{geminiModels, "gemini-flash", "gemini-2.0-flash"},
		{geminiModels, "gemini-2.5-flash", "gemini-2.5-flash"},
		{anthropicModels, "claude-haiku", "claude-haiku-4-5-20251001"},
		{openaiModels, "gpt-4o-mini", "gpt-4o-mini"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.in, tt.models); got != tt.want {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
