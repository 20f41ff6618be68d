package llm

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Normalized Response.StopReason values.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
	StopFiltered  = "filtered"
)

// jsonInstruction is added to the system prompt of providers whose native
// JSON switch cannot express a top-level array.
const jsonInstruction = "Respond with valid JSON only, without Markdown fences or commentary."

// systemPrompt returns req.System, extended with jsonInstruction in JSON mode.
func systemPrompt(req Request) string {
	if !req.JSONMode {
		return req.System
	}
	if req.System == "" {
		return jsonInstruction
	}
	return strings.TrimRight(req.System, "\n") + "\n\n" + jsonInstruction
}

// classifyStatus maps the HTTP status of a failed provider call to the
// error kinds RetryProvider acts on. Status 0 means no response arrived.
func classifyStatus(status int, retryAfter time.Duration, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &ErrRateLimit{RetryAfter: retryAfter, Err: err}
	case status == http.StatusBadRequest,
		status == http.StatusUnauthorized,
		status == http.StatusForbidden,
		status == http.StatusNotFound:
		return &ErrRequestRejected{Status: status, Err: err}
	default:
		return &ErrProviderUnavailable{Err: err}
	}
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// resolveModel maps a friendly model name to a provider model ID. Unknown
// names pass through so full model IDs work.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
