package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/abhisek/mcqflow/internal/store"
)

// LoggingProvider records every attempt as an LLM event in the store,
// tagged with the run and stage found on the context.
type LoggingProvider struct {
	inner    Provider
	provider string
	events   store.EventRepo
}

// WithLogging wraps p. providerName ("gemini", "openai", ...) is stored with
// each event.
func WithLogging(p Provider, providerName string, events store.EventRepo) Provider {
	return &LoggingProvider{inner: p, provider: providerName, events: events}
}

func (l *LoggingProvider) ModelID() string { return l.inner.ModelID() }

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)

	ev := store.LLMRequestEventData{
		RunID:       RunIDFrom(ctx),
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   time.Since(start).Milliseconds(),
		Success:     err == nil,
		RequestBody: transcript(req),
	}
	switch {
	case err != nil:
		ev.ErrorMessage = err.Error()
	case resp != nil:
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = resp.Content
		if resp.Model != "" {
			ev.Model = resp.Model
		}
		// A truncated or filtered answer still succeeds; keep the reason for
		// `mcqflow llm view`.
		if resp.StopReason != "" && resp.StopReason != StopEnd {
			ev.ErrorMessage = "stopped: " + resp.StopReason
		}
	}

	// Record calls of a cancelled run too. The write never changes the outcome.
	if logErr := l.events.AppendLLMRequest(context.WithoutCancel(ctx), ev); logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to log LLM request event: %v\n", logErr)
	}
	return resp, err
}

// transcript renders a request the way `mcqflow llm view` shows it.
func transcript(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	fmt.Fprintf(&b, "[temperature: %g", req.Temperature)
	if req.JSONMode {
		b.WriteString(", format: json")
	}
	b.WriteString("]\n")
	return b.String()
}
