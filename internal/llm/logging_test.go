package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/abhisek/mcqflow/internal/store"
)

// recordingRepo keeps appended events in memory.
type recordingRepo struct {
	store.EventRepo
	events []store.LLMRequestEventData
	ctxErr error
}

func (r *recordingRepo) AppendLLMRequest(ctx context.Context, data store.LLMRequestEventData) error {
	r.ctxErr = ctx.Err()
	r.events = append(r.events, data)
	return nil
}

func TestLoggingProvider_RecordsStageCall(t *testing.T) {
	repo := &recordingRepo{}
	mock := NewMockProvider(MockResponse{Content: `{"valid":true}`, Usage: Usage{InputTokens: 12, OutputTokens: 4}})
	p := WithLogging(mock, "gemini", repo)

	ctx := WithRunID(WithPurpose(context.Background(), "validate"), "run-7")
	req := UserPrompt("Validate this", 0.2, true)
	req.System = "You are strict."
	if _, err := p.Generate(ctx, req); err != nil {
		t.Fatal(err)
	}

	if len(repo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.events))
	}
	ev := repo.events[0]
	if ev.RunID != "run-7" || ev.Purpose != "validate" || ev.Provider != "gemini" || ev.Model != "mock" {
		t.Errorf("labels not recorded: %+v", ev)
	}
	if !ev.Success || ev.InputTokens != 12 || ev.OutputTokens != 4 || ev.ResponseBody != `{"valid":true}` {
		t.Errorf("response not recorded: %+v", ev)
	}
	for _, want := range []string{"[system]\nYou are strict.", "[user]\nValidate this", "[temperature: 0.2, format: json]"} {
		if !strings.Contains(ev.RequestBody, want) {
			t.Errorf("transcript missing %q:\n%s", want, ev.RequestBody)
		}
	}
}

func TestLoggingProvider_RecordsFailureAfterCancel(t *testing.T) {
	repo := &recordingRepo{}
	p := WithLogging(NewMockProvider(Fail(errors.New("boom"))), "openai", repo)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Generate(ctx, Request{})
	if err == nil {
		t.Fatal("expected the provider error")
	}

	if len(repo.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(repo.events))
	}
	if repo.ctxErr != nil {
		t.Errorf("event write should not see the cancellation, got %v", repo.ctxErr)
	}
	if ev := repo.events[0]; ev.Success || ev.ErrorMessage != "boom" {
		t.Errorf("failure not recorded: %+v", ev)
	}
}
