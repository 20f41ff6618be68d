package llm

import "context"

type contextKey string

const purposeKey contextKey = "llm_purpose"

// WithPurpose attaches a purpose label (the pipeline stage) to the context
// for event logging.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

// PurposeFrom extracts the purpose label from the context.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}

const runIDKey contextKey = "llm_run_id"

// WithRunID tags LLM calls made under ctx with the pipeline run they belong to.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFrom returns the run ID attached by WithRunID, or "".
func RunIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(runIDKey).(string)
	return v
}
