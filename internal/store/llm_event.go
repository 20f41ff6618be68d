package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

const tableLLMEvents = "llm_events"

var llmEventColumns = []string{
	"id", "sequence", "timestamp", "run_id", "provider", "model", "purpose",
	"input_tokens", "output_tokens", "latency_ms", "success", "error_message",
	"request_body", "response_body",
}

// eventRepo implements EventRepo on SQLite and the global sequence counter.
type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := builder().Insert(tableLLMEvents).
		Columns(llmEventColumns[1:]...).
		Values(
			seqNum, time.Now().UnixMilli(), data.RunID, data.Provider, data.Model, data.Purpose,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success, data.ErrorMessage,
			data.RequestBody, data.ResponseBody,
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error) {
	sel := builder().Select(llmEventColumns...).From(entsql.Table(tableLLMEvents))
	return r.query(ctx, opts.apply(sel))
}

func (r *eventRepo) LLMEventsForRun(ctx context.Context, runID string) ([]LLMEvent, error) {
	sel := builder().Select(llmEventColumns...).
		From(entsql.Table(tableLLMEvents)).
		Where(entsql.EQ("run_id", runID)).
		OrderBy("sequence")
	return r.query(ctx, sel)
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error) {
	sel := builder().Select(llmEventColumns...).
		From(entsql.Table(tableLLMEvents)).
		Where(entsql.EQ("id", id))
	events, err := r.query(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, nil
	}
	return &events[0], nil
}

func (r *eventRepo) query(ctx context.Context, sel *entsql.Selector) ([]LLMEvent, error) {
	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMEvent
	for rows.Next() {
		var e LLMEvent
		var ts int64
		if err := rows.Scan(
			&e.ID, &e.Sequence, &ts, &e.RunID, &e.Provider, &e.Model, &e.Purpose,
			&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success, &e.ErrorMessage,
			&e.RequestBody, &e.ResponseBody,
		); err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	return r.usage(ctx, "purpose")
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMUsage, error) {
	return r.usage(ctx, "model")
}

// usage aggregates events grouped by column ("purpose" or "model").
func (r *eventRepo) usage(ctx context.Context, column string) ([]LLMUsage, error) {
	query, args := builder().Select(
		column,
		entsql.As(entsql.Count("*"), "calls"),
		entsql.As(entsql.Sum("input_tokens"), "input_tokens"),
		entsql.As(entsql.Sum("output_tokens"), "output_tokens"),
		entsql.As(entsql.Avg("latency_ms"), "avg_latency_ms"),
		entsql.As("SUM(CASE WHEN success THEN 0 ELSE 1 END)", "failures"),
	).
		From(entsql.Table(tableLLMEvents)).
		GroupBy(column).
		OrderBy(column).
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM usage by %s: %w", column, err)
	}
	defer rows.Close()

	var out []LLMUsage
	for rows.Next() {
		var (
			u   LLMUsage
			key string
			avg sql.NullFloat64
		)
		if err := rows.Scan(&key, &u.Calls, &u.InputTokens, &u.OutputTokens, &avg, &u.Failures); err != nil {
			return nil, fmt.Errorf("scan LLM usage: %w", err)
		}
		if column == "purpose" {
			u.Purpose = key
		} else {
			u.Model = key
		}
		u.AvgLatencyMs = int64(avg.Float64)
		out = append(out, u)
	}
	return out, rows.Err()
}
