package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

const tableRuns = "runs"

var runSummaryColumns = []string{
	"id", "sequence", "timestamp", "topic", "status", "error", "mcq_count", "valid_count",
}

type runRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *runRepo) SaveRun(ctx context.Context, rec *RunRecord) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = RunStatusOK
	}

	query, args := builder().Insert(tableRuns).
		Columns(append(runSummaryColumns, "payload")...).
		Values(
			rec.ID, seqNum, rec.Timestamp.UnixMilli(), rec.Topic, rec.Status, rec.Error,
			rec.MCQCount, rec.ValidCount, string(rec.Payload),
		).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save run %s: %w", rec.ID, err)
	}
	rec.Sequence = seqNum
	return nil
}

func (r *runRepo) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	query, args := builder().Select(append(runSummaryColumns, "payload")...).
		From(entsql.Table(tableRuns)).
		Where(entsql.EQ("id", id)).
		Query()

	var (
		rec     RunRecord
		ts      int64
		payload string
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&rec.ID, &rec.Sequence, &ts, &rec.Topic, &rec.Status, &rec.Error,
		&rec.MCQCount, &rec.ValidCount, &payload,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	rec.Timestamp = time.UnixMilli(ts).UTC()
	rec.Payload = []byte(payload)
	return &rec, nil
}

func (r *runRepo) ListRuns(ctx context.Context, opts QueryOpts) ([]RunRecord, error) {
	sel := builder().Select(runSummaryColumns...).From(entsql.Table(tableRuns))
	query, args := opts.apply(sel).Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var ts int64
		if err := rows.Scan(
			&rec.ID, &rec.Sequence, &ts, &rec.Topic, &rec.Status, &rec.Error,
			&rec.MCQCount, &rec.ValidCount,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.Timestamp = time.UnixMilli(ts).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
