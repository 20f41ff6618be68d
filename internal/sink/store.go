package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/abhisek/mcqflow/internal/pipeline"
	"github.com/abhisek/mcqflow/internal/store"
)

// StoreSink records results in the SQLite run table.
type StoreSink struct {
	repo store.RunRepo
}

// NewStoreSink creates a StoreSink over repo.
func NewStoreSink(repo store.RunRepo) *StoreSink {
	return &StoreSink{repo: repo}
}

func (s *StoreSink) Save(ctx context.Context, result *pipeline.RunResult) error {
	rec, err := Record(result)
	if err != nil {
		return err
	}
	return s.repo.SaveRun(ctx, rec)
}

// Record converts a result to its stored form.
func Record(result *pipeline.RunResult) (*store.RunRecord, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode run %s: %w", result.ID, err)
	}

	rec := &store.RunRecord{
		ID:        result.ID,
		Timestamp: result.CreatedAt,
		Topic:     result.Topic,
		Status:    store.RunStatusOK,
		MCQCount:  len(result.MCQs),
		Payload:   payload,
	}
	if result.Failed() {
		rec.Status = store.RunStatusError
		rec.Error = result.Error
	}
	for _, v := range result.Validations {
		if v.Valid {
			rec.ValidCount++
		}
	}
	return rec, nil
}

// Decode rebuilds a result from its stored form. Error runs keep their
// identity, which the payload alone does not carry.
func Decode(rec *store.RunRecord) (*pipeline.RunResult, error) {
	var result pipeline.RunResult
	if err := json.Unmarshal(rec.Payload, &result); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", rec.ID, err)
	}
	result.ID = rec.ID
	result.Topic = rec.Topic
	if result.CreatedAt.IsZero() {
		result.CreatedAt = rec.Timestamp
	}
	return &result, nil
}
