// Package sink persists pipeline results.
package sink

import (
	"context"
	"errors"

	"github.com/abhisek/mcqflow/internal/pipeline"
)

// Sink is satisfied by every result destination.
type Sink = pipeline.Sink

// Multi writes to every sink in order and joins their errors.
// A failing sink does not stop the others.
type Multi []Sink

func (m Multi) Save(ctx context.Context, result *pipeline.RunResult) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Save(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
