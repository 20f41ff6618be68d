package store

import (
	"context"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// QueryOpts configures queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// predicates turns the options into WHERE clauses. Nil means no filter.
func (o QueryOpts) predicates() *entsql.Predicate {
	var preds []*entsql.Predicate
	if o.After > 0 {
		preds = append(preds, entsql.GT("sequence", o.After))
	}
	if o.Before > 0 {
		preds = append(preds, entsql.LT("sequence", o.Before))
	}
	if !o.From.IsZero() {
		preds = append(preds, entsql.GTE("timestamp", o.From.UnixMilli()))
	}
	if !o.To.IsZero() {
		preds = append(preds, entsql.LTE("timestamp", o.To.UnixMilli()))
	}
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return entsql.And(preds...)
	}
}

// apply adds filtering, newest-first ordering and the limit to sel.
func (o QueryOpts) apply(sel *entsql.Selector) *entsql.Selector {
	if p := o.predicates(); p != nil {
		sel = sel.Where(p)
	}
	sel = sel.OrderBy(entsql.Desc("sequence"))
	if o.Limit > 0 {
		sel = sel.Limit(o.Limit)
	}
	return sel
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	RunID        string
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsage aggregates calls for one purpose or model.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
	Failures     int
}

// EventRepo records and queries LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// LLMEventsForRun returns the events of one run in call order.
	LLMEventsForRun(ctx context.Context, runID string) ([]LLMEvent, error)

	// GetLLMEvent returns a single event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}

// Run status values.
const (
	RunStatusOK    = "ok"
	RunStatusError = "error"
)

// RunRecord is a persisted pipeline result.
type RunRecord struct {
	ID         string
	Sequence   int64
	Timestamp  time.Time
	Topic      string
	Status     string
	Error      string
	MCQCount   int
	ValidCount int
	Payload    []byte // the RunResult as JSON
}

// RunRepo stores pipeline results.
type RunRepo interface {
	// SaveRun inserts rec, assigning its sequence. Timestamp defaults to now.
	SaveRun(ctx context.Context, rec *RunRecord) error

	// GetRun returns the run with id, or nil if it does not exist.
	GetRun(ctx context.Context, id string) (*RunRecord, error)

	// ListRuns returns runs newest first. Payloads are not loaded.
	ListRuns(ctx context.Context, opts QueryOpts) ([]RunRecord, error)
}
