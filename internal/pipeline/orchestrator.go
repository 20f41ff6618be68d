package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/mcqflow/internal/checks"
	"github.com/abhisek/mcqflow/internal/llm"
)

// CallError reports a model call that failed for good at one stage.
// No RunResult exists when it is returned.
type CallError struct {
	Stage Stage
	Index int // MCQ index for solve/validate, -1 otherwise
	Err   error
}

func (e *CallError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s stage failed on MCQ %d: %v", e.Stage, e.Index+1, e.Err)
	}
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }

// Sink persists finished results.
type Sink interface {
	Save(ctx context.Context, result *RunResult) error
}

// Config tunes an Orchestrator. Zero values are replaced with defaults.
type Config struct {
	Temperature float64
	Sink        Sink
	Observer    Observer
	Now         func() time.Time
	NewID       func() string
}

// Orchestrator runs the pipeline for one topic at a time per call.
// It holds no per-run state and may be shared.
type Orchestrator struct {
	stages   *Stages
	sink     Sink
	observer Observer
	now      func() time.Time
	newID    func() string
}

// New creates an Orchestrator over provider.
func New(provider llm.Provider, cfg Config) *Orchestrator {
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}
	return &Orchestrator{
		stages:   NewStages(provider, cfg.Temperature),
		sink:     cfg.Sink,
		observer: cfg.Observer,
		now:      cfg.Now,
		newID:    cfg.NewID,
	}
}

// run carries the state of a single Run call.
type run struct {
	o      *Orchestrator
	id     string
	topic  string
	state  State
	result *RunResult
}

// Run executes RESEARCHING → GENERATING → PROCESSING_MCQS → FINALIZED.
//
// A model call failure at any stage ends in ERROR and returns a *CallError
// with no result. Unusable generator output also ends in ERROR but returns
// a result with Error set, which is persisted like any other result. When the sink
// fails the result is returned together with the wrapped sink error.
func (o *Orchestrator) Run(ctx context.Context, topic string) (*RunResult, error) {
	r := &run{o: o, id: o.newID(), topic: topic}
	ctx = llm.WithRunID(ctx, r.id)
	start := time.Now()

	result, err := r.execute(ctx)
	if err == nil {
		err = r.persist(ctx, result)
	}
	r.finish(result, err, time.Since(start))
	if result == nil {
		return nil, err
	}
	return result, err
}

// finish reports the terminal StageDone event.
func (r *run) finish(result *RunResult, err error, elapsed time.Duration) {
	switch {
	case err != nil:
		r.emit(StageDone, -1, OutcomeFailed, err.Error(), elapsed)
	case result.Failed():
		r.emit(StageDone, -1, OutcomeFailed, result.Error, elapsed)
	default:
		r.emit(StageDone, -1, OutcomeOK, "", elapsed)
	}
}

func (r *run) execute(ctx context.Context) (*RunResult, error) {
	r.result = &RunResult{
		ID:        r.id,
		Topic:     r.topic,
		CreatedAt: r.o.now().UTC(),
	}

	r.enter(StateResearching)
	notes, err := r.call(ctx, StageResearch, -1, func(ctx context.Context) (string, error) {
		return r.o.stages.Research(ctx, r.topic)
	})
	if err != nil {
		return nil, err
	}
	r.result.ResearchNotes = notes

	r.enter(StateGenerating)
	raw, err := r.call(ctx, StageGenerate, -1, func(ctx context.Context) (string, error) {
		return r.o.stages.Generate(ctx, notes)
	})
	if err != nil {
		return nil, err
	}

	mcqs, msg := decodeMCQList(raw)
	if msg != "" {
		r.enter(StateError)
		r.emit(StageGenerate, -1, OutcomeFailed, msg, 0)
		return &RunResult{ID: r.id, Topic: r.topic, CreatedAt: r.result.CreatedAt, Error: msg}, nil
	}

	r.enter(StateProcessingMCQs)
	for i, mcq := range mcqs {
		if err := r.processItem(ctx, i, mcq); err != nil {
			return nil, err
		}
	}

	r.enter(StateFinalized)
	return r.result, nil
}

// processItem appends exactly one MCQ, Solution and Validation.
func (r *run) processItem(ctx context.Context, i int, mcq json.RawMessage) error {
	res := r.result
	res.MCQs = append(res.MCQs, mcq)
	mcqText := compactJSON(mcq)

	if !checks.IsValidSchema(mcqText) {
		r.emit(StageSolve, i, OutcomePlaceholder, FeedbackMCQInvalid, 0)
		res.Solutions = append(res.Solutions, Solution{Error: SolutionInvalidMCQ})
		res.Validations = append(res.Validations, Validation{Valid: false, Feedback: FeedbackMCQInvalid})
		return nil
	}

	solutionRaw, err := r.call(ctx, StageSolve, i, func(ctx context.Context) (string, error) {
		return r.o.stages.Solve(ctx, mcqText)
	})
	if err != nil {
		return err
	}
	solution, ok := decodeSolution(solutionRaw)
	if !ok {
		r.emit(StageSolve, i, OutcomePlaceholder, SolutionInvalid, 0)
		solution = Solution{Error: SolutionInvalid}
	}

	matches := checks.AnswersMatch(mcqText, solutionRaw)

	validationRaw, err := r.call(ctx, StageValidate, i, func(ctx context.Context) (string, error) {
		return r.o.stages.Validate(ctx, mcqText, solutionRaw)
	})
	if err != nil {
		return err
	}
	validation, ok := decodeValidation(validationRaw)
	if !ok {
		r.emit(StageValidate, i, OutcomePlaceholder, FeedbackValidatorJSON, 0)
		validation = Validation{Valid: false, Feedback: FeedbackValidatorJSON}
	}
	validation.AnswerMatches = &matches

	res.Solutions = append(res.Solutions, solution)
	res.Validations = append(res.Validations, validation)
	return nil
}

func (r *run) call(ctx context.Context, stage Stage, index int, fn func(context.Context) (string, error)) (string, error) {
	r.emit(stage, index, OutcomeStarted, "", 0)
	start := time.Now()
	out, err := fn(ctx)
	elapsed := time.Since(start)
	if err != nil {
		r.enter(StateError)
		r.emit(stage, index, OutcomeFailed, err.Error(), elapsed)
		return "", &CallError{Stage: stage, Index: index, Err: err}
	}
	r.emit(stage, index, OutcomeOK, "", elapsed)
	return out, nil
}

func (r *run) persist(ctx context.Context, result *RunResult) error {
	if r.o.sink == nil {
		return nil
	}
	start := time.Now()
	if err := r.o.sink.Save(ctx, result); err != nil {
		r.emit(StagePersist, -1, OutcomeFailed, err.Error(), time.Since(start))
		return fmt.Errorf("saving run %s: %w", r.id, err)
	}
	r.emit(StagePersist, -1, OutcomeOK, "", time.Since(start))
	return nil
}

func (r *run) enter(s State) {
	r.state = s
}

func (r *run) emit(stage Stage, index int, outcome Outcome, detail string, elapsed time.Duration) {
	if r.o.observer == nil {
		return
	}
	r.o.observer.Observe(Event{
		RunID:   r.id,
		Topic:   r.topic,
		State:   r.state,
		Stage:   stage,
		Index:   index,
		Outcome: outcome,
		Detail:  detail,
		Elapsed: elapsed,
	})
}

// decodeMCQList returns the generator's items or the result error message.
func decodeMCQList(raw string) ([]json.RawMessage, string) {
	body := stripCodeFence(raw)

	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return nil, ErrMsgMCQJSONInvalid
	}
	if _, ok := v.([]any); !ok {
		return nil, ErrMsgMCQListSize
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(body), &items); err != nil {
		return nil, ErrMsgMCQJSONInvalid
	}
	if len(items) != MCQCount {
		return nil, ErrMsgMCQListSize
	}
	return items, ""
}

// stripCodeFence removes a surrounding Markdown fence such as ```json ... ```.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "[{") {
		s = s[nl+1:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// decodeSolution accepts any JSON object. Non-string values are kept as
// their JSON text.
func decodeSolution(raw string) (Solution, bool) {
	obj, ok := decodeObject(raw)
	if !ok {
		return Solution{}, false
	}
	return Solution{
		ChosenAnswer: textField(obj, "chosen_answer"),
		Reason:       textField(obj, "reason"),
	}, true
}

func decodeValidation(raw string) (Validation, bool) {
	obj, ok := decodeObject(raw)
	if !ok {
		return Validation{}, false
	}
	v := Validation{Feedback: textField(obj, "feedback")}
	switch valid := obj["valid"].(type) {
	case bool:
		v.Valid = valid
	case string:
		v.Valid = strings.EqualFold(strings.TrimSpace(valid), "true")
	}
	return v, true
}

func decodeObject(raw string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func textField(obj map[string]any, key string) string {
	switch v := obj[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}
