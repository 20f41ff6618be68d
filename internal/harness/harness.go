// Package harness runs the pipeline over a topic set and flags suspicious
// output with heuristic checks.
package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/abhisek/mcqflow/internal/pipeline"
)

// Status values for an Entry.
const (
	StatusPass = "pass"
	StatusFail = "fail"
)

// Check types recorded in an Entry.
const (
	CheckPipelineError      = "pipeline_error"
	CheckHallucination      = "hallucination_checks"
	CheckSchema             = "schema"
	CheckDisagreement       = "disagreement"
	CheckNumeric            = "numeric"
	CheckStoryContradiction = "story_contradiction"
	CheckValidator          = "validator"
)

// Hallucination reasons.
const (
	ReasonResearch          = "hallucination_in_research"
	ReasonMCQNotObject      = "mcq_not_dict"
	ReasonMCQSchemaMissing  = "mcq_schema_missing"
	ReasonValidatorRejected = "validator_rejected"
)

// Runner runs the pipeline for one topic.
type Runner interface {
	Run(ctx context.Context, topic string) (*pipeline.RunResult, error)
}

// Check is one fired heuristic. MCQIndex is nil for run-level checks.
type Check struct {
	MCQIndex *int   `json:"mcq_index,omitempty"`
	Type     string `json:"type"`
	Detail   any    `json:"detail"`
}

// Entry is the outcome for one topic.
type Entry struct {
	Topic  string    `json:"topic"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Result any       `json:"result"`
	Checks []Check   `json:"checks"`
	Status string    `json:"status"`
}

// Summary counts entries by status. Details lists one line per failure.
type Summary struct {
	Total   int      `json:"total"`
	Pass    int      `json:"pass"`
	Fail    int      `json:"fail"`
	Details []string `json:"details"`
}

// Report is the harness output.
type Report struct {
	RunAt   time.Time `json:"run_at"`
	Summary Summary   `json:"summary"`
	Results []Entry   `json:"results"`
}

// Harness runs topics one at a time.
type Harness struct {
	runner Runner
	logger *log.Logger
	now    func() time.Time
}

// New creates a Harness. A nil logger silences progress output.
func New(runner Runner, logger *log.Logger) *Harness {
	return &Harness{runner: runner, logger: logger, now: time.Now}
}

// Run processes every topic sequentially. Pipeline failures are recorded in
// the report; only context cancellation stops the run early, in which case
// the partial report is returned with the context error.
func (h *Harness) Run(ctx context.Context, topics []string) (*Report, error) {
	report := &Report{Summary: Summary{Total: len(topics), Details: []string{}}}

	for i, topic := range topics {
		if err := ctx.Err(); err != nil {
			report.RunAt = h.now().UTC()
			return report, err
		}
		h.logf("--- RUN %d/%d: %s ---", i+1, len(topics), topic)

		entry := h.runTopic(ctx, topic)
		if err := ctx.Err(); err != nil {
			// An interrupted topic is not a pipeline failure.
			h.logf("%s: interrupted", topic)
			report.RunAt = h.now().UTC()
			return report, err
		}
		report.Results = append(report.Results, entry)
		if entry.Status == StatusPass {
			report.Summary.Pass++
		} else {
			report.Summary.Fail++
			report.Summary.Details = append(report.Summary.Details, describeFailure(i, entry))
		}
		h.logf("%s: %s (%d checks)", topic, entry.Status, len(entry.Checks))
	}

	report.RunAt = h.now().UTC()
	return report, nil
}

func (h *Harness) runTopic(ctx context.Context, topic string) Entry {
	entry := Entry{Topic: topic, Start: h.now().UTC(), Checks: []Check{}}
	result, err := h.runner.Run(ctx, topic)
	entry.End = h.now().UTC()

	if err != nil && result == nil {
		msg := "exception during pipeline: " + err.Error()
		entry.Result = map[string]string{"error": msg}
		entry.Checks = append(entry.Checks, Check{Type: CheckPipelineError, Detail: msg})
		entry.Status = StatusFail
		return entry
	}
	if err != nil {
		// The sink failed but the result is complete.
		h.logf("warning: %v", err)
	}

	entry.Result = result
	if result.Failed() {
		entry.Checks = append(entry.Checks, Check{Type: CheckPipelineError, Detail: result.Error})
		entry.Status = StatusFail
		return entry
	}

	checks, ok := Evaluate(result)
	entry.Checks = append(entry.Checks, checks...)
	entry.Status = StatusFail
	if ok {
		entry.Status = StatusPass
	}
	return entry
}

// Evaluate applies every heuristic to a successful result. It reports
// whether the result passed, meaning nothing fired.
func Evaluate(result *pipeline.RunResult) ([]Check, bool) {
	var checks []Check

	reasons := hallucinationReasons(result)
	if len(reasons) > 0 {
		checks = append(checks, Check{Type: CheckHallucination, Detail: reasons})
	}

	itemsOK := true
	for i, raw := range result.MCQs {
		var sol pipeline.Solution
		if i < len(result.Solutions) {
			sol = result.Solutions[i]
		}
		var val *pipeline.Validation
		if i < len(result.Validations) {
			val = &result.Validations[i]
		}

		fired := checkItem(raw, sol, val)
		for _, c := range fired {
			c.MCQIndex = &i
			checks = append(checks, c)
		}
		if len(fired) > 0 {
			itemsOK = false
		}
	}

	return checks, itemsOK && len(reasons) == 0
}

func hallucinationReasons(result *pipeline.RunResult) []string {
	var reasons []string
	if LooksHallucinated(result.ResearchNotes) {
		reasons = append(reasons, ReasonResearch)
	}

	var first json.RawMessage
	if len(result.MCQs) > 0 {
		first = result.MCQs[0]
	}
	obj, ok := decodeObject(first)
	switch {
	case !ok:
		reasons = append(reasons, ReasonMCQNotObject)
	case !hasKeys(obj, "question", "options", "answer"):
		reasons = append(reasons, ReasonMCQSchemaMissing)
	}

	if len(result.Validations) > 0 && !result.Validations[0].Valid {
		reasons = append(reasons, ReasonValidatorRejected)
	}
	return reasons
}

// checkItem returns the checks fired for one MCQ. A schema failure skips the
// remaining checks for that item.
func checkItem(raw json.RawMessage, sol pipeline.Solution, val *pipeline.Validation) []Check {
	mcq, ok := decodeObject(raw)
	if !ok {
		return []Check{{Type: CheckSchema, Detail: "mcq not dict"}}
	}
	if !hasKeys(mcq, "question", "options", "answer") {
		return []Check{{Type: CheckSchema, Detail: "missing fields"}}
	}

	var fired []Check
	answer := text(mcq["answer"])
	if Disagrees(answer, sol.ChosenAnswer) {
		fired = append(fired, Check{Type: CheckDisagreement, Detail: map[string]any{
			"generated_answer": mcq["answer"],
			"solver":           sol.ChosenAnswer,
		}})
	}

	question := text(mcq["question"])
	solText, _ := json.Marshal(sol)
	if outcome, detail := NumericCheck(question, string(solText)); outcome == NumericMismatch {
		fired = append(fired, Check{Type: CheckNumeric, Detail: detail})
	}

	if StoryContradiction(question, sol.Reason) {
		fired = append(fired, Check{Type: CheckStoryContradiction, Detail: "possible contradiction or missing entity in explanation"})
	}

	if val != nil && !val.Valid {
		fired = append(fired, Check{Type: CheckValidator, Detail: val.Feedback})
	}
	return fired
}

func describeFailure(i int, e Entry) string {
	types := make([]string, 0, len(e.Checks))
	seen := map[string]bool{}
	for _, c := range e.Checks {
		if !seen[c.Type] {
			seen[c.Type] = true
			types = append(types, c.Type)
		}
	}
	return fmt.Sprintf("#%d %s: %v", i+1, e.Topic, types)
}

func decodeObject(raw json.RawMessage) (map[string]any, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func hasKeys(obj map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; !ok {
			return false
		}
	}
	return true
}

// text renders a JSON value the way it reads in a prompt: strings as-is,
// anything else as JSON, missing as "".
func text(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

func (h *Harness) logf(format string, args ...any) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}
