// Package pipeline runs the research, generate, solve and validate stages
// for a topic and assembles the RunResult.
package pipeline

import (
	"encoding/json"
	"time"
)

// MCQCount is the number of questions the generator must return.
const MCQCount = 3

// Result error messages for generator output that cannot be used.
const (
	ErrMsgMCQJSONInvalid = "MCQ JSON invalid"
	ErrMsgMCQListSize    = "MCQ list size incorrect"
)

// Placeholder texts for item-level failures.
const (
	SolutionInvalidMCQ    = "invalid mcq"
	SolutionInvalid       = "invalid solution"
	FeedbackMCQInvalid    = "MCQ invalid"
	FeedbackValidatorJSON = "validator JSON invalid"
)

// MCQ is the typed view of a generated question.
type MCQ struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
}

// Solution is the solver's answer for one MCQ. When Error is set the other
// fields are meaningless and only {"error": ...} is serialized.
type Solution struct {
	ChosenAnswer string
	Reason       string
	Error        string
}

type solutionJSON struct {
	ChosenAnswer string `json:"chosen_answer"`
	Reason       string `json:"reason"`
}

type errorJSON struct {
	Error string `json:"error"`
}

func (s Solution) MarshalJSON() ([]byte, error) {
	if s.Error != "" {
		return json.Marshal(errorJSON{Error: s.Error})
	}
	return json.Marshal(solutionJSON{ChosenAnswer: s.ChosenAnswer, Reason: s.Reason})
}

func (s *Solution) UnmarshalJSON(data []byte) error {
	var raw struct {
		ChosenAnswer string `json:"chosen_answer"`
		Reason       string `json:"reason"`
		Error        string `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Solution{ChosenAnswer: raw.ChosenAnswer, Reason: raw.Reason, Error: raw.Error}
	return nil
}

// Validation is the validator's verdict for one MCQ.
// AnswerMatches holds the consistency check between the MCQ's answer and
// the solver's chosen_answer; it is nil when the solver never ran.
type Validation struct {
	Valid         bool   `json:"valid"`
	Feedback      string `json:"feedback"`
	AnswerMatches *bool  `json:"answer_matches,omitempty"`
}

// RunResult is the outcome of one pipeline run. A stage-level failure is
// reported through Error, in which case only {"error": ...} is serialized
// and the item lists are empty.
type RunResult struct {
	ID            string            `json:"id"`
	Topic         string            `json:"topic"`
	ResearchNotes string            `json:"research_notes"`
	MCQs          []json.RawMessage `json:"mcqs"`
	Solutions     []Solution        `json:"solutions"`
	Validations   []Validation      `json:"validations"`
	CreatedAt     time.Time         `json:"created_at"`
	Error         string            `json:"-"`
}

type runResultAlias RunResult

func (r RunResult) MarshalJSON() ([]byte, error) {
	if r.Error != "" {
		return json.Marshal(errorJSON{Error: r.Error})
	}
	return json.Marshal(runResultAlias(r))
}

func (r *RunResult) UnmarshalJSON(data []byte) error {
	var e errorJSON
	if err := json.Unmarshal(data, &e); err != nil {
		return err
	}
	if e.Error != "" {
		*r = RunResult{Error: e.Error}
		return nil
	}
	var a runResultAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = RunResult(a)
	return nil
}

// Failed reports whether the run ended with a result-level error.
func (r *RunResult) Failed() bool {
	return r.Error != ""
}

// MCQ decodes the i-th question. It fails for schema-invalid items.
func (r *RunResult) MCQ(i int) (MCQ, error) {
	var m MCQ
	err := json.Unmarshal(r.MCQs[i], &m)
	return m, err
}

// State is a pipeline state.
type State string

const (
	StateResearching    State = "RESEARCHING"
	StateGenerating     State = "GENERATING"
	StateProcessingMCQs State = "PROCESSING_MCQS"
	StateFinalized      State = "FINALIZED"
	StateError          State = "ERROR"
)

// Stage names a model call; it doubles as the LLM purpose label.
type Stage string

const (
	StageResearch Stage = "research"
	StageGenerate Stage = "generate"
	StageSolve    Stage = "solve"
	StageValidate Stage = "validate"
	StagePersist  Stage = "persist"
	// StageDone is reported once per run, after every other event.
	StageDone Stage = "done"
)

// Outcome of an observed step.
type Outcome string

const (
	OutcomeStarted     Outcome = "started"
	OutcomeOK          Outcome = "ok"
	OutcomePlaceholder Outcome = "placeholder"
	OutcomeFailed      Outcome = "failed"
)

// Event is reported to an Observer as the run progresses. Index is the
// zero-based MCQ index for item stages and -1 otherwise.
type Event struct {
	RunID   string
	Topic   string
	State   State
	Stage   Stage
	Index   int
	Outcome Outcome
	Detail  string
	Elapsed time.Duration
}

// Observer receives run events. Implementations must not block.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Observers fans an event out to each non-nil observer in order.
type Observers []Observer

func (o Observers) Observe(e Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(e)
		}
	}
}
