package pipeline

import (
	"context"

	"github.com/abhisek/mcqflow/internal/llm"
)

// DefaultTemperature is used for every stage call.
const DefaultTemperature = 0.2

// Stages issues the four model calls. None of them parse the output.
type Stages struct {
	provider    llm.Provider
	temperature float64
}

// NewStages binds the stage prompters to provider.
func NewStages(provider llm.Provider, temperature float64) *Stages {
	return &Stages{provider: provider, temperature: temperature}
}

// Research returns plain-text notes on topic.
func (s *Stages) Research(ctx context.Context, topic string) (string, error) {
	return s.call(ctx, StageResearch, ResearchPrompt(topic), false)
}

// Generate returns the raw generator output for notes.
func (s *Stages) Generate(ctx context.Context, notes string) (string, error) {
	return s.call(ctx, StageGenerate, GeneratePrompt(notes), true)
}

// Solve returns the raw solver output for one MCQ.
func (s *Stages) Solve(ctx context.Context, mcqJSON string) (string, error) {
	return s.call(ctx, StageSolve, SolvePrompt(mcqJSON), true)
}

// Validate returns the raw validator output for an MCQ and the solver's raw
// answer.
func (s *Stages) Validate(ctx context.Context, mcqJSON, solution string) (string, error) {
	return s.call(ctx, StageValidate, ValidatePrompt(mcqJSON, solution), true)
}

func (s *Stages) call(ctx context.Context, stage Stage, prompt string, jsonMode bool) (string, error) {
	ctx = llm.WithPurpose(ctx, string(stage))
	resp, err := s.provider.Generate(ctx, llm.UserPrompt(prompt, s.temperature, jsonMode))
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
