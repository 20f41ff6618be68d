// Package running shows live pipeline progress.
package running

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mcqflow/internal/pipeline"
	"github.com/abhisek/mcqflow/internal/screen"
	"github.com/abhisek/mcqflow/internal/ui/components"
	"github.com/abhisek/mcqflow/internal/ui/layout"
	"github.com/abhisek/mcqflow/internal/ui/theme"
)

// totalSteps is research + generate + solve and validate per item.
const totalSteps = 2 + 2*pipeline.MCQCount

type Screen struct {
	topic string
	done  int
	lines []string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

func New(topic string) *Screen {
	return &Screen{topic: topic}
}

func (s *Screen) Init() tea.Cmd { return nil }

func (s *Screen) Title() string { return "Running" }

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{{Key: "Ctrl+C", Description: "Cancel"}}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if m, ok := msg.(screen.ProgressMsg); ok {
		s.apply(pipeline.Event(m))
	}
	return s, nil
}

// Progress is the completed fraction of model calls.
func (s *Screen) Progress() float64 {
	return float64(min(s.done, totalSteps)) / totalSteps
}

func (s *Screen) apply(e pipeline.Event) {
	switch e.Outcome {
	case pipeline.OutcomeStarted:
		s.lines = append(s.lines, theme.Hint.Render("… "+describe(e)))
	case pipeline.OutcomeOK:
		s.done++
		s.finishLine(theme.Correct.Render("✓ ") + theme.Body.Render(describe(e)))
	case pipeline.OutcomeFailed:
		s.finishLine(theme.Incorrect.Render("✗ " + describe(e) + ": " + e.Detail))
	case pipeline.OutcomePlaceholder:
		if e.Detail == pipeline.FeedbackMCQInvalid {
			s.done += 2
		}
		s.lines = append(s.lines, theme.Warning.Render(fmt.Sprintf("! question %d: %s", e.Index+1, e.Detail)))
	}
}

// finishLine replaces the pending "…" line of the step, if any.
func (s *Screen) finishLine(line string) {
	if n := len(s.lines); n > 0 && strings.Contains(s.lines[n-1], "…") {
		s.lines[n-1] = line
		return
	}
	s.lines = append(s.lines, line)
}

func describe(e pipeline.Event) string {
	switch e.Stage {
	case pipeline.StageResearch:
		return "Researching topic"
	case pipeline.StageGenerate:
		return "Generating questions"
	case pipeline.StageSolve:
		return fmt.Sprintf("Solving question %d", e.Index+1)
	case pipeline.StageValidate:
		return fmt.Sprintf("Validating question %d", e.Index+1)
	case pipeline.StagePersist:
		return "Saving result"
	case pipeline.StageDone:
		return "Run finished"
	}
	return string(e.Stage)
}

func (s *Screen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(s.topic))
	b.WriteString("\n\n")
	b.WriteString(components.NewProgressBar("Progress", s.Progress(), min(width, 80)).View())
	b.WriteString("\n\n")

	lines := s.lines
	if room := height - 4; room > 0 && len(lines) > room {
		lines = lines[len(lines)-room:]
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}
