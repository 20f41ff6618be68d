// Package review lets the user answer the generated questions and compare
// with the solver and validator verdicts.
package review

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mcqflow/internal/checks"
	"github.com/abhisek/mcqflow/internal/pipeline"
	"github.com/abhisek/mcqflow/internal/screen"
	"github.com/abhisek/mcqflow/internal/ui/components"
	"github.com/abhisek/mcqflow/internal/ui/layout"
	"github.com/abhisek/mcqflow/internal/ui/theme"
)

type item struct {
	valid      bool
	raw        string
	mcq        pipeline.MCQ
	choice     components.MultiChoice
	solution   pipeline.Solution
	validation pipeline.Validation
}

type Screen struct {
	result  *pipeline.RunResult
	items   []item
	current int
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

func New(result *pipeline.RunResult) *Screen {
	s := &Screen{result: result}
	for i, raw := range result.MCQs {
		it := item{raw: string(raw)}
		if i < len(result.Solutions) {
			it.solution = result.Solutions[i]
		}
		if i < len(result.Validations) {
			it.validation = result.Validations[i]
		}
		if checks.IsValidSchema(it.raw) {
			if m, err := result.MCQ(i); err == nil {
				it.valid = true
				it.mcq = m
				it.choice = components.NewMultiChoice(m.Question, m.Options, m.Answer, it.solution.ChosenAnswer)
			}
		}
		s.items = append(s.items, it)
	}
	return s
}

func (s *Screen) Init() tea.Cmd { return nil }

func (s *Screen) Title() string {
	if len(s.items) == 0 {
		return "Result"
	}
	return fmt.Sprintf("Question %d of %d", s.current+1, len(s.items))
}

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓/A-D", Description: "Answer"},
		{Key: "←→", Description: "Prev/Next"},
		{Key: "q", Description: "Quit"},
	}
}

// Score returns correct answers out of answerable questions.
func (s *Screen) Score() (correct, total int) {
	for _, it := range s.items {
		if !it.valid {
			continue
		}
		total++
		if it.choice.IsCorrect() {
			correct++
		}
	}
	return correct, total
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	k, ok := msg.(tea.KeyPressMsg)
	if !ok || len(s.items) == 0 {
		if ok && (k.String() == "q" || k.String() == "esc" || k.String() == "enter") {
			return s, tea.Quit
		}
		return s, nil
	}

	it := &s.items[s.current]
	answering := it.valid && !it.choice.Submitted

	switch k.String() {
	case "q", "esc":
		return s, tea.Quit
	case "right", "n", "tab":
		s.move(1)
		return s, nil
	case "left", "p", "shift+tab":
		s.move(-1)
		return s, nil
	case "enter":
		if !answering {
			if s.current == len(s.items)-1 {
				return s, tea.Quit
			}
			s.move(1)
			return s, nil
		}
	}

	if answering {
		it.choice, _ = it.choice.Update(msg)
	}
	return s, nil
}

func (s *Screen) move(delta int) {
	s.current = min(max(s.current+delta, 0), len(s.items)-1)
}

func (s *Screen) View(width, _ int) string {
	if s.result.Failed() {
		return theme.Incorrect.Render("Run failed: "+s.result.Error) + "\n\n" +
			theme.Hint.Render("Press q to quit.")
	}
	if len(s.items) == 0 {
		return theme.Hint.Render("No questions.")
	}

	it := s.items[s.current]
	var b strings.Builder
	if !it.valid {
		b.WriteString(theme.Incorrect.Render("This question failed the schema check."))
		b.WriteString("\n\n" + theme.Hint.Render(it.raw) + "\n")
	} else {
		b.WriteString(it.choice.View())
	}

	if !it.valid || it.choice.Submitted {
		b.WriteString("\n" + s.verdict(it))
	}

	correct, total := s.Score()
	b.WriteString("\n" + theme.Hint.Render(fmt.Sprintf("Score %d/%d", correct, total)))
	return theme.Card.Width(min(width, 100)).Render(b.String())
}

func (s *Screen) verdict(it item) string {
	var lines []string
	if it.mcq.Explanation != "" {
		lines = append(lines, theme.Body.Render("Explanation: "+it.mcq.Explanation))
	}
	if it.solution.Error != "" {
		lines = append(lines, theme.Warning.Render("Solver: "+it.solution.Error))
	} else {
		lines = append(lines, theme.Body.Render(fmt.Sprintf("Solver chose %q: %s", it.solution.ChosenAnswer, it.solution.Reason)))
	}

	v := it.validation
	status := theme.Correct.Render("Validator: valid")
	if !v.Valid {
		status = theme.Incorrect.Render("Validator: not valid")
	}
	if v.Feedback != "" {
		status += theme.Body.Render(" (" + v.Feedback + ")")
	}
	lines = append(lines, status)
	if v.AnswerMatches != nil && !*v.AnswerMatches {
		lines = append(lines, theme.Warning.Render("Solver answer differs from the generated answer."))
	}
	return strings.Join(lines, "\n")
}
