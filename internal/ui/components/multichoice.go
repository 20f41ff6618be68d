package components

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mcqflow/internal/ui/theme"
)

// MultiChoice lets the user answer one MCQ. After submission it marks the
// expected answer, the user's pick and the solver's pick.
type MultiChoice struct {
	Question     string
	Options      []string
	CorrectIndex int // -1 when the answer is not among the options
	SolverIndex  int // -1 when unknown
	Selected     int
	Submitted    bool
}

func NewMultiChoice(question string, options []string, answer, solverAnswer string) MultiChoice {
	return MultiChoice{
		Question:     question,
		Options:      options,
		CorrectIndex: OptionIndex(options, answer),
		SolverIndex:  OptionIndex(options, solverAnswer),
	}
}

// OptionIndex finds answer among options, accepting either the option text
// or its letter label.
func OptionIndex(options []string, answer string) int {
	a := strings.TrimSpace(answer)
	if a == "" {
		return -1
	}
	for i, opt := range options {
		if strings.EqualFold(strings.TrimSpace(opt), a) {
			return i
		}
	}
	for i := range options {
		l := label(i)
		if strings.EqualFold(a, l) || strings.EqualFold(a, l+")") || strings.EqualFold(a, l+".") {
			return i
		}
	}
	return -1
}

func label(i int) string {
	return string(rune('A' + i))
}

func (m MultiChoice) Update(msg tea.Msg) (MultiChoice, tea.Cmd) {
	if m.Submitted {
		return m, nil
	}
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}

	switch key := kmsg.String(); key {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		}
	case "enter":
		m.Submitted = true
	default:
		if len(key) == 1 {
			if i := int(strings.ToUpper(key)[0] - 'A'); i >= 0 && i < len(m.Options) {
				m.Selected = i
				m.Submitted = true
			}
		}
	}
	return m, nil
}

func (m MultiChoice) View() string {
	var b strings.Builder
	b.WriteString(theme.Body.Bold(true).Render(m.Question))
	b.WriteString("\n\n")

	for i, opt := range m.Options {
		prefix := "  "
		if i == m.Selected && !m.Submitted {
			prefix = "▸ "
		}
		line := fmt.Sprintf("%s%s)  %s", prefix, label(i), opt)

		switch {
		case !m.Submitted && i == m.Selected:
			line = theme.Selected.Render(line)
		case !m.Submitted:
			line = theme.Body.Render(line)
		case i == m.CorrectIndex:
			line = theme.Correct.Render(line)
		case i == m.Selected:
			line = theme.Incorrect.Render(line)
		default:
			line = theme.Hint.Render(line)
		}
		if m.Submitted && i == m.SolverIndex {
			line += theme.Warning.Render("  ◆ solver")
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// IsCorrect reports whether the user's submitted pick is the expected answer.
func (m MultiChoice) IsCorrect() bool {
	return m.Submitted && m.Selected == m.CorrectIndex
}
