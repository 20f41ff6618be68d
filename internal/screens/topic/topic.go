// Package topic is the screen that asks for the run topic.
package topic

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mcqflow/internal/screen"
	"github.com/abhisek/mcqflow/internal/ui/components"
	"github.com/abhisek/mcqflow/internal/ui/layout"
	"github.com/abhisek/mcqflow/internal/ui/theme"
)

const maxTopicLen = 500

type Screen struct {
	input components.TextInput
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

func New() *Screen {
	return &Screen{input: components.NewTextInput("e.g. Photosynthesis", maxTopicLen)}
}

func (s *Screen) Init() tea.Cmd { return s.input.Init() }

func (s *Screen) Title() string { return "New run" }

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Run"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if k, ok := msg.(tea.KeyPressMsg); ok && k.String() == "enter" {
		topic := s.input.Value()
		if topic == "" {
			s.input.Err = "Topic must not be empty."
			return s, nil
		}
		return s, func() tea.Msg { return screen.TopicSubmittedMsg{Topic: topic} }
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *Screen) View(width, _ int) string {
	body := theme.Title.Render("Enter topic") + "\n\n" +
		s.input.View() + "\n\n" +
		theme.Hint.Render("Research notes and three checked questions will be generated.")
	return theme.Card.Width(min(width, 80)).Render(body)
}
