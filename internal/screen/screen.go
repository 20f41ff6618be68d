package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mcqflow/internal/pipeline"
	"github.com/abhisek/mcqflow/internal/ui/layout"
)

// Screen is one view of the interactive run.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)
	// View renders the content area, excluding header and footer.
	View(width, height int) string
	Title() string
}

// KeyHintProvider is implemented by screens with their own footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// TopicSubmittedMsg asks the app to start a run.
type TopicSubmittedMsg struct {
	Topic string
}

// ProgressMsg carries a pipeline event into the program.
type ProgressMsg pipeline.Event

// RunFinishedMsg is sent once the run returns.
type RunFinishedMsg struct {
	Result *pipeline.RunResult
	Err    error
}
