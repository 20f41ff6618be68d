// Package app is the interactive terminal front end for a single run.
package app

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mcqflow/internal/pipeline"
	"github.com/abhisek/mcqflow/internal/router"
	"github.com/abhisek/mcqflow/internal/screen"
	"github.com/abhisek/mcqflow/internal/screens/review"
	"github.com/abhisek/mcqflow/internal/screens/running"
	"github.com/abhisek/mcqflow/internal/screens/topic"
	"github.com/abhisek/mcqflow/internal/ui/layout"
)

// RunFunc executes the pipeline, reporting progress to obs.
type RunFunc func(ctx context.Context, topic string, obs pipeline.Observer) (*pipeline.RunResult, error)

type Options struct {
	Run RunFunc
	// Topic skips the topic screen when set.
	Topic string
	// Status is shown on the right of the header, e.g. the provider name.
	Status string
}

// Outcome is what the session produced. Result and Err are those returned
// by Run; both are zero when the user quit before a run finished.
type Outcome struct {
	Topic    string
	Result   *pipeline.RunResult
	Err      error
	Canceled bool
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	ctx     context.Context
	cancel  context.CancelFunc
	opts    Options
	router  *router.Router
	msgs    chan tea.Msg
	running bool
	outcome Outcome
	width   int
	height  int
}

func newAppModel(ctx context.Context, opts Options) AppModel {
	ctx, cancel := context.WithCancel(ctx)
	return AppModel{
		ctx:    ctx,
		cancel: cancel,
		opts:   opts,
		router: router.New(topic.New()),
	}
}

func (m AppModel) Init() tea.Cmd {
	if m.opts.Topic != "" {
		topic := m.opts.Topic
		return func() tea.Msg { return screen.TopicSubmittedMsg{Topic: topic} }
	}
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			if m.running {
				m.outcome.Canceled = true
			}
			m.cancel()
			return m, tea.Quit
		}

	case screen.TopicSubmittedMsg:
		if m.running {
			return m, nil
		}
		m.running = true
		m.outcome.Topic = msg.Topic
		m.msgs = make(chan tea.Msg, 16)
		return m, tea.Batch(
			m.router.Push(running.New(msg.Topic)),
			m.start(msg.Topic),
			wait(m.msgs),
		)

	case screen.ProgressMsg:
		cmd := m.router.Update(msg)
		return m, tea.Batch(cmd, wait(m.msgs))

	case screen.RunFinishedMsg:
		m.running = false
		m.outcome.Result = msg.Result
		m.outcome.Err = msg.Err
		if msg.Result == nil {
			return m, tea.Quit
		}
		return m, m.router.Update(router.ReplaceScreenMsg{Screen: review.New(msg.Result)})
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

// start runs the pipeline in the command goroutine, streaming events and
// the final result through m.msgs.
func (m AppModel) start(topic string) tea.Cmd {
	ctx, run, msgs := m.ctx, m.opts.Run, m.msgs
	return func() tea.Msg {
		obs := pipeline.ObserverFunc(func(e pipeline.Event) {
			select {
			case msgs <- screen.ProgressMsg(e):
			case <-ctx.Done():
			}
		})
		result, err := run(ctx, topic, obs)
		select {
		case msgs <- screen.RunFinishedMsg{Result: result, Err: err}:
		case <-ctx.Done():
		}
		close(msgs)
		return nil
	}
}

func wait(msgs <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-msgs
		if !ok {
			return nil
		}
		return msg
	}
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	header := layout.RenderHeader(active.Title(), m.opts.Status, m.width)

	hints := []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	if p, ok := active.(screen.KeyHintProvider); ok {
		hints = p.KeyHints()
	}
	footer := layout.RenderFooter(hints, m.width)

	content := m.router.View(m.width, m.height-6)
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the Bubble Tea program and blocks until the user quits.
func Run(ctx context.Context, opts Options) (Outcome, error) {
	if opts.Run == nil {
		return Outcome{}, fmt.Errorf("app: run function is required")
	}
	model := newAppModel(ctx, opts)
	defer model.cancel()

	final, err := tea.NewProgram(model).Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return Outcome{}, err
	}
	return final.(AppModel).outcome, nil
}
