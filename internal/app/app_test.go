package app

import (
	"context"
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mcqflow/internal/pipeline"
	"github.com/abhisek/mcqflow/internal/screen"
)

// drain executes cmd and feeds the resulting messages back into the model
// until it quits or goes idle. Batches run in order.
func drain(t *testing.T, m AppModel, cmd tea.Cmd) (AppModel, bool) {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 200, "model did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		switch msg := msg.(type) {
		case nil:
			continue
		case tea.QuitMsg:
			return m, true
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		}
		next, nextCmd := m.Update(msg)
		m = next.(AppModel)
		queue = append(queue, nextCmd)
	}
	return m, false
}

func fakeRun(result *pipeline.RunResult, err error) RunFunc {
	return func(_ context.Context, topic string, obs pipeline.Observer) (*pipeline.RunResult, error) {
		obs.Observe(pipeline.Event{Topic: topic, Stage: pipeline.StageResearch, Outcome: pipeline.OutcomeStarted})
		obs.Observe(pipeline.Event{Topic: topic, Stage: pipeline.StageResearch, Outcome: pipeline.OutcomeOK})
		return result, err
	}
}

func TestTopicFromOptionsRunsAndShowsReview(t *testing.T) {
	result := &pipeline.RunResult{ID: "r1", Topic: "Java", Error: pipeline.ErrMsgMCQJSONInvalid}
	m := newAppModel(context.Background(), Options{Run: fakeRun(result, nil), Topic: "Java"})

	m, quit := drain(t, m, m.Init())
	require.False(t, quit)

	assert.Equal(t, "Java", m.outcome.Topic)
	assert.Same(t, result, m.outcome.Result)
	assert.False(t, m.running)
	assert.Equal(t, "Result", m.router.Active().Title())
}

func TestCallErrorQuits(t *testing.T) {
	callErr := &pipeline.CallError{Stage: pipeline.StageResearch, Index: -1, Err: errors.New("down")}
	m := newAppModel(context.Background(), Options{Run: fakeRun(nil, callErr)})

	next, cmd := m.Update(screen.TopicSubmittedMsg{Topic: "x"})
	m, quit := drain(t, next.(AppModel), cmd)

	assert.True(t, quit)
	assert.ErrorAs(t, m.outcome.Err, &callErr)
	assert.Nil(t, m.outcome.Result)
}

func TestCtrlCCancelsRun(t *testing.T) {
	m := newAppModel(context.Background(), Options{Run: fakeRun(nil, nil)})
	m.running = true

	next, cmd := m.Update(tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	m = next.(AppModel)

	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
	assert.True(t, m.outcome.Canceled)
	assert.Error(t, m.ctx.Err())
}

func TestWindowSizeTracked(t *testing.T) {
	m := newAppModel(context.Background(), Options{Run: fakeRun(nil, nil)})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	got := next.(AppModel)
	assert.Equal(t, 120, got.width)
	assert.Equal(t, 40, got.height)
}

func TestRunRequiresFunc(t *testing.T) {
	_, err := Run(context.Background(), Options{})
	assert.Error(t, err)
}
