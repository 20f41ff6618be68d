package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/mcqflow/internal/screen"
)

type stubScreen struct {
	title   string
	initRan bool
	seen    []tea.Msg
}

func (s *stubScreen) Init() tea.Cmd {
	s.initRan = true
	return nil
}

func (s *stubScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	s.seen = append(s.seen, msg)
	return s, nil
}

func (s *stubScreen) View(int, int) string { return s.title }
func (s *stubScreen) Title() string        { return s.title }

func TestNavigationMessages(t *testing.T) {
	topic := &stubScreen{title: "topic"}
	running := &stubScreen{title: "running"}
	review := &stubScreen{title: "review"}
	r := New(topic)

	r.Update(PushScreenMsg{Screen: running})
	if r.Depth() != 2 || r.View(0, 0) != "running" || !running.initRan {
		t.Fatalf("after push: depth=%d active=%q init=%v", r.Depth(), r.View(0, 0), running.initRan)
	}

	r.Update(ReplaceScreenMsg{Screen: review})
	if r.Depth() != 2 || r.Active().Title() != "review" || !review.initRan {
		t.Fatalf("after replace: depth=%d active=%q init=%v", r.Depth(), r.Active().Title(), review.initRan)
	}

	r.Update(PopScreenMsg{})
	if r.Depth() != 1 || r.Active().Title() != "topic" {
		t.Fatalf("after pop: depth=%d active=%q", r.Depth(), r.Active().Title())
	}

	r.Update(PopScreenMsg{})
	if r.Depth() != 1 {
		t.Errorf("bottom screen was popped")
	}
}

func TestUpdateForwardsToActiveScreen(t *testing.T) {
	bottom := &stubScreen{title: "bottom"}
	top := &stubScreen{title: "top"}
	r := New(bottom)
	r.Push(top)

	msg := screen.TopicSubmittedMsg{Topic: "Java"}
	r.Update(msg)

	if len(top.seen) != 1 || top.seen[0] != msg {
		t.Errorf("top screen saw %v", top.seen)
	}
	if len(bottom.seen) != 0 {
		t.Errorf("bottom screen should not see messages, saw %v", bottom.seen)
	}

	// Navigation messages are not forwarded.
	r.Update(ReplaceScreenMsg{Screen: &stubScreen{title: "next"}})
	if len(top.seen) != 1 {
		t.Errorf("replace message leaked to screen")
	}
}
