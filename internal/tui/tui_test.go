package tui

import (
	"errors"
	"testing"

	"chatctl/pkg/types"
)

func TestFinishTurnSuccess(t *testing.T) {
	s := &session{inflight: true}
	s.history = []types.Message{{Role: types.RoleUser, Content: "hi"}}
	s.finishTurn("hello", nil)
	if s.inflight {
		t.Fatalf("inflight not cleared")
	}
	if len(s.history) != 2 || s.history[1].Role != types.RoleAssistant || s.history[1].Content != "hello" {
		t.Fatalf("history=%+v", s.history)
	}
}

func TestFinishTurnFailureDropsUserTurn(t *testing.T) {
	s := &session{inflight: true}
	s.history = []types.Message{
		{Role: types.RoleUser, Content: "first"},
		{Role: types.RoleAssistant, Content: "answer"},
		{Role: types.RoleUser, Content: "second"},
	}
	s.finishTurn("", errors.New("boom"))
	if s.inflight {
		t.Fatalf("inflight not cleared")
	}
	if len(s.history) != 2 || s.history[1].Role != types.RoleAssistant {
		t.Fatalf("history=%+v", s.history)
	}
}

// The conversation can be cleared while a request is still running; the
// failure path must not touch what is no longer there.
func TestFinishTurnFailureAfterClear(t *testing.T) {
	s := &session{inflight: true}
	s.history = nil
	s.finishTurn("", errors.New("boom"))
	if s.inflight {
		t.Fatalf("inflight not cleared")
	}
	if len(s.history) != 0 {
		t.Fatalf("history=%+v", s.history)
	}
}

func TestFinishTurnFailureKeepsReseededSystemPrompt(t *testing.T) {
	s := &session{inflight: true}
	s.history = []types.Message{{Role: types.RoleSystem, Content: "be terse"}}
	s.finishTurn("", errors.New("boom"))
	if len(s.history) != 1 || s.history[0].Role != types.RoleSystem {
		t.Fatalf("history=%+v", s.history)
	}
}
