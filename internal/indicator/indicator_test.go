package indicator

import (
	"testing"

	"github.com/groundcheck/groundcheck/internal/model"
)

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager()

	if m.Status("r1") != StatusAbsent {
		t.Errorf("unknown id should be absent")
	}

	m.Begin("r1")
	if m.Status("r1") != StatusChecking {
		t.Errorf("expected checking after begin, got %s", m.Status("r1"))
	}

	// Begin on a tracked id keeps the current status
	m.Begin("r1")
	if m.Status("r1") != StatusChecking {
		t.Errorf("repeated begin must not reset state")
	}

	claims := []model.Claim{{ID: "c1", Text: "x", Type: model.ClaimTypeFactual}}
	m.Complete("r1", claims)
	if m.Status("r1") != StatusComplete {
		t.Errorf("expected complete, got %s", m.Status("r1"))
	}

	st, ok := m.Get("r1")
	if !ok || len(st.Claims) != 1 {
		t.Errorf("expected stored claims, got %+v", st)
	}
}

func TestManager_CompleteRequiresChecking(t *testing.T) {
	m := NewManager()

	// Complete on an untracked id is dropped
	m.Complete("ghost", nil)
	if m.Status("ghost") != StatusAbsent {
		t.Errorf("complete must not resurrect removed ids")
	}

	// Complete after error is dropped too
	m.Begin("r1")
	m.Fail("r1", "boom", false)
	m.Complete("r1", nil)
	if m.Status("r1") != StatusError {
		t.Errorf("late completion must not override error, got %s", m.Status("r1"))
	}
}

func TestManager_FailMarksRateLimit(t *testing.T) {
	m := NewManager()

	m.Begin("r1")
	m.Fail("r1", "request quota exceeded, retry later", true)

	st, ok := m.Get("r1")
	if !ok || st.Status != StatusError {
		t.Fatalf("expected error state, got %+v", st)
	}
	if !st.RateLimit {
		t.Errorf("expected rate-limit flag")
	}
	if st.Reason == "" {
		t.Errorf("expected a reason")
	}

	m.Begin("r2")
	m.Fail("r2", "service returned 500", false)
	st2, _ := m.Get("r2")
	if st2.RateLimit {
		t.Errorf("upstream failures are not rate limits")
	}
}

func TestManager_DismissRemoves(t *testing.T) {
	m := NewManager()

	m.Begin("r1")
	m.Dismiss("r1")
	if m.Status("r1") != StatusAbsent {
		t.Errorf("dismissed id should be absent, got %s", m.Status("r1"))
	}

	// A fresh begin restarts the lifecycle
	m.Begin("r1")
	if m.Status("r1") != StatusChecking {
		t.Errorf("expected checking after re-begin")
	}
}

func TestManager_RemoveIdempotent(t *testing.T) {
	m := NewManager()

	m.Begin("r1")
	m.Remove("r1")
	m.Remove("r1")
	m.Remove("never-tracked")

	if m.Status("r1") != StatusAbsent {
		t.Errorf("expected absent after remove")
	}
}

func TestManager_SingleOpenPanel(t *testing.T) {
	m := NewManager()

	for _, id := range []string{"a", "b"} {
		m.Begin(id)
		m.Complete(id, nil)
	}

	m.TogglePanel("a")
	if m.OpenPanel() != "a" {
		t.Fatalf("expected panel a open, got %q", m.OpenPanel())
	}

	// Opening b closes a
	m.TogglePanel("b")
	if m.OpenPanel() != "b" {
		t.Fatalf("expected panel b open, got %q", m.OpenPanel())
	}
	stA, _ := m.Get("a")
	if stA.PanelOpen {
		t.Errorf("panel a should have been closed")
	}

	// Toggling b again closes it
	m.TogglePanel("b")
	if m.OpenPanel() != "" {
		t.Errorf("expected no open panel, got %q", m.OpenPanel())
	}
}

func TestManager_PanelRequiresComplete(t *testing.T) {
	m := NewManager()

	m.Begin("r1")
	m.TogglePanel("r1")
	if m.OpenPanel() != "" {
		t.Errorf("checking indicator must not open a panel")
	}

	m.Fail("r1", "boom", false)
	m.TogglePanel("r1")
	if m.OpenPanel() != "" {
		t.Errorf("error indicator must not open a panel")
	}

	m.TogglePanel("unknown")
	if m.OpenPanel() != "" {
		t.Errorf("unknown id must not open a panel")
	}
}

func TestManager_RemoveClearsOpenPanel(t *testing.T) {
	m := NewManager()

	m.Begin("r1")
	m.Complete("r1", nil)
	m.TogglePanel("r1")
	if m.OpenPanel() != "r1" {
		t.Fatalf("expected open panel")
	}

	m.Remove("r1")
	if m.OpenPanel() != "" {
		t.Errorf("removing the panel owner must clear the open panel")
	}
}

func TestManager_GetCopiesClaims(t *testing.T) {
	m := NewManager()

	m.Begin("r1")
	m.Complete("r1", []model.Claim{{ID: "c1", Text: "original", Type: model.ClaimTypeFactual}})

	st, _ := m.Get("r1")
	st.Claims[0].Text = "mutated"

	again, _ := m.Get("r1")
	if again.Claims[0].Text != "original" {
		t.Errorf("Get must return a copy, internal state was mutated")
	}
}
