// Package indicator owns the per-response UI status machine and the
// global at-most-one-open-panel invariant.
package indicator

import (
	"sync"

	"github.com/groundcheck/groundcheck/internal/model"
)

// Status is the per-response indicator state
type Status string

const (
	StatusAbsent   Status = "absent"
	StatusChecking Status = "checking"
	StatusComplete Status = "complete"
	StatusError    Status = "error"
)

// State is one indicator's snapshot
type State struct {
	ID        string
	Status    Status
	Claims    []model.Claim
	PanelOpen bool   // meaningful only when Status is StatusComplete
	Reason    string // set when Status is StatusError
	RateLimit bool   // the error was a quota denial, not an upstream failure
}

// Manager tracks indicator states for all visible responses
type Manager struct {
	mu        sync.Mutex
	items     map[string]*State
	openPanel string // id of the single open panel, or ""
}

// NewManager creates an empty manager
func NewManager() *Manager {
	return &Manager{items: make(map[string]*State)}
}

// Begin transitions an absent id to Checking. Ids already tracked keep
// their current status.
func (m *Manager) Begin(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[id]; exists {
		return
	}
	m.items[id] = &State{ID: id, Status: StatusChecking}
}

// Complete transitions Checking to Complete and stores the claims
func (m *Manager) Complete(id string, claims []model.Claim) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, exists := m.items[id]
	if !exists || st.Status != StatusChecking {
		return
	}
	st.Status = StatusComplete
	st.Claims = claims
}

// Dismiss removes an id whose analysis found nothing to show. Treated as
// "nothing to show", not an error.
func (m *Manager) Dismiss(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(id)
}

// Fail transitions Checking to Error. rateLimited marks quota denials so
// the UI can distinguish them from upstream failures.
func (m *Manager) Fail(id, reason string, rateLimited bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, exists := m.items[id]
	if !exists || st.Status != StatusChecking {
		return
	}
	st.Status = StatusError
	st.Reason = reason
	st.RateLimit = rateLimited
}

// TogglePanel flips the panel for a Complete indicator. Opening a panel
// closes any other panel currently open anywhere.
func (m *Manager) TogglePanel(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, exists := m.items[id]
	if !exists || st.Status != StatusComplete {
		return
	}

	if st.PanelOpen {
		st.PanelOpen = false
		m.openPanel = ""
		return
	}

	if m.openPanel != "" {
		if other, ok := m.items[m.openPanel]; ok {
			other.PanelOpen = false
		}
	}
	st.PanelOpen = true
	m.openPanel = id
}

// Remove deletes an indicator in any state. Idempotent: removing twice or
// removing an unknown id is a no-op.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(id)
}

func (m *Manager) removeLocked(id string) {
	if m.openPanel == id {
		m.openPanel = ""
	}
	delete(m.items, id)
}

// Status returns the current status for an id; unknown ids are Absent
func (m *Manager) Status(id string) Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	if st, exists := m.items[id]; exists {
		return st.Status
	}
	return StatusAbsent
}

// Get returns a copy of the indicator state for an id
func (m *Manager) Get(id string) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, exists := m.items[id]
	if !exists {
		return State{ID: id, Status: StatusAbsent}, false
	}

	out := *st
	out.Claims = append([]model.Claim(nil), st.Claims...)
	return out, true
}

// OpenPanel returns the id of the currently open panel, or ""
func (m *Manager) OpenPanel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openPanel
}
