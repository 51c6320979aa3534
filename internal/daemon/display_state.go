package daemon

import (
	"sync"
	"time"

	"github.com/jmylchreest/toastkit/internal/toast"
)

// DisplayStatus represents the status of a toast in the display system.
type DisplayStatus int

const (
	// DisplayStatusPending means the toast is queued for display.
	DisplayStatusPending DisplayStatus = iota
	// DisplayStatusActive means the toast is currently displayed.
	DisplayStatusActive
	// DisplayStatusExpired means the toast ran its full lifetime.
	DisplayStatusExpired
	// DisplayStatusCancelled means the toast was cancelled.
	DisplayStatusCancelled
	// DisplayStatusFailed means the toast could not be presented.
	DisplayStatusFailed
)

// String returns the string representation of DisplayStatus.
func (s DisplayStatus) String() string {
	switch s {
	case DisplayStatusPending:
		return "pending"
	case DisplayStatusActive:
		return "active"
	case DisplayStatusExpired:
		return "expired"
	case DisplayStatusCancelled:
		return "cancelled"
	case DisplayStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StatusForOutcome maps a toast outcome to its terminal display status.
func StatusForOutcome(o toast.Outcome) DisplayStatus {
	switch o {
	case toast.OutcomeShown:
		return DisplayStatusExpired
	case toast.OutcomeCancelled:
		return DisplayStatusCancelled
	default:
		return DisplayStatusFailed
	}
}

// DisplayState tracks a toast submitted to the daemon.
type DisplayState struct {
	Toast     *toast.Toast
	MirrorID  uint32        // server ID of a mirrored notification, 0 otherwise
	Status    DisplayStatus // Current display status
	CreatedAt time.Time     // When the toast was submitted
	ShownAt   time.Time     // When the toast finished fading in
	ClosedAt  time.Time     // When the toast completed
}

// DisplayStateManager maps toast IDs to display state for bus lookups.
// Entries are removed once the toast completes.
type DisplayStateManager struct {
	mu sync.RWMutex

	byID map[string]*DisplayState

	// Map mirrored notification ID to toast ID (for replacement)
	byMirrorID map[uint32]string
}

// NewDisplayStateManager creates a new DisplayStateManager.
func NewDisplayStateManager() *DisplayStateManager {
	return &DisplayStateManager{
		byID:       make(map[string]*DisplayState),
		byMirrorID: make(map[uint32]string),
	}
}

// Register adds a pending toast. mirrorID is 0 for toasts that did not come from a Notify call.
func (m *DisplayStateManager) Register(t *toast.Toast, mirrorID uint32) *DisplayState {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := &DisplayState{
		Toast:     t,
		MirrorID:  mirrorID,
		Status:    DisplayStatusPending,
		CreatedAt: time.Now(),
	}

	// A completion that raced ahead of registration must not be overwritten.
	if t.IsFinished() {
		state.Status = StatusForOutcome(t.Outcome())
		state.ClosedAt = state.CreatedAt
		return state
	}

	m.byID[t.ID()] = state
	if mirrorID != 0 {
		m.byMirrorID[mirrorID] = t.ID()
	}
	return state
}

// Get returns the display state for a toast ID, or nil.
func (m *DisplayStateManager) Get(id string) *DisplayState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byID[id]
}

// GetByMirrorID returns the display state for a mirrored notification ID, or nil.
func (m *DisplayStateManager) GetByMirrorID(mirrorID uint32) *DisplayState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, exists := m.byMirrorID[mirrorID]
	if !exists {
		return nil
	}
	return m.byID[id]
}

// SetStatus updates the status of a toast.
func (m *DisplayStateManager) SetStatus(id string, status DisplayStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, exists := m.byID[id]
	if !exists {
		return
	}

	state.Status = status
	switch status {
	case DisplayStatusActive:
		state.ShownAt = time.Now()
	case DisplayStatusExpired, DisplayStatusCancelled, DisplayStatusFailed:
		state.ClosedAt = time.Now()
	}
}

// Remove removes a display state entry.
func (m *DisplayStateManager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, exists := m.byID[id]
	if !exists {
		return
	}

	if state.MirrorID != 0 && m.byMirrorID[state.MirrorID] == id {
		delete(m.byMirrorID, state.MirrorID)
	}
	delete(m.byID, id)
}

// ActiveToasts returns the IDs of toasts currently displayed.
func (m *DisplayStateManager) ActiveToasts() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var active []string
	for id, state := range m.byID {
		if state.Status == DisplayStatusActive {
			active = append(active, id)
		}
	}
	return active
}

// Count returns the number of tracked toasts.
func (m *DisplayStateManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

// ActiveCount returns the number of displayed toasts.
func (m *DisplayStateManager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, state := range m.byID {
		if state.Status == DisplayStatusActive {
			count++
		}
	}
	return count
}
