package world

import (
	"fmt"
	"sync"
)

// Manager holds base content together with the admin overlay currently in
// force, and caches their merge. It is safe for concurrent use; sessions pull
// the effective content when they load or reset a game.
type Manager struct {
	mu        sync.RWMutex
	base      *Content
	overlay   *Overlay
	effective *Content
}

// NewManager creates a Manager over validated base content with no overlay.
//
// Precondition: base must be non-nil.
// Postcondition: Returns a Manager whose Effective content is base, or an error if base is invalid.
func NewManager(base *Content) (*Manager, error) {
	if base == nil {
		return nil, fmt.Errorf("base content must not be nil")
	}
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("validating base content: %w", err)
	}
	return &Manager{base: base, effective: base}, nil
}

// Base returns the unpatched content.
func (m *Manager) Base() *Content {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.base
}

// Overlay returns a copy of the overlay in force, or nil when none is set.
func (m *Manager) Overlay() *Overlay {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.overlay.Clone()
}

// SetOverlay replaces the overlay and recomputes the effective content.
// A nil overlay restores the base content.
//
// Postcondition: Effective returns ApplyOverlay(Base(), ov).
func (m *Manager) SetOverlay(ov *Overlay) {
	ov = ov.Clone()
	effective := ApplyOverlay(m.Base(), ov)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.overlay = ov
	m.effective = effective
}

// Effective returns the merged content. Callers must not mutate it; take
// Rooms.Clone before handing rooms to live play.
func (m *Manager) Effective() *Content {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.effective
}

// GetRoom returns the effective room with the given ID.
//
// Postcondition: Returns (room, true) if found, or (nil, false) otherwise.
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.effective.Rooms[id]
	return r, ok
}

// RoomCount returns the number of effective rooms.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.effective.Rooms)
}
