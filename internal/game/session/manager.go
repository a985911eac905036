// Package session tracks which save slots are being played right now, so two
// connections never drive the same saved game.
package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrSlotInUse is returned by Claim when another session holds the slot.
var ErrSlotInUse = errors.New("save slot in use")

// Lease records one session's hold on a save slot.
type Lease struct {
	// Slot is the sanitized save name.
	Slot string
	// Remote identifies the client, e.g. its network address.
	Remote string
	// Since is when the slot was claimed.
	Since time.Time
}

// Manager tracks active slot leases. All methods are safe for concurrent use.
type Manager struct {
	mu     sync.RWMutex
	leases map[string]*Lease // slot → lease
	now    func() time.Time
}

// NewManager creates an empty session Manager.
func NewManager() *Manager {
	return &Manager{
		leases: make(map[string]*Lease),
		now:    time.Now,
	}
}

// Claim takes slot for remote.
//
// Precondition: slot must be non-empty.
// Postcondition: Returns the new Lease, or an error wrapping ErrSlotInUse if
// the slot is already held.
func (m *Manager) Claim(slot, remote string) (*Lease, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if held, exists := m.leases[slot]; exists {
		return nil, fmt.Errorf("%w: %q held by %s since %s", ErrSlotInUse, slot, held.Remote, held.Since.Format(time.RFC3339))
	}
	lease := &Lease{Slot: slot, Remote: remote, Since: m.now()}
	m.leases[slot] = lease
	return lease, nil
}

// Release frees slot.
//
// Postcondition: The slot can be claimed again. Returns an error if it was not held.
func (m *Manager) Release(slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.leases[slot]; !exists {
		return fmt.Errorf("slot %q not held", slot)
	}
	delete(m.leases, slot)
	return nil
}

// Get returns the lease on slot.
//
// Postcondition: Returns (lease, true) if held, or (nil, false) otherwise.
func (m *Manager) Get(slot string) (*Lease, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lease, ok := m.leases[slot]
	return lease, ok
}

// Slots returns the held slots sorted by name.
func (m *Manager) Slots() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	slots := make([]string, 0, len(m.leases))
	for slot := range m.leases {
		slots = append(slots, slot)
	}
	sort.Strings(slots)
	return slots
}

// Count returns the number of held slots.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.leases)
}
