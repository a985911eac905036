package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestManager_Claim(t *testing.T) {
	m := NewManager()
	lease, err := m.Claim("alice", "10.0.0.1:5000")
	require.NoError(t, err)
	assert.Equal(t, "alice", lease.Slot)
	assert.Equal(t, "10.0.0.1:5000", lease.Remote)
	assert.False(t, lease.Since.IsZero())
	assert.Equal(t, 1, m.Count())
}

func TestManager_ClaimHeldSlot(t *testing.T) {
	m := NewManager()
	_, err := m.Claim("alice", "a")
	require.NoError(t, err)

	_, err = m.Claim("alice", "b")
	require.ErrorIs(t, err, ErrSlotInUse)
	assert.Contains(t, err.Error(), "held by a")
	assert.Equal(t, 1, m.Count())
}

func TestManager_Release(t *testing.T) {
	m := NewManager()
	_, err := m.Claim("alice", "a")
	require.NoError(t, err)

	require.NoError(t, m.Release("alice"))
	assert.Equal(t, 0, m.Count())
	_, ok := m.Get("alice")
	assert.False(t, ok)

	_, err = m.Claim("alice", "b")
	assert.NoError(t, err, "released slot can be claimed again")
}

func TestManager_ReleaseNotHeld(t *testing.T) {
	m := NewManager()
	err := m.Release("ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not held")
}

func TestManager_SlotsSorted(t *testing.T) {
	m := NewManager()
	for _, s := range []string{"carol", "alice", "bob"} {
		_, err := m.Claim(s, "x")
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"alice", "bob", "carol"}, m.Slots())
}

func TestManager_ConcurrentClaimOneWinner(t *testing.T) {
	m := NewManager()
	const n = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			if _, err := m.Claim("shared", fmt.Sprintf("c%d", i)); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, m.Count())
}

func TestManager_ConcurrentClaimRelease(t *testing.T) {
	m := NewManager()
	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			slot := fmt.Sprintf("slot%d", i)
			_, err := m.Claim(slot, "x")
			assert.NoError(t, err)
			assert.NoError(t, m.Release(slot))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, m.Count())
}

func TestPropertyLeasesMatchModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := NewManager()
		model := map[string]bool{}
		slots := []string{"a", "b", "c", "d"}

		steps := rapid.IntRange(0, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			slot := rapid.SampledFrom(slots).Draw(t, "slot")
			if rapid.Bool().Draw(t, "claim") {
				_, err := m.Claim(slot, "x")
				if model[slot] {
					assert.ErrorIs(t, err, ErrSlotInUse)
				} else {
					assert.NoError(t, err)
					model[slot] = true
				}
			} else {
				err := m.Release(slot)
				if model[slot] {
					assert.NoError(t, err)
					delete(model, slot)
				} else {
					assert.Error(t, err)
				}
			}
		}
		assert.Equal(t, len(model), m.Count())
		for _, s := range m.Slots() {
			assert.True(t, model[s], "unexpected slot %s", s)
		}
	})
}
