// Package play implements the game state machine: a player's position,
// visited rooms, inventory and log over a private copy of the effective room
// graph, with movement, item pickup, reset and the confrontation endgame.
package play

import (
	"github.com/whisperingwoods/woods/internal/game/world"
)

// SaveVersion is written into every new GameState.
const SaveVersion = 1

// Log lines written by the state machine.
const (
	WelcomeMessage = "Welcome to the Whispering Woods. Collect all six items and face Darkroot."
	ResetMessage   = "Game reset. Welcome back to the Whispering Woods."
	WinMessage     = "With all six items, you confront and defeat Darkroot."
	LoseMessage    = "You face Darkroot unprepared and are defeated."
	WarningMessage = "You hear a distant, heavy thudding from the North…"
)

// GameState is one player's persisted progress.
//
// Invariants: Current is a key of Rooms and of Visited. Inventory only grows
// between resets and may hold duplicates.
type GameState struct {
	Version     int             `json:"version"`
	Current     string          `json:"current"`
	Visited     map[string]bool `json:"visited"`
	Inventory   []world.Item    `json:"inventory"`
	Rooms       world.Graph     `json:"rooms"`
	Log         []string        `json:"log"`
	PathHistory []string        `json:"pathHistory"`
}

// NewGameState returns a fresh state at c's starting room over a deep copy of c's rooms.
//
// Precondition: c must be valid content.
// Postcondition: The result shares no rooms with c.
func NewGameState(c *world.Content) *GameState {
	st := &GameState{}
	st.reinit(c, WelcomeMessage)
	return st
}

// reinit overwrites every field in place so holders of st see the reset.
func (st *GameState) reinit(c *world.Content, logLine string) {
	st.Version = SaveVersion
	st.Current = c.StartingRoom
	st.Visited = map[string]bool{c.StartingRoom: true}
	st.Inventory = []world.Item{}
	st.Rooms = c.Rooms.Clone()
	st.Log = []string{logLine}
	st.PathHistory = []string{}
}

// Valid reports whether a restored state has the minimal shape needed to
// play: rooms, a current room that exists in them, and a visited set.
func (st *GameState) Valid() bool {
	if st == nil || len(st.Rooms) == 0 || st.Current == "" || st.Visited == nil {
		return false
	}
	room, ok := st.Rooms[st.Current]
	return ok && room != nil
}

// CurrentRoom returns the room the player stands in, or nil if it is missing.
func (st *GameState) CurrentRoom() *world.Room {
	return st.Rooms[st.Current]
}

// Owned reports whether the inventory holds item.
func (st *GameState) Owned(item world.Item) bool {
	for _, it := range st.Inventory {
		if it == item {
			return true
		}
	}
	return false
}

// RecentLog returns up to n of the latest log lines, oldest first.
func (st *GameState) RecentLog(n int) []string {
	if n <= 0 {
		return nil
	}
	if len(st.Log) <= n {
		return st.Log
	}
	return st.Log[len(st.Log)-n:]
}
