// Package world provides the game world model: rooms, exits, directions, content
// graphs, the overlay merge, and the graph searches run over them.
package world

import (
	"fmt"
	"sort"
	"strings"
)

// Direction is one of the four cardinal exit directions.
type Direction string

// The cardinal directions. The capitalized form is canonical on the wire.
const (
	North Direction = "North"
	South Direction = "South"
	East  Direction = "East"
	West  Direction = "West"
)

// StandardDirections lists every direction in display order.
var StandardDirections = []Direction{North, South, East, West}

// IsStandard reports whether d is one of the four cardinal directions.
func (d Direction) IsStandard() bool {
	for _, sd := range StandardDirections {
		if d == sd {
			return true
		}
	}
	return false
}

// Opposite returns the reverse direction, or "" for a non-standard direction.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	default:
		return ""
	}
}

// ParseDirection resolves player input ("north", "N", "West") to a Direction.
//
// Postcondition: Returns (direction, true) on a match, or ("", false) otherwise.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "n":
		return North, true
	case "south", "s":
		return South, true
	case "east", "e":
		return East, true
	case "west", "w":
		return West, true
	default:
		return "", false
	}
}

// Exit is a directed edge from a room to the room ID in TargetRoom. Inside an
// overlay patch an empty TargetRoom marks the direction for removal; live room
// graphs never hold one.
type Exit struct {
	Direction  Direction
	TargetRoom string
}

// Exits maps directions to room IDs while keeping declaration order, which
// decides BFS tie-breaks. A direction appears at most once.
type Exits []Exit

// Get returns the target for dir.
func (e Exits) Get(dir Direction) (string, bool) {
	for _, x := range e {
		if x.Direction == dir {
			return x.TargetRoom, true
		}
	}
	return "", false
}

// Set points dir at target, replacing an existing exit in place or appending a new one.
//
// Postcondition: Returns the updated Exits; the receiver's backing array may be reused.
func (e Exits) Set(dir Direction, target string) Exits {
	for i := range e {
		if e[i].Direction == dir {
			e[i].TargetRoom = target
			return e
		}
	}
	return append(e, Exit{Direction: dir, TargetRoom: target})
}

// Without returns a copy of e with the exit in dir removed.
func (e Exits) Without(dir Direction) Exits {
	out := make(Exits, 0, len(e))
	for _, x := range e {
		if x.Direction != dir {
			out = append(out, x)
		}
	}
	return out
}

// Targets returns the exit targets in declaration order, duplicates included.
func (e Exits) Targets() []string {
	out := make([]string, 0, len(e))
	for _, x := range e {
		out = append(out, x.TargetRoom)
	}
	return out
}

// Directions returns the exit directions in declaration order.
func (e Exits) Directions() []Direction {
	out := make([]Direction, 0, len(e))
	for _, x := range e {
		out = append(out, x.Direction)
	}
	return out
}

// Merge returns a new Exits holding e overlaid with patch: existing directions
// keep their position and take the patch target, new directions are appended,
// and directions the patch marks with an empty target are removed.
//
// Postcondition: Neither e nor patch is modified; the result holds no removal markers.
func (e Exits) Merge(patch Exits) Exits {
	out := e.Live()
	for _, x := range patch {
		if x.TargetRoom == "" {
			out = out.Without(x.Direction)
			continue
		}
		out = out.Set(x.Direction, x.TargetRoom)
	}
	return out
}

// Live returns a copy of e without removal markers.
func (e Exits) Live() Exits {
	out := make(Exits, 0, len(e))
	for _, x := range e {
		if x.TargetRoom != "" {
			out = append(out, x)
		}
	}
	return out
}

// Clone returns an independent copy. A nil receiver clones to an empty, non-nil Exits.
func (e Exits) Clone() Exits {
	out := make(Exits, len(e))
	copy(out, e)
	return out
}

// Position is a room's coordinate on the overview map.
type Position struct {
	X int
	Y int
}

// Room is a location in the game world.
type Room struct {
	// ID uniquely identifies the room; it is the key in Graph.
	ID string `json:"id" yaml:"id"`
	// Name is the display name.
	Name string `json:"name" yaml:"name"`
	// Desc is the room description shown to players.
	Desc string `json:"desc" yaml:"desc"`
	// Pos places the room on the overview map.
	Pos Position `json:"pos" yaml:"pos"`
	// Item is the collectible in the room; empty means none.
	Item Item `json:"item" yaml:"item"`
	// Exits are the room's outgoing passages.
	Exits Exits `json:"exits" yaml:"exits"`
}

// HasItem reports whether the room holds a collectible.
func (r *Room) HasItem() bool {
	return r != nil && r.Item != ""
}

// Clone returns a deep copy of r.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Exits = r.Exits.Clone()
	return &cp
}

// Graph maps room IDs to rooms.
type Graph map[string]*Room

// Clone returns a deep copy of g so callers can mutate rooms without touching the source.
func (g Graph) Clone() Graph {
	out := make(Graph, len(g))
	for id, r := range g {
		out[id] = r.Clone()
	}
	return out
}

// IDs returns all room IDs sorted lexicographically.
func (g Graph) IDs() []string {
	ids := make([]string, 0, len(g))
	for id := range g {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DefaultRequiredItems is the number of items needed to win when content does not say otherwise.
const DefaultRequiredItems = 6

// Content is a complete playable room graph.
type Content struct {
	// StartingRoom is where new games begin.
	StartingRoom string
	// ConfrontationRoom is the room whose entry resolves the game. Empty disables endgame resolution.
	ConfrontationRoom string
	// RequiredItems is the inventory size needed to win the confrontation.
	RequiredItems int
	// Rooms is the room graph keyed by ID.
	Rooms Graph
}

// Clone returns a deep copy of c.
func (c *Content) Clone() *Content {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Rooms = c.Rooms.Clone()
	return &cp
}

// WithRules returns a copy of c with the confrontation room and win
// threshold overridden. An empty room or a non-positive count keeps c's value.
func (c *Content) WithRules(confrontationRoom string, requiredItems int) *Content {
	cp := c.Clone()
	if confrontationRoom != "" {
		cp.ConfrontationRoom = confrontationRoom
	}
	if requiredItems > 0 {
		cp.RequiredItems = requiredItems
	}
	return cp
}

// Validate checks content invariants. Exit targets are deliberately not
// checked: dangling exits are dead ends, not errors.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (c *Content) Validate() error {
	if len(c.Rooms) == 0 {
		return fmt.Errorf("content must contain at least one room")
	}
	if c.StartingRoom == "" {
		return fmt.Errorf("startingRoom must not be empty")
	}
	if _, ok := c.Rooms[c.StartingRoom]; !ok {
		return fmt.Errorf("startingRoom %q not found in rooms", c.StartingRoom)
	}
	if c.RequiredItems < 0 {
		return fmt.Errorf("requiredItems must be >= 0, got %d", c.RequiredItems)
	}
	for id, room := range c.Rooms {
		if room == nil {
			return fmt.Errorf("room %q is empty", id)
		}
		if room.ID != id {
			return fmt.Errorf("room key %q does not match room ID %q", id, room.ID)
		}
		seen := make(map[Direction]bool, len(room.Exits))
		for _, x := range room.Exits {
			if !x.Direction.IsStandard() {
				return fmt.Errorf("room %q: unknown direction %q", id, x.Direction)
			}
			if seen[x.Direction] {
				return fmt.Errorf("room %q: duplicate exit %q", id, x.Direction)
			}
			seen[x.Direction] = true
		}
	}
	return nil
}
