package play

import (
	"context"
	"fmt"

	"github.com/zyedidia/generic/mapset"
	"go.uber.org/zap"

	"github.com/whisperingwoods/woods/internal/game/world"
	"github.com/whisperingwoods/woods/internal/storage"
)

// Outcome tags an endgame resolution.
type Outcome string

// Endgame outcomes. OutcomeNone means the game goes on.
const (
	OutcomeNone Outcome = ""
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
)

// MoveResult reports a Move. A failed move carries a Message and changes nothing.
type MoveResult struct {
	OK      bool
	Message string
	End     Outcome
	Room    *world.Room
}

// ItemResult reports a GetItem.
type ItemResult struct {
	OK      bool
	Message string
	Item    world.Item
}

// Engine applies game rules to a GameState and persists it to a save slot
// after every mutation. Write failures are logged and never fail the operation.
type Engine struct {
	content *world.Content
	store   storage.Store
	logger  *zap.Logger
}

// NewEngine creates an Engine over effective content and a save slot.
//
// Precondition: content must be valid; store and logger must be non-nil.
func NewEngine(content *world.Content, store storage.Store, logger *zap.Logger) *Engine {
	return &Engine{content: content, store: store, logger: logger}
}

// Content returns the effective content the engine resets to.
func (e *Engine) Content() *world.Content {
	return e.content
}

// WithContent returns an Engine sharing e's save slot over different content.
// Sessions use it to pick up admin edits before a reset.
func (e *Engine) WithContent(c *world.Content) *Engine {
	return &Engine{content: c, store: e.store, logger: e.logger}
}

// Load restores the saved game or, if there is none or it fails the shape
// check, starts a fresh one. A fresh game is not written until its first mutation.
//
// Postcondition: Returns a valid GameState; never nil.
func (e *Engine) Load(ctx context.Context) *GameState {
	var saved GameState
	if !storage.LoadJSON(ctx, e.store, storage.KeySave, &saved) {
		return NewGameState(e.content)
	}
	if !saved.Valid() {
		e.logger.Warn("discarding malformed save", zap.String("current", saved.Current))
		return NewGameState(e.content)
	}
	saved.Visited[saved.Current] = true
	for _, r := range saved.Rooms {
		if r != nil {
			r.Exits = r.Exits.Live()
		}
	}
	if saved.Inventory == nil {
		saved.Inventory = []world.Item{}
	}
	if saved.PathHistory == nil {
		saved.PathHistory = []string{}
	}
	return &saved
}

// Save persists st. Failures are logged only.
func (e *Engine) Save(ctx context.Context, st *GameState) {
	if err := storage.SaveJSON(ctx, e.store, storage.KeySave, st); err != nil {
		e.logger.Warn("saving game state", zap.Error(err))
	}
}

// AvailableExits returns the current room's exits, or none if the room is missing.
func (e *Engine) AvailableExits(st *GameState) world.Exits {
	room := st.CurrentRoom()
	if room == nil {
		return world.Exits{}
	}
	return room.Exits
}

// CanGetItem reports whether the current room holds an item.
func (e *Engine) CanGetItem(st *GameState) bool {
	return st.CurrentRoom().HasItem()
}

// Move walks through the current room's exit in dir. Entering the
// confrontation room resolves the game at once.
//
// Postcondition: On failure st is unchanged. On success Current, Visited,
// PathHistory and Log are updated and st is persisted.
func (e *Engine) Move(ctx context.Context, st *GameState, dir world.Direction) MoveResult {
	next, ok := e.AvailableExits(st).Get(dir)
	if !ok || next == "" {
		return MoveResult{Message: fmt.Sprintf("Cannot move %s from here.", dir)}
	}
	room, ok := st.Rooms[next]
	if !ok || room == nil {
		e.logger.Debug("exit leads nowhere",
			zap.String("from", st.Current),
			zap.String("direction", string(dir)),
			zap.String("target", next),
		)
		return MoveResult{Message: fmt.Sprintf("Cannot move %s from here.", dir)}
	}

	st.Current = next
	st.Visited[next] = true
	st.PathHistory = append(st.PathHistory, next)
	st.Log = append(st.Log, fmt.Sprintf("Moved %s to %s.", dir, room.Name))

	if e.isConfrontation(next) {
		return e.resolveConfrontation(ctx, st, room)
	}
	e.Save(ctx, st)
	return MoveResult{OK: true, Room: room}
}

func (e *Engine) isConfrontation(id string) bool {
	return e.content.ConfrontationRoom != "" && id == e.content.ConfrontationRoom
}

func (e *Engine) resolveConfrontation(ctx context.Context, st *GameState, room *world.Room) MoveResult {
	res := MoveResult{OK: true, Room: room}
	if len(st.Inventory) >= e.content.RequiredItems {
		st.Log = append(st.Log, WinMessage)
		res.End = OutcomeWin
	} else {
		st.Log = append(st.Log, LoseMessage)
		res.End = OutcomeLose
	}
	e.logger.Info("confrontation resolved",
		zap.String("outcome", string(res.End)),
		zap.Int("items", len(st.Inventory)),
		zap.Int("required", e.content.RequiredItems),
	)
	e.Save(ctx, st)
	return res
}

// GetItem moves the current room's item into the inventory.
//
// Postcondition: On failure st is unchanged. On success the item is appended
// to Inventory, cleared from st.Rooms only, logged, and st is persisted.
func (e *Engine) GetItem(ctx context.Context, st *GameState) ItemResult {
	room := st.CurrentRoom()
	if !room.HasItem() {
		return ItemResult{Message: "No item in this room."}
	}
	item := room.Item
	st.Inventory = append(st.Inventory, item)
	room.Item = ""
	st.Log = append(st.Log, fmt.Sprintf("Acquired %s.", item))
	e.Save(ctx, st)
	return ItemResult{OK: true, Item: item}
}

// Reset reinitializes st in place from the engine's content.
//
// Postcondition: st is at the starting room with an empty inventory, a fresh
// copy of the rooms and a single reset log line, and is persisted.
func (e *Engine) Reset(ctx context.Context, st *GameState) {
	st.reinit(e.content, ResetMessage)
	e.Save(ctx, st)
}

// FindPath returns the shortest path from the current room to target.
func (e *Engine) FindPath(st *GameState, target string) ([]string, bool) {
	return world.ShortestPath(st.Rooms, st.Current, target)
}

// NearestItemPaths returns paths to the closest rooms holding an item the
// player does not already own.
func (e *Engine) NearestItemPaths(st *GameState) [][]string {
	owned := mapset.New[string]()
	for _, it := range st.Inventory {
		owned.Put(string(it))
	}
	return world.NearestWithItem(st.Rooms, st.Current, owned)
}

// ReachableRooms lists every room reachable from the current one.
func (e *Engine) ReachableRooms(st *GameState) []string {
	return world.Reachable(st.Rooms, st.Current)
}

// Neighbors lists the current room's exit targets in exit order.
func (e *Engine) Neighbors(st *GameState) []string {
	return world.ImmediateNeighbors(st.Rooms, st.Current)
}

// ReachableWithin returns the rooms 1..maxDepth steps from the current one.
func (e *Engine) ReachableWithin(st *GameState, maxDepth int) mapset.Set[string] {
	return world.ReachableWithin(st.Rooms, st.Current, maxDepth)
}

// Outcome reports how a game has ended: a player standing in the
// confrontation room has won or lost by inventory size; anyone else is still playing.
func (e *Engine) Outcome(st *GameState) Outcome {
	if !e.isConfrontation(st.Current) {
		return OutcomeNone
	}
	if len(st.Inventory) >= e.content.RequiredItems {
		return OutcomeWin
	}
	return OutcomeLose
}

// Warning returns the advisory shown when the current room opens onto the
// confrontation room and the player is not yet ready, or "".
func (e *Engine) Warning(st *GameState) string {
	if e.content.ConfrontationRoom == "" || st.Current == e.content.ConfrontationRoom {
		return ""
	}
	if len(st.Inventory) >= e.content.RequiredItems {
		return ""
	}
	for _, x := range e.AvailableExits(st) {
		if x.TargetRoom == e.content.ConfrontationRoom {
			return WarningMessage
		}
	}
	return ""
}
