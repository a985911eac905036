// Package admin implements the overlay editor model: listing merged room
// previews, upserting and deleting room patches, exporting the overlay, and
// persisting it alongside a local admin password.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/whisperingwoods/woods/internal/game/world"
	"github.com/whisperingwoods/woods/internal/storage"
)

// Listing is one row of the editor's room list.
type Listing struct {
	ID string
	// Room is the base room with the patch applied shallowly; patch exits
	// replace base exits here, unlike ApplyOverlay.
	Room    *world.Room
	InBase  bool
	Patched bool
}

// ListRooms returns a preview of every room in base or ov, sorted by ID.
//
// Precondition: base must be non-nil; ov may be nil.
// Postcondition: Neither base nor ov is modified.
func ListRooms(base *world.Content, ov *world.Overlay) []Listing {
	ids := make(map[string]struct{}, len(base.Rooms))
	for id := range base.Rooms {
		ids[id] = struct{}{}
	}
	if ov != nil {
		for id := range ov.Rooms {
			ids[id] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	out := make([]Listing, 0, len(sorted))
	for _, id := range sorted {
		baseRoom, inBase := base.Rooms[id]
		var patch world.RoomPatch
		patched := false
		if ov != nil {
			patch, patched = ov.Rooms[id]
		}
		out = append(out, Listing{
			ID:      id,
			Room:    patch.Preview(id, baseRoom),
			InBase:  inBase,
			Patched: patched,
		})
	}
	return out
}

// UpsertRoom merges patch into ov's entry for id, creating it if needed.
// Applying the same patch twice leaves ov as after the first application.
// Patches merge field by field and exits are replaced as a whole.
//
// Precondition: ov must be non-nil.
// Postcondition: DeleteRoom(ov, id) undoes an upsert only when id had no entry
// before it; a patched entry is dropped whole, not restored.
func UpsertRoom(ov *world.Overlay, id string, patch world.RoomPatch) {
	if ov.Rooms == nil {
		ov.Rooms = map[string]world.RoomPatch{}
	}
	ov.Rooms[id] = ov.Rooms[id].Merge(patch)
}

// DeleteRoom removes ov's entry for id so the base room, if any, shows through.
// Every patched field goes at once. A nil overlay is a no-op.
func DeleteRoom(ov *world.Overlay, id string) {
	if ov == nil || ov.Rooms == nil {
		return
	}
	delete(ov.Rooms, id)
}

// ExportOverlay renders ov as indented JSON with room IDs in sorted order.
// A nil overlay exports as an empty one.
func ExportOverlay(ov *world.Overlay) (string, error) {
	if ov == nil {
		ov = world.NewOverlay()
	}
	out := struct {
		StartingRoom string                     `json:"startingRoom,omitempty"`
		Rooms        map[string]world.RoomPatch `json:"rooms"`
	}{StartingRoom: ov.StartingRoom, Rooms: ov.Rooms}
	if out.Rooms == nil {
		out.Rooms = map[string]world.RoomPatch{}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding overlay: %w", err)
	}
	return string(data), nil
}

// Editor persists the overlay in a store under storage.KeyOverlay.
type Editor struct {
	store  storage.Store
	logger *zap.Logger
}

// NewEditor creates an Editor over store.
//
// Precondition: store and logger must be non-nil.
func NewEditor(store storage.Store, logger *zap.Logger) *Editor {
	return &Editor{store: store, logger: logger}
}

// Load returns the stored overlay, or nil when none is stored or it cannot be read.
func (e *Editor) Load(ctx context.Context) *world.Overlay {
	data, err := e.store.Get(ctx, storage.KeyOverlay)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			e.logger.Warn("reading overlay", zap.Error(err))
		}
		return nil
	}
	ov := world.ParseOverlay(data)
	if ov == nil {
		e.logger.Warn("ignoring malformed overlay")
	}
	return ov
}

// Save stores ov.
//
// Postcondition: Returns nil on success, or a wrapped encode or write error.
func (e *Editor) Save(ctx context.Context, ov *world.Overlay) error {
	if ov == nil {
		ov = world.NewOverlay()
	}
	if err := storage.SaveJSON(ctx, e.store, storage.KeyOverlay, ov); err != nil {
		return fmt.Errorf("saving overlay: %w", err)
	}
	e.logger.Info("overlay saved", zap.Int("patches", len(ov.Rooms)))
	return nil
}

// Clear removes the stored overlay.
func (e *Editor) Clear(ctx context.Context) error {
	if err := e.store.Delete(ctx, storage.KeyOverlay); err != nil {
		return fmt.Errorf("clearing overlay: %w", err)
	}
	return nil
}
