package world

import (
	"bytes"
	"encoding/json"
	"sort"
)

// RoomPatch is a sparse set of Room fields. A nil field is absent and leaves the
// base value alone. Item is tri-state: nil is absent, a pointer to "" clears the
// item (encoded as null), anything else sets it.
type RoomPatch struct {
	Name  *string   `json:"name,omitempty"`
	Desc  *string   `json:"desc,omitempty"`
	Pos   *Position `json:"pos,omitempty"`
	Item  *Item     `json:"item,omitempty"`
	Exits *Exits    `json:"exits,omitempty"`
}

// UnmarshalJSON records an explicit "item": null as a clearing patch rather than an absent one.
func (p *RoomPatch) UnmarshalJSON(data []byte) error {
	type plain RoomPatch
	var out plain
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	if out.Item == nil {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err == nil {
			if v, ok := raw["item"]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
				out.Item = new(Item)
			}
		}
	}
	*p = RoomPatch(out)
	return nil
}

// Merge returns p with the fields set in other taking precedence. Exits are
// replaced wholesale, matching how the editor treats one room at a time.
func (p RoomPatch) Merge(other RoomPatch) RoomPatch {
	out := p.Clone()
	if other.Name != nil {
		out.Name = ptr(*other.Name)
	}
	if other.Desc != nil {
		out.Desc = ptr(*other.Desc)
	}
	if other.Pos != nil {
		out.Pos = ptr(*other.Pos)
	}
	if other.Item != nil {
		out.Item = ptr(*other.Item)
	}
	if other.Exits != nil {
		out.Exits = ptr(other.Exits.Clone())
	}
	return out
}

// Clone returns a deep copy of p.
func (p RoomPatch) Clone() RoomPatch {
	var out RoomPatch
	if p.Name != nil {
		out.Name = ptr(*p.Name)
	}
	if p.Desc != nil {
		out.Desc = ptr(*p.Desc)
	}
	if p.Pos != nil {
		out.Pos = ptr(*p.Pos)
	}
	if p.Item != nil {
		out.Item = ptr(*p.Item)
	}
	if p.Exits != nil {
		out.Exits = ptr(p.Exits.Clone())
	}
	return out
}

// IsEmpty reports whether p sets no fields.
func (p RoomPatch) IsEmpty() bool {
	return p.Name == nil && p.Desc == nil && p.Pos == nil && p.Item == nil && p.Exits == nil
}

// applyShallow copies set fields onto r; when mergeExits is true exits are
// merged per direction, otherwise replaced.
func (p RoomPatch) applyShallow(r *Room, mergeExits bool) {
	if p.Name != nil {
		r.Name = *p.Name
	}
	if p.Desc != nil {
		r.Desc = *p.Desc
	}
	if p.Pos != nil {
		r.Pos = *p.Pos
	}
	if p.Item != nil {
		r.Item = *p.Item
	}
	if p.Exits != nil {
		if mergeExits {
			r.Exits = r.Exits.Merge(*p.Exits)
		} else {
			r.Exits = p.Exits.Live()
		}
	}
}

// Preview returns base with p applied shallowly (exits replaced, not merged).
// A nil base starts from the new-room defaults.
func (p RoomPatch) Preview(id string, base *Room) *Room {
	r := base.Clone()
	if r == nil {
		r = NewRoom(id)
	}
	p.applyShallow(r, false)
	return r
}

// Overlay is an admin's sparse patch over base content.
type Overlay struct {
	StartingRoom string               `json:"startingRoom,omitempty"`
	Rooms        map[string]RoomPatch `json:"rooms,omitempty"`
}

// NewOverlay returns an empty overlay.
func NewOverlay() *Overlay {
	return &Overlay{Rooms: map[string]RoomPatch{}}
}

// Clone returns a deep copy of o.
func (o *Overlay) Clone() *Overlay {
	if o == nil {
		return nil
	}
	out := &Overlay{StartingRoom: o.StartingRoom}
	if o.Rooms != nil {
		out.Rooms = make(map[string]RoomPatch, len(o.Rooms))
		for id, p := range o.Rooms {
			out.Rooms[id] = p.Clone()
		}
	}
	return out
}

// PatchIDs returns the patched room IDs sorted lexicographically.
func (o *Overlay) PatchIDs() []string {
	if o == nil {
		return nil
	}
	ids := make([]string, 0, len(o.Rooms))
	for id := range o.Rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ParseOverlay decodes an overlay document leniently. A document that is not a
// JSON object yields nil (no overlay). A "rooms" value that is not an object,
// or a room entry that is not a valid patch, is dropped.
func ParseOverlay(data []byte) *Overlay {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil
	}
	ov := NewOverlay()
	if v, ok := raw["startingRoom"]; ok {
		var s string
		if json.Unmarshal(v, &s) == nil {
			ov.StartingRoom = s
		}
	}
	if v, ok := raw["rooms"]; ok {
		var rooms map[string]json.RawMessage
		if json.Unmarshal(v, &rooms) == nil {
			for id, rp := range rooms {
				var p RoomPatch
				if json.Unmarshal(rp, &p) == nil {
					ov.Rooms[id] = p
				}
			}
		}
	}
	return ov
}

// NewRoom returns a room populated with the defaults used for rooms an overlay introduces.
func NewRoom(id string) *Room {
	return &Room{ID: id, Name: id, Desc: "", Exits: Exits{}, Item: "", Pos: Position{}}
}

// ApplyOverlay merges ov over base and returns the effective content.
//
// With a nil overlay base itself is returned. Otherwise base is deep-copied and
// never mutated. The starting room override applies only when it names a room
// of base; rooms the overlay itself introduces cannot become the start.
// Patches for unknown IDs create rooms from NewRoom defaults. Patches for known
// IDs overwrite set fields, except exits, which are merged per direction; a
// null (empty) target removes that direction. Base rooms cannot be removed,
// only cut off by removing the exits into them.
//
// Postcondition: base is unchanged; the result is independent of base and ov.
func ApplyOverlay(base *Content, ov *Overlay) *Content {
	if ov == nil {
		return base
	}
	out := base.Clone()
	if out.Rooms == nil {
		out.Rooms = Graph{}
	}
	if ov.StartingRoom != "" {
		if _, ok := out.Rooms[ov.StartingRoom]; ok {
			out.StartingRoom = ov.StartingRoom
		}
	}
	for _, id := range ov.PatchIDs() {
		patch := ov.Rooms[id]
		room, ok := out.Rooms[id]
		if !ok {
			room = NewRoom(id)
			patch.applyShallow(room, false)
			out.Rooms[id] = room
			continue
		}
		patch.applyShallow(room, true)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
