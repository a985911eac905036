package admin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/whisperingwoods/woods/internal/game/world"
)

// Editable room fields accepted by ParseField.
const (
	FieldName   = "name"
	FieldDesc   = "desc"
	FieldItem   = "item"
	FieldPos    = "pos"
	FieldExits  = "exits"
	FieldExit   = "exit"
	FieldNoExit = "noexit"
)

// Fields lists the editable field names in help order.
var Fields = []string{FieldName, FieldDesc, FieldItem, FieldPos, FieldExits, FieldExit, FieldNoExit}

// CurrentExits returns the exits the editor works from for id. For a base
// room this is the base exits with the patch's exits laid over them, removal
// markers included, so that a patch built from it covers every base
// direction. For any other room it is the patch's exits, or none.
func CurrentExits(base *world.Content, ov *world.Overlay, id string) world.Exits {
	var patch world.Exits
	if ov != nil {
		if p, ok := ov.Rooms[id]; ok && p.Exits != nil {
			patch = *p.Exits
		}
	}
	r, ok := base.Rooms[id]
	if !ok || r == nil {
		return patch.Clone()
	}
	out := r.Exits.Clone()
	for _, x := range patch {
		out = out.Set(x.Direction, x.TargetRoom)
	}
	return out
}

// ParseField builds a single-field patch from editor input.
//
// Values by field: name and desc take free text (name must not be blank);
// item takes an item name, or "" / "none" to clear it; pos takes "x,y" or
// "x y"; exits takes "Dir:room,Dir:room" or "" to replace every exit;
// exit takes "Dir room" or "Dir:room" to set one exit; noexit takes a
// direction to remove. Exit edits start from current, as returned by
// CurrentExits, and retire a direction with a removal marker.
//
// Postcondition: Returns a patch setting exactly one field, or an error naming the problem.
// An exits patch holds a marker for every direction of current it drops.
func ParseField(field, value string, current world.Exits) (world.RoomPatch, error) {
	value = strings.TrimSpace(value)
	var p world.RoomPatch
	switch strings.ToLower(field) {
	case FieldName:
		if value == "" {
			return p, fmt.Errorf("name must not be blank")
		}
		p.Name = &value
	case FieldDesc:
		p.Desc = &value
	case FieldItem:
		item := world.Item(value)
		if strings.EqualFold(value, "none") {
			item = ""
		}
		p.Item = &item
	case FieldPos:
		pos, err := parsePos(value)
		if err != nil {
			return p, err
		}
		p.Pos = &pos
	case FieldExits:
		exits, err := parseExits(value)
		if err != nil {
			return p, err
		}
		for _, d := range current.Directions() {
			if _, kept := exits.Get(d); !kept {
				exits = exits.Set(d, "")
			}
		}
		p.Exits = &exits
	case FieldExit:
		dir, target, err := parseExit(value)
		if err != nil {
			return p, err
		}
		exits := current.Clone().Set(dir, target)
		p.Exits = &exits
	case FieldNoExit:
		dir, ok := world.ParseDirection(value)
		if !ok {
			return p, fmt.Errorf("unknown direction %q", value)
		}
		exits := current.Clone().Set(dir, "")
		p.Exits = &exits
	default:
		return p, fmt.Errorf("unknown field %q (want one of %s)", field, strings.Join(Fields, ", "))
	}
	return p, nil
}

func parsePos(value string) (world.Position, error) {
	parts := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ' ' })
	if len(parts) != 2 {
		return world.Position{}, fmt.Errorf("pos wants two integers, got %q", value)
	}
	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return world.Position{}, fmt.Errorf("pos x: %w", err)
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return world.Position{}, fmt.Errorf("pos y: %w", err)
	}
	return world.Position{X: x, Y: y}, nil
}

func parseExit(value string) (world.Direction, string, error) {
	d, target, found := strings.Cut(value, ":")
	if !found {
		d, target, found = strings.Cut(value, " ")
	}
	target = strings.TrimSpace(target)
	if !found || target == "" {
		return "", "", fmt.Errorf("exit wants a direction and a room, got %q", value)
	}
	dir, ok := world.ParseDirection(d)
	if !ok {
		return "", "", fmt.Errorf("unknown direction %q", d)
	}
	return dir, target, nil
}

func parseExits(value string) (world.Exits, error) {
	exits := world.Exits{}
	if value == "" {
		return exits, nil
	}
	for _, part := range strings.Split(value, ",") {
		dir, target, err := parseExit(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		if _, dup := exits.Get(dir); dup {
			return nil, fmt.Errorf("duplicate exit %s", dir)
		}
		exits = exits.Set(dir, target)
	}
	return exits, nil
}
