package admin_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whisperingwoods/woods/internal/admin"
	"github.com/whisperingwoods/woods/internal/game/world"
)

func TestParseField(t *testing.T) {
	current := world.Exits{{Direction: world.North, TargetRoom: "b"}, {Direction: world.East, TargetRoom: "c"}}

	t.Run("name", func(t *testing.T) {
		p, err := admin.ParseField("NAME", "  The Old Grove ", current)
		require.NoError(t, err)
		assert.Equal(t, "The Old Grove", *p.Name)
		assert.Nil(t, p.Exits)
	})
	t.Run("blank name", func(t *testing.T) {
		_, err := admin.ParseField("name", " ", current)
		assert.Error(t, err)
	})
	t.Run("desc may be empty", func(t *testing.T) {
		p, err := admin.ParseField("desc", "", current)
		require.NoError(t, err)
		assert.Equal(t, "", *p.Desc)
	})
	t.Run("item clears with none", func(t *testing.T) {
		p, err := admin.ParseField("item", "None", current)
		require.NoError(t, err)
		assert.Equal(t, world.Item(""), *p.Item)
	})
	t.Run("item", func(t *testing.T) {
		p, err := admin.ParseField("item", "Silver Axe", current)
		require.NoError(t, err)
		assert.Equal(t, world.Item("Silver Axe"), *p.Item)
	})
	t.Run("pos", func(t *testing.T) {
		for _, v := range []string{"3,-2", "3 -2", " 3, -2 "} {
			p, err := admin.ParseField("pos", v, current)
			require.NoError(t, err, v)
			assert.Equal(t, world.Position{X: 3, Y: -2}, *p.Pos)
		}
		_, err := admin.ParseField("pos", "3", current)
		assert.Error(t, err)
		_, err = admin.ParseField("pos", "a,b", current)
		assert.Error(t, err)
	})
	t.Run("exits replaces", func(t *testing.T) {
		p, err := admin.ParseField("exits", "south:a, W:d", current)
		require.NoError(t, err)
		assert.Equal(t, world.Exits{
			{Direction: world.South, TargetRoom: "a"},
			{Direction: world.West, TargetRoom: "d"},
			{Direction: world.North},
			{Direction: world.East},
		}, *p.Exits)
		assert.Equal(t, world.Exits{{Direction: world.South, TargetRoom: "a"}, {Direction: world.West, TargetRoom: "d"}}, p.Exits.Live())

		p, err = admin.ParseField("exits", "", current)
		require.NoError(t, err)
		assert.Equal(t, world.Exits{{Direction: world.North}, {Direction: world.East}}, *p.Exits)
		assert.Empty(t, p.Exits.Live())

		p, err = admin.ParseField("exits", "east:q", current)
		require.NoError(t, err)
		assert.Equal(t, world.Exits{{Direction: world.East, TargetRoom: "q"}, {Direction: world.North}}, *p.Exits)

		_, err = admin.ParseField("exits", "North:a,n:b", current)
		assert.Error(t, err)
		_, err = admin.ParseField("exits", "Up:a", current)
		assert.Error(t, err)
	})
	t.Run("exit edits current", func(t *testing.T) {
		p, err := admin.ParseField("exit", "west z", current)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c", "z"}, p.Exits.Targets())

		p, err = admin.ParseField("exit", "North:y", current)
		require.NoError(t, err)
		assert.Equal(t, []string{"y", "c"}, p.Exits.Targets())
		assert.Equal(t, "b", current[0].TargetRoom, "current untouched")

		_, err = admin.ParseField("exit", "North", current)
		assert.Error(t, err)
	})
	t.Run("noexit", func(t *testing.T) {
		p, err := admin.ParseField("noexit", "e", current)
		require.NoError(t, err)
		assert.Equal(t, world.Exits{{Direction: world.North, TargetRoom: "b"}, {Direction: world.East}}, *p.Exits)
		assert.Equal(t, "c", current[1].TargetRoom, "current untouched")
		_, err = admin.ParseField("noexit", "sideways", current)
		assert.Error(t, err)
	})
	t.Run("unknown field", func(t *testing.T) {
		_, err := admin.ParseField("color", "red", current)
		assert.Error(t, err)
	})
}

func TestCurrentExits(t *testing.T) {
	base := baseContent()
	ov := world.NewOverlay()
	assert.Equal(t, base.Rooms["a"].Exits, admin.CurrentExits(base, ov, "a"))
	assert.Empty(t, admin.CurrentExits(base, ov, "nowhere"))

	exits := world.Exits{{Direction: world.West, TargetRoom: "q"}}
	admin.UpsertRoom(ov, "a", world.RoomPatch{Exits: &exits})
	assert.Equal(t, world.Exits{{Direction: world.North, TargetRoom: "b"}, {Direction: world.West, TargetRoom: "q"}},
		admin.CurrentExits(base, ov, "a"), "patch is laid over the base exits")

	marked := world.Exits{{Direction: world.North}}
	admin.UpsertRoom(ov, "a", world.RoomPatch{Exits: &marked})
	assert.Equal(t, world.Exits{{Direction: world.North}}, admin.CurrentExits(base, ov, "a"), "markers are kept")

	admin.UpsertRoom(ov, "b", world.RoomPatch{Name: strp("Renamed")})
	assert.Equal(t, base.Rooms["b"].Exits, admin.CurrentExits(base, nil, "b"))
	assert.Equal(t, base.Rooms["b"].Exits, admin.CurrentExits(base, ov, "b"))

	newExits := world.Exits{{Direction: world.West, TargetRoom: "a"}}
	admin.UpsertRoom(ov, "n", world.RoomPatch{Name: strp("New"), Exits: &newExits})
	assert.Equal(t, newExits, admin.CurrentExits(base, ov, "n"))
}

// Exit edits made through the editor must show up in the effective graph
// and in the editor's own preview alike.
func TestParseField_RemovalsReachEffectiveGraph(t *testing.T) {
	base := baseContent()
	base.Rooms["a"].Exits = world.Exits{{Direction: world.North, TargetRoom: "b"}, {Direction: world.East, TargetRoom: "b"}}

	edit := func(t *testing.T, ov *world.Overlay, field, value string) {
		t.Helper()
		p, err := admin.ParseField(field, value, admin.CurrentExits(base, ov, "a"))
		require.NoError(t, err)
		admin.UpsertRoom(ov, "a", p)
	}
	previewOf := func(ov *world.Overlay) world.Exits {
		for _, l := range admin.ListRooms(base, ov) {
			if l.ID == "a" {
				return l.Room.Exits
			}
		}
		return nil
	}

	t.Run("noexit", func(t *testing.T) {
		ov := world.NewOverlay()
		edit(t, ov, "noexit", "North")
		got := world.ApplyOverlay(base, ov)
		assert.Equal(t, world.Exits{{Direction: world.East, TargetRoom: "b"}}, got.Rooms["a"].Exits)
		assert.Equal(t, got.Rooms["a"].Exits, previewOf(ov))
	})
	t.Run("exits cleared", func(t *testing.T) {
		ov := world.NewOverlay()
		edit(t, ov, "exits", "")
		got := world.ApplyOverlay(base, ov)
		assert.Empty(t, got.Rooms["a"].Exits)
		assert.Empty(t, previewOf(ov))
	})
	t.Run("exits replaced", func(t *testing.T) {
		ov := world.NewOverlay()
		edit(t, ov, "exits", "South:b")
		got := world.ApplyOverlay(base, ov)
		assert.Equal(t, world.Exits{{Direction: world.South, TargetRoom: "b"}}, got.Rooms["a"].Exits)
	})
	t.Run("removal then re-add", func(t *testing.T) {
		ov := world.NewOverlay()
		edit(t, ov, "noexit", "North")
		edit(t, ov, "exit", "North:b")
		got := world.ApplyOverlay(base, ov)
		assert.ElementsMatch(t, []string{"b", "b"}, got.Rooms["a"].Exits.Targets())
		_, ok := got.Rooms["a"].Exits.Get(world.North)
		assert.True(t, ok)
	})
	t.Run("survives a storage round trip", func(t *testing.T) {
		ov := world.NewOverlay()
		edit(t, ov, "noexit", "East")
		data, err := json.Marshal(ov)
		require.NoError(t, err)
		back := world.ParseOverlay(data)
		require.NotNil(t, back)
		got := world.ApplyOverlay(base, back)
		assert.Equal(t, world.Exits{{Direction: world.North, TargetRoom: "b"}}, got.Rooms["a"].Exits)
	})
}
