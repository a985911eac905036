package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDirection_IsStandard(t *testing.T) {
	for _, d := range StandardDirections {
		assert.True(t, d.IsStandard(), "expected %q to be standard", d)
	}
	assert.False(t, Direction("north").IsStandard())
	assert.False(t, Direction("Up").IsStandard())
}

func TestDirection_Opposite(t *testing.T) {
	assert.Equal(t, South, North.Opposite())
	assert.Equal(t, North, South.Opposite())
	assert.Equal(t, West, East.Opposite())
	assert.Equal(t, East, West.Opposite())
	assert.Equal(t, Direction(""), Direction("Up").Opposite())
}

func TestPropertyOppositeIsInvolution(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := rapid.SampledFrom(StandardDirections).Draw(t, "dir")
		assert.Equal(t, d, d.Opposite().Opposite())
	})
}

func TestParseDirection(t *testing.T) {
	cases := map[string]Direction{
		"North": North, "north": North, "N": North, " n ": North,
		"south": South, "s": South,
		"EAST": East, "e": East,
		"west": West, "w": West,
	}
	for in, want := range cases {
		got, ok := ParseDirection(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseDirection("up")
	assert.False(t, ok)
	_, ok = ParseDirection("")
	assert.False(t, ok)
}

func TestExits_SetReplacesInPlace(t *testing.T) {
	e := Exits{{North, "a"}, {East, "b"}}
	e = e.Set(North, "c")
	e = e.Set(West, "d")

	assert.Equal(t, []Direction{North, East, West}, e.Directions())
	assert.Equal(t, []string{"c", "b", "d"}, e.Targets())

	target, ok := e.Get(West)
	assert.True(t, ok)
	assert.Equal(t, "d", target)
	_, ok = e.Get(South)
	assert.False(t, ok)
}

func TestExits_MergeDoesNotModifyInputs(t *testing.T) {
	base := Exits{{South, "Z"}}
	patch := Exits{{North, "Y"}, {South, "Q"}}

	merged := base.Merge(patch)

	assert.Equal(t, Exits{{South, "Q"}, {North, "Y"}}, merged)
	assert.Equal(t, Exits{{South, "Z"}}, base)
	assert.Equal(t, Exits{{North, "Y"}, {South, "Q"}}, patch)
}

func TestExits_MergeRemovesMarkedDirections(t *testing.T) {
	base := Exits{{North, "a"}, {East, "b"}}
	merged := base.Merge(Exits{{North, ""}, {West, "c"}, {South, ""}})

	assert.Equal(t, Exits{{East, "b"}, {West, "c"}}, merged)
	assert.Equal(t, Exits{{North, "a"}, {East, "b"}}, base)
}

func TestExits_Live(t *testing.T) {
	e := Exits{{North, ""}, {East, "b"}}
	assert.Equal(t, Exits{{East, "b"}}, e.Live())
	assert.Len(t, e, 2)
	require.NotNil(t, Exits(nil).Live())
}

func TestExits_Without(t *testing.T) {
	e := Exits{{North, "a"}, {East, "b"}, {West, "c"}}
	out := e.Without(East)
	assert.Equal(t, Exits{{North, "a"}, {West, "c"}}, out)
	assert.Len(t, e, 3)
	assert.Equal(t, e, e.Without(South))
}

func TestExits_CloneOfNilIsEmpty(t *testing.T) {
	var e Exits
	c := e.Clone()
	require.NotNil(t, c)
	assert.Empty(t, c)
}

func TestRoom_CloneIsIndependent(t *testing.T) {
	r := &Room{ID: "a", Item: "Cloak", Exits: Exits{{North, "b"}}}
	c := r.Clone()
	c.Item = ""
	c.Exits[0].TargetRoom = "z"

	assert.Equal(t, Item("Cloak"), r.Item)
	assert.Equal(t, "b", r.Exits[0].TargetRoom)
	assert.Nil(t, (*Room)(nil).Clone())
}

func TestRoom_HasItem(t *testing.T) {
	assert.True(t, (&Room{Item: "Cloak"}).HasItem())
	assert.False(t, (&Room{}).HasItem())
	assert.False(t, (*Room)(nil).HasItem())
}

func TestGraph_IDsSorted(t *testing.T) {
	g := Graph{"c": {ID: "c"}, "a": {ID: "a"}, "b": {ID: "b"}}
	assert.Equal(t, []string{"a", "b", "c"}, g.IDs())
}

func validTestContent() *Content {
	return &Content{
		StartingRoom:  "A",
		RequiredItems: DefaultRequiredItems,
		Rooms: Graph{
			"A": {ID: "A", Name: "Room A", Exits: Exits{{North, "B"}}},
			"B": {ID: "B", Name: "Room B", Exits: Exits{{North, "C"}, {South, "A"}}},
			"C": {ID: "C", Name: "Room C", Item: "Cloak", Exits: Exits{}},
		},
	}
}

func TestContent_Validate_Valid(t *testing.T) {
	assert.NoError(t, validTestContent().Validate())
}

func TestContent_Validate_DanglingExitAllowed(t *testing.T) {
	c := validTestContent()
	c.Rooms["C"].Exits = Exits{{East, "nowhere"}}
	assert.NoError(t, c.Validate())
}

func TestContent_Validate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Content)
		errMsg string
	}{
		{"no rooms", func(c *Content) { c.Rooms = Graph{} }, "at least one room"},
		{"empty start", func(c *Content) { c.StartingRoom = "" }, "startingRoom must not be empty"},
		{"unknown start", func(c *Content) { c.StartingRoom = "Q" }, "not found"},
		{"negative items", func(c *Content) { c.RequiredItems = -1 }, "requiredItems"},
		{"key mismatch", func(c *Content) { c.Rooms["A"].ID = "X" }, "does not match"},
		{"bad direction", func(c *Content) { c.Rooms["A"].Exits = Exits{{"Up", "B"}} }, "unknown direction"},
		{"duplicate direction", func(c *Content) {
			c.Rooms["A"].Exits = Exits{{North, "B"}, {North, "C"}}
		}, "duplicate exit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validTestContent()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestContent_CloneIsDeep(t *testing.T) {
	c := validTestContent()
	cp := c.Clone()
	cp.Rooms["C"].Item = ""
	cp.StartingRoom = "B"

	assert.Equal(t, Item("Cloak"), c.Rooms["C"].Item)
	assert.Equal(t, "A", c.StartingRoom)
}

func TestContent_WithRules(t *testing.T) {
	c := validTestContent()
	c.ConfrontationRoom = "C"
	c.RequiredItems = 6

	kept := c.WithRules("", 0)
	assert.Equal(t, "C", kept.ConfrontationRoom)
	assert.Equal(t, 6, kept.RequiredItems)

	over := c.WithRules("B", 2)
	assert.Equal(t, "B", over.ConfrontationRoom)
	assert.Equal(t, 2, over.RequiredItems)
	assert.Equal(t, "C", c.ConfrontationRoom, "receiver must be untouched")
}
