package handlers

import (
	"context"
	"io"
	"regexp"
	"strings"
	"testing"

	"github.com/gookit/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/whisperingwoods/woods/internal/game/play"
	"github.com/whisperingwoods/woods/internal/game/world"
	"github.com/whisperingwoods/woods/internal/storage"
)

const testNS = "ww:test"

// scriptTerm feeds queued input lines and records everything written.
type scriptTerm struct {
	in  []string
	out strings.Builder
}

func (t *scriptTerm) ReadLine() (string, error) {
	if len(t.in) == 0 {
		return "", io.EOF
	}
	line := t.in[0]
	t.in = t.in[1:]
	return line, nil
}

func (t *scriptTerm) ReadPassword() (string, error) { return t.ReadLine() }

func (t *scriptTerm) WriteLine(text string) error {
	t.out.WriteString(text + "\n")
	return nil
}

func (t *scriptTerm) WritePrompt(text string) error {
	t.out.WriteString(text)
	return nil
}

func (t *scriptTerm) Output() string {
	return color.ClearCode(t.out.String())
}

func sessionContent() *world.Content {
	return &world.Content{
		StartingRoom:      "grove",
		ConfrontationRoom: "lair",
		RequiredItems:     2,
		Rooms: world.Graph{
			"grove": {ID: "grove", Name: "Whispering Grove", Desc: "Old trees lean close.", Item: "Silver Axe", Exits: world.Exits{
				{Direction: world.North, TargetRoom: "clearing"},
				{Direction: world.West, TargetRoom: "ghost"},
			}},
			"clearing": {ID: "clearing", Name: "Moonlight Clearing", Pos: world.Position{Y: 1}, Exits: world.Exits{
				{Direction: world.South, TargetRoom: "grove"},
				{Direction: world.East, TargetRoom: "hollow"},
				{Direction: world.North, TargetRoom: "lair"},
			}},
			"hollow": {ID: "hollow", Name: "Dusky Hollow", Pos: world.Position{X: 1, Y: 1}, Item: "Cloak", Exits: world.Exits{
				{Direction: world.West, TargetRoom: "clearing"},
			}},
			"lair": {ID: "lair", Name: "Shadow Hollow", Pos: world.Position{Y: 2}, Exits: world.Exits{
				{Direction: world.South, TargetRoom: "clearing"},
			}},
		},
	}
}

func newTestHandler(t *testing.T) (*Handler, *storage.MemoryStore) {
	t.Helper()
	mgr, err := world.NewManager(sessionContent())
	require.NoError(t, err)
	store := storage.NewMemoryStore(testNS)
	return NewHandler(mgr, store.Opener(), testNS, zaptest.NewLogger(t)), store
}

func run(t *testing.T, h *Handler, lines ...string) string {
	t.Helper()
	term := &scriptTerm{in: lines}
	require.NoError(t, h.Run(context.Background(), term))
	return term.Output()
}

func TestRun_BlankNameGetsGeneratedSlot(t *testing.T) {
	h, _ := newTestHandler(t)
	out := run(t, h, "", "quit")

	assert.Regexp(t, regexp.MustCompile(`Save slot: [0-9a-f-]{36}`), out)
	assert.Contains(t, out, play.WelcomeMessage)
	assert.Contains(t, out, "You are in Whispering Grove.")
	assert.Contains(t, out, "You see Silver Axe here.")
	assert.Contains(t, out, "Exits: North, West")
	assert.Contains(t, out, "[Whispering Grove]> ")
	assert.Contains(t, out, "farewell")
}

func TestRun_EndOfInputIsClean(t *testing.T) {
	h, _ := newTestHandler(t)
	out := run(t, h, "alice")
	assert.Contains(t, out, "You are in Whispering Grove.")

	out = run(t, h)
	assert.NotContains(t, out, "Save slot")
}

func TestRun_PlayAndResume(t *testing.T) {
	h, store := newTestHandler(t)
	out := run(t, h, "alice", "get", "get", "w", "n", "quit")

	assert.Contains(t, out, "Placed Silver Axe into your backpack.")
	assert.Contains(t, out, "No item in this room.")
	assert.Contains(t, out, "Cannot move West from here.")
	assert.Contains(t, out, "You are in Moonlight Clearing.")
	assert.Contains(t, out, play.WarningMessage)

	assert.Equal(t, []string{storage.KeySave}, store.Sub("player:alice").Keys())

	out = run(t, h, "alice", "inventory", "quit")
	assert.Contains(t, out, "Moved North to Moonlight Clearing.")
	assert.Contains(t, out, "You are in Moonlight Clearing.")
	assert.Contains(t, out, "Backpack (1/2):")
	assert.Contains(t, out, "Silver Axe")

	out = run(t, h, "bob", "inventory", "quit")
	assert.Contains(t, out, "Your backpack is empty.")
	assert.Contains(t, out, "You are in Whispering Grove.")
}

func TestRun_LoseThenReset(t *testing.T) {
	h, _ := newTestHandler(t)
	out := run(t, h, "carol", "n", "n", "n", "get", "reset", "look", "quit")

	assert.Contains(t, out, play.LoseMessage)
	assert.Contains(t, out, LoseTitle)
	assert.Contains(t, out, LoseBody)
	assert.Contains(t, out, "The game is over. Type 'reset' to play again.")
	assert.NotContains(t, out, "Reset the game?")
	assert.Contains(t, out, play.ResetMessage)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(cutAfter(out, play.ResetMessage)), "farewell."))
	assert.Contains(t, cutAfter(out, play.ResetMessage), "You are in Whispering Grove.")
}

func TestRun_EndedGameResumesEnded(t *testing.T) {
	h, _ := newTestHandler(t)
	run(t, h, "dave", "n", "n", "quit")

	out := run(t, h, "dave", "s", "quit")
	assert.Contains(t, out, LoseTitle)
	assert.Contains(t, out, "The game is over.")
}

func TestRun_Win(t *testing.T) {
	h, _ := newTestHandler(t)
	out := run(t, h, "erin", "get", "n", "e", "get", "w", "n", "quit")
	assert.Contains(t, out, play.WinMessage)
	assert.Contains(t, out, WinTitle)
	assert.Contains(t, out, WinBody)
}

func TestRun_ResetAsksFirst(t *testing.T) {
	h, _ := newTestHandler(t)
	out := run(t, h, "fay", "n", "reset", "no", "look", "reset", "yes", "quit")

	assert.Contains(t, out, "Reset the game? This will clear your progress. (y/N) ")
	assert.Contains(t, out, "Reset cancelled.")
	cancelled := cutAfter(out, "Reset cancelled.")
	assert.Contains(t, cancelled, "You are in Moonlight Clearing.")
	assert.Contains(t, cutAfter(cancelled, play.ResetMessage), "You are in Whispering Grove.")
}

func TestRun_NavigationCommands(t *testing.T) {
	h, _ := newTestHandler(t)
	out := run(t, h, "gus",
		"nearest", "neighbors", "within 1", "within x", "within 0",
		"path hollow", "path nowhere", "path", "reachable", "exits", "map", "bogus", "quit")

	assert.Contains(t, out, "Highlighted path(s) to nearest item(s): grove")
	assert.Contains(t, out, "Immediate neighbors: clearing, ghost")
	assert.Contains(t, out, "Reachable within 1 step(s): clearing, ghost")
	assert.Equal(t, 2, strings.Count(out, "Invalid depth. Please enter a positive integer."))
	assert.Contains(t, out, "Path: grove -> clearing -> hollow")
	assert.Contains(t, out, "No path to nowhere.")
	assert.Contains(t, out, "Usage: path <room>")
	assert.Contains(t, out, "Reachable rooms: grove, clearing, ghost, hollow, lair")
	assert.Contains(t, out, "@ you")
	assert.Contains(t, out, `Unknown command "bogus"`)
}

func TestRun_NearestSkipsOwnedItems(t *testing.T) {
	h, _ := newTestHandler(t)
	out := run(t, h, "hal", "get", "nearest", "n", "e", "get", "nearest", "quit")
	assert.Contains(t, out, "Highlighted path(s) to nearest item(s): hollow")
	assert.Contains(t, out, "No nearby items found.")
}

func TestRun_EditorFlow(t *testing.T) {
	h, store := newTestHandler(t)
	out := run(t, h, "ivy",
		"rooms",
		"login", "secret",
		"help",
		"setroom grove name Old Grove",
		"setroom grove exit east hollow",
		"setroom grove color red",
		"setroom grove",
		"setstart hollow",
		"setstart nowhere",
		"look",
		"export",
		"rooms",
		"reset", "y",
		"unsetroom grove",
		"unsetroom grove",
		"logout",
		"rooms",
		"quit",
	)

	assert.Contains(t, out, "Log in first with 'login'.")
	assert.Contains(t, out, "Choose an editor password: ")
	assert.Contains(t, out, "Editor password set. Editor unlocked.")
	assert.Contains(t, out, "setroom <id> <field> <value>")
	assert.Contains(t, out, "Room grove updated. "+applyNote)
	assert.Contains(t, out, `unknown field "color"`)
	assert.Contains(t, out, "Usage: setroom")
	assert.Contains(t, out, "Starting room set to hollow.")
	assert.Contains(t, out, "starting room must be a base room, nowhere is not")
	assert.Contains(t, out, `"name": "Old Grove"`)
	assert.Contains(t, out, `"startingRoom": "hollow"`)
	assert.Contains(t, out, "Exits: North, West, East")
	assert.Contains(t, out, "[edited]")
	assert.Contains(t, cutAfter(out, play.ResetMessage), "You are in Dusky Hollow.")
	assert.Contains(t, out, "Overlay entry for grove removed.")
	assert.Contains(t, out, "no overlay entry for grove")
	assert.Contains(t, out, "Editor locked.")
	assert.Equal(t, 2, strings.Count(out, "Log in first with 'login'."))

	edited := cutAfter(out, "Starting room set to hollow.")
	assert.Contains(t, cutBefore(edited, `"startingRoom"`), "You are in Whispering Grove.", "edits wait for reset")

	assert.ElementsMatch(t, []string{storage.KeyOverlay, storage.KeyPasswordHash}, rootKeys(store))
	ov := h.world.Overlay()
	require.NotNil(t, ov)
	assert.Equal(t, "hollow", ov.StartingRoom)
	assert.NotContains(t, ov.Rooms, "grove")

	out = run(t, h, "jo", "login wrong", "rooms", "login secret", "rooms", "quit")
	assert.Contains(t, out, "Invalid password.")
	assert.Contains(t, out, "Editor unlocked.")
	assert.Contains(t, out, "You are in Dusky Hollow.")
	assert.Contains(t, out, "[start]")
}

func TestRun_EditorRemovesExit(t *testing.T) {
	h, _ := newTestHandler(t)
	out := run(t, h, "kim",
		"login", "secret",
		"setroom grove noexit north",
		"reset", "y",
		"n",
		"quit",
	)

	assert.Contains(t, out, "Room grove updated.")
	afterReset := cutAfter(out, play.ResetMessage)
	assert.Contains(t, afterReset, "Exits: West")
	assert.NotContains(t, afterReset, "Exits: North")
	assert.Contains(t, afterReset, "Cannot move North from here.")

	_, ok := h.world.Effective().Rooms["grove"].Exits.Get(world.North)
	assert.False(t, ok)
}

func TestSanitizeSlot(t *testing.T) {
	tests := []struct{ in, want string }{
		{"alice", "alice"},
		{"  Bob_2-x ", "Bob_2-x"},
		{"ww:*[evil]", "wwevil"},
		{"élan", "lan"},
		{strings.Repeat("a", 40), strings.Repeat("a", maxSlotLen)},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeSlot(tt.in), tt.in)
	}
	assert.Equal(t, testNS+":player:alice", SlotNamespace(testNS, "alice"))
}

func rootKeys(s *storage.MemoryStore) []string {
	var out []string
	for _, k := range s.Keys() {
		if !strings.HasPrefix(k, "player:") {
			out = append(out, k)
		}
	}
	return out
}

func cutAfter(s, sep string) string {
	_, after, _ := strings.Cut(s, sep)
	return after
}

func cutBefore(s, sep string) string {
	before, _, _ := strings.Cut(s, sep)
	return before
}

func TestRun_BusySlotAsksAgain(t *testing.T) {
	h, _ := newTestHandler(t)
	_, err := h.leases.Claim("alice", "elsewhere")
	require.NoError(t, err)

	out := run(t, h, "alice", "bob", "quit")
	assert.Contains(t, out, "being played elsewhere")
	assert.Contains(t, out, "Save slot: bob")
	assert.NotContains(t, out, "Save slot: alice")
	assert.Equal(t, []string{"alice"}, h.ActiveSlots(), "bob's lease ends with the session")
}

func TestRun_SlotReleasedOnEndOfInput(t *testing.T) {
	h, _ := newTestHandler(t)
	run(t, h, "alice")
	assert.Empty(t, h.ActiveSlots())
	out := run(t, h, "alice", "quit")
	assert.NotContains(t, out, "being played elsewhere")
}
