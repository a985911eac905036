// Package command provides the command registry, parser, and the built-in
// command set for the Whispering Woods frontends.
package command

import "github.com/whisperingwoods/woods/internal/game/world"

// Categories for organizing commands.
const (
	CategoryMovement   = "movement"
	CategoryWorld      = "world"
	CategoryNavigation = "navigation"
	CategorySystem     = "system"
	CategoryAdmin      = "admin"
)

// CategoryOrder is the order categories are listed in help output.
var CategoryOrder = []string{CategoryMovement, CategoryWorld, CategoryNavigation, CategorySystem, CategoryAdmin}

// Handler identifiers mapping commands to session handlers.
const (
	HandlerMove      = "move"
	HandlerLook      = "look"
	HandlerExits     = "exits"
	HandlerMap       = "map"
	HandlerInventory = "inventory"
	HandlerGet       = "get"
	HandlerPath      = "path"
	HandlerNearest   = "nearest"
	HandlerNeighbors = "neighbors"
	HandlerReachable = "reachable"
	HandlerWithin    = "within"
	HandlerReset     = "reset"
	HandlerHelp      = "help"
	HandlerQuit      = "quit"
	HandlerLogin     = "login"
	HandlerLogout    = "logout"
	HandlerPasswd    = "passwd"
	HandlerRooms     = "rooms"
	HandlerSetRoom   = "setroom"
	HandlerUnsetRoom = "unsetroom"
	HandlerSetStart  = "setstart"
	HandlerExport    = "export"
)

// Command defines a player-invocable command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Usage shows the argument form, if any.
	Usage string
	// Help is the short help text displayed to players.
	Help string
	// Category groups the command for help output.
	Category string
	// Handler names the session handler that runs the command.
	Handler string
}

// BuiltinCommands returns all built-in commands.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "north", Aliases: []string{"n"}, Help: "Move north", Category: CategoryMovement, Handler: HandlerMove},
		{Name: "south", Aliases: []string{"s"}, Help: "Move south", Category: CategoryMovement, Handler: HandlerMove},
		{Name: "east", Aliases: []string{"e"}, Help: "Move east", Category: CategoryMovement, Handler: HandlerMove},
		{Name: "west", Aliases: []string{"w"}, Help: "Move west", Category: CategoryMovement, Handler: HandlerMove},

		{Name: "look", Aliases: []string{"l"}, Help: "Describe the current room", Category: CategoryWorld, Handler: HandlerLook},
		{Name: "exits", Aliases: []string{"x"}, Help: "List available exits", Category: CategoryWorld, Handler: HandlerExits},
		{Name: "map", Aliases: []string{"m"}, Help: "Show the overview map", Category: CategoryWorld, Handler: HandlerMap},
		{Name: "inventory", Aliases: []string{"inv", "i"}, Help: "Show your backpack", Category: CategoryWorld, Handler: HandlerInventory},
		{Name: "get", Aliases: []string{"take"}, Help: "Pick up the item in this room", Category: CategoryWorld, Handler: HandlerGet},

		{Name: "path", Aliases: []string{"route"}, Usage: "<room>", Help: "Show the shortest path to a room", Category: CategoryNavigation, Handler: HandlerPath},
		{Name: "nearest", Aliases: []string{"hint"}, Help: "Show paths to the nearest items you lack", Category: CategoryNavigation, Handler: HandlerNearest},
		{Name: "neighbors", Aliases: []string{"adj"}, Help: "List rooms one step away", Category: CategoryNavigation, Handler: HandlerNeighbors},
		{Name: "reachable", Help: "List every room you can reach", Category: CategoryNavigation, Handler: HandlerReachable},
		{Name: "within", Usage: "<steps>", Help: "List rooms within a number of steps", Category: CategoryNavigation, Handler: HandlerWithin},

		{Name: "reset", Help: "Start a new game", Category: CategorySystem, Handler: HandlerReset},
		{Name: "help", Aliases: []string{"?"}, Help: "Show available commands", Category: CategorySystem, Handler: HandlerHelp},
		{Name: "quit", Aliases: []string{"exit", "q"}, Help: "Leave the woods", Category: CategorySystem, Handler: HandlerQuit},

		{Name: "login", Usage: "<password>", Help: "Unlock the room editor (sets the password on first use)", Category: CategoryAdmin, Handler: HandlerLogin},
		{Name: "logout", Help: "Lock the room editor", Category: CategoryAdmin, Handler: HandlerLogout},
		{Name: "passwd", Usage: "<password>", Help: "Change the editor password", Category: CategoryAdmin, Handler: HandlerPasswd},
		{Name: "rooms", Help: "List rooms with overlay edits applied", Category: CategoryAdmin, Handler: HandlerRooms},
		{Name: "setroom", Usage: "<id> <field> <value>", Help: "Patch one room field (name, desc, item, pos, exits, exit, noexit)", Category: CategoryAdmin, Handler: HandlerSetRoom},
		{Name: "unsetroom", Usage: "<id>", Help: "Drop a room's overlay patch", Category: CategoryAdmin, Handler: HandlerUnsetRoom},
		{Name: "setstart", Usage: "<id>", Help: "Override the starting room", Category: CategoryAdmin, Handler: HandlerSetStart},
		{Name: "export", Help: "Print the overlay as JSON", Category: CategoryAdmin, Handler: HandlerExport},
	}
}

// IsMovementCommand reports whether the command name is a movement direction.
func IsMovementCommand(name string) bool {
	_, ok := MovementDirection(name)
	return ok
}

// MovementDirection maps a movement command name or alias to its direction.
func MovementDirection(name string) (world.Direction, bool) {
	return world.ParseDirection(name)
}
