package handlers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gookit/color"
	"github.com/muesli/reflow/wordwrap"
	"github.com/zyedidia/generic/mapset"

	"github.com/whisperingwoods/woods/internal/admin"
	"github.com/whisperingwoods/woods/internal/game/command"
	"github.com/whisperingwoods/woods/internal/game/play"
	"github.com/whisperingwoods/woods/internal/game/world"
)

// wrapWidth is the column descriptions are wrapped at.
const wrapWidth = 76

// maxMapCells bounds the overview grid so a far-flung pos cannot flood the client.
const maxMapCells = 4096

var (
	styleTitle  = color.Style{color.FgYellow, color.OpBold}
	styleDesc   = color.Style{color.FgWhite}
	styleExit   = color.Style{color.FgCyan}
	styleItem   = color.Style{color.FgGreen, color.OpBold}
	styleWarn   = color.Style{color.FgYellow}
	styleError  = color.Style{color.FgRed}
	styleSubtle = color.Style{color.FgGray}
	stylePlayer = color.Style{color.FgGreen, color.BgBlack, color.OpBold}
	stylePath   = color.Style{color.FgMagenta, color.OpBold}
	styleWin    = color.Style{color.FgGreen, color.OpBold}
	styleLose   = color.Style{color.FgRed, color.OpBold}
	stylePrompt = color.Style{color.FgCyan, color.OpBold}
)

// Endgame modal text.
const (
	WinTitle  = "You are victorious!"
	WinBody   = "With all six items, you fell Darkroot and restore balance to the Whispering Woods."
	LoseTitle = "Defeat… for now"
	LoseBody  = "Darkroot overwhelms you. Return stronger with all six items."
)

const banner = `
  The Whispering Woods
  ~~~~~~~~~~~~~~~~~~~~
  Six relics lie scattered beneath the old trees. Gather them all
  before you walk north into the lair of Darkroot.
`

// ExitSummary renders a room's exits as "Exits: North, East" or "No exits".
func ExitSummary(exits world.Exits) string {
	if len(exits) == 0 {
		return "No exits"
	}
	dirs := make([]string, 0, len(exits))
	for _, d := range exits.Directions() {
		dirs = append(dirs, string(d))
	}
	return "Exits: " + strings.Join(dirs, ", ")
}

// RenderRoom formats the current room header, description, exits, item and
// an optional warning.
func RenderRoom(room *world.Room, exits world.Exits, warning string) string {
	var b strings.Builder
	b.WriteString(styleTitle.Sprint(room.Name))
	b.WriteString("\n")
	if room.Desc != "" {
		b.WriteString(styleDesc.Sprint(wordwrap.String(room.Desc, wrapWidth)))
		b.WriteString("\n")
	}
	b.WriteString(styleExit.Sprint(ExitSummary(exits)))
	if room.HasItem() {
		b.WriteString("\n")
		b.WriteString("You see " + styleItem.Sprint(string(room.Item)) + " here.")
	}
	if warning != "" {
		b.WriteString("\n")
		b.WriteString(styleWarn.Sprint(warning))
	}
	return b.String()
}

// RenderInventory lists the backpack against the number of items required.
func RenderInventory(items []world.Item, required int) string {
	if len(items) == 0 {
		return styleSubtle.Sprint("Your backpack is empty.")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Backpack (%d/%d):", len(items), required)
	for _, it := range items {
		b.WriteString("\n  ")
		b.WriteString(styleItem.Sprint(string(it)))
	}
	return b.String()
}

// RenderMap draws the room grid from room positions, north at the top.
// Unvisited rooms show dimmed; rooms on path are marked.
func RenderMap(g world.Graph, current string, visited map[string]bool, path mapset.Set[string]) string {
	if len(g) == 0 {
		return styleSubtle.Sprint("No map available.")
	}
	type cell struct{ x, y int }
	byCoord := make(map[cell]string, len(g))
	first := true
	var minX, maxX, minY, maxY int
	for _, id := range g.IDs() {
		p := g[id].Pos
		if _, taken := byCoord[cell{p.X, p.Y}]; !taken {
			byCoord[cell{p.X, p.Y}] = id
		}
		if first {
			minX, maxX, minY, maxY = p.X, p.X, p.Y, p.Y
			first = false
			continue
		}
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	cols, rows := maxX-minX+1, maxY-minY+1
	if cols <= 0 || rows <= 0 || cols*rows > maxMapCells {
		return styleSubtle.Sprint("The map is too large to draw.")
	}

	var b strings.Builder
	for y := maxY; y >= minY; y-- {
		for x := minX; x <= maxX; x++ {
			id, ok := byCoord[cell{x, y}]
			switch {
			case !ok:
				b.WriteString("  ")
				continue
			case id == current:
				b.WriteString(stylePlayer.Sprint("@"))
			case path.Has(id):
				b.WriteString(stylePath.Sprint("*"))
			case visited[id]:
				b.WriteString(styleExit.Sprint("o"))
			default:
				b.WriteString(styleSubtle.Sprint("."))
			}
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}
	b.WriteString(styleSubtle.Sprint("@ you   o visited   . unexplored   * path"))
	return b.String()
}

// RenderEndgame formats the win or lose announcement.
func RenderEndgame(outcome play.Outcome) string {
	switch outcome {
	case play.OutcomeWin:
		return styleWin.Sprint(WinTitle) + "\n" + WinBody + "\n" + styleSubtle.Sprint("Type 'reset' to play again.")
	case play.OutcomeLose:
		return styleLose.Sprint(LoseTitle) + "\n" + LoseBody + "\n" + styleSubtle.Sprint("Type 'reset' to play again.")
	default:
		return ""
	}
}

// RenderHelp lists commands by category. Admin commands are listed only when showAdmin is set.
func RenderHelp(reg *command.Registry, showAdmin bool) string {
	groups := reg.CommandsByCategory()
	var b strings.Builder
	for _, cat := range command.CategoryOrder {
		if cat == command.CategoryAdmin && !showAdmin {
			continue
		}
		cmds := groups[cat]
		if len(cmds) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(styleTitle.Sprint(strings.ToUpper(cat[:1]) + cat[1:]))
		for _, c := range cmds {
			usage := c.Name
			if c.Usage != "" {
				usage += " " + c.Usage
			}
			if len(c.Aliases) > 0 {
				usage += " (" + strings.Join(c.Aliases, ", ") + ")"
			}
			fmt.Fprintf(&b, "\n  %-34s %s", usage, c.Help)
		}
	}
	if !showAdmin {
		b.WriteString("\n")
		b.WriteString(styleSubtle.Sprint("Type 'login' to unlock the room editor."))
	}
	return b.String()
}

// RenderListing formats the editor's room list, one room per line.
func RenderListing(list []admin.Listing, start string) string {
	if len(list) == 0 {
		return styleSubtle.Sprint("No rooms.")
	}
	var b strings.Builder
	for i, l := range list {
		if i > 0 {
			b.WriteString("\n")
		}
		var tags []string
		if l.ID == start {
			tags = append(tags, "start")
		}
		if !l.InBase {
			tags = append(tags, "new")
		} else if l.Patched {
			tags = append(tags, "edited")
		}
		line := fmt.Sprintf("%-20s %-22s (%d,%d) %s", l.ID, l.Room.Name, l.Room.Pos.X, l.Room.Pos.Y, ExitSummary(l.Room.Exits))
		if l.Room.HasItem() {
			line += " item=" + string(l.Room.Item)
		}
		if len(tags) > 0 {
			line += " [" + strings.Join(tags, ",") + "]"
		}
		b.WriteString(line)
	}
	return b.String()
}

// RenderError formats a failure message.
func RenderError(msg string) string {
	return styleError.Sprint(msg)
}

// Prompt returns the input prompt for a player standing in room.
func Prompt(room *world.Room) string {
	if room == nil {
		return stylePrompt.Sprint("> ")
	}
	return stylePrompt.Sprint("[" + room.Name + "]> ")
}

// SortedIDs returns the members of s in lexicographic order.
func SortedIDs(s mapset.Set[string]) []string {
	out := make([]string, 0, s.Size())
	s.Each(func(id string) { out = append(out, id) })
	sort.Strings(out)
	return out
}
