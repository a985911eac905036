package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/zyedidia/generic/mapset"
	"go.uber.org/zap"

	"github.com/whisperingwoods/woods/internal/admin"
	"github.com/whisperingwoods/woods/internal/frontend/telnet"
	"github.com/whisperingwoods/woods/internal/game/command"
	"github.com/whisperingwoods/woods/internal/game/play"
	gamesession "github.com/whisperingwoods/woods/internal/game/session"
	"github.com/whisperingwoods/woods/internal/game/world"
	"github.com/whisperingwoods/woods/internal/storage"
)

// maxSlotLen caps the length of a save slot name.
const maxSlotLen = 32

// Handler serves player sessions. It implements telnet.SessionHandler and
// can run over any Terminal.
type Handler struct {
	world    *world.Manager
	open     storage.Opener
	ns       string
	editor   *admin.Editor
	registry *command.Registry
	leases   *gamesession.Manager
	logger   *zap.Logger

	// editMu serializes overlay read-modify-write cycles across sessions.
	editMu sync.Mutex
}

var _ telnet.SessionHandler = (*Handler)(nil)

// NewHandler creates a Handler. Save slots live under ns; the overlay and
// the editor password live at ns itself.
//
// Precondition: mgr, open and logger must be non-nil; ns must be non-empty.
func NewHandler(mgr *world.Manager, open storage.Opener, ns string, logger *zap.Logger) *Handler {
	return &Handler{
		world:    mgr,
		open:     open,
		ns:       ns,
		editor:   admin.NewEditor(open(ns), logger.Named("editor")),
		registry: command.DefaultRegistry(),
		leases:   gamesession.NewManager(),
		logger:   logger,
	}
}

// HandleSession implements telnet.SessionHandler.
func (h *Handler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	return h.Run(ctx, conn)
}

// SanitizeSlot reduces a player-typed save name to letters, digits, '-' and
// '_', at most maxSlotLen long.
func SanitizeSlot(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		if b.Len() >= maxSlotLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SlotNamespace returns the store namespace holding slot's save.
func SlotNamespace(ns, slot string) string {
	return storage.Scoped(ns, "player:"+slot)
}

// Run asks for a save slot, restores or starts that slot's game and runs the
// command loop until the player quits or input ends.
//
// Postcondition: Returns nil on quit or end of input, ctx.Err() on
// cancellation, or a wrapped terminal error.
func (h *Handler) Run(ctx context.Context, term Terminal) error {
	if err := term.WriteLine(styleTitle.Sprint(banner)); err != nil {
		return fmt.Errorf("writing banner: %w", err)
	}
	slot, err := h.claimSlot(term)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	defer h.releaseSlot(slot)

	s := h.newSession(ctx, term, slot)
	s.greet()
	for {
		if err := ctx.Err(); err != nil {
			s.say(styleWarn.Sprint("The woods fall silent. Goodbye."))
			return err
		}
		if err := term.WritePrompt(Prompt(s.st.CurrentRoom())); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}
		line, err := term.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}
		if s.dispatch(ctx, line) {
			return nil
		}
	}
}

// claimSlot prompts for a save name until one is free and leases it.
func (h *Handler) claimSlot(term Terminal) (string, error) {
	remote := "console"
	if ra, ok := term.(interface{ RemoteAddr() net.Addr }); ok {
		remote = ra.RemoteAddr().String()
	}
	for {
		if err := term.WritePrompt("Save name (blank for a new slot): "); err != nil {
			return "", fmt.Errorf("writing prompt: %w", err)
		}
		line, err := term.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", err
			}
			return "", fmt.Errorf("reading save name: %w", err)
		}
		slot := SanitizeSlot(line)
		if slot == "" {
			slot = uuid.NewString()
		}
		if _, err := h.leases.Claim(slot, remote); err != nil {
			if errors.Is(err, gamesession.ErrSlotInUse) {
				h.logger.Info("save slot busy", zap.String("slot", slot), zap.String("remote", remote))
				if err := term.WriteLine(RenderError("That save is being played elsewhere. Choose another name.")); err != nil {
					return "", fmt.Errorf("writing error: %w", err)
				}
				continue
			}
			return "", err
		}
		h.logger.Debug("save slot claimed", zap.String("slot", slot), zap.Int("active", h.leases.Count()))
		return slot, nil
	}
}

func (h *Handler) releaseSlot(slot string) {
	if err := h.leases.Release(slot); err != nil {
		h.logger.Warn("releasing save slot", zap.String("slot", slot), zap.Error(err))
		return
	}
	h.logger.Info("session ended", zap.String("slot", slot), zap.Int("active", h.leases.Count()))
}

// ActiveSlots lists the save slots currently being played.
func (h *Handler) ActiveSlots() []string {
	return h.leases.Slots()
}

type session struct {
	h      *Handler
	term   Terminal
	slot   string
	engine *play.Engine
	st     *play.GameState
	gate   *admin.Gate
	end    play.Outcome
	path   mapset.Set[string]
	logger *zap.Logger
}

func (h *Handler) newSession(ctx context.Context, term Terminal, slot string) *session {
	logger := h.logger.With(zap.String("slot", slot))
	engine := play.NewEngine(h.world.Effective(), h.open(SlotNamespace(h.ns, slot)), logger)
	st := engine.Load(ctx)
	logger.Info("session started", zap.String("room", st.Current), zap.Int("items", len(st.Inventory)))
	return &session{
		h:      h,
		term:   term,
		slot:   slot,
		engine: engine,
		st:     st,
		gate:   admin.NewGate(h.open(h.ns)),
		end:    engine.Outcome(st),
		logger: logger,
	}
}

func (s *session) say(text string) {
	_ = s.term.WriteLine(text)
}

func (s *session) fail(text string) {
	s.say(RenderError(text))
}

func (s *session) greet() {
	s.say("Save slot: " + styleItem.Sprint(s.slot))
	for _, l := range s.st.RecentLog(1) {
		s.say(l)
	}
	s.look()
	if s.end != play.OutcomeNone {
		s.say(RenderEndgame(s.end))
	}
}

func (s *session) look() {
	room := s.st.CurrentRoom()
	s.say(RenderRoom(room, s.engine.AvailableExits(s.st), s.engine.Warning(s.st)))
	s.say(fmt.Sprintf("You are in %s.", room.Name))
}

// dispatch runs one input line and reports whether the player quit.
func (s *session) dispatch(ctx context.Context, line string) bool {
	cmd, pr, ok := s.h.registry.Lookup(line)
	if pr.Command == "" {
		return false
	}
	if !ok {
		s.fail(fmt.Sprintf("Unknown command %q. Type 'help' for a list.", pr.Command))
		return false
	}
	if s.end != play.OutcomeNone && (cmd.Handler == command.HandlerMove || cmd.Handler == command.HandlerGet) {
		s.fail("The game is over. Type 'reset' to play again.")
		return false
	}

	switch cmd.Handler {
	case command.HandlerMove:
		dir, _ := command.MovementDirection(cmd.Name)
		s.move(ctx, dir)
	case command.HandlerLook:
		s.look()
	case command.HandlerExits:
		s.say(styleExit.Sprint(ExitSummary(s.engine.AvailableExits(s.st))))
	case command.HandlerMap:
		s.say(RenderMap(s.st.Rooms, s.st.Current, s.st.Visited, s.path))
	case command.HandlerInventory:
		s.say(RenderInventory(s.st.Inventory, s.engine.Content().RequiredItems))
	case command.HandlerGet:
		s.get(ctx)
	case command.HandlerPath:
		s.findPath(pr.RawArgs)
	case command.HandlerNearest:
		s.nearest()
	case command.HandlerNeighbors:
		s.neighbors()
	case command.HandlerReachable:
		s.reachable()
	case command.HandlerWithin:
		s.within(pr.Arg(0))
	case command.HandlerReset:
		s.reset(ctx)
	case command.HandlerHelp:
		s.say(RenderHelp(s.h.registry, s.gate.Authed()))
	case command.HandlerQuit:
		s.say("The trees whisper farewell.")
		s.logger.Info("session quit")
		return true
	default:
		s.editorCommand(ctx, cmd, pr)
	}
	return false
}

func (s *session) move(ctx context.Context, dir world.Direction) {
	res := s.engine.Move(ctx, s.st, dir)
	if !res.OK {
		s.fail(res.Message)
		return
	}
	s.path = mapset.Set[string]{}
	s.look()
	if res.End != play.OutcomeNone {
		s.end = res.End
		s.say(s.st.Log[len(s.st.Log)-1])
		s.say(RenderEndgame(res.End))
	}
}

func (s *session) get(ctx context.Context) {
	res := s.engine.GetItem(ctx, s.st)
	if !res.OK {
		s.fail(res.Message)
		return
	}
	s.say(fmt.Sprintf("Placed %s into your backpack.", styleItem.Sprint(string(res.Item))))
}

func (s *session) findPath(target string) {
	target = strings.TrimSpace(target)
	if target == "" {
		s.fail("Usage: path <room>")
		return
	}
	p, ok := s.engine.FindPath(s.st, target)
	if !ok {
		s.fail(fmt.Sprintf("No path to %s.", target))
		return
	}
	s.highlight([][]string{p})
	s.say("Path: " + strings.Join(p, " -> "))
}

func (s *session) nearest() {
	paths := s.engine.NearestItemPaths(s.st)
	if len(paths) == 0 {
		s.path = mapset.Set[string]{}
		s.say("No nearby items found.")
		return
	}
	s.highlight(paths)
	targets := make([]string, 0, len(paths))
	for _, p := range paths {
		targets = append(targets, p[len(p)-1])
	}
	s.say("Highlighted path(s) to nearest item(s): " + strings.Join(targets, ", "))
}

func (s *session) highlight(paths [][]string) {
	s.path = mapset.New[string]()
	for _, p := range paths {
		for _, id := range p {
			s.path.Put(id)
		}
	}
}

func (s *session) neighbors() {
	nb := s.engine.Neighbors(s.st)
	if len(nb) == 0 {
		s.say("No immediate neighbors found.")
		return
	}
	s.say("Immediate neighbors: " + strings.Join(nb, ", "))
}

func (s *session) reachable() {
	s.say("Reachable rooms: " + strings.Join(s.engine.ReachableRooms(s.st), ", "))
}

func (s *session) within(arg string) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 1 {
		s.fail("Invalid depth. Please enter a positive integer.")
		return
	}
	ids := SortedIDs(s.engine.ReachableWithin(s.st, n))
	if len(ids) == 0 {
		s.say(fmt.Sprintf("No rooms within %d step(s).", n))
		return
	}
	s.say(fmt.Sprintf("Reachable within %d step(s): %s", n, strings.Join(ids, ", ")))
}

func (s *session) reset(ctx context.Context) {
	if s.end == play.OutcomeNone {
		if err := s.term.WritePrompt("Reset the game? This will clear your progress. (y/N) "); err != nil {
			return
		}
		answer, err := s.term.ReadLine()
		if err != nil {
			return
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
		default:
			s.say("Reset cancelled.")
			return
		}
	}
	s.engine = s.engine.WithContent(s.h.world.Effective())
	s.engine.Reset(ctx, s.st)
	s.end = play.OutcomeNone
	s.path = mapset.Set[string]{}
	s.logger.Info("game reset")
	s.say(play.ResetMessage)
	s.look()
}
