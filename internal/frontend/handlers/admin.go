package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/whisperingwoods/woods/internal/admin"
	"github.com/whisperingwoods/woods/internal/game/command"
	"github.com/whisperingwoods/woods/internal/game/world"
)

const applyNote = "Changes apply to new games and after 'reset'."

func (s *session) editorCommand(ctx context.Context, cmd *command.Command, pr command.ParseResult) {
	switch cmd.Handler {
	case command.HandlerLogin:
		s.login(ctx, pr.RawArgs)
		return
	case command.HandlerLogout:
		s.gate.Logout()
		s.say("Editor locked.")
		return
	}
	if !s.gate.Authed() {
		s.fail("Log in first with 'login'.")
		return
	}

	switch cmd.Handler {
	case command.HandlerPasswd:
		s.passwd(ctx, pr.RawArgs)
	case command.HandlerRooms:
		s.say(RenderListing(admin.ListRooms(s.h.world.Base(), s.h.world.Overlay()), s.h.world.Effective().StartingRoom))
	case command.HandlerSetRoom:
		s.setRoom(ctx, pr)
	case command.HandlerUnsetRoom:
		s.unsetRoom(ctx, pr.Arg(0))
	case command.HandlerSetStart:
		s.setStart(ctx, pr.Arg(0))
	case command.HandlerExport:
		out, err := admin.ExportOverlay(s.h.world.Overlay())
		if err != nil {
			s.fail(err.Error())
			return
		}
		s.say(out)
	default:
		s.fail(fmt.Sprintf("Command %q is not available here.", cmd.Name))
	}
}

func (s *session) readSecret(arg, prompt string) (string, bool) {
	if pw := strings.TrimSpace(arg); pw != "" {
		return pw, true
	}
	if err := s.term.WritePrompt(prompt); err != nil {
		return "", false
	}
	pw, err := s.term.ReadPassword()
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(pw), true
}

func (s *session) login(ctx context.Context, arg string) {
	if s.gate.Authed() {
		s.say("Editor already unlocked.")
		return
	}
	first := !s.gate.HasPassword(ctx)
	prompt := "Password: "
	if first {
		prompt = "Choose an editor password: "
	}
	pw, ok := s.readSecret(arg, prompt)
	if !ok {
		return
	}
	if first {
		if err := s.gate.SetPassword(ctx, pw); err != nil {
			s.fail("Could not set password: " + err.Error())
			return
		}
		s.logger.Info("editor password set")
		s.say("Editor password set. Editor unlocked.")
		return
	}
	if err := s.gate.Login(ctx, pw); err != nil {
		if !errors.Is(err, admin.ErrInvalidCredentials) {
			s.logger.Warn("editor login", zap.Error(err))
		}
		s.fail("Invalid password.")
		return
	}
	s.logger.Info("editor unlocked")
	s.say("Editor unlocked. Type 'help' for editor commands.")
}

func (s *session) passwd(ctx context.Context, arg string) {
	pw, ok := s.readSecret(arg, "New editor password: ")
	if !ok {
		return
	}
	if err := s.gate.SetPassword(ctx, pw); err != nil {
		s.fail("Could not set password: " + err.Error())
		return
	}
	s.say("Editor password changed.")
}

// editOverlay runs fn over a copy of the current overlay and, if fn reports
// a change, persists it and publishes it as the effective content.
func (s *session) editOverlay(ctx context.Context, fn func(ov *world.Overlay) (string, error)) {
	s.h.editMu.Lock()
	defer s.h.editMu.Unlock()

	ov := s.h.world.Overlay()
	if ov == nil {
		ov = world.NewOverlay()
	}
	msg, err := fn(ov)
	if err != nil {
		s.fail(err.Error())
		return
	}
	if err := s.h.editor.Save(ctx, ov); err != nil {
		s.logger.Warn("saving overlay", zap.Error(err))
		s.fail("Could not save the overlay.")
		return
	}
	s.h.world.SetOverlay(ov)
	s.say(msg + " " + applyNote)
}

func (s *session) setRoom(ctx context.Context, pr command.ParseResult) {
	id, rest, _ := strings.Cut(pr.RawArgs, " ")
	field, value, _ := strings.Cut(strings.TrimSpace(rest), " ")
	if id == "" || field == "" {
		s.fail("Usage: setroom <id> <field> <value>  (fields: " + strings.Join(admin.Fields, ", ") + ")")
		return
	}
	s.editOverlay(ctx, func(ov *world.Overlay) (string, error) {
		patch, err := admin.ParseField(field, value, admin.CurrentExits(s.h.world.Base(), ov, id))
		if err != nil {
			return "", err
		}
		admin.UpsertRoom(ov, id, patch)
		return fmt.Sprintf("Room %s updated.", id), nil
	})
}

func (s *session) unsetRoom(ctx context.Context, id string) {
	if id == "" {
		s.fail("Usage: unsetroom <id>")
		return
	}
	s.editOverlay(ctx, func(ov *world.Overlay) (string, error) {
		if _, ok := ov.Rooms[id]; !ok {
			return "", fmt.Errorf("no overlay entry for %s", id)
		}
		admin.DeleteRoom(ov, id)
		return fmt.Sprintf("Overlay entry for %s removed.", id), nil
	})
}

func (s *session) setStart(ctx context.Context, id string) {
	if id == "" {
		s.fail("Usage: setstart <id|none>")
		return
	}
	s.editOverlay(ctx, func(ov *world.Overlay) (string, error) {
		if strings.EqualFold(id, "none") {
			ov.StartingRoom = ""
			return "Starting room override cleared.", nil
		}
		if _, ok := s.h.world.Base().Rooms[id]; !ok {
			return "", fmt.Errorf("starting room must be a base room, %s is not", id)
		}
		ov.StartingRoom = id
		return fmt.Sprintf("Starting room set to %s.", id), nil
	})
}
