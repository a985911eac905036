package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/whisperingwoods/woods/internal/admin"
	"github.com/whisperingwoods/woods/internal/frontend/handlers"
	"github.com/whisperingwoods/woods/internal/game/world"
)

const usage = `usage: overlay [flags] <command> [args]

commands:
  list                      list base and overlay rooms
  set <id> field=value...   patch room fields (name, desc, item, pos, exits, exit, noexit)
  delete <id>               remove a room's overlay entry
  start <id|none>           override or clear the starting room
  export                    print the overlay as JSON
  import <file>             replace the overlay with a JSON document
  clear                     remove the overlay
  passwd [new]              set the editor password`

// errUsage reports a malformed command line.
var errUsage = errors.New("invalid arguments")

// tool runs one overlay command against a store.
type tool struct {
	base   *world.Content
	editor *admin.Editor
	gate   *admin.Gate
	out    io.Writer
	// secret reads a password after showing prompt.
	secret func(prompt string) (string, error)
}

// run dispatches args[0].
//
// Postcondition: Mutating commands persist the overlay before returning nil.
func (t *tool) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "list":
		return t.list(ctx)
	case "export":
		return t.export(ctx)
	case "set":
		if len(rest) < 2 {
			return fmt.Errorf("%w: set <id> field=value...", errUsage)
		}
		return t.edit(ctx, func(ov *world.Overlay) (string, error) { return t.set(ov, rest[0], rest[1:]) })
	case "delete":
		if len(rest) != 1 {
			return fmt.Errorf("%w: delete <id>", errUsage)
		}
		id := rest[0]
		return t.edit(ctx, func(ov *world.Overlay) (string, error) {
			if _, ok := ov.Rooms[id]; !ok {
				return "", fmt.Errorf("no overlay entry for %s", id)
			}
			admin.DeleteRoom(ov, id)
			return "deleted " + id, nil
		})
	case "start":
		if len(rest) != 1 {
			return fmt.Errorf("%w: start <id|none>", errUsage)
		}
		return t.edit(ctx, func(ov *world.Overlay) (string, error) { return t.start(ov, rest[0]) })
	case "import":
		if len(rest) != 1 {
			return fmt.Errorf("%w: import <file>", errUsage)
		}
		return t.importFile(ctx, rest[0])
	case "clear":
		if err := t.authorize(ctx); err != nil {
			return err
		}
		if err := t.editor.Clear(ctx); err != nil {
			return err
		}
		fmt.Fprintln(t.out, "overlay cleared")
		return nil
	case "passwd":
		if len(rest) > 1 {
			return fmt.Errorf("%w: passwd [new]", errUsage)
		}
		return t.passwd(ctx, rest)
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
}

func (t *tool) list(ctx context.Context) error {
	ov := t.editor.Load(ctx)
	start := t.base.StartingRoom
	if ov != nil && ov.StartingRoom != "" {
		start = ov.StartingRoom
	}
	fmt.Fprintln(t.out, handlers.RenderListing(admin.ListRooms(t.base, ov), start))
	return nil
}

func (t *tool) export(ctx context.Context) error {
	doc, err := admin.ExportOverlay(t.editor.Load(ctx))
	if err != nil {
		return err
	}
	fmt.Fprintln(t.out, doc)
	return nil
}

// edit authorizes, applies fn to a copy of the stored overlay and saves it.
func (t *tool) edit(ctx context.Context, fn func(ov *world.Overlay) (string, error)) error {
	if err := t.authorize(ctx); err != nil {
		return err
	}
	ov := t.editor.Load(ctx)
	if ov == nil {
		ov = world.NewOverlay()
	}
	msg, err := fn(ov)
	if err != nil {
		return err
	}
	if err := t.editor.Save(ctx, ov); err != nil {
		return err
	}
	fmt.Fprintln(t.out, msg)
	return nil
}

// set applies each field=value in order so later exit edits see earlier ones.
func (t *tool) set(ov *world.Overlay, id string, assignments []string) (string, error) {
	var fields []string
	for _, a := range assignments {
		field, value, ok := strings.Cut(a, "=")
		if !ok {
			return "", fmt.Errorf("%w: expected field=value, got %q", errUsage, a)
		}
		field = strings.ToLower(strings.TrimSpace(field))
		patch, err := admin.ParseField(field, value, admin.CurrentExits(t.base, ov, id))
		if err != nil {
			return "", err
		}
		admin.UpsertRoom(ov, id, patch)
		fields = append(fields, field)
	}
	return fmt.Sprintf("patched %s: %s", id, strings.Join(fields, ", ")), nil
}

func (t *tool) start(ov *world.Overlay, id string) (string, error) {
	if strings.EqualFold(id, "none") {
		ov.StartingRoom = ""
		return "starting room override cleared", nil
	}
	if _, ok := t.base.Rooms[id]; !ok {
		return "", fmt.Errorf("starting room must be a base room, %s is not", id)
	}
	ov.StartingRoom = id
	return "starting room set to " + id, nil
}

func (t *tool) importFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	ov := world.ParseOverlay(data)
	if ov == nil {
		return fmt.Errorf("%s is not an overlay document", path)
	}
	if err := t.authorize(ctx); err != nil {
		return err
	}
	if err := t.editor.Save(ctx, ov); err != nil {
		return err
	}
	fmt.Fprintf(t.out, "imported %d room patch(es) from %s\n", len(ov.Rooms), path)
	return nil
}

func (t *tool) passwd(ctx context.Context, rest []string) error {
	if t.gate.HasPassword(ctx) {
		if err := t.login(ctx, "Current password: "); err != nil {
			return err
		}
	}
	var pw string
	if len(rest) == 1 {
		pw = rest[0]
	} else {
		var err error
		if pw, err = t.secret("New password: "); err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
	}
	if err := t.gate.SetPassword(ctx, pw); err != nil {
		return err
	}
	fmt.Fprintln(t.out, "editor password set")
	return nil
}

// authorize requires the editor password when one has been set.
func (t *tool) authorize(ctx context.Context) error {
	if !t.gate.HasPassword(ctx) {
		return nil
	}
	return t.login(ctx, "Password: ")
}

func (t *tool) login(ctx context.Context, prompt string) error {
	pw, err := t.secret(prompt)
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	return t.gate.Login(ctx, pw)
}
