package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
)

var errUsage = errors.New("usage: migrate [-config path] [-source url] up|down [steps] | status | force <version>")

// Verbs accepted on the command line.
const (
	verbUp     = "up"
	verbDown   = "down"
	verbStatus = "status"
	verbForce  = "force"
)

// plan is one parsed invocation.
type plan struct {
	verb string
	// n is the step count for up and down (0 means all) or the version for force.
	n int
}

// parsePlan reads the positional arguments. No arguments means up.
//
// Postcondition: Returns a plan whose n is never negative, or an error wrapping errUsage.
func parsePlan(args []string) (plan, error) {
	if len(args) == 0 {
		return plan{verb: verbUp}, nil
	}
	p := plan{verb: args[0]}
	rest := args[1:]
	switch p.verb {
	case verbUp, verbDown:
		if len(rest) > 1 {
			return p, fmt.Errorf("%w: %s takes at most one step count", errUsage, p.verb)
		}
		if len(rest) == 1 {
			n, err := nonNegative(rest[0])
			if err != nil {
				return p, err
			}
			p.n = n
		}
	case verbStatus:
		if len(rest) != 0 {
			return p, fmt.Errorf("%w: status takes no arguments", errUsage)
		}
	case verbForce:
		if len(rest) != 1 {
			return p, fmt.Errorf("%w: force needs a version", errUsage)
		}
		n, err := nonNegative(rest[0])
		if err != nil {
			return p, err
		}
		p.n = n
	default:
		return p, fmt.Errorf("%w: unknown command %q", errUsage, p.verb)
	}
	return p, nil
}

func nonNegative(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q is not a non-negative integer", errUsage, s)
	}
	return n, nil
}

// migrator is the part of *migrate.Migrate a plan drives.
type migrator interface {
	Up() error
	Down() error
	Steps(n int) error
	Force(version int) error
	Version() (uint, bool, error)
}

// apply runs p against m and describes the resulting schema version.
func apply(m migrator, p plan) (string, error) {
	var err error
	switch p.verb {
	case verbUp:
		if p.n > 0 {
			err = m.Steps(p.n)
		} else {
			err = m.Up()
		}
	case verbDown:
		if p.n > 0 {
			err = m.Steps(-p.n)
		} else {
			err = m.Down()
		}
	case verbForce:
		err = m.Force(p.n)
	case verbStatus:
	default:
		return "", fmt.Errorf("%w: unknown command %q", errUsage, p.verb)
	}
	changed := err == nil && p.verb != verbStatus
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return "", fmt.Errorf("%s: %w", p.verb, err)
	}
	return describe(m, p.verb, changed)
}

func describe(m migrator, verb string, changed bool) (string, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return "no migrations applied", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading version: %w", err)
	}
	state := fmt.Sprintf("version %d", version)
	if dirty {
		state += " (dirty, run force after fixing)"
	}
	switch {
	case verb == verbStatus:
		return state, nil
	case changed:
		return fmt.Sprintf("%s applied, now at %s", verb, state), nil
	default:
		return fmt.Sprintf("already at %s", state), nil
	}
}
