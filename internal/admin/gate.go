package admin

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/whisperingwoods/woods/internal/storage"
)

// ErrInvalidCredentials is returned when a login password does not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmptyPassword is returned when setting an empty admin password.
var ErrEmptyPassword = errors.New("password must not be empty")

// Gate guards the editor for one session with a locally stored bcrypt hash.
// It is a convenience lock, not an access control boundary: anyone who can
// write the store can replace the hash.
type Gate struct {
	store  storage.Store
	authed bool
}

// NewGate creates an unauthenticated Gate over store.
func NewGate(store storage.Store) *Gate {
	return &Gate{store: store}
}

// HasPassword reports whether an admin password has been set.
func (g *Gate) HasPassword(ctx context.Context) bool {
	hash, err := g.store.Get(ctx, storage.KeyPasswordHash)
	return err == nil && len(hash) > 0
}

// SetPassword stores the hash of password, replacing any previous one, and
// authenticates this session.
//
// Precondition: password must be non-empty and at most 72 bytes.
func (g *Gate) SetPassword(ctx context.Context, password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := g.store.Set(ctx, storage.KeyPasswordHash, hash); err != nil {
		return fmt.Errorf("storing password hash: %w", err)
	}
	g.authed = true
	return nil
}

// Login checks password against the stored hash and, on a match,
// authenticates this session.
//
// Postcondition: Returns nil on success, or ErrInvalidCredentials when no
// password is set or it does not match.
func (g *Gate) Login(ctx context.Context, password string) error {
	hash, err := g.store.Get(ctx, storage.KeyPasswordHash)
	if err != nil {
		return ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	g.authed = true
	return nil
}

// Authed reports whether this session has logged in.
func (g *Gate) Authed() bool {
	return g.authed
}

// Logout ends this session's admin access.
func (g *Gate) Logout() {
	g.authed = false
}
