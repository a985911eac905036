// Package storage defines the namespaced key-value persistence contract used
// for save slots and the admin overlay, plus an in-memory backend.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultNamespace prefixes keys when configuration does not say otherwise.
const DefaultNamespace = "ww:enh1"

// Well-known keys.
const (
	KeySave          = "save:v1"
	KeyOverlay       = "admin:overlay:v1"
	KeyPasswordHash  = "admin:pwdhash:v1"
	namespaceDivider = ":"
)

// ErrNotFound is returned by Get when no value is stored under a key.
var ErrNotFound = errors.New("key not found")

// Store is a namespaced key-value store. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Clear removes every key in the store's namespace and nothing else.
	Clear(ctx context.Context) error
}

// Opener returns a Store scoped to the given namespace. Every backend provides
// one so sessions can open their own save slot without knowing the backend.
type Opener func(ns string) Store

// Prefix returns the full key prefix for ns, including the trailing divider.
func Prefix(ns string) string {
	return ns + namespaceDivider
}

// Scoped returns ns extended with sub, used to give each save name its own slot.
//
// Postcondition: Returns ns unchanged when sub is empty.
func Scoped(ns, sub string) string {
	if sub == "" {
		return ns
	}
	return ns + namespaceDivider + sub
}

// LoadJSON decodes the JSON value under key into dst. Any failure (missing
// key, backend error, undecodable value) reports false and leaves the caller
// on its fallback; dst may be partially written in the decode case.
//
// Postcondition: Returns true only when dst holds the decoded value.
func LoadJSON(ctx context.Context, s Store, key string, dst any) bool {
	data, err := s.Get(ctx, key)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

// SaveJSON encodes v as JSON and stores it under key.
//
// Postcondition: Returns nil on success, or an error describing the encode or write failure.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := s.Set(ctx, key, data); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// MemoryStore is a process-local Store. Several MemoryStores may share one
// backing map through Sub, each seeing only its own namespace.
type MemoryStore struct {
	ns   string
	data *memoryData
}

type memoryData struct {
	mu sync.RWMutex
	m  map[string][]byte
}

// NewMemoryStore returns an empty in-memory store for namespace ns.
//
// Precondition: ns must be non-empty.
func NewMemoryStore(ns string) *MemoryStore {
	return &MemoryStore{ns: ns, data: &memoryData{m: make(map[string][]byte)}}
}

// Sub returns a store over the same data scoped to Scoped(ns, sub).
func (s *MemoryStore) Sub(sub string) *MemoryStore {
	return &MemoryStore{ns: Scoped(s.ns, sub), data: s.data}
}

// Opener returns an Opener whose stores share s's data.
func (s *MemoryStore) Opener() Opener {
	return func(ns string) Store {
		return &MemoryStore{ns: ns, data: s.data}
	}
}

// Namespace returns the store's namespace.
func (s *MemoryStore) Namespace() string {
	return s.ns
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	v, ok := s.data.m[Prefix(s.ns)+key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	s.data.m[Prefix(s.ns)+key] = append([]byte(nil), value...)
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	delete(s.data.m, Prefix(s.ns)+key)
	return nil
}

// Clear implements Store. Keys of nested namespaces are cleared with their parent.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.data.mu.Lock()
	defer s.data.mu.Unlock()
	prefix := Prefix(s.ns)
	for k := range s.data.m {
		if strings.HasPrefix(k, prefix) {
			delete(s.data.m, k)
		}
	}
	return nil
}

// Keys returns the store's keys without the namespace prefix, sorted.
func (s *MemoryStore) Keys() []string {
	s.data.mu.RLock()
	defer s.data.mu.RUnlock()
	prefix := Prefix(s.ns)
	var keys []string
	for k := range s.data.m {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, strings.TrimPrefix(k, prefix))
		}
	}
	sort.Strings(keys)
	return keys
}
