package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/whisperingwoods/woods/internal/storage"
)

// KVRepository stores one namespace's keys in the kv_entries table.
type KVRepository struct {
	db *pgxpool.Pool
	ns string
}

var _ storage.Store = (*KVRepository)(nil)

// NewKVRepository creates a KVRepository for namespace ns.
//
// Precondition: db must be a valid, open connection pool; ns must be non-empty.
func NewKVRepository(db *pgxpool.Pool, ns string) *KVRepository {
	return &KVRepository{db: db, ns: ns}
}

// Opener returns a storage.Opener sharing db.
func Opener(db *pgxpool.Pool) storage.Opener {
	return func(ns string) storage.Store {
		return NewKVRepository(db, ns)
	}
}

// Get implements storage.Store.
//
// Postcondition: Returns the stored bytes, or storage.ErrNotFound.
func (r *KVRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRow(ctx,
		`SELECT value FROM kv_entries WHERE namespace = $1 AND key = $2`,
		r.ns, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("querying %s/%s: %w", r.ns, key, err)
	}
	return value, nil
}

// Set implements storage.Store with an upsert.
func (r *KVRepository) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO kv_entries (namespace, key, value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (namespace, key)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		r.ns, key, value,
	)
	if err != nil {
		return fmt.Errorf("upserting %s/%s: %w", r.ns, key, err)
	}
	return nil
}

// Delete implements storage.Store.
func (r *KVRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM kv_entries WHERE namespace = $1 AND key = $2`,
		r.ns, key,
	)
	if err != nil {
		return fmt.Errorf("deleting %s/%s: %w", r.ns, key, err)
	}
	return nil
}

// Clear implements storage.Store. Nested namespaces (ns:...) are cleared too,
// matching the key-prefix behaviour of the other backends.
func (r *KVRepository) Clear(ctx context.Context) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM kv_entries WHERE namespace = $1 OR starts_with(namespace, $2)`,
		r.ns, storage.Prefix(r.ns),
	)
	if err != nil {
		return fmt.Errorf("clearing %s: %w", r.ns, err)
	}
	return nil
}
