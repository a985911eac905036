// Package redis provides a Redis-backed storage.Store using go-redis v9.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/whisperingwoods/woods/internal/config"
	"github.com/whisperingwoods/woods/internal/storage"
)

// scanBatch is the COUNT hint for SCAN and the DEL batch size in Clear.
const scanBatch = 100

// NewClient connects to Redis. cfg.URL wins over the discrete fields.
//
// Postcondition: Returns a client that answered PING, or a non-nil error.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	var opt *goredis.Options
	if cfg.URL != "" {
		parsed, err := goredis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opt = parsed
	} else {
		opt = &goredis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
	}

	client := goredis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis at %s: %w", opt.Addr, err)
	}
	return client, nil
}

// Store keeps values under "<namespace>:<key>".
type Store struct {
	client *goredis.Client
	ns     string
	logger *zap.Logger
}

var _ storage.Store = (*Store)(nil)

// NewStore returns a Store over client for namespace ns.
//
// Precondition: client and logger must be non-nil; ns must be non-empty.
func NewStore(client *goredis.Client, ns string, logger *zap.Logger) *Store {
	return &Store{client: client, ns: ns, logger: logger}
}

// Opener returns a storage.Opener sharing client.
func Opener(client *goredis.Client, logger *zap.Logger) storage.Opener {
	return func(ns string) storage.Store {
		return NewStore(client, ns, logger)
	}
}

func (s *Store) key(k string) string {
	return storage.Prefix(s.ns) + k
}

// Get implements storage.Store.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrNotFound
		}
		s.logger.Error("redis GET failed", zap.String("key", s.key(key)), zap.Error(err))
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	s.logger.Debug("redis GET", zap.String("key", s.key(key)), zap.Int("bytes", len(v)))
	return v, nil
}

// Set implements storage.Store. Values never expire.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		s.logger.Error("redis SET failed", zap.String("key", s.key(key)), zap.Error(err))
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete implements storage.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Clear implements storage.Store by scanning the namespace prefix and deleting in batches.
//
// Postcondition: No key under the namespace prefix remains unless an error is returned.
func (s *Store) Clear(ctx context.Context) error {
	start := time.Now()
	pattern := escapeGlob(storage.Prefix(s.ns)) + "*"
	iter := s.client.Scan(ctx, 0, pattern, scanBatch).Iterator()

	var batch []string
	deleted := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.client.Del(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		deleted += int(n)
		batch = batch[:0]
		return nil
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= scanBatch {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	if err := flush(); err != nil {
		return err
	}
	s.logger.Info("cleared namespace",
		zap.String("namespace", s.ns),
		zap.Int("deleted", deleted),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Health reports whether Redis answers PING within timeout.
func (s *Store) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

// escapeGlob escapes the characters SCAN MATCH treats specially.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
