// Package redis stores session state on a Redis server through go-redis.
//
// Import it for side effects to enable the "redis" provider:
//
//	import _ "github.com/kbukum/sessionkit/storage/redis"
package redis

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/sessionkit/logger"
	"github.com/kbukum/sessionkit/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderRedis, func(cfg storage.Config, log *logger.Logger) (storage.Storage, error) {
		return New(Config{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}, log)
	})
}

// Storage keeps each key as a plain redis string with no expiry. Cache TTLs
// are tracked inside the stored envelope, not by redis.
type Storage struct {
	rdb    goredis.UniversalClient
	log    *logger.Logger
	closed atomic.Bool
}

func New(cfg Config, log *logger.Logger) (*Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := cfg.options()
	log = log.WithComponent("storage.redis")
	log.Debug("redis storage configured", logger.Fields("addr", opts.Addr, "db", opts.DB))
	return &Storage{rdb: goredis.NewClient(opts), log: log}, nil
}

// NewFromClient wraps a client owned by the caller. Close still closes it.
func NewFromClient(rdb goredis.UniversalClient, log *logger.Logger) *Storage {
	return &Storage{rdb: rdb, log: log.WithComponent("storage.redis")}
}

func (s *Storage) Ping(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return nil, storage.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("redis: get %q: %w", key, err)
	}
	return b, nil
}

func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	if err := s.rdb.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %q: %w", key, err)
	}
	return nil
}

// Delete is a no-op for missing keys.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: del %q: %w", key, err)
	}
	return nil
}

// Close releases the connection pool once.
func (s *Storage) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.rdb.Close()
}

var _ storage.Storage = (*Storage)(nil)
