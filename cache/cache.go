package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kbukum/sessionkit/logger"
	"github.com/kbukum/sessionkit/observability"
	"github.com/kbukum/sessionkit/storage"
)

// DefaultTTL is the lifetime of a cached payload.
const DefaultTTL = 15 * time.Minute

// DefaultPayloadField is the entry field holding the payload.
const DefaultPayloadField = "data"

const timestampField = "timestamp"

// Lookup results reported to metrics.
const (
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultExpired = "expired"
	ResultCorrupt = "corrupt"
)

// Config configures a Cache.
type Config struct {
	// Name identifies the cache in logs and metrics.
	Name string `mapstructure:"name"`
	// Prefix is the storage key, or the key prefix when ids are used.
	Prefix string `mapstructure:"prefix"`
	// PayloadField is the JSON field of the entry holding the payload.
	PayloadField string `mapstructure:"payload_field"`
	// TTL is the entry lifetime.
	TTL time.Duration `mapstructure:"ttl"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.PayloadField == "" {
		c.PayloadField = DefaultPayloadField
	}
	if c.TTL == 0 {
		c.TTL = DefaultTTL
	}
	if c.Name == "" {
		c.Name = c.Prefix
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Prefix == "" {
		return fmt.Errorf("cache: prefix is required")
	}
	if c.TTL < 0 {
		return fmt.Errorf("cache: ttl must not be negative")
	}
	return nil
}

// Clock returns the current time.
type Clock func() time.Time

// Option configures a Cache.
type Option func(*options)

type options struct {
	clock   Clock
	metrics *observability.Metrics
	log     *logger.Logger
}

// WithClock replaces time.Now.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithMetrics records lookups on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// Cache is a TTL cache of T values.
type Cache[T any] struct {
	cfg     Config
	store   storage.Storage
	now     Clock
	metrics *observability.Metrics
	log     *logger.Logger
}

// New creates a cache over s.
func New[T any](s storage.Storage, cfg Config, opts ...Option) (*Cache[T], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("cache: storage is required")
	}
	o := options{clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.GetGlobalLogger()
	}
	return &Cache[T]{
		cfg:     cfg,
		store:   s,
		now:     o.clock,
		metrics: o.metrics,
		log:     o.log.WithComponent("cache." + cfg.Name),
	}, nil
}

// Key returns the storage key for id: the prefix alone for "", otherwise
// "prefix:id".
func (c *Cache[T]) Key(id string) string {
	if id == "" {
		return c.cfg.Prefix
	}
	return c.cfg.Prefix + ":" + id
}

// TTL returns the configured entry lifetime.
func (c *Cache[T]) TTL() time.Duration { return c.cfg.TTL }

// Get returns the cached value for id if present and fresh.
func (c *Cache[T]) Get(ctx context.Context, id string) (T, bool) {
	var zero T
	key := c.Key(id)

	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !storage.IsNotFound(err) {
			c.log.Warn("cache read failed", logger.Fields(logger.FieldKey, key, logger.FieldError, err.Error()))
		}
		c.metrics.RecordCache(ctx, c.cfg.Name, ResultMiss)
		return zero, false
	}

	value, ts, err := c.decode(raw)
	if err != nil {
		c.log.Warn("dropping unreadable cache entry", logger.Fields(logger.FieldKey, key, logger.FieldError, err.Error()))
		c.delete(ctx, key)
		c.metrics.RecordCache(ctx, c.cfg.Name, ResultCorrupt)
		return zero, false
	}
	if c.now().Sub(ts) >= c.cfg.TTL {
		c.delete(ctx, key)
		c.metrics.RecordCache(ctx, c.cfg.Name, ResultExpired)
		return zero, false
	}

	c.metrics.RecordCache(ctx, c.cfg.Name, ResultHit)
	return value, true
}

// Set stores value for id stamped with the current time. Write failures are
// logged and dropped.
func (c *Cache[T]) Set(ctx context.Context, id string, value T) {
	key := c.Key(id)
	raw, err := c.encode(value, c.now())
	if err != nil {
		c.log.Warn("cache encode failed", logger.Fields(logger.FieldKey, key, logger.FieldError, err.Error()))
		return
	}
	if err := c.store.Set(ctx, key, raw); err != nil {
		c.log.Warn("cache write failed", logger.Fields(logger.FieldKey, key, logger.FieldError, err.Error()))
	}
}

// Delete removes the entry for id.
func (c *Cache[T]) Delete(ctx context.Context, id string) {
	c.delete(ctx, c.Key(id))
}

// GetOrFetch returns the cached value for id, or calls fetch and caches its
// result. A fetch error is returned and nothing is cached.
func (c *Cache[T]) GetOrFetch(ctx context.Context, id string, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(ctx, id); ok {
		return v, nil
	}
	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(ctx, id, v)
	return v, nil
}

func (c *Cache[T]) delete(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		c.log.Warn("cache delete failed", logger.Fields(logger.FieldKey, key, logger.FieldError, err.Error()))
	}
}

func (c *Cache[T]) encode(value T, at time.Time) ([]byte, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	ts, _ := json.Marshal(at.UnixMilli())
	return json.Marshal(map[string]json.RawMessage{
		c.cfg.PayloadField: payload,
		timestampField:     ts,
	})
}

func (c *Cache[T]) decode(raw []byte) (T, time.Time, error) {
	var zero T
	var entry map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entry); err != nil {
		return zero, time.Time{}, err
	}
	tsRaw, ok := entry[timestampField]
	if !ok {
		return zero, time.Time{}, fmt.Errorf("missing %s", timestampField)
	}
	var ms int64
	if err := json.Unmarshal(tsRaw, &ms); err != nil {
		return zero, time.Time{}, fmt.Errorf("invalid %s: %w", timestampField, err)
	}
	payload, ok := entry[c.cfg.PayloadField]
	if !ok {
		return zero, time.Time{}, fmt.Errorf("missing %s", c.cfg.PayloadField)
	}
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return zero, time.Time{}, err
	}
	return v, time.UnixMilli(ms), nil
}
