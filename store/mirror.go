package store

import (
	"context"

	"github.com/kbukum/sessionkit/errors"
	"github.com/kbukum/sessionkit/logger"
	"github.com/kbukum/sessionkit/storage"
)

// Mirror loads and saves one state value under a fixed storage key. It never
// returns storage errors: reads fall back to the default and failed writes
// are logged at warn.
type Mirror[T any] struct {
	storage storage.Storage
	key     string
	def     T
	codec   Codec[T]
	log     *logger.Logger
}

// MirrorOption configures a Mirror.
type MirrorOption[T any] func(*Mirror[T])

// WithCodec replaces the JSON codec.
func WithCodec[T any](c Codec[T]) MirrorOption[T] {
	return func(m *Mirror[T]) { m.codec = c }
}

// WithLogger sets the logger used for swallowed storage errors.
func WithLogger[T any](l *logger.Logger) MirrorOption[T] {
	return func(m *Mirror[T]) { m.log = l }
}

// NewMirror creates a Mirror for key. A nil storage behaves as unavailable
// storage: every load yields def and every write is dropped.
func NewMirror[T any](s storage.Storage, key string, def T, opts ...MirrorOption[T]) *Mirror[T] {
	m := &Mirror[T]{storage: s, key: key, def: def, codec: JSON[T]{}}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logger.GetGlobalLogger()
	}
	return m
}

// Key returns the storage key this mirror owns.
func (m *Mirror[T]) Key() string { return m.key }

// Default returns the fallback state.
func (m *Mirror[T]) Default() T { return m.def }

// Load reads the stored state. found is false when the default was returned
// because the key is missing, unreadable or unparseable.
func (m *Mirror[T]) Load(ctx context.Context) (value T, found bool) {
	if m.storage == nil {
		return m.def, false
	}
	data, err := m.storage.Get(ctx, m.key)
	if err != nil {
		if !storage.IsNotFound(err) {
			m.log.Warn("storage read failed, using default state", m.fields("get", err))
		}
		return m.def, false
	}
	v, err := m.codec.Unmarshal(data)
	if err != nil {
		m.log.Warn("stored state is malformed, using default state", m.fields("decode", err))
		return m.def, false
	}
	return v, true
}

// Save writes v under the key.
func (m *Mirror[T]) Save(ctx context.Context, v T) {
	if m.storage == nil {
		return
	}
	data, err := m.codec.Marshal(v)
	if err != nil {
		m.log.Warn("state encode failed, not persisted", m.fields("encode", err))
		return
	}
	if err := m.storage.Set(ctx, m.key, data); err != nil {
		m.log.Warn("storage write failed, state not persisted", m.fields("set", err))
	}
}

// Clear removes the key so a later Load reports no prior state.
func (m *Mirror[T]) Clear(ctx context.Context) {
	if m.storage == nil {
		return
	}
	if err := m.storage.Delete(ctx, m.key); err != nil {
		m.log.Warn("storage delete failed", m.fields("delete", err))
	}
}

func (m *Mirror[T]) fields(op string, err error) map[string]interface{} {
	se := errors.Storage(op, m.key, err)
	return logger.Fields(logger.FieldKey, m.key, "code", se.Code, logger.FieldError, se.Error())
}
