package store

import "context"

// Persisted is a Store whose every committed change is mirrored to storage.
type Persisted[T any] struct {
	store  *Store[T]
	mirror *Mirror[T]
	loaded bool
}

// NewPersisted creates a store initialised from the mirror's stored state,
// or its default.
func NewPersisted[T any](ctx context.Context, m *Mirror[T]) *Persisted[T] {
	v, found := m.Load(ctx)
	return &Persisted[T]{store: New(v), mirror: m, loaded: found}
}

// Restored reports whether the initial state came from storage rather than
// the default. It distinguishes a cold start from an explicit saved state.
func (p *Persisted[T]) Restored() bool { return p.loaded }

// Key returns the storage key.
func (p *Persisted[T]) Key() string { return p.mirror.Key() }

// Get returns the current state.
func (p *Persisted[T]) Get() T { return p.store.Get() }

// Subscribe registers fn; see Store.Subscribe.
func (p *Persisted[T]) Subscribe(fn Listener[T]) func() { return p.store.Subscribe(fn) }

// Set replaces the state, persists it and notifies subscribers.
func (p *Persisted[T]) Set(ctx context.Context, v T) {
	p.store.commit(func(T) T { return v }, func(next T) { p.mirror.Save(ctx, next) })
}

// Update replaces the state with fn(current), persists it and notifies
// subscribers. It returns the new state.
func (p *Persisted[T]) Update(ctx context.Context, fn func(T) T) T {
	return p.store.commit(fn, func(next T) { p.mirror.Save(ctx, next) })
}

// SetTransient replaces the in-memory state without writing storage.
func (p *Persisted[T]) SetTransient(v T) {
	p.store.Set(v)
}

// Reset restores the default state and removes the storage key entirely.
func (p *Persisted[T]) Reset(ctx context.Context) {
	p.store.commit(func(T) T { return p.mirror.Default() }, func(T) { p.mirror.Clear(ctx) })
}
