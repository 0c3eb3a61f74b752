// Package tokens holds the member's persisted token balance. The balance
// never goes below zero.
package tokens

import (
	"context"

	"github.com/kbukum/sessionkit/logger"
	"github.com/kbukum/sessionkit/storage"
	"github.com/kbukum/sessionkit/store"
)

// StorageKey is the key the balance is persisted under.
const StorageKey = "user_tokens"

// State is the persisted balance.
type State struct {
	Tokens    int  `json:"tokens"`
	IsLoading bool `json:"isLoading"`
}

// Store is the token balance store.
type Store struct {
	state *store.Persisted[State]
	log   *logger.Logger
}

// New loads the balance from s.
func New(ctx context.Context, s storage.Storage, log *logger.Logger) *Store {
	l := log.WithComponent("tokens")
	m := store.NewMirror(s, StorageKey, State{}, store.WithLogger[State](l))
	return &Store{state: store.NewPersisted(ctx, m), log: l}
}

// Get returns the current state.
func (s *Store) Get() State { return s.state.Get() }

// Balance returns the current token count.
func (s *Store) Balance() int { return s.state.Get().Tokens }

// Subscribe registers fn for the current and every later state.
func (s *Store) Subscribe(fn func(State)) func() { return s.state.Subscribe(fn) }

// SetTokens replaces the balance. Negative values are stored as zero.
func (s *Store) SetTokens(ctx context.Context, n int) {
	s.state.Update(ctx, func(st State) State {
		st.Tokens = floor(n)
		st.IsLoading = false
		return st
	})
}

// AddTokens increases the balance by n.
func (s *Store) AddTokens(ctx context.Context, n int) {
	s.UpdateTokens(ctx, n)
}

// DeductTokens decreases the balance by n, stopping at zero.
func (s *Store) DeductTokens(ctx context.Context, n int) {
	s.UpdateTokens(ctx, -n)
}

// UpdateTokens applies a signed delta, stopping at zero.
func (s *Store) UpdateTokens(ctx context.Context, delta int) int {
	next := s.state.Update(ctx, func(st State) State {
		st.Tokens = floor(st.Tokens + delta)
		return st
	})
	s.log.Debug("token balance updated", logger.Fields("delta", delta, "balance", next.Tokens))
	return next.Tokens
}

// SetLoading updates the loading flag only.
func (s *Store) SetLoading(ctx context.Context, loading bool) {
	s.state.Update(ctx, func(st State) State {
		st.IsLoading = loading
		return st
	})
}

// Clear resets the balance and removes the persisted key. Called on logout.
func (s *Store) Clear(ctx context.Context) {
	s.state.Reset(ctx)
}

func floor(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
