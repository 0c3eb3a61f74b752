// Package session holds the persisted authentication state of one account
// kind. The escort and member stores are two instances of the same Store,
// differing only in Config.
package session

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/kbukum/sessionkit/logger"
	"github.com/kbukum/sessionkit/storage"
	"github.com/kbukum/sessionkit/store"
)

// Kind identifies an account type.
type Kind string

const (
	KindEscort Kind = "escort"
	KindMember Kind = "member"
)

// Storage keys used by the two account kinds.
const (
	EscortStorageKey = "escort_auth"
	MemberStorageKey = "ds_user_auth"
)

// UserRecord is the signed-in user. Profile is the backend's opaque
// document; only the top-level fields above it are read by this library.
type UserRecord struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"displayName,omitempty"`
	Email       string         `json:"email,omitempty"`
	Username    string         `json:"username,omitempty"`
	ProfilePic  string         `json:"profilePic,omitempty"`
	Profile     map[string]any `json:"profile,omitempty"`
}

func (u *UserRecord) clone() *UserRecord {
	if u == nil {
		return nil
	}
	c := *u
	c.Profile = maps.Clone(u.Profile)
	return &c
}

// UserPatch lists the user fields to overwrite; nil fields are kept.
type UserPatch struct {
	DisplayName *string
	Email       *string
	Username    *string
	ProfilePic  *string
}

// State is the persisted session. User is non-nil iff IsAuthenticated.
type State struct {
	IsAuthenticated bool        `json:"isAuthenticated"`
	User            *UserRecord `json:"user"`
	IsLoading       bool        `json:"isLoading"`
}

// Config selects the account kind and its storage key.
type Config struct {
	Kind       Kind   `mapstructure:"kind"`
	StorageKey string `mapstructure:"storage_key"`
}

// ApplyDefaults fills the storage key for known kinds.
func (c *Config) ApplyDefaults() {
	if c.StorageKey != "" {
		return
	}
	switch c.Kind {
	case KindEscort:
		c.StorageKey = EscortStorageKey
	case KindMember:
		c.StorageKey = MemberStorageKey
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Kind == "" {
		return fmt.Errorf("session: kind is required")
	}
	if c.StorageKey == "" {
		return fmt.Errorf("session: storage_key is required for kind %q", c.Kind)
	}
	return nil
}

// Store is the auth store of one account kind.
type Store struct {
	kind  Kind
	state *store.Persisted[State]
	log   *logger.Logger

	mu       sync.Mutex
	onLogout []func(context.Context)
}

// New loads the persisted session for cfg.Kind from s.
func New(ctx context.Context, cfg Config, s storage.Storage, log *logger.Logger) (*Store, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	l := log.WithComponent("session").WithAccount(string(cfg.Kind))
	m := store.NewMirror(s, cfg.StorageKey, State{}, store.WithLogger[State](l))
	st := &Store{kind: cfg.Kind, state: store.NewPersisted(ctx, m), log: l}

	// A stored state violating the user/authenticated pairing is treated as
	// logged out; in-memory only so the stored bytes are left alone.
	if cur := st.state.Get(); cur.IsAuthenticated != (cur.User != nil) {
		l.Warn("inconsistent stored session, starting logged out")
		st.state.SetTransient(State{IsLoading: cur.IsLoading})
	}
	return st, nil
}

// Kind returns the account kind.
func (s *Store) Kind() Kind { return s.kind }

// Get returns the current state. The returned user is a copy.
func (s *Store) Get() State {
	st := s.state.Get()
	st.User = st.User.clone()
	return st
}

// Subscribe registers fn for the current and every later state.
func (s *Store) Subscribe(fn func(State)) func() {
	return s.state.Subscribe(func(st State) {
		st.User = st.User.clone()
		fn(st)
	})
}

// IsAuthenticated reports whether a user is signed in.
func (s *Store) IsAuthenticated() bool { return s.state.Get().IsAuthenticated }

// User returns a copy of the signed-in user, or nil.
func (s *Store) User() *UserRecord { return s.state.Get().User.clone() }

// HasStoredSession reports whether the session was restored from storage
// at construction; false on a cold start.
func (s *Store) HasStoredSession() bool { return s.state.Restored() }

// OnLogout registers fn to run after every logout.
func (s *Store) OnLogout(fn func(context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLogout = append(s.onLogout, fn)
}

// Login signs user in.
func (s *Store) Login(ctx context.Context, user UserRecord) {
	u := user.clone()
	s.state.Set(ctx, State{IsAuthenticated: true, User: u})
	s.log.Info("logged in", logger.Fields(logger.FieldUserID, u.ID))
}

// Logout removes the persisted key and resets to the logged-out state.
func (s *Store) Logout(ctx context.Context) {
	s.state.Reset(ctx)
	s.log.Info("logged out")

	s.mu.Lock()
	hooks := append([]func(context.Context){}, s.onLogout...)
	s.mu.Unlock()
	for _, fn := range hooks {
		fn(ctx)
	}
}

// SetLoading updates the loading flag only.
func (s *Store) SetLoading(ctx context.Context, loading bool) {
	s.state.Update(ctx, func(st State) State {
		st.IsLoading = loading
		return st
	})
}

// UpdateUser overwrites the patched user fields. No-op when logged out.
func (s *Store) UpdateUser(ctx context.Context, patch UserPatch) {
	s.updateUser(ctx, func(u *UserRecord) {
		if patch.DisplayName != nil {
			u.DisplayName = *patch.DisplayName
		}
		if patch.Email != nil {
			u.Email = *patch.Email
		}
		if patch.Username != nil {
			u.Username = *patch.Username
		}
		if patch.ProfilePic != nil {
			u.ProfilePic = *patch.ProfilePic
		}
	})
}

// UpdateProfile shallow-merges patch into the user's profile. No-op when
// logged out.
func (s *Store) UpdateProfile(ctx context.Context, patch map[string]any) {
	s.updateUser(ctx, func(u *UserRecord) {
		if u.Profile == nil {
			u.Profile = make(map[string]any, len(patch))
		}
		maps.Copy(u.Profile, patch)
	})
}

func (s *Store) updateUser(ctx context.Context, mutate func(*UserRecord)) {
	if s.state.Get().User == nil {
		return
	}
	s.state.Update(ctx, func(st State) State {
		if st.User == nil {
			return st
		}
		u := st.User.clone()
		mutate(u)
		st.User = u
		return st
	})
}
