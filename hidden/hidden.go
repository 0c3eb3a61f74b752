// Package hidden tracks profiles suppressed from the main listing. A
// profile is identified loosely: any matching id, slug or display name
// counts as the same profile.
package hidden

import (
	"context"
	"slices"
	"time"

	"github.com/kbukum/sessionkit/logger"
	"github.com/kbukum/sessionkit/storage"
	"github.com/kbukum/sessionkit/store"
)

// StorageKey is the key hidden profiles are persisted under.
const StorageKey = "hiddenProfiles"

// Profile is one hidden entry. HiddenAt is unix milliseconds.
type Profile struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	DisplayName string `json:"displayName"`
	HiddenAt    int64  `json:"hiddenAt"`
}

func (p Profile) matches(id, slug, displayName string) bool {
	return (id != "" && p.ID == id) ||
		(slug != "" && p.Slug == slug) ||
		(displayName != "" && p.DisplayName == displayName)
}

// Store is the hidden-profiles store.
type Store struct {
	profiles *store.Persisted[[]Profile]
	now      func() time.Time
}

// New loads hidden profiles from s.
func New(ctx context.Context, s storage.Storage, log *logger.Logger) *Store {
	m := store.NewMirror(s, StorageKey, []Profile{}, store.WithLogger[[]Profile](log.WithComponent("hidden")))
	return &Store{profiles: store.NewPersisted(ctx, m), now: time.Now}
}

// Hide adds a profile unless one matching any identifier is already hidden.
func (s *Store) Hide(ctx context.Context, id, slug, displayName string) {
	current := s.profiles.Get()
	if slices.ContainsFunc(current, func(p Profile) bool { return p.matches(id, slug, displayName) }) {
		return
	}
	entry := Profile{ID: id, Slug: slug, DisplayName: displayName, HiddenAt: s.now().UnixMilli()}
	s.profiles.Update(ctx, func(list []Profile) []Profile {
		if slices.ContainsFunc(list, func(p Profile) bool { return p.matches(id, slug, displayName) }) {
			return list
		}
		return append(slices.Clone(list), entry)
	})
}

// Show removes every entry whose id, slug or display name equals identifier.
func (s *Store) Show(ctx context.Context, identifier string) {
	s.profiles.Update(ctx, func(list []Profile) []Profile {
		return slices.DeleteFunc(slices.Clone(list), func(p Profile) bool {
			return p.matches(identifier, identifier, identifier)
		})
	})
}

// IsHidden reports whether any hidden entry matches a non-empty identifier.
func (s *Store) IsHidden(id, slug, displayName string) bool {
	return slices.ContainsFunc(s.profiles.Get(), func(p Profile) bool {
		return p.matches(id, slug, displayName)
	})
}

// All returns a copy of the hidden entries.
func (s *Store) All() []Profile { return slices.Clone(s.profiles.Get()) }

// Subscribe registers fn for the current and every later list.
func (s *Store) Subscribe(fn func([]Profile)) func() {
	return s.profiles.Subscribe(func(list []Profile) { fn(slices.Clone(list)) })
}

// Clear empties the list and persists the empty list.
func (s *Store) Clear(ctx context.Context) {
	s.profiles.Set(ctx, []Profile{})
}
