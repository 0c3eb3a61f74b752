// Package catlist holds the member's saved escort list.
//
// Add and Remove confirm with the backend before touching local state.
// SetVisited updates local state first and silently rolls back when the
// backend rejects the change.
package catlist

import (
	"context"
	"slices"

	"github.com/google/uuid"

	"github.com/kbukum/sessionkit/logger"
	"github.com/kbukum/sessionkit/storage"
	"github.com/kbukum/sessionkit/store"
)

// StorageKey is the key the list is persisted under.
const StorageKey = "catlist"

// Item is one saved entry. ID is generated locally; EscortID is the
// backend's reference.
type Item struct {
	ID          string `json:"id"`
	EscortID    string `json:"escortId"`
	Slug        string `json:"slug"`
	Visited     bool   `json:"visited"`
	DisplayName string `json:"displayName"`
	ProfilePic  string `json:"profilePic"`
}

// Meta is the display data stored alongside a new entry.
type Meta struct {
	Slug        string
	DisplayName string
	ProfilePic  string
}

// Backend confirms list mutations with the server.
type Backend interface {
	Add(ctx context.Context, escortID string) error
	Remove(ctx context.Context, itemID string) error
	SetVisited(ctx context.Context, itemID string, visited bool) error
}

// Store is the saved-items store.
type Store struct {
	items   *store.Persisted[[]Item]
	backend Backend
	log     *logger.Logger
	newID   func() string
}

// New loads the list from s.
func New(ctx context.Context, s storage.Storage, backend Backend, log *logger.Logger) *Store {
	l := log.WithComponent("catlist")
	m := store.NewMirror(s, StorageKey, []Item{}, store.WithLogger[[]Item](l))
	return &Store{
		items:   store.NewPersisted(ctx, m),
		backend: backend,
		log:     l,
		newID:   uuid.NewString,
	}
}

// Items returns a copy of the list.
func (s *Store) Items() []Item { return slices.Clone(s.items.Get()) }

// Subscribe registers fn for the current and every later list.
func (s *Store) Subscribe(fn func([]Item)) func() {
	return s.items.Subscribe(func(list []Item) { fn(slices.Clone(list)) })
}

// Add saves escortID on the backend and, on success, appends a new local
// entry. On failure the list is unchanged and the error is returned.
func (s *Store) Add(ctx context.Context, escortID string, meta Meta) (Item, error) {
	if err := s.backend.Add(ctx, escortID); err != nil {
		s.log.Error("catlist add failed", logger.Fields("escort_id", escortID, logger.FieldError, err.Error()))
		return Item{}, err
	}
	item := Item{
		ID:          s.newID(),
		EscortID:    escortID,
		Slug:        meta.Slug,
		DisplayName: meta.DisplayName,
		ProfilePic:  meta.ProfilePic,
	}
	s.items.Update(ctx, func(list []Item) []Item {
		return append(slices.Clone(list), item)
	})
	return item, nil
}

// Remove deletes the entry on the backend and, on success, locally.
func (s *Store) Remove(ctx context.Context, itemID string) error {
	if err := s.backend.Remove(ctx, itemID); err != nil {
		s.log.Error("catlist remove failed", logger.Fields("item_id", itemID, logger.FieldError, err.Error()))
		return err
	}
	s.items.Update(ctx, func(list []Item) []Item {
		return slices.DeleteFunc(slices.Clone(list), func(i Item) bool { return i.ID == itemID })
	})
	return nil
}

// SetVisited flags the entry immediately, then confirms with the backend.
// A backend failure restores the flag's previous value and is only logged.
func (s *Store) SetVisited(ctx context.Context, itemID string, visited bool) {
	var prior, found bool
	apply := func(list []Item) []Item {
		next := slices.Clone(list)
		for i := range next {
			if next[i].ID == itemID {
				prior, found = next[i].Visited, true
				next[i].Visited = visited
			}
		}
		return next
	}
	revert := func(list []Item) []Item {
		if !found {
			return list
		}
		next := slices.Clone(list)
		for i := range next {
			if next[i].ID == itemID {
				next[i].Visited = prior
			}
		}
		return next
	}
	remote := func(ctx context.Context) error {
		return s.backend.SetVisited(ctx, itemID, visited)
	}

	if err := store.Optimistic(ctx, s.items, apply, revert, remote); err != nil {
		s.log.Warn("catlist visited update failed, rolled back", logger.Fields(
			"item_id", itemID,
			"visited", visited,
			logger.FieldError, err.Error(),
		))
	}
}

// Replace sets the whole list, e.g. from the login response.
func (s *Store) Replace(ctx context.Context, items []Item) {
	s.items.Set(ctx, slices.Clone(items))
}

// Clear empties the list and removes the persisted key.
func (s *Store) Clear(ctx context.Context) {
	s.items.Reset(ctx)
}
