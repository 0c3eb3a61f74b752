package store

import "sync"

// Listener receives the state after every change.
type Listener[T any] func(T)

// Store is a mutable container broadcasting state changes to subscribers.
// It is safe for concurrent use. Notifications reach every listener in
// commit order, one at a time.
type Store[T any] struct {
	mu          sync.RWMutex
	value       T
	nextID      uint64
	listeners   map[uint64]Listener[T]
	pending     []delivery[T]
	dispatching bool
}

// delivery is one queued notification: value for each of targets.
type delivery[T any] struct {
	value   T
	targets []Listener[T]
}

// New creates a Store holding initial.
func New[T any](initial T) *Store[T] {
	return &Store[T]{value: initial, listeners: make(map[uint64]Listener[T])}
}

// Get returns the current state.
func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Subscribe registers fn. It is called with the current state and again
// after every change, until the returned function is called. When another
// goroutine is delivering, the first call is made by that goroutine after
// the notifications queued ahead of it.
func (s *Store[T]) Subscribe(fn Listener[T]) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.pending = append(s.pending, delivery[T]{value: s.value, targets: []Listener[T]{fn}})
	s.dispatchLocked()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Set replaces the state and notifies subscribers.
func (s *Store[T]) Set(v T) {
	s.commit(func(T) T { return v }, nil)
}

// Update replaces the state with fn(current) and notifies subscribers.
func (s *Store[T]) Update(fn func(T) T) T {
	return s.commit(fn, nil)
}

// commit applies fn under the write lock, runs onCommit (still locked, so
// side effects happen in commit order) and queues the notification.
func (s *Store[T]) commit(fn func(T) T, onCommit func(T)) T {
	s.mu.Lock()
	next := fn(s.value)
	s.value = next
	if onCommit != nil {
		onCommit(next)
	}
	targets := make([]Listener[T], 0, len(s.listeners))
	for _, l := range s.listeners {
		targets = append(targets, l)
	}
	s.pending = append(s.pending, delivery[T]{value: next, targets: targets})
	s.dispatchLocked()
	return next
}

// dispatchLocked drains the queue unless another call is already draining
// it. It is entered with s.mu held and returns with it released. Listeners
// run without the lock, so they may call back into the store; their writes
// are queued and delivered once they return.
func (s *Store[T]) dispatchLocked() {
	if s.dispatching {
		s.mu.Unlock()
		return
	}
	s.dispatching = true
	for len(s.pending) > 0 {
		d := s.pending[0]
		s.pending[0] = delivery[T]{}
		s.pending = s.pending[1:]
		s.mu.Unlock()
		for _, l := range d.targets {
			l(d.value)
		}
		s.mu.Lock()
	}
	s.pending = nil
	s.dispatching = false
	s.mu.Unlock()
}
