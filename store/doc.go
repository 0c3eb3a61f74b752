// Package store provides the reactive state containers every sessionkit
// domain store is built on.
//
// Store[T] holds a value and broadcasts changes to subscribers. Mirror[T]
// loads and saves a value under one storage key, falling back to a default
// and swallowing storage errors. Persisted[T] combines the two: every Set or
// Update is mirrored to storage before subscribers are notified.
//
// Update functions receive the current value and must return a new one;
// mutating slices or maps held by the argument in place is not safe because
// subscribers may still be reading them.
package store
