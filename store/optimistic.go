package store

import "context"

// Optimistic applies a local change, runs remote, and on failure applies
// revert to whatever the state is at that point. Reverting against the live
// state keeps changes made by concurrent callers in the meantime.
//
// The remote error is returned so the caller decides whether to surface it.
func Optimistic[T any](ctx context.Context, p *Persisted[T], apply, revert func(T) T, remote func(context.Context) error) error {
	p.Update(ctx, apply)
	if err := remote(ctx); err != nil {
		p.Update(ctx, revert)
		return err
	}
	return nil
}
