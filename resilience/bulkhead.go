package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

var (
	// ErrBulkheadFull is returned when every slot is taken and the bulkhead
	// does not wait.
	ErrBulkheadFull = errors.New("bulkhead is full")
	// ErrBulkheadTimeout is returned when MaxWait elapsed before a slot freed.
	ErrBulkheadTimeout = errors.New("bulkhead wait timeout")
)

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	Name string
	// MaxConcurrent defaults to 1, which makes the bulkhead a single-flight guard.
	MaxConcurrent int
	// MaxWait is how long a caller may queue for a slot. Zero rejects at once.
	MaxWait time.Duration
	// OnReject runs for every call that never got a slot.
	OnReject func(name string)
}

// Bulkhead caps concurrent executions on a weighted semaphore.
type Bulkhead struct {
	cfg   BulkheadConfig
	sem   *semaphore.Weighted
	inUse atomic.Int64
}

func NewBulkhead(cfg BulkheadConfig) *Bulkhead {
	if cfg.MaxConcurrent < 1 {
		cfg.MaxConcurrent = 1
	}
	return &Bulkhead{cfg: cfg, sem: semaphore.NewWeighted(int64(cfg.MaxConcurrent))}
}

// Execute runs fn inside a slot. fn is not called when acquisition fails; the
// error is then ErrBulkheadFull, ErrBulkheadTimeout or ctx.Err().
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	if err := b.enter(ctx); err != nil {
		if b.cfg.OnReject != nil {
			b.cfg.OnReject(b.cfg.Name)
		}
		return err
	}
	defer b.leave()
	return fn()
}

// ExecuteWithResult is Execute for functions returning a value.
func ExecuteWithResult[T any](b *Bulkhead, ctx context.Context, fn func() (T, error)) (T, error) {
	var out T
	err := b.Execute(ctx, func() (err error) {
		out, err = fn()
		return err
	})
	return out, err
}

func (b *Bulkhead) enter(ctx context.Context) error {
	if !b.sem.TryAcquire(1) {
		if b.cfg.MaxWait <= 0 {
			return ErrBulkheadFull
		}
		wctx, cancel := context.WithTimeout(ctx, b.cfg.MaxWait)
		defer cancel()
		if err := b.sem.Acquire(wctx, 1); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return ErrBulkheadTimeout
		}
	}
	b.inUse.Add(1)
	return nil
}

func (b *Bulkhead) leave() {
	b.inUse.Add(-1)
	b.sem.Release(1)
}

// InUse reports how many slots are held.
func (b *Bulkhead) InUse() int { return int(b.inUse.Load()) }

// Available reports how many slots are free.
func (b *Bulkhead) Available() int { return b.cfg.MaxConcurrent - b.InUse() }
