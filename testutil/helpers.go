package testutil

import (
	"context"
	"testing"

	"github.com/kbukum/sessionkit/component"
)

// Resettable is a component whose state can be wiped between subtests.
type Resettable interface {
	component.Component
	Reset(ctx context.Context) error
}

// Harness binds components to a test's lifetime.
type Harness struct {
	tb  testing.TB
	ctx context.Context
}

// T returns a harness for tb using context.Background.
func T(tb testing.TB) *Harness {
	return &Harness{tb: tb, ctx: context.Background()}
}

func (h *Harness) WithContext(ctx context.Context) *Harness {
	h.ctx = ctx
	return h
}

// Setup starts c and stops it in tb.Cleanup. A start error fails the test.
func (h *Harness) Setup(c component.Component) {
	h.tb.Helper()
	if err := c.Start(h.ctx); err != nil {
		h.tb.Fatalf("start %s: %v", c.Name(), err)
	}
	h.tb.Cleanup(func() {
		if err := c.Stop(context.WithoutCancel(h.ctx)); err != nil {
			h.tb.Errorf("stop %s: %v", c.Name(), err)
		}
	})
}

// Reset wipes c or fails the test.
func (h *Harness) Reset(c Resettable) {
	h.tb.Helper()
	if err := c.Reset(h.ctx); err != nil {
		h.tb.Fatalf("reset %s: %v", c.Name(), err)
	}
}
