// Package agegate implements the age self-attestation gate shown before
// any content. Approval is remembered; rejection only lasts for the
// current process and schedules a redirect.
package agegate

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/sessionkit/logger"
	"github.com/kbukum/sessionkit/storage"
	"github.com/kbukum/sessionkit/store"
)

// StorageKey holds the raw string "approved" once the gate is passed.
const StorageKey = "age-verification"

// RedirectDelay is how long after a rejection the redirect fires.
const RedirectDelay = 100 * time.Millisecond

const approvedValue = "approved"

// Status is the gate state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// State is the observable gate state.
type State struct {
	Status              Status
	IsAnimationComplete bool
}

// Gate is the age-gate store.
type Gate struct {
	state    *store.Store[State]
	mirror   *store.Mirror[string]
	redirect func()
	log      *logger.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// New reads the stored verification from s. redirect is invoked
// RedirectDelay after a rejection; nil disables it.
func New(ctx context.Context, s storage.Storage, redirect func(), log *logger.Logger) *Gate {
	l := log.WithComponent("agegate")
	g := &Gate{
		mirror:   store.NewMirror[string](s, StorageKey, "", store.WithCodec[string](store.String{}), store.WithLogger[string](l)),
		redirect: redirect,
		log:      l,
	}
	g.state = store.New(g.initial(ctx))
	return g
}

func (g *Gate) initial(ctx context.Context) State {
	saved, _ := g.mirror.Load(ctx)
	if saved == approvedValue {
		return State{Status: StatusApproved, IsAnimationComplete: true}
	}
	return State{Status: StatusPending}
}

// Get returns the current state.
func (g *Gate) Get() State { return g.state.Get() }

// Subscribe registers fn for the current and every later state.
func (g *Gate) Subscribe(fn func(State)) func() { return g.state.Subscribe(fn) }

// CheckAge records the visitor's answer.
func (g *Gate) CheckAge(ctx context.Context, isAdult bool) {
	if isAdult {
		g.mirror.Save(ctx, approvedValue)
		g.state.Update(func(s State) State {
			s.Status = StatusApproved
			return s
		})
		return
	}

	g.log.Info("age check rejected, redirecting")
	if g.redirect != nil {
		g.mu.Lock()
		if g.timer != nil {
			g.timer.Stop()
		}
		g.timer = time.AfterFunc(RedirectDelay, g.redirect)
		g.mu.Unlock()
	}
	g.state.Update(func(s State) State {
		s.Status = StatusRejected
		return s
	})
}

// CompleteAnimation marks the gate's exit animation as finished.
func (g *Gate) CompleteAnimation() {
	g.state.Update(func(s State) State {
		s.IsAnimationComplete = true
		return s
	})
}

// Reset forgets a stored approval and re-evaluates the initial state.
func (g *Gate) Reset(ctx context.Context) {
	g.mu.Lock()
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
	g.mu.Unlock()

	g.mirror.Clear(ctx)
	g.state.Set(g.initial(ctx))
}
