// Package refresh keeps a signed-in session alive by periodically asking
// the backend to reissue its credentials.
//
// A Controller is idle (no timer) or active (timer running). Start moves it
// to active, Stop back to idle. At most one refresh call is in flight; a
// concurrent trigger fails immediately. A refresh that fails because the
// session has expired stops the controller and runs the expiry callback,
// usually the auth store's logout; any other failure is logged and the timer
// keeps running.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/sessionkit/component"
	apperrors "github.com/kbukum/sessionkit/errors"
	"github.com/kbukum/sessionkit/logger"
	"github.com/kbukum/sessionkit/resilience"
)

// State is the controller state.
type State int

const (
	StateIdle State = iota
	StateActive
)

// String returns the state name.
func (s State) String() string {
	if s == StateActive {
		return "active"
	}
	return "idle"
}

// Outcome classifies one refresh attempt.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeIdle     Outcome = "skipped_idle"
	OutcomeInFlight Outcome = "skipped_in_flight"
	OutcomeExpired  Outcome = "expired"
	OutcomeFailed   Outcome = "failed"
)

// Default refresh periods, tied to each backend's token lifetime.
const (
	DefaultEscortInterval = 9 * time.Minute
	DefaultMemberInterval = 5 * time.Minute
)

// Config configures a Controller.
type Config struct {
	// Name identifies the controller, e.g. "refresh.escort".
	Name string `mapstructure:"name"`
	// Interval is the refresh period.
	Interval time.Duration `mapstructure:"interval"`
	// RefreshOnStart triggers one refresh as soon as the controller starts.
	RefreshOnStart bool `mapstructure:"refresh_on_start"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("refresh: name is required")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("refresh: interval must be positive")
	}
	return nil
}

// Func performs one refresh call against the backend.
type Func func(ctx context.Context) error

// Option configures a Controller.
type Option func(*Controller)

// WithObserver registers fn to receive the outcome of every attempt.
func WithObserver(fn func(name string, o Outcome)) Option {
	return func(c *Controller) { c.observe = fn }
}

// Controller is the refresh state machine of one account kind.
type Controller struct {
	cfg       Config
	refresh   Func
	onExpired func(context.Context)
	observe   func(string, Outcome)
	guard     *resilience.Bulkhead
	log       *logger.Logger

	mu     sync.Mutex
	state  State
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an idle controller. onExpired runs after the controller has
// stopped itself because the session expired.
func New(cfg Config, fn Func, onExpired func(context.Context), log *logger.Logger, opts ...Option) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, fmt.Errorf("refresh: refresh func is required")
	}
	c := &Controller{
		cfg:       cfg,
		refresh:   fn,
		onExpired: onExpired,
		guard:     resilience.NewBulkhead(resilience.BulkheadConfig{Name: cfg.Name, MaxConcurrent: 1}),
		log:       log.WithComponent(cfg.Name),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the controller name.
func (c *Controller) Name() string { return c.cfg.Name }

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsActive reports whether the timer is running.
func (c *Controller) IsActive() bool { return c.State() == StateActive }

// Start moves the controller to active and starts the timer. Starting an
// active controller restarts its timer.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	c.stopLocked()
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.gen++
	c.state = StateActive
	c.cancel = cancel
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	c.log.Info("session refresh started", logger.Fields("interval", c.cfg.Interval.String()))
	go c.run(loopCtx, done)
	return nil
}

// Stop moves the controller to idle. An in-flight call is not waited for.
func (c *Controller) Stop(_ context.Context) error {
	c.mu.Lock()
	wasActive := c.state == StateActive
	c.stopLocked()
	c.mu.Unlock()
	if wasActive {
		c.log.Info("session refresh stopped")
	}
	return nil
}

func (c *Controller) stopLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.state = StateIdle
}

// Health reports the controller state.
func (c *Controller) Health(_ context.Context) component.Health {
	return component.Health{Name: c.cfg.Name, Status: component.StatusHealthy, Message: c.State().String()}
}

func (c *Controller) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	if c.cfg.RefreshOnStart {
		c.Refresh(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Refresh(ctx)
		}
	}
}

// Refresh performs one refresh now. It returns false without a network call
// when the controller is idle or another refresh is in flight, and false
// when the backend call fails.
func (c *Controller) Refresh(ctx context.Context) bool {
	c.mu.Lock()
	active, gen := c.state == StateActive, c.gen
	c.mu.Unlock()
	if !active {
		c.report(OutcomeIdle)
		return false
	}

	err := c.guard.Execute(ctx, func() error { return c.refresh(ctx) })
	switch {
	case err == nil:
		c.report(OutcomeOK)
		c.log.Debug("session refreshed")
		return true
	case errors.Is(err, resilience.ErrBulkheadFull):
		c.report(OutcomeInFlight)
		return false
	case apperrors.IsSessionExpired(err):
		c.report(OutcomeExpired)
		c.expire(ctx, gen, err)
		return false
	default:
		c.report(OutcomeFailed)
		if ctx.Err() == nil {
			c.log.Warn("session refresh failed, will retry on next tick", logger.Fields(logger.FieldError, err.Error()))
		}
		return false
	}
}

// expire stops the controller and runs the expiry callback, unless the
// controller was restarted for a new session while the call was in flight.
func (c *Controller) expire(ctx context.Context, gen uint64, cause error) {
	c.mu.Lock()
	if c.gen != gen || c.state != StateActive {
		c.mu.Unlock()
		return
	}
	c.stopLocked()
	c.mu.Unlock()

	c.log.Warn("session expired, logging out", logger.Fields(logger.FieldError, cause.Error()))
	if c.onExpired != nil {
		c.onExpired(context.WithoutCancel(ctx))
	}
}

func (c *Controller) report(o Outcome) {
	if c.observe != nil {
		c.observe(c.cfg.Name, o)
	}
}

// Wait blocks until the timer goroutine of the last Start has exited, or ctx
// is done. Used by tests and graceful shutdown.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ component.Component = (*Controller)(nil)
