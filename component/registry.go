package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/sessionkit/logger"
)

// DefaultStopTimeout bounds each Stop call made by the registry.
const DefaultStopTimeout = 10 * time.Second

type slot struct {
	c       Component
	running bool
}

// Registry starts components in registration order and stops them in
// reverse. A failed StartAll leaves nothing running.
type Registry struct {
	mu     sync.Mutex
	slots  []*slot
	byName map[string]*slot
	log    *logger.Logger
}

func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{byName: map[string]*slot{}, log: log.WithComponent("components")}
}

// Register appends c. Components a later one depends on go first.
func (r *Registry) Register(c Component) error {
	name := c.Name()
	if name == "" {
		return errors.New("component: empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("component: %q already registered", name)
	}
	s := &slot{c: c}
	r.slots = append(r.slots, s)
	r.byName[name] = s
	return nil
}

// StartAll starts every component that is not running. On the first failure
// the components started by this call are stopped again and the error is
// returned.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var started []*slot
	for _, s := range r.slots {
		if s.running {
			continue
		}
		if err := s.c.Start(ctx); err != nil {
			r.log.Error("component start failed", logger.Fields(logger.FieldComponent, s.c.Name(), logger.FieldError, err.Error()))
			r.stop(ctx, started)
			return fmt.Errorf("component: start %s: %w", s.c.Name(), err)
		}
		s.running = true
		started = append(started, s)
	}
	if len(started) > 0 {
		r.log.Debug("components started", logger.Fields("count", len(started)))
	}
	return nil
}

// StopAll stops running components, last registered first, and joins errors.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stop(ctx, r.slots)
}

func (r *Registry) stop(ctx context.Context, slots []*slot) error {
	var errs []error
	for i := len(slots) - 1; i >= 0; i-- {
		s := slots[i]
		if !s.running {
			continue
		}
		sctx, cancel := context.WithTimeout(ctx, DefaultStopTimeout)
		err := s.c.Stop(sctx)
		cancel()
		s.running = false
		if err != nil {
			r.log.Error("component stop failed", logger.Fields(logger.FieldComponent, s.c.Name(), logger.FieldError, err.Error()))
			errs = append(errs, fmt.Errorf("component: stop %s: %w", s.c.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// HealthAll collects reports in registration order.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.Lock()
	slots := append([]*slot(nil), r.slots...)
	r.mu.Unlock()

	out := make([]Health, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.c.Health(ctx))
	}
	return out
}

// Get returns the component registered under name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byName[name]; ok {
		return s.c
	}
	return nil
}
