package analytics

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/sessionkit/logger"
	"github.com/kbukum/sessionkit/session"
	"github.com/kbukum/sessionkit/storage"
)

// Enrichment property names.
const (
	PropUserType  = "userType"
	PropUserID    = "userId"
	PropTimestamp = "timestamp"
	PropDevice    = "device"
	PropSessionID = "sessionId"
	PropURL       = "url"
)

// User types reported in PropUserType.
const (
	UserTypeMember = "DSUser"
	UserTypeEscort = "Escort"
)

// DefaultSessionKey is the ephemeral storage key of the browsing session id.
const DefaultSessionKey = "sessionId"

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Config controls the tracker.
type Config struct {
	Disabled bool `yaml:"disabled" mapstructure:"disabled"`
	// UserAgent is classified into the device property.
	UserAgent  string `yaml:"user_agent" mapstructure:"user_agent"`
	SessionKey string `yaml:"session_key" mapstructure:"session_key"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.SessionKey == "" {
		c.SessionKey = DefaultSessionKey
	}
}

// Validate has nothing to reject; it exists so every package config looks
// the same to the loader.
func (c *Config) Validate() error { return nil }

// Identity is the part of an auth store the tracker reads.
type Identity interface {
	IsAuthenticated() bool
	User() *session.UserRecord
}

// Event is one captured event with its enriched properties.
type Event struct {
	Name       string
	Properties map[string]any
}

// UserType returns the enriched user type, or "" for anonymous events.
func (e Event) UserType() string {
	s, _ := e.Properties[PropUserType].(string)
	return s
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides time.Now for the timestamp property.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the logger for sink failures.
func WithLogger(log *logger.Logger) Option {
	return func(t *Tracker) { t.log = log }
}

// Tracker enriches and forwards events. It is safe for concurrent use.
type Tracker struct {
	cfg     Config
	member  Identity
	escort  Identity
	storage storage.Storage
	sink    Sink
	now     func() time.Time
	log     *logger.Logger

	mu        sync.Mutex
	sessionID string
}

// New creates a Tracker. member and escort may be nil. ephemeral holds the
// browsing session id and should not outlive the process.
func New(cfg Config, member, escort Identity, ephemeral storage.Storage, sink Sink, opts ...Option) *Tracker {
	cfg.ApplyDefaults()
	t := &Tracker{
		cfg:     cfg,
		member:  member,
		escort:  escort,
		storage: ephemeral,
		sink:    sink,
		now:     time.Now,
		log:     logger.GetGlobalLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = t.log.WithComponent("analytics")
	return t
}

// Track enriches props and hands the event to the sink. Enrichment keys
// override caller properties of the same name. Sink failures are logged.
func (t *Tracker) Track(ctx context.Context, name string, props map[string]any) {
	if t.cfg.Disabled || t.sink == nil {
		return
	}
	ev := t.Enrich(ctx, name, props)
	if err := t.sink.Capture(ctx, ev); err != nil {
		t.log.Warn("analytics event dropped", logger.Fields("event", name, logger.FieldError, err.Error()))
	}
}

// Enrich builds the event Track would send.
func (t *Tracker) Enrich(ctx context.Context, name string, props map[string]any) Event {
	out := make(map[string]any, len(props)+6)
	maps.Copy(out, props)
	delete(out, PropUserType)
	delete(out, PropUserID)

	if userType, userID := t.CurrentUser(); userType != "" {
		out[PropUserType] = userType
		out[PropUserID] = userID
	}
	out[PropTimestamp] = t.now().UTC().Format(timestampLayout)
	out[PropDevice] = DetectDevice(t.cfg.UserAgent)
	out[PropSessionID] = t.SessionID(ctx)
	out[PropURL] = PathFrom(ctx)
	return Event{Name: name, Properties: out}
}

// CurrentUser returns the user type and id events are attributed to. A
// signed-in member with a username wins over a signed-in escort; both
// empty means anonymous.
func (t *Tracker) CurrentUser() (userType, userID string) {
	if u := authenticated(t.member); u != nil && u.Username != "" {
		return UserTypeMember, u.Username
	}
	if u := authenticated(t.escort); u != nil && u.ID != "" {
		return UserTypeEscort, u.ID
	}
	return "", ""
}

func authenticated(id Identity) *session.UserRecord {
	if id == nil || !id.IsAuthenticated() {
		return nil
	}
	return id.User()
}

// SessionID returns the browsing session id, creating and storing one on
// first use. When the storage fails the id lives in memory only.
func (t *Tracker) SessionID(ctx context.Context) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.storage != nil {
		data, err := t.storage.Get(ctx, t.cfg.SessionKey)
		if err == nil && len(data) > 0 {
			t.sessionID = string(data)
			return t.sessionID
		}
		if err != nil && !storage.IsNotFound(err) {
			t.log.Warn("session id not readable", logger.Fields(logger.FieldKey, t.cfg.SessionKey, logger.FieldError, err.Error()))
		}
	}
	if t.sessionID == "" {
		t.sessionID = uuid.NewString()
	}
	if t.storage != nil {
		if err := t.storage.Set(ctx, t.cfg.SessionKey, []byte(t.sessionID)); err != nil {
			t.log.Warn("session id not stored", logger.Fields(logger.FieldKey, t.cfg.SessionKey, logger.FieldError, err.Error()))
		}
	}
	return t.sessionID
}

type pathKey struct{}

// WithPath attaches the current page path to ctx.
func WithPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, pathKey{}, path)
}

// PathFrom returns the page path attached to ctx, or "/".
func PathFrom(ctx context.Context) string {
	if p, ok := ctx.Value(pathKey{}).(string); ok && p != "" {
		return p
	}
	return "/"
}
