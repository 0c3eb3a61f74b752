package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/kbukum/sessionkit/account"
	"github.com/kbukum/sessionkit/agegate"
	"github.com/kbukum/sessionkit/analytics"
	"github.com/kbukum/sessionkit/api"
	"github.com/kbukum/sessionkit/catlist"
	"github.com/kbukum/sessionkit/component"
	"github.com/kbukum/sessionkit/hidden"
	"github.com/kbukum/sessionkit/httpclient"
	"github.com/kbukum/sessionkit/listings"
	"github.com/kbukum/sessionkit/logger"
	"github.com/kbukum/sessionkit/messages"
	"github.com/kbukum/sessionkit/observability"
	"github.com/kbukum/sessionkit/refresh"
	"github.com/kbukum/sessionkit/session"
	"github.com/kbukum/sessionkit/storage"
	"github.com/kbukum/sessionkit/tokens"

	// Register the persistent storage providers.
	_ "github.com/kbukum/sessionkit/storage/local"
	_ "github.com/kbukum/sessionkit/storage/redis"
	_ "github.com/kbukum/sessionkit/storage/s3"
	_ "github.com/kbukum/sessionkit/storage/sqlite"
)

// Account bundles the components of one account kind.
type Account struct {
	*account.Manager
	Refresh *refresh.Controller
}

// Client owns every component built from a Config.
type Client struct {
	Escort   *Account
	Member   *Account
	Tokens   *tokens.Store
	Catlist  *catlist.Store
	Hidden   *hidden.Store
	AgeGate  *agegate.Gate
	Listings *listings.Service
	Messages *messages.Translator
	Tracker  *analytics.Tracker
	Metrics  *observability.Metrics

	cfg       Config
	log       *logger.Logger
	storage   storage.Storage
	ephemeral storage.Storage
	providers *observability.Providers
	registry  *component.Registry
	closeOnce sync.Once
}

// Option configures New.
type Option func(*options)

type options struct {
	log       *logger.Logger
	transport http.RoundTripper
	redirect  func()
	storage   storage.Storage
	sinks     []analytics.Sink
}

// WithLogger replaces the logger built from Config.Logging.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithTransport sets the HTTP transport of the API clients.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithAgeGateRedirect sets the callback run after an age-gate rejection.
func WithAgeGateRedirect(fn func()) Option {
	return func(o *options) { o.redirect = fn }
}

// WithStorage uses s instead of building one from Config.Storage. Close
// still closes it.
func WithStorage(s storage.Storage) Option {
	return func(o *options) { o.storage = s }
}

// WithAnalyticsSink adds a sink next to the log and meter sinks.
func WithAnalyticsSink(s analytics.Sink) Option {
	return func(o *options) { o.sinks = append(o.sinks, s) }
}

// New builds the client. Nothing talks to the backend until Start.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.New(&cfg.Logging, cfg.Name)
	}

	c := &Client{
		cfg:       cfg,
		log:       o.log.WithComponent("client"),
		ephemeral: storage.NewMemory(),
		registry:  component.NewRegistry(o.log),
	}
	if err := c.build(ctx, o); err != nil {
		_ = c.Close(ctx)
		return nil, err
	}
	c.log.Info("client ready", logger.Fields(
		"storage", cfg.Storage.Provider,
		"locale", c.Messages.Language().String(),
	))
	return c, nil
}

func (c *Client) build(ctx context.Context, o options) error {
	cfg := c.cfg
	log := o.log

	providers, err := observability.Init(ctx, cfg.Observability, log)
	if err != nil {
		return fmt.Errorf("client: observability: %w", err)
	}
	c.providers = providers
	if providers.Meter != nil {
		if c.Metrics, err = observability.NewMetrics(providers.Meter.Meter(cfg.Name)); err != nil {
			return fmt.Errorf("client: metrics: %w", err)
		}
	}

	c.storage = o.storage
	if c.storage == nil {
		if c.storage, err = storage.New(cfg.Storage, log); err != nil {
			return fmt.Errorf("client: %w", err)
		}
	}
	jar, err := httpclient.NewJar()
	if err != nil {
		return fmt.Errorf("client: cookie jar: %w", err)
	}
	hcOpts := []httpclient.Option{httpclient.WithJar(jar)}
	if o.transport != nil {
		hcOpts = append(hcOpts, httpclient.WithTransport(o.transport))
	}
	hc, err := httpclient.New(cfg.API, hcOpts...)
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}

	escortSess, escortAPI, escortCtrl, err := c.buildKind(ctx, session.KindEscort, cfg.Accounts.Escort, hc, log)
	if err != nil {
		return err
	}
	memberSess, memberAPI, memberCtrl, err := c.buildKind(ctx, session.KindMember, cfg.Accounts.Member, hc, log)
	if err != nil {
		return err
	}

	c.Tokens = tokens.New(ctx, c.storage, log)
	c.Catlist = catlist.New(ctx, c.storage, catlist.NewHTTPBackend(memberAPI, ""), log)
	c.Hidden = hidden.New(ctx, c.storage, log)
	c.AgeGate = agegate.New(ctx, c.storage, o.redirect, log)

	// Listings are public; a 401 there must not end the member session.
	listingAPI, err := api.New(api.Config{Name: "listings"}, hc, nil, log, api.WithMetrics(c.Metrics))
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}
	if c.Listings, err = listings.New(cfg.Cache, listingAPI, c.storage, log, listings.WithMetrics(c.Metrics)); err != nil {
		return fmt.Errorf("client: %w", err)
	}

	c.Escort = &Account{
		Manager: account.New(escortAPI, escortSess, escortCtrl, log, account.WithCatlist(c.Catlist)),
		Refresh: escortCtrl,
	}
	c.Member = &Account{
		Manager: account.New(memberAPI, memberSess, memberCtrl, log,
			account.WithCatlist(c.Catlist), account.WithTokens(c.Tokens)),
		Refresh: memberCtrl,
	}
	for _, a := range []*Account{c.Escort, c.Member} {
		if err := c.registry.Register(a.Manager); err != nil {
			return err
		}
	}

	c.Messages = messages.New(cfg.Locale)
	sinks := append([]analytics.Sink{analytics.LogSink(log), analytics.MeterSink(c.Metrics)}, o.sinks...)
	c.Tracker = analytics.New(cfg.Analytics, memberSess, escortSess, c.ephemeral,
		analytics.MultiSink(sinks...), analytics.WithLogger(log))
	return nil
}

func (c *Client) buildKind(ctx context.Context, kind session.Kind, ac AccountConfig, hc *httpclient.Client, log *logger.Logger) (*session.Store, *api.Client, *refresh.Controller, error) {
	sess, err := session.New(ctx, session.Config{Kind: kind, StorageKey: ac.StorageKey}, c.storage, log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("client: %w", err)
	}
	client, err := api.New(api.Config{Name: string(kind), BasePath: ac.BasePath, RefreshPath: ac.RefreshPath},
		hc, sess, log, api.WithMetrics(c.Metrics))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("client: %w", err)
	}
	metrics := c.Metrics
	ctrl, err := refresh.New(refresh.Config{
		Name:           "refresh." + string(kind),
		Interval:       ac.RefreshInterval,
		RefreshOnStart: *ac.RefreshOnStart,
	}, client.RefreshSession, sess.Logout, log, refresh.WithObserver(func(name string, o refresh.Outcome) {
		metrics.RecordRefresh(context.Background(), name, string(o))
	}))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("client: %w", err)
	}
	client.SetRefresher(ctrl)
	return sess, client, ctrl, nil
}

// Config returns the effective configuration after defaults.
func (c *Client) Config() Config { return c.cfg }

// Storage returns the persistent storage shared by the stores.
func (c *Client) Storage() storage.Storage { return c.storage }

// Start resumes the persisted sessions, starting their refresh timers.
func (c *Client) Start(ctx context.Context) error {
	return c.registry.StartAll(ctx)
}

// Close stops the refresh timers, then closes storage and flushes
// telemetry. It is safe to call more than once, with or without Start.
func (c *Client) Close(ctx context.Context) error {
	errs := []error{c.registry.StopAll(ctx)}
	for _, a := range []*Account{c.Escort, c.Member} {
		if a != nil {
			errs = append(errs, a.Stop(ctx))
		}
	}
	c.closeOnce.Do(func() {
		if c.storage != nil {
			errs = append(errs, c.storage.Close())
		}
		errs = append(errs, c.providers.Shutdown(ctx))
	})
	return errors.Join(errs...)
}

// Health reports every registered component.
func (c *Client) Health(ctx context.Context) []component.Health {
	return c.registry.HealthAll(ctx)
}

// Message returns the user-facing text for err in the configured locale.
func (c *Client) Message(err error) string {
	return c.Messages.ForError(err)
}
