package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/sessionkit/errors"
	"github.com/kbukum/sessionkit/httpclient"
	"github.com/kbukum/sessionkit/logger"
	"github.com/kbukum/sessionkit/observability"
)

// Refresher reissues session credentials. It reports false when no refresh
// happened, including when one is already in flight.
type Refresher interface {
	Refresh(ctx context.Context) bool
}

// Session is the auth state the client logs out on expiry.
type Session interface {
	IsAuthenticated() bool
	Logout(ctx context.Context)
}

// Client sends requests under one account kind's base path.
type Client struct {
	cfg     Config
	http    *httpclient.Client
	session Session
	metrics *observability.Metrics
	log     *logger.Logger

	mu        sync.RWMutex
	refresher Refresher
}

// Option configures a Client.
type Option func(*Client)

// WithMetrics records every request on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithRefresher sets the refresher consulted on 401.
func WithRefresher(r Refresher) Option {
	return func(c *Client) { c.refresher = r }
}

// New creates a client. session may be nil for clients without an auth
// store, in which case a failed refresh only returns the error.
func New(cfg Config, hc *httpclient.Client, session Session, log *logger.Logger, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if hc == nil {
		return nil, errors.Validation("api: http client is required")
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	c := &Client{
		cfg:     cfg,
		http:    hc,
		session: session,
		log:     log.WithComponent("api." + cfg.Name),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the account kind name.
func (c *Client) Name() string { return c.cfg.Name }

// SetRefresher sets the refresher consulted on 401. The refresh controller
// depends on the client, so it is usually attached after both exist.
func (c *Client) SetRefresher(r Refresher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.refresher = r
}

func (c *Client) getRefresher() Refresher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refresher
}

// Do sends an authenticated request. req.Path is relative to the base path.
func (c *Client) Do(ctx context.Context, req httpclient.Request) (*httpclient.Response, error) {
	req.Path = c.resolve(req.Path)
	ctx, op := observability.StartOperation(ctx, c.metrics, c.cfg.Name, req.Method+" "+req.Path)

	resp, err := c.http.Do(ctx, req)
	if err != nil && errors.IsUnauthorized(err) && c.sessionBound() {
		resp, err = c.recover(ctx, req, op, err)
	}
	if resp != nil {
		op.SetAttributes(attribute.Int(observability.AttrHTTPStatus, resp.StatusCode))
	}
	op.End(ctx, err)
	if err != nil {
		c.logFailure(req, err, op.Duration())
		return resp, err
	}
	return resp, nil
}

// sessionBound reports whether a 401 concerns an account session. Clients
// built without one pass it through as a plain unauthorized error.
func (c *Client) sessionBound() bool {
	return c.session != nil || c.getRefresher() != nil
}

// recover handles a 401: one retry after a successful refresh, otherwise
// forced logout.
func (c *Client) recover(ctx context.Context, req httpclient.Request, op *observability.Operation, cause error) (*httpclient.Response, error) {
	if r := c.getRefresher(); r != nil && r.Refresh(ctx) {
		op.SetAttributes(attribute.Bool(observability.AttrRetried, true))
		return c.http.Do(ctx, req)
	}
	if c.session != nil && c.session.IsAuthenticated() {
		c.session.Logout(ctx)
	}
	c.metrics.RecordError(ctx, string(errors.ErrCodeSessionExpired), "api."+c.cfg.Name)
	return nil, errors.SessionExpired().WithCause(cause)
}

// DoPublic sends req without 401 handling. Used for login, logout,
// registration and the refresh call itself.
func (c *Client) DoPublic(ctx context.Context, req httpclient.Request) (*httpclient.Response, error) {
	req.Path = c.resolve(req.Path)
	ctx, op := observability.StartOperation(ctx, c.metrics, c.cfg.Name, req.Method+" "+req.Path)
	resp, err := c.http.Do(ctx, req)
	if resp != nil {
		op.SetAttributes(attribute.Int(observability.AttrHTTPStatus, resp.StatusCode))
	}
	op.End(ctx, err)
	if err != nil {
		c.logFailure(req, err, op.Duration())
	}
	return resp, err
}

// RefreshSession asks the backend to reissue the session cookie. A 401
// comes back as an unauthorized error, which the refresh controller treats
// as expiry. It has the signature of refresh.Func.
func (c *Client) RefreshSession(ctx context.Context) error {
	_, err := c.DoPublic(ctx, httpclient.Request{Method: http.MethodPost, Path: c.cfg.RefreshPath})
	return err
}

// Get sends an authenticated GET and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodGet, path, nil, out)
}

// Post sends an authenticated POST.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPost, path, body, out)
}

// Put sends an authenticated PUT.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPut, path, body, out)
}

// Patch sends an authenticated PATCH.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.call(ctx, http.MethodPatch, path, body, out)
}

// Delete sends an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.call(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.Do(ctx, httpclient.Request{Method: method, Path: path, Body: body})
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// resolve joins path under the base path. Absolute URLs and paths already
// under the base path pass through.
func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	base := strings.TrimRight(c.cfg.BasePath, "/")
	if base == "" || path == base || strings.HasPrefix(path, base+"/") {
		return path
	}
	return base + path
}

func (c *Client) logFailure(req httpclient.Request, err error, took time.Duration) {
	fields := logger.Fields(
		logger.FieldMethod, req.Method,
		logger.FieldPath, req.Path,
		logger.FieldDuration, took.Milliseconds(),
		logger.FieldError, err.Error(),
	)
	if appErr, ok := errors.AsAppError(err); ok && appErr.HTTPStatus != 0 {
		fields[logger.FieldStatus] = appErr.HTTPStatus
	}
	c.log.Error("api request failed", fields)
}
