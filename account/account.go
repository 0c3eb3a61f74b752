// Package account runs the sign-in lifecycle of one account kind: login,
// logout, session resume and keeping the refresh controller in step with
// the auth store.
package account

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/kbukum/sessionkit/api"
	"github.com/kbukum/sessionkit/catlist"
	"github.com/kbukum/sessionkit/component"
	"github.com/kbukum/sessionkit/errors"
	"github.com/kbukum/sessionkit/httpclient"
	"github.com/kbukum/sessionkit/logger"
	"github.com/kbukum/sessionkit/messages"
	"github.com/kbukum/sessionkit/refresh"
	"github.com/kbukum/sessionkit/session"
	"github.com/kbukum/sessionkit/tokens"
	"github.com/kbukum/sessionkit/validation"
)

// DefaultEscortDisplayName is used when the login profile has none.
const DefaultEscortDisplayName = "Escort"

// Credentials are the login inputs. Identity is the email for escorts and
// the username for members.
type Credentials struct {
	Identity string `json:"identity" validate:"notblank"`
	Password string `json:"password" validate:"required"`
}

// Controller is the refresh state machine the manager drives.
type Controller interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsActive() bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithCatlist hydrates c from the catList of a login response.
func WithCatlist(c *catlist.Store) Option {
	return func(m *Manager) { m.catlist = c }
}

// WithTokens keeps the token balance of a member session: it is set from
// the login response and cleared on logout.
func WithTokens(t *tokens.Store) Option {
	return func(m *Manager) { m.tokens = t }
}

// Manager owns the login lifecycle of one account kind.
type Manager struct {
	api     *api.Client
	session *session.Store
	refresh Controller
	catlist *catlist.Store
	tokens  *tokens.Store
	log     *logger.Logger

	mu      sync.Mutex
	unwatch func()
}

// New creates a manager. ctrl is usually a *refresh.Controller built on
// client.RefreshSession.
func New(client *api.Client, sess *session.Store, ctrl Controller, log *logger.Logger, opts ...Option) *Manager {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	m := &Manager{
		api:     client,
		session: sess,
		refresh: ctrl,
		log:     log.WithComponent("account").WithAccount(string(sess.Kind())),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.tokens != nil {
		t := m.tokens
		sess.OnLogout(func(ctx context.Context) { t.Clear(ctx) })
	}
	return m
}

// Kind returns the account kind.
func (m *Manager) Kind() session.Kind { return m.session.Kind() }

// Session returns the auth store.
func (m *Manager) Session() *session.Store { return m.session }

// API returns the account's API client.
func (m *Manager) API() *api.Client { return m.api }

// watch keeps the refresh controller active exactly while the session is
// authenticated. Safe to call repeatedly.
func (m *Manager) watch(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unwatch != nil || m.refresh == nil {
		return
	}
	base := context.WithoutCancel(ctx)
	m.unwatch = m.session.Subscribe(func(session.State) {
		// The delivered state may already be superseded; act on the current one.
		authed := m.session.IsAuthenticated()
		switch {
		case authed && !m.refresh.IsActive():
			_ = m.refresh.Start(base)
		case !authed && m.refresh.IsActive():
			_ = m.refresh.Stop(base)
		}
	})
}

// Resume starts refreshing a session restored from storage. It reports
// whether a signed-in session exists.
func (m *Manager) Resume(ctx context.Context) bool {
	m.watch(ctx)
	ok := m.session.IsAuthenticated()
	if ok {
		m.log.Info("resumed stored session")
	}
	return ok
}

// Login signs in with creds. On success the user record is stored, the
// catlist and token balance are hydrated from the response and the refresh
// controller starts.
func (m *Manager) Login(ctx context.Context, creds Credentials) (*session.UserRecord, error) {
	if err := validation.Validate(creds); err != nil {
		return nil, err
	}
	m.session.SetLoading(ctx, true)

	resp, err := m.api.DoPublic(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/login",
		Body:   m.loginBody(creds),
	})
	if err != nil {
		m.session.SetLoading(ctx, false)
		return nil, loginError(err)
	}

	var profile map[string]any
	if err := resp.Decode(&profile); err != nil {
		m.session.SetLoading(ctx, false)
		return nil, err
	}
	user, ok := m.userFromProfile(profile)
	if !ok {
		m.session.SetLoading(ctx, false)
		return nil, errors.InvalidResponse("Invalid response from server", nil)
	}

	m.watch(ctx)
	m.session.Login(ctx, user)
	m.hydrate(ctx, profile)
	return m.session.User(), nil
}

func (m *Manager) loginBody(creds Credentials) map[string]string {
	if m.Kind() == session.KindEscort {
		return map[string]string{"email": creds.Identity, "pass": creds.Password}
	}
	return map[string]string{"username": creds.Identity, "pass": creds.Password}
}

// loginError keeps backend codes and marks bad credentials so call sites can
// show the right message.
func loginError(err error) error {
	if _, ok := errors.BackendCode(err); ok {
		return err
	}
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.HTTPStatus == 0 {
		return err
	}
	switch appErr.HTTPStatus {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Backend(appErr.HTTPStatus, messages.CodeInvalidCredentials, appErr.Message).WithCause(err)
	case http.StatusTooManyRequests:
		return err
	default:
		return errors.Backend(appErr.HTTPStatus, messages.CodeLoginFailed, appErr.Message).WithCause(err)
	}
}

func (m *Manager) userFromProfile(p map[string]any) (session.UserRecord, bool) {
	id := str(p["id"])
	if id == "" {
		return session.UserRecord{}, false
	}
	u := session.UserRecord{
		ID:         id,
		Email:      str(p["email"]),
		Username:   str(p["username"]),
		ProfilePic: str(p["profilePic"]),
		Profile:    p,
	}
	if m.Kind() == session.KindEscort {
		if info, ok := p["basicInfo"].(map[string]any); ok {
			u.DisplayName = str(info["displayName"])
		}
		if u.DisplayName == "" {
			u.DisplayName = DefaultEscortDisplayName
		}
	} else {
		u.DisplayName = u.Username
	}
	return u, true
}

func (m *Manager) hydrate(ctx context.Context, p map[string]any) {
	if raw, ok := p["catList"]; ok && m.catlist != nil && raw != nil {
		var items []catlist.Item
		b, _ := json.Marshal(raw)
		if err := json.Unmarshal(b, &items); err != nil {
			m.log.Warn("ignoring unreadable catList in login response", logger.Fields(logger.FieldError, err.Error()))
		} else {
			m.catlist.Replace(ctx, items)
		}
	}
	if n, ok := p["tokens"].(float64); ok && m.tokens != nil {
		m.tokens.SetTokens(ctx, int(n))
	}
}

// Logout tells the backend best-effort and clears local state regardless.
func (m *Manager) Logout(ctx context.Context) {
	if _, err := m.api.DoPublic(ctx, httpclient.Request{Method: http.MethodPost, Path: api.DefaultLogoutPath}); err != nil {
		m.log.Warn("logout request failed, clearing local session anyway", logger.Fields(logger.FieldError, err.Error()))
	}
	m.session.Logout(ctx)
	if m.watching() {
		return
	}
	if m.refresh != nil && m.refresh.IsActive() {
		_ = m.refresh.Stop(ctx)
	}
}

// watching reports whether the session subscription owns the controller.
func (m *Manager) watching() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unwatch != nil
}

// Name implements component.Component.
func (m *Manager) Name() string { return "account." + string(m.Kind()) }

// Start implements component.Component by resuming a stored session.
func (m *Manager) Start(ctx context.Context) error {
	m.Resume(ctx)
	return nil
}

// Stop stops watching the session and stops the refresh controller.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	unwatch := m.unwatch
	m.unwatch = nil
	m.mu.Unlock()
	if unwatch != nil {
		unwatch()
	}
	if m.refresh != nil {
		return m.refresh.Stop(ctx)
	}
	return nil
}

// Health reports whether a session is signed in.
func (m *Manager) Health(_ context.Context) component.Health {
	msg := "signed out"
	if m.session.IsAuthenticated() {
		msg = "signed in"
	}
	return component.Health{Name: m.Name(), Status: component.StatusHealthy, Message: msg}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

var (
	_ component.Component = (*Manager)(nil)
	_ Controller          = (*refresh.Controller)(nil)
)
