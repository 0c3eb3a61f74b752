package account

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/sessionkit/api"
	"github.com/kbukum/sessionkit/catlist"
	"github.com/kbukum/sessionkit/errors"
	"github.com/kbukum/sessionkit/httpclient"
	"github.com/kbukum/sessionkit/logger"
	"github.com/kbukum/sessionkit/messages"
	"github.com/kbukum/sessionkit/refresh"
	"github.com/kbukum/sessionkit/session"
	"github.com/kbukum/sessionkit/storage"
	"github.com/kbukum/sessionkit/tokens"
)

// backend records requests and replies from a per-path table.
type backend struct {
	mu       sync.Mutex
	replies  map[string]reply
	requests []recorded
}

type reply struct {
	status int
	body   string
}

type recorded struct {
	method, path string
	body         map[string]any
}

func newBackend(t *testing.T) (*backend, *httptest.Server) {
	t.Helper()
	b := &backend{replies: map[string]reply{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)

		b.mu.Lock()
		b.requests = append(b.requests, recorded{r.Method, r.URL.Path, body})
		rep, ok := b.replies[r.Method+" "+r.URL.Path]
		b.mu.Unlock()

		if !ok {
			rep = reply{status: http.StatusOK}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(rep.status)
		_, _ = w.Write([]byte(rep.body))
	}))
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *backend) on(method, path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.replies[method+" "+path] = reply{status, body}
}

func (b *backend) last(method, path string) (recorded, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.requests) - 1; i >= 0; i-- {
		if r := b.requests[i]; r.method == method && r.path == path {
			return r, true
		}
	}
	return recorded{}, false
}

type fixture struct {
	mgr     *Manager
	sess    *session.Store
	ctrl    *refresh.Controller
	catlist *catlist.Store
	tokens  *tokens.Store
	mem     *storage.Memory
}

func newFixture(t *testing.T, srv *httptest.Server, kind session.Kind, mem *storage.Memory) *fixture {
	t.Helper()
	ctx := context.Background()
	log := logger.Nop()
	if mem == nil {
		mem = storage.NewMemory()
	}

	sess, err := session.New(ctx, session.Config{Kind: kind}, mem, log)
	if err != nil {
		t.Fatalf("session.New failed: %v", err)
	}
	hc, err := httpclient.New(httpclient.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("httpclient.New failed: %v", err)
	}
	base := api.EscortBasePath
	if kind == session.KindMember {
		base = api.MemberBasePath
	}
	client, err := api.New(api.Config{Name: string(kind), BasePath: base}, hc, sess, log)
	if err != nil {
		t.Fatalf("api.New failed: %v", err)
	}
	ctrl, err := refresh.New(refresh.Config{Name: "refresh." + string(kind), Interval: time.Hour},
		client.RefreshSession, sess.Logout, log)
	if err != nil {
		t.Fatalf("refresh.New failed: %v", err)
	}
	client.SetRefresher(ctrl)

	f := &fixture{sess: sess, ctrl: ctrl, mem: mem}
	opts := []Option{}
	if kind == session.KindMember {
		f.tokens = tokens.New(ctx, mem, log)
		opts = append(opts, WithTokens(f.tokens))
	}
	f.catlist = catlist.New(ctx, mem, catlist.NewHTTPBackend(client, ""), log)
	opts = append(opts, WithCatlist(f.catlist))
	f.mgr = New(client, sess, ctrl, log, opts...)
	t.Cleanup(func() { _ = f.mgr.Stop(context.Background()) })
	return f
}

func TestEscortLoginAndLogout(t *testing.T) {
	b, srv := newBackend(t)
	b.on("POST", "/escort/login", 200, `{"id":"e1","email":"ana@example.com","basicInfo":{"age":30},"catList":[{"id":"c1","escortId":"e9","visited":true}]}`)
	f := newFixture(t, srv, session.KindEscort, nil)
	ctx := context.Background()

	u, err := f.mgr.Login(ctx, Credentials{Identity: "ana@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if u.ID != "e1" || u.DisplayName != DefaultEscortDisplayName {
		t.Errorf("unexpected user %+v", u)
	}
	if _, ok := u.Profile["basicInfo"]; !ok {
		t.Error("full response should be kept as profile")
	}

	req, _ := b.last("POST", "/escort/login")
	if req.body["email"] != "ana@example.com" || req.body["pass"] != "secret" {
		t.Errorf("unexpected login body %+v", req.body)
	}
	if st := f.sess.Get(); !st.IsAuthenticated || st.IsLoading {
		t.Errorf("unexpected state %+v", st)
	}
	items := f.catlist.Items()
	if len(items) != 1 || items[0].ID != "c1" || !items[0].Visited {
		t.Errorf("catlist not hydrated: %+v", items)
	}
	if !f.ctrl.IsActive() {
		t.Error("refresh should start on login")
	}

	f.mgr.Logout(ctx)
	if _, ok := b.last("POST", "/escort/logout"); !ok {
		t.Error("expected logout request")
	}
	if f.sess.IsAuthenticated() || f.sess.User() != nil {
		t.Error("session should be cleared")
	}
	if f.ctrl.IsActive() {
		t.Error("refresh should stop on logout")
	}
	if _, err := f.mem.Get(ctx, session.EscortStorageKey); !storage.IsNotFound(err) {
		t.Error("logout should remove the stored session")
	}
}

func TestRefreshFollowsSessionUnderRacingLoginLogout(t *testing.T) {
	b, srv := newBackend(t)
	b.on("POST", "/escort/login", 200, `{"id":"e1","email":"ana@example.com"}`)
	f := newFixture(t, srv, session.KindEscort, nil)
	ctx := context.Background()

	for range 20 {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = f.mgr.Login(ctx, Credentials{Identity: "ana@example.com", Password: "secret"})
		}()
		go func() {
			defer wg.Done()
			f.mgr.Logout(ctx)
		}()
		wg.Wait()

		if f.ctrl.IsActive() != f.sess.IsAuthenticated() {
			t.Fatalf("refresh active=%v, session authenticated=%v", f.ctrl.IsActive(), f.sess.IsAuthenticated())
		}
	}
}

func TestMemberLoginTokensAndFailedLogout(t *testing.T) {
	b, srv := newBackend(t)
	b.on("POST", "/users/login", 200, `{"id":"u1","username":"leo","profilePic":"p.jpg","tokens":12}`)
	b.on("POST", "/users/logout", 500, `{"message":"down"}`)
	f := newFixture(t, srv, session.KindMember, nil)
	ctx := context.Background()

	u, err := f.mgr.Login(ctx, Credentials{Identity: "leo", Password: "pw"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if u.Username != "leo" || u.DisplayName != "leo" || u.ProfilePic != "p.jpg" {
		t.Errorf("unexpected user %+v", u)
	}
	req, _ := b.last("POST", "/users/login")
	if req.body["username"] != "leo" {
		t.Errorf("member login should send username, got %+v", req.body)
	}
	if f.tokens.Balance() != 12 {
		t.Errorf("expected 12 tokens, got %d", f.tokens.Balance())
	}

	f.mgr.Logout(ctx)
	if f.sess.IsAuthenticated() {
		t.Error("local session must be cleared even when logout fails remotely")
	}
	if f.tokens.Balance() != 0 {
		t.Errorf("member logout should clear tokens, got %d", f.tokens.Balance())
	}
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantApp  errors.ErrorCode
	}{
		{"bad credentials", 401, `{"message":"Invalid credentials"}`, messages.CodeInvalidCredentials, errors.ErrCodeBackend},
		{"server error", 500, ``, messages.CodeLoginFailed, errors.ErrCodeBackend},
		{"backend code kept", 403, `{"code":"ACCOUNT_BLOCKED","message":"blocked"}`, "ACCOUNT_BLOCKED", errors.ErrCodeBackend},
		{"missing id", 200, `{"email":"x"}`, "", errors.ErrCodeInvalidResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, srv := newBackend(t)
			b.on("POST", "/escort/login", tt.status, tt.body)
			f := newFixture(t, srv, session.KindEscort, nil)

			_, err := f.mgr.Login(context.Background(), Credentials{Identity: "a@b.c", Password: "x"})
			if !errors.HasCode(err, tt.wantApp) {
				t.Fatalf("expected %s, got %v", tt.wantApp, err)
			}
			if code, _ := errors.BackendCode(err); code != tt.wantCode {
				t.Errorf("expected backend code %q, got %q", tt.wantCode, code)
			}
			if st := f.sess.Get(); st.IsAuthenticated || st.IsLoading {
				t.Errorf("failed login must leave the session signed out and not loading: %+v", st)
			}
			if f.ctrl.IsActive() {
				t.Error("failed login must not start refresh")
			}
			if _, ok := b.last("POST", "/escort/refresh-jwt"); ok {
				t.Error("login 401 must not trigger a refresh")
			}
		})
	}
}

func TestLoginValidatesInput(t *testing.T) {
	b, srv := newBackend(t)
	f := newFixture(t, srv, session.KindEscort, nil)

	_, err := f.mgr.Login(context.Background(), Credentials{Identity: " "})
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	if _, ok := b.last("POST", "/escort/login"); ok {
		t.Error("invalid input must not reach the backend")
	}
}

func TestResumeStartsRefreshForStoredSession(t *testing.T) {
	_, srv := newBackend(t)
	mem := storage.NewMemory()
	ctx := context.Background()
	_ = mem.Set(ctx, session.MemberStorageKey, []byte(`{"isAuthenticated":true,"user":{"id":"u1","username":"leo"},"isLoading":false}`))

	f := newFixture(t, srv, session.KindMember, mem)
	if err := f.mgr.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !f.ctrl.IsActive() {
		t.Fatal("stored session should resume refreshing")
	}

	cold := newFixture(t, srv, session.KindEscort, storage.NewMemory())
	if cold.mgr.Resume(ctx) {
		t.Error("cold start should not report a session")
	}
	if cold.ctrl.IsActive() {
		t.Error("cold start must not refresh")
	}
}

func TestExpiredRefreshLogsOut(t *testing.T) {
	b, srv := newBackend(t)
	b.on("POST", "/escort/login", 200, `{"id":"e1"}`)
	b.on("POST", "/escort/refresh-jwt", 401, ``)
	f := newFixture(t, srv, session.KindEscort, nil)
	ctx := context.Background()

	if _, err := f.mgr.Login(ctx, Credentials{Identity: "a@b.c", Password: "x"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if f.ctrl.Refresh(ctx) {
		t.Fatal("refresh against 401 should fail")
	}
	if f.sess.IsAuthenticated() {
		t.Error("expired refresh should log out")
	}
	if f.ctrl.IsActive() {
		t.Error("expired refresh should stop the controller")
	}
}

func TestAuthenticatedCallLogsOutWhenRefreshFails(t *testing.T) {
	b, srv := newBackend(t)
	b.on("POST", "/escort/login", 200, `{"id":"e1","basicInfo":{"displayName":"Ana"}}`)
	f := newFixture(t, srv, session.KindEscort, nil)
	ctx := context.Background()
	if _, err := f.mgr.Login(ctx, Credentials{Identity: "a@b.c", Password: "x"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	// The refresh endpoint fails: the 401 on PATCH turns into a logout.
	b.on("PATCH", "/escort/info", 401, ``)
	b.on("POST", "/escort/refresh-jwt", 500, ``)
	_, err := f.mgr.UpdateSection(ctx, SectionInfo, map[string]any{"displayName": "Ana B"})
	if !errors.IsSessionExpired(err) {
		t.Fatalf("expected session expired, got %v", err)
	}
	if f.sess.IsAuthenticated() {
		t.Error("forced logout expected")
	}
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
	}{
		{"username taken", 400, `{"error":"Username already exists"}`, messages.CodeUsernameExists},
		{"other bad request", 400, `{"error":"bad"}`, messages.CodeRegistrationFailed},
		{"rate limited", 429, ``, messages.CodeTooManyRequests},
		{"server error", 500, ``, messages.CodeRegistrationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, srv := newBackend(t)
			b.on("POST", "/users/register", tt.status, tt.body)
			f := newFixture(t, srv, session.KindMember, nil)

			_, err := f.mgr.Register(context.Background(), MemberRegistration{Username: "leo", Password: "secret1"})
			if code, _ := errors.BackendCode(err); code != tt.wantCode {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}

	b, srv := newBackend(t)
	b.on("POST", "/users/register", 201, `{"id":"u2"}`)
	f := newFixture(t, srv, session.KindMember, nil)
	out, err := f.mgr.Register(context.Background(), MemberRegistration{Username: "leo", Password: "secret1"})
	if err != nil || out["id"] != "u2" {
		t.Fatalf("Register = %v, %v", out, err)
	}
}

func TestVerifyOTP(t *testing.T) {
	b, srv := newBackend(t)
	f := newFixture(t, srv, session.KindMember, nil)
	ctx := context.Background()

	if err := f.mgr.VerifyOTP(ctx, "123456"); err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}
	req, _ := b.last("POST", "/users/otp")
	if req.body["otp"] != "123456" {
		t.Errorf("unexpected body %+v", req.body)
	}

	b.on("POST", "/users/otp", 400, `{"message":"nope"}`)
	if code, _ := errors.BackendCode(f.mgr.VerifyOTP(ctx, "123456")); code != messages.CodeOTPFailed {
		t.Errorf("expected OTP_FAILED, got %q", code)
	}
	if err := f.mgr.VerifyOTP(ctx, "abc"); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for malformed otp, got %v", err)
	}
}

func TestEscortEmailValidation(t *testing.T) {
	b, srv := newBackend(t)
	f := newFixture(t, srv, session.KindEscort, nil)
	ctx := context.Background()

	already, err := f.mgr.ValidateEmail(ctx, "ana@example.com")
	if err != nil || already {
		t.Fatalf("ValidateEmail = %v, %v", already, err)
	}

	b.on("POST", "/escort/validate/email", 409, `{"message":"exists"}`)
	already, err = f.mgr.ValidateEmail(ctx, "ana@example.com")
	if err != nil || !already {
		t.Fatalf("409 should skip verification, got %v, %v", already, err)
	}

	b.on("POST", "/escort/validate/code", 400, `{"message":"Código inválido"}`)
	err = f.mgr.VerifyEmailCode(ctx, "ana@example.com", "0000")
	if code, _ := errors.BackendCode(err); code != messages.CodeInvalidCode {
		t.Errorf("expected INVALID_CODE, got %v", err)
	}

	b.on("POST", "/escort/register", 409, `{"errorCode":"EmailAlreadyExistsException","message":"exists"}`)
	err = f.mgr.SubmitRegistration(ctx, map[string]any{"email": "ana@example.com"})
	if code, _ := errors.BackendCode(err); code != messages.CodeEmailExists {
		t.Errorf("expected EmailAlreadyExistsException, got %v", err)
	}
}

func TestUpdateSectionMergesProfile(t *testing.T) {
	b, srv := newBackend(t)
	b.on("POST", "/escort/login", 200, `{"id":"e1","basicInfo":{"displayName":"Ana","age":30},"appearance":{"eyeColor":"green"}}`)
	b.on("PATCH", "/escort/media", 200, `{"files":["a.jpg"]}`)
	f := newFixture(t, srv, session.KindEscort, nil)
	ctx := context.Background()
	if _, err := f.mgr.Login(ctx, Credentials{Identity: "a@b.c", Password: "x"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	type appearance struct {
		HairColor string `json:"hairColor"`
	}
	if _, err := f.mgr.UpdateSection(ctx, SectionAppearance, appearance{HairColor: "red"}); err != nil {
		t.Fatalf("UpdateSection failed: %v", err)
	}
	app := f.sess.User().Profile["appearance"].(map[string]any)
	if app["hairColor"] != "red" || app["eyeColor"] != "green" {
		t.Errorf("appearance not merged: %+v", app)
	}

	if _, err := f.mgr.UpdateSection(ctx, SectionInfo, map[string]any{"displayName": "Ana B"}); err != nil {
		t.Fatalf("UpdateSection failed: %v", err)
	}
	u := f.sess.User()
	if u.DisplayName != "Ana B" {
		t.Errorf("display name not updated: %q", u.DisplayName)
	}
	if info := u.Profile["basicInfo"].(map[string]any); info["age"] != float64(30) {
		t.Errorf("basicInfo lost fields: %+v", info)
	}

	out, err := f.mgr.UpdateSection(ctx, SectionMedia, map[string]any{"profilePic": "a.jpg"})
	if err != nil {
		t.Fatalf("UpdateSection(media) failed: %v", err)
	}
	if files, _ := out["files"].([]any); len(files) != 1 {
		t.Errorf("expected media reply, got %+v", out)
	}

	if _, err := f.mgr.UpdateSection(ctx, Section("bogus"), nil); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for unknown section, got %v", err)
	}
}

func TestDeleteFileAndContactMethod(t *testing.T) {
	b, srv := newBackend(t)
	f := newFixture(t, srv, session.KindEscort, nil)
	ctx := context.Background()

	if err := f.mgr.DeleteFile(ctx, "pic 1.jpg"); err != nil {
		t.Fatalf("DeleteFile failed: %v", err)
	}
	if _, ok := b.last("DELETE", "/escort/file/pic 1.jpg"); !ok {
		t.Error("expected DELETE /escort/file/pic 1.jpg")
	}
	if err := f.mgr.DeleteContactMethod(ctx, "whatsapp"); err != nil {
		t.Fatalf("DeleteContactMethod failed: %v", err)
	}
	if _, ok := b.last("DELETE", "/escort/contact-method/whatsapp"); !ok {
		t.Error("expected DELETE /escort/contact-method/whatsapp")
	}
	if err := f.mgr.DeleteFile(ctx, ""); err == nil {
		t.Error("expected error for empty file name")
	}
}
