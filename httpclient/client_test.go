package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/kbukum/sessionkit/errors"
)

func TestClient_Do_GET(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/escort/motels/previews" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("page") != "2" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") != "sessionkit/test" || r.Header.Get("X-Client") != "go" {
			t.Errorf("headers = %v", r.Header)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]string{{"name": "Motel A"}})
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL + "/escort/", UserAgent: "sessionkit/test", Headers: map[string]string{"X-Client": "go"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodGet,
		Path:   "/motels/previews",
		Query:  map[string]string{"page": "2"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out []map[string]string
	if err := resp.Decode(&out); err != nil || len(out) != 1 || out[0]["name"] != "Motel A" {
		t.Errorf("decoded = %v, %v", out, err)
	}
}

func TestClient_Do_POST_JSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", ct)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["escortId"] != "e1" || body["visited"] != false {
			t.Errorf("body = %v", body)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL})
	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/users/catlist",
		Body:   map[string]any{"escortId": "e1", "visited": false},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out map[string]any
	if err := resp.Decode(&out); err != nil || out != nil {
		t.Errorf("empty body should decode to nothing, got %v, %v", out, err)
	}
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode errors.ErrorCode
		wantMsg  string
	}{
		{"json message", 400, `{"message":"Username already exists"}`, errors.ErrCodeInvalidInput, "Username already exists"},
		{"json error field", 500, `{"error":"db down"}`, errors.ErrCodeExternalService, "db down"},
		{"backend code", 422, `{"code":"EMAIL_TAKEN","message":"taken"}`, errors.ErrCodeBackend, "taken"},
		{"escort errorCode", 409, `{"errorCode":"EmailAlreadyExistsException","message":"exists"}`, errors.ErrCodeBackend, "exists"},
		{"plain text", 404, "no such motel", errors.ErrCodeNotFound, "no such motel"},
		{"html body", 502, "<html>bad gateway</html>", errors.ErrCodeExternalService, "API request failed with status 502"},
		{"empty body", 429, "", errors.ErrCodeRateLimited, "API request failed with status 429"},
		{"unauthorized with code", 401, `{"code":"TOKEN_EXPIRED"}`, errors.ErrCodeUnauthorized, "API request failed with status 401"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, _ := New(Config{BaseURL: srv.URL})
			resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"})
			if resp == nil || resp.StatusCode != tt.status {
				t.Fatalf("response should be returned with the error, got %+v", resp)
			}
			appErr, ok := errors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != tt.wantCode || appErr.Message != tt.wantMsg || appErr.HTTPStatus != tt.status {
				t.Errorf("got code=%s msg=%q status=%d", appErr.Code, appErr.Message, appErr.HTTPStatus)
			}
		})
	}
}

func TestClient_BackendCodeDetail(t *testing.T) {
	err := ClassifyResponse(409, []byte(`{"code":"USERNAME_TAKEN","message":"Username already exists"}`))
	code, ok := errors.BackendCode(err)
	if !ok || code != "USERNAME_TAKEN" {
		t.Errorf("BackendCode = %q, %v", code, ok)
	}
}

func TestClient_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c, _ := New(Config{BaseURL: addr})
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
	if !errors.HasCode(err, errors.ErrCodeConnectionFailed) {
		t.Fatalf("expected CONNECTION_FAILED, got %v", err)
	}
}

func TestClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c, _ := New(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
	if !errors.HasCode(err, errors.ErrCodeTimeout) {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
}

func TestJar_SharesCookiesAcrossClients(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/escort/login":
			http.SetCookie(w, &http.Cookie{Name: "jwt", Value: "abc", Path: "/", HttpOnly: true})
		case "/users/me":
			if c, err := r.Cookie("jwt"); err != nil || c.Value != "abc" {
				w.WriteHeader(http.StatusUnauthorized)
			}
		}
	}))
	defer srv.Close()

	jar, err := NewJar()
	if err != nil {
		t.Fatal(err)
	}
	escort, _ := New(Config{BaseURL: srv.URL + "/escort"}, WithJar(jar))
	member, _ := New(Config{BaseURL: srv.URL + "/users"}, WithJar(jar))
	ctx := context.Background()

	if _, err := escort.Do(ctx, Request{Method: http.MethodPost, Path: "/login"}); err != nil {
		t.Fatal(err)
	}
	if _, err := member.Do(ctx, Request{Method: http.MethodGet, Path: "/me"}); err != nil {
		t.Fatalf("cookie not shared: %v", err)
	}
	u, _ := url.Parse(srv.URL)
	if len(jar.Cookies(u)) != 1 {
		t.Errorf("jar cookies = %v", jar.Cookies(u))
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", Config{}, false},
		{"https", Config{BaseURL: "https://api.example.com"}, false},
		{"bad scheme", Config{BaseURL: "ftp://x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ApplyDefaults()
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
