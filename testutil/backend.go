package testutil

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/kbukum/sessionkit/component"
)

// Reply is one scripted response.
type Reply struct {
	Status  int
	Body    []byte
	Header  map[string]string
	Cookies []*http.Cookie
}

// JSON builds a reply with v encoded as the body.
func JSON(status int, v any) Reply {
	data, err := json.Marshal(v)
	if err != nil {
		panic("testutil: encode reply: " + err.Error())
	}
	return Reply{Status: status, Body: data, Header: map[string]string{"Content-Type": "application/json"}}
}

// Status builds a reply with an empty body.
func Status(status int) Reply {
	return Reply{Status: status}
}

// RecordedRequest is a request the backend received.
type RecordedRequest struct {
	Method  string
	Path    string
	Body    []byte
	Header  http.Header
	Cookies []*http.Cookie
}

// Decode unmarshals the recorded body into v.
func (r RecordedRequest) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Backend is a fake HTTP backend. Each route answers with its scripted
// replies in order and repeats the last one. Unscripted routes answer 404.
type Backend struct {
	mu       sync.Mutex
	server   *httptest.Server
	routes   map[string][]Reply
	requests []RecordedRequest
}

// NewBackend creates a backend. Start serves it.
func NewBackend() *Backend {
	return &Backend{routes: make(map[string][]Reply)}
}

func routeKey(method, path string) string { return method + " " + path }

// On scripts replies for method and path, replacing earlier ones.
func (b *Backend) On(method, path string, replies ...Reply) *Backend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[routeKey(method, path)] = replies
	return b
}

// URL is the server base URL. It is empty before Start.
func (b *Backend) URL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.server == nil {
		return ""
	}
	return b.server.URL
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	b.mu.Lock()
	b.requests = append(b.requests, RecordedRequest{
		Method:  r.Method,
		Path:    r.URL.Path,
		Body:    body,
		Header:  r.Header.Clone(),
		Cookies: r.Cookies(),
	})
	key := routeKey(r.Method, r.URL.Path)
	queue := b.routes[key]
	var reply Reply
	switch len(queue) {
	case 0:
		reply = JSON(http.StatusNotFound, map[string]string{"message": "no route for " + key})
	case 1:
		reply = queue[0]
	default:
		reply = queue[0]
		b.routes[key] = queue[1:]
	}
	b.mu.Unlock()

	for k, v := range reply.Header {
		w.Header().Set(k, v)
	}
	for _, c := range reply.Cookies {
		http.SetCookie(w, c)
	}
	w.WriteHeader(reply.Status)
	_, _ = w.Write(reply.Body)
}

// Requests returns the received requests in arrival order.
func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

// Count returns how many requests hit method and path.
func (b *Backend) Count(method, path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the latest request to method and path.
func (b *Backend) Last(method, path string) (RecordedRequest, bool) {
	reqs := b.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return RecordedRequest{}, false
}

// Name implements component.Component.
func (b *Backend) Name() string { return "testutil.backend" }

// Start serves the backend on a loopback port.
func (b *Backend) Start(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.server == nil {
		b.server = httptest.NewServer(b)
	}
	return nil
}

// Stop shuts the server down.
func (b *Backend) Stop(context.Context) error {
	b.mu.Lock()
	srv := b.server
	b.server = nil
	b.mu.Unlock()
	if srv != nil {
		srv.Close()
	}
	return nil
}

// Health reports whether the server is running.
func (b *Backend) Health(context.Context) component.Health {
	if b.URL() == "" {
		return component.Health{Name: b.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: b.Name(), Status: component.StatusHealthy}
}

// Reset drops all routes and recorded requests.
func (b *Backend) Reset(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes = make(map[string][]Reply)
	b.requests = nil
	return nil
}

var _ Resettable = (*Backend)(nil)
