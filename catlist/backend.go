package catlist

import (
	"context"
	"net/url"
)

// Requester is the subset of the API client the HTTP backend needs.
type Requester interface {
	Post(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// DefaultPath is the catlist endpoint under the API base URL.
const DefaultPath = "/users/catlist"

// HTTPBackend implements Backend against the REST API.
type HTTPBackend struct {
	api  Requester
	path string
}

// NewHTTPBackend creates a backend rooted at path (DefaultPath when empty).
func NewHTTPBackend(api Requester, path string) *HTTPBackend {
	if path == "" {
		path = DefaultPath
	}
	return &HTTPBackend{api: api, path: path}
}

type addRequest struct {
	EscortID string `json:"escortId"`
	Visited  bool   `json:"visited"`
}

type patchRequest struct {
	Visited bool `json:"visited"`
}

// Add posts a new saved escort. The backend replies without a body.
func (b *HTTPBackend) Add(ctx context.Context, escortID string) error {
	return b.api.Post(ctx, b.path, addRequest{EscortID: escortID}, nil)
}

// Remove deletes a saved entry.
func (b *HTTPBackend) Remove(ctx context.Context, itemID string) error {
	return b.api.Delete(ctx, b.itemPath(itemID), nil)
}

// SetVisited patches the visited flag.
func (b *HTTPBackend) SetVisited(ctx context.Context, itemID string, visited bool) error {
	return b.api.Patch(ctx, b.itemPath(itemID), patchRequest{Visited: visited}, nil)
}

func (b *HTTPBackend) itemPath(itemID string) string {
	return b.path + "/" + url.PathEscape(itemID)
}
