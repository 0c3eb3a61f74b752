package s3

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/kbukum/sessionkit/logger"
	"github.com/kbukum/sessionkit/storage"
)

const bucket = "sessions"

// fakeS3 serves path-style object requests from a map.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key, ok := strings.CutPrefix(r.URL.Path, "/"+bucket+"/")
	if !ok {
		http.Error(w, "wrong bucket", http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		data, ok := f.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStorage(t *testing.T) (*Storage, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	s, err := NewStorage(context.Background(), storage.Config{
		Provider:  storage.ProviderS3,
		Bucket:    bucket,
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
	}, logger.Nop())
	if err != nil {
		t.Fatalf("NewStorage failed: %v", err)
	}
	return s, fake
}

func TestStorage_SetGetDelete(t *testing.T) {
	s, fake := newTestStorage(t)
	ctx := context.Background()

	if err := s.Set(ctx, "escort_auth", []byte(`{"isAuthenticated":false}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if got := string(fake.objects["escort_auth"]); got != `{"isAuthenticated":false}` {
		t.Errorf("stored object = %q", got)
	}

	got, err := s.Get(ctx, "escort_auth")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `{"isAuthenticated":false}` {
		t.Errorf("Get = %s", got)
	}

	if err := s.Delete(ctx, "escort_auth"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Get(ctx, "escort_auth"); !storage.IsNotFound(err) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStorage_GetMissing(t *testing.T) {
	s, _ := newTestStorage(t)
	if _, err := s.Get(context.Background(), "nope"); !storage.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStorage_Closed(t *testing.T) {
	s, _ := newTestStorage(t)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := s.Get(ctx, "k"); err != storage.ErrClosed {
		t.Errorf("Get after Close = %v", err)
	}
	if err := s.Set(ctx, "k", nil); err != storage.ErrClosed {
		t.Errorf("Set after Close = %v", err)
	}
}

func TestFactoryRequiresBucket(t *testing.T) {
	_, err := storage.New(storage.Config{Provider: storage.ProviderS3}, logger.Nop())
	if err == nil || !strings.Contains(err.Error(), "bucket") {
		t.Fatalf("expected bucket error, got %v", err)
	}
}
