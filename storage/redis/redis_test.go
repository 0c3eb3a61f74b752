package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/sessionkit/logger"
	"github.com/kbukum/sessionkit/storage"
)

// newTestStorage creates a Storage backed by miniredis for testing.
func newTestStorage(t *testing.T) (*Storage, *miniredis.Miniredis) {
	t.Helper()
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mini.Close)

	s, err := New(Config{Addr: mini.Addr()}, logger.Nop())
	if err != nil {
		t.Fatalf("failed to create redis storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, mini
}

func TestStorage_SetAndGet(t *testing.T) {
	s, mini := newTestStorage(t)
	ctx := context.Background()

	if err := s.Set(ctx, "user_tokens", []byte(`{"tokens":5}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := s.Get(ctx, "user_tokens")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != `{"tokens":5}` {
		t.Fatalf("Get = %s", got)
	}

	if ttl := mini.TTL("user_tokens"); ttl != 0 {
		t.Errorf("expected no expiration, got %v", ttl)
	}
}

func TestStorage_GetMissing(t *testing.T) {
	s, _ := newTestStorage(t)

	_, err := s.Get(context.Background(), "nonexistent")
	if !storage.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStorage_Delete(t *testing.T) {
	s, mini := newTestStorage(t)
	ctx := context.Background()

	_ = s.Set(ctx, "k1", []byte("v"))
	if err := s.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if mini.Exists("k1") {
		t.Fatal("key should be gone")
	}
	if err := s.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete of missing key should succeed: %v", err)
	}
}

func TestStorage_ServerDown(t *testing.T) {
	s, mini := newTestStorage(t)
	mini.Close()

	if _, err := s.Get(context.Background(), "k"); err == nil || storage.IsNotFound(err) {
		t.Fatalf("expected a connection error, got %v", err)
	}
}

func TestStorage_CloseTwice(t *testing.T) {
	s, _ := newTestStorage(t)
	if err := s.Close(); err != nil {
		t.Fatalf("first Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestFactoryWithPrefix(t *testing.T) {
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatal(err)
	}
	defer mini.Close()

	s, err := storage.New(storage.Config{
		Provider:  storage.ProviderRedis,
		Addr:      mini.Addr(),
		KeyPrefix: "sk",
	}, logger.Nop())
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	defer s.Close()

	if err := s.Set(context.Background(), "catlist", []byte("[]")); err != nil {
		t.Fatal(err)
	}
	if !mini.Exists("sk:catlist") {
		t.Errorf("expected prefixed key sk:catlist, keys = %v", mini.Keys())
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Addr: "localhost:6379"}, false},
		{"missing addr", Config{}, true},
		{"url", Config{Addr: "redis://:secret@localhost:6379/2"}, false},
		{"bad url", Config{Addr: "redis://localhost:6379/notadb"}, true},
		{"negative timeout", Config{Addr: "x:1", ReadTimeout: -time.Second}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.ApplyDefaults()
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_URLOptions(t *testing.T) {
	cfg := Config{Addr: "redis://:secret@cache.internal:6380/3", PoolSize: 8}
	cfg.ApplyDefaults()
	opts := cfg.options()
	if opts.Addr != "cache.internal:6380" || opts.Password != "secret" || opts.DB != 3 {
		t.Errorf("url not parsed: addr=%s db=%d", opts.Addr, opts.DB)
	}
	if opts.PoolSize != 8 || opts.ReadTimeout != 2*time.Second {
		t.Errorf("tuning lost: pool=%d read=%v", opts.PoolSize, opts.ReadTimeout)
	}
}
