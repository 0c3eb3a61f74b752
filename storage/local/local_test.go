package local

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kbukum/sessionkit/logger"
	"github.com/kbukum/sessionkit/storage"
)

func TestStorage_SetGetDelete(t *testing.T) {
	s, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	ctx := context.Background()

	if _, err := s.Get(ctx, "catlist"); !storage.IsNotFound(err) {
		t.Fatalf("Get on empty storage = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, "catlist", []byte(`{"items":[]}`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "catlist")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"items":[]}` {
		t.Errorf("Get = %s", got)
	}

	if err := s.Set(ctx, "catlist", []byte(`{"items":[1]}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = s.Get(ctx, "catlist")
	if string(got) != `{"items":[1]}` {
		t.Errorf("after overwrite Get = %s", got)
	}

	if err := s.Delete(ctx, "catlist"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "catlist"); err != nil {
		t.Errorf("Delete of missing key should be nil, got %v", err)
	}
	if _, err := s.Get(ctx, "catlist"); !storage.IsNotFound(err) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}

func TestStorage_KeysStayInsideBasePath(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStorage(dir)
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	ctx := context.Background()

	for _, key := range []string{"reviews:42", "../escape", "a/b/c"} {
		if err := s.Set(ctx, key, []byte("1")); err != nil {
			t.Fatalf("Set(%q): %v", key, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("expected 3 files in base dir, got %d", len(entries))
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.json")); err == nil {
		t.Error("key escaped the base directory")
	}
}

func TestStorage_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, _ := NewStorage(dir)
	if err := first.Set(ctx, "escort_auth", []byte(`{"user":{"id":"e1"}}`)); err != nil {
		t.Fatal(err)
	}

	second, _ := NewStorage(dir)
	got, err := second.Get(ctx, "escort_auth")
	if err != nil {
		t.Fatalf("Get from second instance: %v", err)
	}
	if string(got) != `{"user":{"id":"e1"}}` {
		t.Errorf("Get = %s", got)
	}
}

func TestFactoryRegistered(t *testing.T) {
	s, err := storage.New(storage.Config{Provider: storage.ProviderLocal, BasePath: t.TempDir()}, logger.Nop())
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	defer s.Close()

	if err := s.Set(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
}
