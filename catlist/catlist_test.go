package catlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/kbukum/sessionkit/logger"
	"github.com/kbukum/sessionkit/storage"
)

type fakeBackend struct {
	addErr, removeErr, patchErr error
	calls                       []string
	// during runs inside SetVisited before the error is returned.
	during func()
}

func (f *fakeBackend) Add(_ context.Context, escortID string) error {
	f.calls = append(f.calls, "add:"+escortID)
	return f.addErr
}

func (f *fakeBackend) Remove(_ context.Context, itemID string) error {
	f.calls = append(f.calls, "remove:"+itemID)
	return f.removeErr
}

func (f *fakeBackend) SetVisited(_ context.Context, itemID string, visited bool) error {
	f.calls = append(f.calls, fmt.Sprintf("patch:%s:%v", itemID, visited))
	if f.during != nil {
		f.during()
	}
	return f.patchErr
}

func newTestStore(t *testing.T, b Backend) (*Store, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	s := New(context.Background(), mem, b, logger.Nop())
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("item-%d", n)
	}
	return s, mem
}

func TestAdd(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{}
	s, mem := newTestStore(t, b)

	item, err := s.Add(ctx, "esc-9", Meta{Slug: "jane", DisplayName: "Jane"})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if item.ID != "item-1" || item.EscortID != "esc-9" || item.Visited {
		t.Errorf("item = %+v", item)
	}

	raw, _ := mem.Get(ctx, StorageKey)
	var stored []Item
	if err := json.Unmarshal(raw, &stored); err != nil || len(stored) != 1 || stored[0].Slug != "jane" {
		t.Errorf("stored = %s (%v)", raw, err)
	}
}

func TestAddFailureLeavesListUnchanged(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("backend down")
	s, _ := newTestStore(t, &fakeBackend{addErr: boom})

	if _, err := s.Add(ctx, "esc-1", Meta{}); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if len(s.Items()) != 0 {
		t.Errorf("items = %+v", s.Items())
	}
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{}
	s, _ := newTestStore(t, b)
	s.Replace(ctx, []Item{{ID: "a"}, {ID: "b"}})

	b.removeErr = errors.New("nope")
	if err := s.Remove(ctx, "a"); err == nil {
		t.Fatal("expected error")
	}
	if len(s.Items()) != 2 {
		t.Fatalf("failed remove changed list: %+v", s.Items())
	}

	b.removeErr = nil
	if err := s.Remove(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	items := s.Items()
	if len(items) != 1 || items[0].ID != "b" {
		t.Errorf("items = %+v", items)
	}
}

func TestSetVisitedRollbackRestoresPriorValue(t *testing.T) {
	tests := []struct {
		name    string
		prior   bool
		visited bool
	}{
		{"false to true", false, true},
		{"true to true", true, true},
		{"true to false", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			b := &fakeBackend{patchErr: errors.New("500")}
			s, _ := newTestStore(t, b)
			s.Replace(ctx, []Item{{ID: "a", Visited: tt.prior}, {ID: "b", Visited: true}, {ID: "c"}})

			var optimistic bool
			b.during = func() { optimistic = s.Items()[0].Visited }

			s.SetVisited(ctx, "a", tt.visited)

			if optimistic != tt.visited {
				t.Errorf("optimistic value = %v, want %v", optimistic, tt.visited)
			}
			items := s.Items()
			if items[0].Visited != tt.prior {
				t.Errorf("visited after rollback = %v, want %v", items[0].Visited, tt.prior)
			}
			if !items[1].Visited || items[2].Visited {
				t.Errorf("other entries changed: %+v", items)
			}
		})
	}
}

func TestSetVisitedSuccess(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{}
	s, mem := newTestStore(t, b)
	s.Replace(ctx, []Item{{ID: "a"}})

	s.SetVisited(ctx, "a", true)
	if !s.Items()[0].Visited {
		t.Error("visited not applied")
	}
	if b.calls[0] != "patch:a:true" {
		t.Errorf("calls = %v", b.calls)
	}

	reloaded := New(ctx, mem, b, logger.Nop())
	if !reloaded.Items()[0].Visited {
		t.Error("visited not persisted")
	}
}

func TestSetVisitedRollbackKeepsConcurrentChanges(t *testing.T) {
	ctx := context.Background()
	b := &fakeBackend{patchErr: errors.New("500")}
	s, _ := newTestStore(t, b)
	s.Replace(ctx, []Item{{ID: "a"}})
	b.during = func() {
		s.Replace(ctx, append(s.Items(), Item{ID: "new"}))
	}

	s.SetVisited(ctx, "a", true)
	items := s.Items()
	if len(items) != 2 || items[0].Visited {
		t.Errorf("items = %+v", items)
	}
}

func TestReturnedItemsAreCopies(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t, &fakeBackend{})
	s.Replace(ctx, []Item{{ID: "a"}})
	items := s.Items()
	items[0].Visited = true
	if s.Items()[0].Visited {
		t.Error("caller mutation leaked into store")
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	s, mem := newTestStore(t, &fakeBackend{})
	s.Replace(ctx, []Item{{ID: "a"}})
	s.Clear(ctx)
	if len(s.Items()) != 0 {
		t.Error("items not cleared")
	}
	if _, err := mem.Get(ctx, StorageKey); !storage.IsNotFound(err) {
		t.Errorf("key not removed: %v", err)
	}
}
