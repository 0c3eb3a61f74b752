package component

import (
	"context"
	"errors"
	"testing"

	"github.com/kbukum/sessionkit/logger"
)

type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	order    *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(context.Context) error {
	*m.order = append(*m.order, "start:"+m.name)
	return m.startErr
}
func (m *mockComponent) Stop(context.Context) error {
	*m.order = append(*m.order, "stop:"+m.name)
	return m.stopErr
}
func (m *mockComponent) Health(context.Context) Health {
	return Health{Name: m.name, Status: StatusHealthy}
}

func TestRegisterDuplicate(t *testing.T) {
	var order []string
	r := NewRegistry(logger.Nop())
	if err := r.Register(&mockComponent{name: "storage", order: &order}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&mockComponent{name: "storage", order: &order}); err == nil {
		t.Error("expected error for duplicate registration")
	}
	if r.Get("storage") == nil || r.Get("missing") != nil {
		t.Error("Get returned wrong components")
	}
}

func TestStartStopOrder(t *testing.T) {
	var order []string
	r := NewRegistry(logger.Nop())
	for _, n := range []string{"storage", "refresh.escort", "refresh.member"} {
		_ = r.Register(&mockComponent{name: n, order: &order})
	}
	ctx := context.Background()
	if err := r.StartAll(ctx); err != nil {
		t.Fatal(err)
	}
	if err := r.StopAll(ctx); err != nil {
		t.Fatal(err)
	}

	want := []string{
		"start:storage", "start:refresh.escort", "start:refresh.member",
		"stop:refresh.member", "stop:refresh.escort", "stop:storage",
	}
	if len(order) != len(want) {
		t.Fatalf("order = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestStartFailureRollsBack(t *testing.T) {
	var order []string
	r := NewRegistry(logger.Nop())
	_ = r.Register(&mockComponent{name: "a", order: &order})
	_ = r.Register(&mockComponent{name: "b", order: &order, startErr: errors.New("boom")})
	_ = r.Register(&mockComponent{name: "c", order: &order})

	ctx := context.Background()
	if err := r.StartAll(ctx); err == nil {
		t.Fatal("expected start error")
	}
	want := []string{"start:a", "start:b", "stop:a"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if err := r.StopAll(ctx); err != nil || len(order) != len(want) {
		t.Errorf("StopAll after rollback: err=%v order=%v", err, order)
	}
}

func TestRegisterEmptyName(t *testing.T) {
	var order []string
	r := NewRegistry(nil)
	if err := r.Register(&mockComponent{order: &order}); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestStopAllJoinsErrors(t *testing.T) {
	var order []string
	r := NewRegistry(logger.Nop())
	e1, e2 := errors.New("one"), errors.New("two")
	_ = r.Register(&mockComponent{name: "a", order: &order, stopErr: e1})
	_ = r.Register(&mockComponent{name: "b", order: &order, stopErr: e2})
	ctx := context.Background()
	_ = r.StartAll(ctx)

	err := r.StopAll(ctx)
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Errorf("StopAll error = %v", err)
	}
}

func TestHealthAll(t *testing.T) {
	var order []string
	r := NewRegistry(logger.Nop())
	_ = r.Register(&mockComponent{name: "a", order: &order})
	h := r.HealthAll(context.Background())
	if len(h) != 1 || h[0].Name != "a" {
		t.Errorf("health = %+v", h)
	}
}
