package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

type handOff struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	sid := NewID()

	if _, ok, err := s.Get(ctx, sid, KeyUserRole); err != nil || ok {
		t.Fatalf("Get on empty session = %v, %v", ok, err)
	}
	if err := s.Set(ctx, sid, KeyUserRole, "admin"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, ok, _ := s.Get(ctx, sid, KeyUserRole); !ok || v != "admin" {
		t.Errorf("Get(userRole) = %q, %v", v, ok)
	}

	if err := PutJSON(ctx, s, sid, KeyEditBarn, handOff{ID: "b1", Name: "North"}); err != nil {
		t.Fatalf("PutJSON() error = %v", err)
	}
	var got handOff
	if ok, err := TakeJSON(ctx, s, sid, KeyEditBarn, &got); err != nil || !ok {
		t.Fatalf("TakeJSON() = %v, %v", ok, err)
	}
	if got.Name != "North" {
		t.Errorf("hand-off = %+v", got)
	}
	if ok, _ := TakeJSON(ctx, s, sid, KeyEditBarn, &got); ok {
		t.Error("hand-off should be consumed on first read")
	}

	if err := s.Clear(ctx, sid); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, ok, _ := s.Get(ctx, sid, KeyUserRole); ok {
		t.Error("userRole survived Clear")
	}

	if err := s.Set(ctx, "", KeyUserRole, "x"); !errors.Is(err, ErrNoSession) {
		t.Errorf("Set without sid error = %v, want ErrNoSession", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(time.Hour))
}

func TestMemoryStore_Expiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Minute)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	_ = s.Set(ctx, "sid", KeyUserID, "u1")
	now = now.Add(2 * time.Minute)

	if _, ok, _ := s.Get(ctx, "sid", KeyUserID); ok {
		t.Error("expired session still readable")
	}
	if n := s.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want 1", n)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	s, err := NewRedisStore(context.Background(), RedisOptions{Addr: addr, Prefix: "telurku:test", TTL: time.Minute})
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestGuard(t *testing.T) {
	g := NewGuard()

	release, ok := g.Acquire("sid:barn-form")
	if !ok {
		t.Fatal("first Acquire() = false")
	}
	if _, ok := g.Acquire("sid:barn-form"); ok {
		t.Error("second Acquire() while in flight = true, want false")
	}
	if _, ok := g.Acquire("other:barn-form"); !ok {
		t.Error("Acquire() for another session = false, want true")
	}

	release()
	release()
	if _, ok := g.Acquire("sid:barn-form"); !ok {
		t.Error("Acquire() after release = false, want true")
	}
}
