package session

import (
	"context"
	"os"
	"testing"

	"courier/internal/infra"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	db, err := infra.OpenSQLite("file:session_store_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	store := NewSQLiteStore(db)
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "k", []byte("one")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "k", []byte("two")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := store.Get(ctx, "k")
	if err != nil || !ok || string(v) != "two" {
		t.Fatalf("expected two, got %q ok=%v err=%v", v, ok, err)
	}
}

func TestServiceOverSQLiteSurvivesRestart(t *testing.T) {
	db, err := infra.OpenSQLite("file:session_restart_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	first := NewService("p9", &stubBackend{}, NewSQLiteStore(db), nil)
	first.Load(ctx)
	if err := first.GoOnline(ctx); err != nil {
		t.Fatal(err)
	}

	second := NewService("p9", &stubBackend{}, NewSQLiteStore(db), nil)
	if snap := second.Load(ctx); !snap.Online {
		t.Fatalf("expected online after restart, got %+v", snap)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("COURIER_REDIS_ADDR")
	if addr == "" {
		t.Skip("COURIER_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := infra.NewRedis(ctx, addr, "", 0)
	if err != nil {
		t.Fatalf("redis: %v", err)
	}
	defer client.Close()
	store := NewRedisStore(client, 0)
	key := "partner-storage:test"
	defer client.Del(ctx, key)

	if _, ok, err := store.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, key, []byte(`{"isOnline":true}`)); err != nil {
		t.Fatal(err)
	}
	v, ok, err := store.Get(ctx, key)
	if err != nil || !ok || string(v) != `{"isOnline":true}` {
		t.Fatalf("unexpected %q ok=%v err=%v", v, ok, err)
	}
}
