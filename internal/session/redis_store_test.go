package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStore("redis://" + mr.Addr())
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestSaveAndLookup(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	sess := Session{UserID: "usr_1", Name: "Dana"}
	if err := store.Save(ctx, "hash-1", sess, time.Now().Add(24*time.Hour)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Lookup(ctx, "hash-1")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got.UserID != "usr_1" || got.Name != "Dana" {
		t.Errorf("session = %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt was not filled in")
	}
}

func TestLookupUnknownToken(t *testing.T) {
	store, _ := setupTestRedis(t)
	if _, err := store.Lookup(context.Background(), "never-saved"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestLookupExpiredSession(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	if err := store.Save(ctx, "hash-2", Session{UserID: "usr_2"}, time.Now().Add(time.Second)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	mr.FastForward(2 * time.Second)

	if _, err := store.Lookup(ctx, "hash-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after expiry", err)
	}
}

func TestSaveAlreadyExpired(t *testing.T) {
	store, _ := setupTestRedis(t)
	err := store.Save(context.Background(), "hash-3", Session{UserID: "usr_3"}, time.Now().Add(-time.Minute))
	if err == nil {
		t.Fatal("saving an expired session must fail")
	}
}

func TestRevoke(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	if err := store.Save(ctx, "hash-4", Session{UserID: "usr_4"}, time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := store.Revoke(ctx, "hash-4"); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	if _, err := store.Lookup(ctx, "hash-4"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound after revoke", err)
	}

	// Revoking again is a no-op.
	if err := store.Revoke(ctx, "hash-4"); err != nil {
		t.Errorf("second revoke failed: %v", err)
	}
}
