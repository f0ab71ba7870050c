package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"lireddit/internal/testutil"
)

func TestSessionStore(t *testing.T) {
	client, srv := testutil.NewTestRedis(t)
	store := NewSessionStore(client, time.Hour)
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}

	if err := store.Save(ctx, "abc", 42); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	userID, ok, err := store.Get(ctx, "abc")
	if err != nil || !ok || userID != 42 {
		t.Fatalf("Get() = %d, %v, %v; want 42, true, nil", userID, ok, err)
	}
	if ttl := srv.TTL("sess:abc"); ttl != time.Hour {
		t.Errorf("session ttl = %v, want 1h", ttl)
	}

	if err := store.Delete(ctx, "abc"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := store.Get(ctx, "abc"); ok {
		t.Error("session still present after Delete")
	}
}

func TestSessionStoreExpiry(t *testing.T) {
	client, srv := testutil.NewTestRedis(t)
	store := NewSessionStore(client, time.Minute)
	ctx := context.Background()

	if err := store.Save(ctx, "short", 7); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	srv.FastForward(2 * time.Minute)
	if _, ok, _ := store.Get(ctx, "short"); ok {
		t.Error("expired session still resolves")
	}
}

func TestResetTokenStore(t *testing.T) {
	client, srv := testutil.NewTestRedis(t)
	store := NewResetTokenStore(client, 0)
	ctx := context.Background()

	if err := store.Save(ctx, "tok", 5); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if ttl := srv.TTL("forget-password:tok"); ttl != 72*time.Hour {
		t.Errorf("token ttl = %v, want 72h", ttl)
	}

	userID, ok, err := store.Consume(ctx, "tok")
	if err != nil || !ok || userID != 5 {
		t.Fatalf("Consume() = %d, %v, %v", userID, ok, err)
	}
	if srv.Exists("forget-password:tok") {
		t.Error("token still stored after Consume")
	}
	if _, ok, err := store.Consume(ctx, "tok"); err != nil || ok {
		t.Errorf("second Consume() = %v, %v; want not ok", ok, err)
	}
}

func TestResetTokenConsumedOnce(t *testing.T) {
	client, _ := testutil.NewTestRedis(t)
	store := NewResetTokenStore(client, time.Hour)
	ctx := context.Background()

	if err := store.Save(ctx, "tok", 9); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	const callers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := store.Consume(ctx, "tok")
			if err != nil {
				t.Errorf("Consume() error = %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Errorf("token consumed %d times, want 1", wins)
	}
}
