package identity

import (
	"context"
	"errors"
	"testing"
)

type memStore struct {
	sessions  map[string]uint
	deleteErr error
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]uint)}
}

func (m *memStore) Save(_ context.Context, id string, userID uint) error {
	m.sessions[id] = userID
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.sessions, id)
	return nil
}

type recordingCookie struct {
	value   string
	cleared bool
}

func (c *recordingCookie) SetSession(id string) error {
	c.value = id
	c.cleared = false
	return nil
}

func (c *recordingCookie) ClearSession() {
	c.value = ""
	c.cleared = true
}

func TestEstablishAndDestroy(t *testing.T) {
	store := newMemStore()
	cookie := &recordingCookie{}
	s := NewSession("", 0, store, cookie)
	ctx := context.Background()

	if s.Authenticated() {
		t.Fatal("new session should be anonymous")
	}

	if err := s.Establish(ctx, 9); err != nil {
		t.Fatalf("Establish() error = %v", err)
	}
	if !s.Authenticated() || s.UserID() != 9 {
		t.Fatalf("after Establish UserID() = %d", s.UserID())
	}
	if cookie.value == "" || store.sessions[cookie.value] != 9 {
		t.Fatalf("cookie %q not backed by stored session", cookie.value)
	}
	first := cookie.value

	// Logging in again rotates the id and drops the old record.
	if err := s.Establish(ctx, 9); err != nil {
		t.Fatalf("Establish() error = %v", err)
	}
	if cookie.value == first {
		t.Error("session id was not rotated")
	}
	if _, ok := store.sessions[first]; ok {
		t.Error("previous session record kept")
	}

	if err := s.Destroy(ctx); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if s.Authenticated() {
		t.Error("session still authenticated after Destroy")
	}
	if !cookie.cleared {
		t.Error("cookie not cleared")
	}
	if len(store.sessions) != 0 {
		t.Errorf("%d session records left", len(store.sessions))
	}
}

func TestDestroyReportsStoreFailure(t *testing.T) {
	store := newMemStore()
	store.sessions["abc"] = 3
	store.deleteErr = errors.New("redis down")
	cookie := &recordingCookie{value: "abc"}
	s := NewSession("abc", 3, store, cookie)

	if err := s.Destroy(context.Background()); err == nil {
		t.Fatal("Destroy() expected error")
	}
	if s.Authenticated() || !cookie.cleared {
		t.Error("viewer should be anonymous with cookie cleared despite store error")
	}
}

func TestAnonymousCannotEstablish(t *testing.T) {
	if err := Anonymous().Establish(context.Background(), 1); !errors.Is(err, ErrNoSessionStore) {
		t.Errorf("Establish() error = %v, want ErrNoSessionStore", err)
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()).Authenticated() {
		t.Error("empty context should yield anonymous session")
	}
	s := NewSession("id", 4, newMemStore(), &recordingCookie{})
	if got := FromContext(NewContext(context.Background(), s)); got != s {
		t.Error("FromContext did not return attached session")
	}
}
