// Package identity carries the per-request viewer. A Session starts either
// Anonymous or Authenticated (resolved from the session cookie by the HTTP
// middleware) and moves between the two on login, logout or registration.
package identity

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

var ErrNoSessionStore = errors.New("session store unavailable")

type Store interface {
	Save(ctx context.Context, sessionID string, userID uint) error
	Delete(ctx context.Context, sessionID string) error
}

// CookieWriter puts the session id on, or removes it from, the response.
type CookieWriter interface {
	SetSession(sessionID string) error
	ClearSession()
}

type Session struct {
	mu     sync.Mutex
	id     string
	userID uint
	store  Store
	cookie CookieWriter
}

// NewSession binds a request's session. id and userID are empty for an
// anonymous visitor.
func NewSession(id string, userID uint, store Store, cookie CookieWriter) *Session {
	return &Session{id: id, userID: userID, store: store, cookie: cookie}
}

func Anonymous() *Session {
	return &Session{}
}

func (s *Session) UserID() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

func (s *Session) Authenticated() bool {
	return s.UserID() != 0
}

// Establish logs userID in under a fresh session id, replacing any session
// the request arrived with.
func (s *Session) Establish(ctx context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store == nil || s.cookie == nil {
		return ErrNoSessionStore
	}
	id := uuid.NewString()
	if err := s.store.Save(ctx, id, userID); err != nil {
		return err
	}
	if s.id != "" {
		_ = s.store.Delete(ctx, s.id)
	}
	if err := s.cookie.SetSession(id); err != nil {
		return err
	}
	s.id = id
	s.userID = userID
	return nil
}

// Destroy ends the session. The cookie is cleared and the viewer becomes
// anonymous even when the store delete fails; that failure is returned.
func (s *Session) Destroy(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cookie != nil {
		s.cookie.ClearSession()
	}
	id := s.id
	s.id = ""
	s.userID = 0
	if id == "" || s.store == nil {
		return nil
	}
	return s.store.Delete(ctx, id)
}

type contextKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the request's session, or an anonymous one.
func FromContext(ctx context.Context) *Session {
	if s, ok := ctx.Value(contextKey{}).(*Session); ok && s != nil {
		return s
	}
	return Anonymous()
}
