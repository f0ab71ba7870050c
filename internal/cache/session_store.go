package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// SessionStore maps opaque session ids to account ids. Entries are written
// once with a fixed lifetime and never touched on read.
type SessionStore struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewSessionStore(client *redisv9.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 10 * 365 * 24 * time.Hour
	}
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Get(ctx context.Context, sessionID string) (uint, bool, error) {
	raw, err := s.client.Get(ctx, s.key(sessionID)).Result()
	if err == redisv9.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis get session failed: %w", err)
	}
	userID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse session user id failed: %w", err)
	}
	return uint(userID), true, nil
}

func (s *SessionStore) Save(ctx context.Context, sessionID string, userID uint) error {
	if err := s.client.Set(ctx, s.key(sessionID), strconv.FormatUint(uint64(userID), 10), s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session failed: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete session failed: %w", err)
	}
	return nil
}

func (s *SessionStore) key(sessionID string) string {
	return "sess:" + sessionID
}
