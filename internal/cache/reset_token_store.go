package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

const forgetPasswordPrefix = "forget-password:"

// ResetTokenStore keeps single-use password reset tokens.
type ResetTokenStore struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewResetTokenStore(client *redisv9.Client, ttl time.Duration) *ResetTokenStore {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &ResetTokenStore{client: client, ttl: ttl}
}

func (s *ResetTokenStore) Save(ctx context.Context, token string, userID uint) error {
	if err := s.client.Set(ctx, forgetPasswordPrefix+token, strconv.FormatUint(uint64(userID), 10), s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set reset token failed: %w", err)
	}
	return nil
}

// Consume atomically removes token and returns its account id. ok is false
// once the token has expired or been consumed, so only one caller ever wins.
func (s *ResetTokenStore) Consume(ctx context.Context, token string) (uint, bool, error) {
	raw, err := s.client.GetDel(ctx, forgetPasswordPrefix+token).Result()
	if errors.Is(err, redisv9.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("redis consume reset token failed: %w", err)
	}
	userID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse reset token user id failed: %w", err)
	}
	return uint(userID), true, nil
}
