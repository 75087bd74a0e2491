package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// SessionEpochStore remembers when a user last logged out. Access tokens
// issued before that instant are treated as revoked. Entries expire after the
// access-token TTL since no older token can still be valid by then.
type SessionEpochStore struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewSessionEpochStore(client *redisv9.Client, accessTTL time.Duration) *SessionEpochStore {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &SessionEpochStore{client: client, ttl: accessTTL}
}

func (s *SessionEpochStore) Revoke(ctx context.Context, userID uint, at time.Time) error {
	if err := s.client.Set(ctx, s.key(userID), at.Unix(), s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session epoch failed: %w", err)
	}
	return nil
}

// RevokedAt returns the recorded logout time, or the zero time if none.
func (s *SessionEpochStore) RevokedAt(ctx context.Context, userID uint) (time.Time, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Result()
	if err == redisv9.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("redis get session epoch failed: %w", err)
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse session epoch failed: %w", err)
	}
	return time.Unix(unix, 0), nil
}

func (s *SessionEpochStore) key(userID uint) string {
	return fmt.Sprintf("auth:session:epoch:%d", userID)
}
