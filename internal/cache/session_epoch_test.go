package cache

import (
	"context"
	"os"
	"testing"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionEpochStore_Key(t *testing.T) {
	s := NewSessionEpochStore(nil, 0)
	assert.Equal(t, "auth:session:epoch:42", s.key(42))
	assert.Equal(t, time.Hour, s.ttl)
}

// Runs against a real server when REDIS_TEST_ADDR is set.
func TestSessionEpochStore_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redisv9.NewClient(&redisv9.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()
	s := NewSessionEpochStore(client, time.Minute)
	userID := uint(time.Now().UnixNano() % 1_000_000)
	t.Cleanup(func() { client.Del(ctx, s.key(userID)) })

	at, err := s.RevokedAt(ctx, userID)
	require.NoError(t, err)
	assert.True(t, at.IsZero())

	now := time.Now()
	require.NoError(t, s.Revoke(ctx, userID, now))
	at, err = s.RevokedAt(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, now.Unix(), at.Unix())

	ttl, err := client.TTL(ctx, s.key(userID)).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute)
}
