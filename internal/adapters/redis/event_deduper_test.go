package redis

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoohoo-guru/yoohoo-api/internal/ports"
	"github.com/yoohoo-guru/yoohoo-api/internal/testutil"
)

var _ ports.EventDeduper = (*EventDeduper)(nil)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func TestEventDeduper_FirstSeen(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	d := NewEventDeduperWithPrefix(client, "test:webhook:"+uuid.NewString()+":")
	ctx := context.Background()

	first, err := d.FirstSeen(ctx, "evt_1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := d.FirstSeen(ctx, "evt_1", time.Minute)
	require.NoError(t, err)
	assert.False(t, again)

	require.NoError(t, d.Forget(ctx, "evt_1"))
	afterForget, err := d.FirstSeen(ctx, "evt_1", time.Minute)
	require.NoError(t, err)
	assert.True(t, afterForget)
	_ = d.Forget(ctx, "evt_1")
}

func TestEventDeduper_TTL(t *testing.T) {
	client := setupTestRedis(t)
	defer client.Close()

	prefix := "test:webhook:" + uuid.NewString() + ":"
	d := NewEventDeduperWithPrefix(client, prefix)
	ctx := context.Background()

	_, err := d.FirstSeen(ctx, "evt_ttl", 30*time.Second)
	require.NoError(t, err)

	ttl, err := client.TTL(ctx, prefix+"evt_ttl").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 30*time.Second)
	_ = d.Forget(ctx, "evt_ttl")
}

func TestEventDeduper_Validation(t *testing.T) {
	d := NewEventDeduper(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}))

	_, err := d.FirstSeen(context.Background(), "", time.Minute)
	require.Error(t, err)
	_, err = d.FirstSeen(context.Background(), "evt", 0)
	require.Error(t, err)
	require.NoError(t, d.Forget(context.Background(), ""))
}
