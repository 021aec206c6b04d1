package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCooldown(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := NewMemoryCooldownWithClock(func() time.Time { return now })
	ctx := context.Background()

	ok, err := c.Acquire(ctx, "view_1_1.2.3.4", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, _ = c.Acquire(ctx, "view_1_1.2.3.4", 5*time.Minute)
	assert.False(t, ok, "marker still live after one minute")

	ok, _ = c.Acquire(ctx, "view_2_1.2.3.4", 5*time.Minute)
	assert.True(t, ok, "other listing has its own marker")

	now = now.Add(5 * time.Minute)
	ok, _ = c.Acquire(ctx, "view_1_1.2.3.4", 5*time.Minute)
	assert.True(t, ok, "marker expired after six minutes")
	assert.Equal(t, 2, c.Len())
}

func TestMemoryCooldownEvictsExpiredKeys(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c := NewMemoryCooldownWithClock(func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 3*sweepEvery; i++ {
		ok, err := c.Acquire(ctx, fmt.Sprintf("view_1_10.0.%d.%d", i/256, i%256), 5*time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Equal(t, 3*sweepEvery, c.Len())

	now = now.Add(24 * time.Hour)
	for i := 0; i < sweepEvery; i++ {
		_, err := c.Acquire(ctx, "view_2_192.168.0.1", 5*time.Minute)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, c.Len(), "only the live marker remains once the old ones expired")

	ok, _ := c.Acquire(ctx, "view_2_192.168.0.1", 5*time.Minute)
	assert.False(t, ok, "live marker survives the sweep")
}

func TestRedisCooldown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	c := NewRedisCooldown(client, "chezben:")
	ctx := context.Background()

	ok, err := c.Acquire(ctx, "view_7_10.0.0.1", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mr.Exists("chezben:view_7_10.0.0.1"))

	mr.FastForward(time.Minute)
	ok, err = c.Acquire(ctx, "view_7_10.0.0.1", 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(5 * time.Minute)
	ok, err = c.Acquire(ctx, "view_7_10.0.0.1", 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
