package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	Advice    string `json:"advice"`
	ExpiresAt int64  `json:"expiresAt"`
}

func newRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	c := NewRedisCache()
	require.NoError(t, c.Connect("redis://"+srv.Addr()))
	t.Cleanup(func() { c.Disconnect() })
	return c, srv
}

func TestRedisSetGet(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedis(t)

	require.NoError(t, c.Set(ctx, "coaching_u1_2024-03-10", entry{Advice: "hydrate", ExpiresAt: 42}, time.Hour))

	var got entry
	require.NoError(t, c.Get(ctx, "coaching_u1_2024-03-10", &got))
	assert.Equal(t, entry{Advice: "hydrate", ExpiresAt: 42}, got)
}

func TestRedisMissAndExpiry(t *testing.T) {
	ctx := context.Background()
	c, srv := newRedis(t)

	var got entry
	assert.True(t, errors.Is(c.Get(ctx, "missing", &got), ErrCacheMiss))

	require.NoError(t, c.Set(ctx, "short", entry{Advice: "x"}, time.Minute))
	srv.FastForward(2 * time.Minute)
	assert.True(t, errors.Is(c.Get(ctx, "short", &got), ErrCacheMiss))
}

func TestRedisDefaultTTL(t *testing.T) {
	ctx := context.Background()
	c, srv := newRedis(t)

	require.NoError(t, c.Set(ctx, "email_1", true, 0))
	assert.Equal(t, DefaultTTL, srv.TTL("email_1"))
}

func TestRedisDeleteAndClear(t *testing.T) {
	ctx := context.Background()
	c, _ := newRedis(t)

	require.NoError(t, c.Set(ctx, "a", 1, time.Hour))
	require.NoError(t, c.Set(ctx, "b", 2, time.Hour))
	require.NoError(t, c.Delete(ctx, "a"))

	var n int
	assert.True(t, errors.Is(c.Get(ctx, "a", &n), ErrCacheMiss))
	require.NoError(t, c.Get(ctx, "b", &n))
	assert.Equal(t, 2, n)

	require.NoError(t, c.Clear(ctx))
	assert.True(t, errors.Is(c.Get(ctx, "b", &n), ErrCacheMiss))
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	c := NewMemoryCache().WithClock(func() time.Time { return now })

	require.NoError(t, c.Set(ctx, "k", "v", time.Hour))
	var got string
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "v", got)

	now = now.Add(time.Hour)
	assert.True(t, errors.Is(c.Get(ctx, "k", &got), ErrCacheMiss))
}

func TestNewCacheWithoutURLIsInProcess(t *testing.T) {
	c, err := NewCache("")
	require.NoError(t, err)
	_, ok := c.(*MemoryCache)
	assert.True(t, ok)
}
