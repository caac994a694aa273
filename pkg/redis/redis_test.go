package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HatimBenzahra/rework-sub001/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{Host: "localhost", Port: "6379"})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.Nil(t, client.Redis())
	assert.NoError(t, client.Close())
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(Disabled(), "test")
	limit := FeedRateLimit(7)

	allowed, remaining, err := limiter.Allow(context.Background(), limit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 7, remaining)
	assert.NoError(t, limiter.Wait(context.Background(), limit))
	assert.False(t, limiter.Enabled())
}

func TestFeedRateLimitDefaults(t *testing.T) {
	limit := FeedRateLimit(0)
	assert.Equal(t, 5, limit.Limit)
	assert.Equal(t, time.Second, limit.Window)
	assert.Equal(t, "salestracker", limit.Key)
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	ctx := context.Background()

	var result []string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, "key", []string{"a"}, TTLShort))
	require.NoError(t, cache.Delete(ctx, "key"))
}

func TestCache_GetOrSetDisabledCallsLoader(t *testing.T) {
	cache := NewCache(Disabled(), "test")
	calls := 0

	var got []int
	err := cache.GetOrSet(context.Background(), "k", &got, TTLShort, func() (interface{}, error) {
		calls++
		return []int{1, 2, 3}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, 1, calls)

	loaderErr := errors.New("store down")
	err = cache.GetOrSet(context.Background(), "k", &got, TTLShort, func() (interface{}, error) {
		return nil, loaderErr
	})
	assert.ErrorIs(t, err, loaderErr)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "leaderboard:MONTHLY:2026-03", LeaderboardKey("MONTHLY", "2026-03"))
	assert.Equal(t, "badges:catalog:2026.1", CatalogKey("2026.1"))
}
