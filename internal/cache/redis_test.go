package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flexbit-dev/flexbit-api/internal/config"
)

type testStruct struct {
	Ticker string
	Score  float64
}

func setupTestCache(t *testing.T) *Cache {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
		Password:     "",
		DB:           0,
		User:         "",
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	return cache
}

func TestSetAndGet(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	expected := testStruct{Ticker: "BBCA", Score: 88}
	err := cache.Set(ctx, "stocks:detail:BBCA", expected, time.Minute)
	require.NoError(t, err)

	var actual testStruct
	found, err := cache.Get(ctx, "stocks:detail:BBCA", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected, actual)
}

func TestGetNotFound(t *testing.T) {
	cache := setupTestCache(t)

	var out testStruct
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidate(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "stocks:stats", testStruct{Ticker: "X"}, time.Minute))
	require.NoError(t, cache.Invalidate(ctx, "stocks:stats"))

	var out testStruct
	found, err := cache.Get(ctx, "stocks:stats", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestInvalidatePrefix(t *testing.T) {
	cache := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "stocks:list:a", testStruct{}, time.Minute))
	require.NoError(t, cache.Set(ctx, "stocks:list:b", testStruct{}, time.Minute))
	require.NoError(t, cache.Set(ctx, "other:key", testStruct{Ticker: "KEEP"}, time.Minute))

	require.NoError(t, cache.InvalidatePrefix(ctx, "stocks:"))

	var out testStruct
	found, err := cache.Get(ctx, "stocks:list:a", &out)
	require.NoError(t, err)
	assert.False(t, found)

	found, err = cache.Get(ctx, "other:key", &out)
	require.NoError(t, err)
	assert.True(t, found)
}
