package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigCacheRoundTrip(t *testing.T) {
	mr, client := testClient(t)
	cache := NewConfigCache(client, time.Minute)
	ctx := context.Background()

	_, err := cache.Get(ctx, "navigator", "find-your-path")
	assert.ErrorIs(t, err, ErrCacheMiss)

	payload := []byte(`{"initial_step_id":"start"}`)
	require.NoError(t, cache.Set(ctx, "navigator", "find-your-path", payload))

	got, err := cache.Get(ctx, "navigator", "find-your-path")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// Keys are scoped by type; same slug under another type stays a miss.
	_, err = cache.Get(ctx, "quiz", "find-your-path")
	assert.ErrorIs(t, err, ErrCacheMiss)

	assert.True(t, mr.Exists("interactive:published:navigator:find-your-path"))
}

func TestConfigCacheInvalidate(t *testing.T) {
	_, client := testClient(t)
	cache := NewConfigCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "navigator", "find-your-path", []byte(`{}`)))
	require.NoError(t, cache.Invalidate(ctx, "navigator", "find-your-path"))

	_, err := cache.Get(ctx, "navigator", "find-your-path")
	assert.ErrorIs(t, err, ErrCacheMiss)

	// Invalidating an absent key is not an error.
	require.NoError(t, cache.Invalidate(ctx, "navigator", "find-your-path"))
}

func TestConfigCacheEntriesExpire(t *testing.T) {
	mr, client := testClient(t)
	cache := NewConfigCache(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "navigator", "find-your-path", []byte(`{}`)))
	mr.FastForward(2 * time.Minute)

	_, err := cache.Get(ctx, "navigator", "find-your-path")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
