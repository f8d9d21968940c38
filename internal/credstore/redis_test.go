package credstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisBackendBasics(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("live test, set REDIS_URL to run against a local redis")
	}
	ctx := context.Background()

	backend, err := NewRedisBackendFromURL(ctx, redisURL)
	require.NoError(t, err)
	defer backend.Close()

	require.NoError(t, backend.Set(ctx, "test/k", "v", time.Minute))

	got, ok, err := backend.Get(ctx, "test/k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", got)

	require.NoError(t, backend.Delete(ctx, "test/k"))
	require.NoError(t, backend.Delete(ctx, "test/k"))

	_, ok, err = backend.Get(ctx, "test/k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisBackendFromURLRejectsBadURL(t *testing.T) {
	_, err := NewRedisBackendFromURL(context.Background(), "not a url")
	assert.Error(t, err)
}
