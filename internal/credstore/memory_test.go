package credstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackendExpiry(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(0)
	defer backend.Close()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	backend.now = func() time.Time { return now }

	require.NoError(t, backend.Set(ctx, "k", "v", time.Minute))

	got, ok, err := backend.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", got)

	now = now.Add(time.Minute)
	_, ok, err = backend.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryBackendCleanupExpired(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend(0)
	defer backend.Close()

	now := time.Now()
	backend.now = func() time.Time { return now }

	require.NoError(t, backend.Set(ctx, "short", "1", time.Second))
	require.NoError(t, backend.Set(ctx, "long", "2", time.Hour))

	now = now.Add(time.Minute)
	assert.Equal(t, 1, backend.CleanupExpired())

	_, ok, _ := backend.Get(ctx, "long")
	assert.True(t, ok)
}

func TestMemoryBackendDeleteMissingKey(t *testing.T) {
	backend := NewMemoryBackend(0)
	defer backend.Close()

	assert.NoError(t, backend.Delete(context.Background(), "nothing"))
}
