package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_MarkProcessed(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	fresh, err := store.MarkProcessed(context.Background(), "key-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)

	fresh, err = store.MarkProcessed(context.Background(), "key-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, fresh)

	processed, err := store.IsProcessed(context.Background(), "key-1")
	require.NoError(t, err)
	assert.True(t, processed)
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	now := time.Now()
	store := NewInMemoryIdempotencyStore().WithClock(func() time.Time { return now })

	fresh, err := store.MarkProcessed(context.Background(), "key-1", time.Minute)
	require.NoError(t, err)
	require.True(t, fresh)

	// Past the TTL the key can be marked again.
	now = now.Add(2 * time.Minute)

	processed, err := store.IsProcessed(context.Background(), "key-1")
	require.NoError(t, err)
	assert.False(t, processed)

	fresh, err = store.MarkProcessed(context.Background(), "key-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestInMemoryIdempotencyStore_Forget(t *testing.T) {
	store := NewInMemoryIdempotencyStore()

	fresh, err := store.MarkProcessed(context.Background(), "key-1", time.Hour)
	require.NoError(t, err)
	require.True(t, fresh)

	require.NoError(t, store.Forget(context.Background(), "key-1"))

	processed, err := store.IsProcessed(context.Background(), "key-1")
	require.NoError(t, err)
	assert.False(t, processed)

	fresh, err = store.MarkProcessed(context.Background(), "key-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, fresh)

	// Forgetting an unknown key is not an error.
	assert.NoError(t, store.Forget(context.Background(), "never-marked"))
}

func TestInMemoryIdempotencyStore_Close(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	_, err := store.MarkProcessed(context.Background(), "key-1", time.Hour)
	require.NoError(t, err)

	require.NoError(t, store.Close())

	processed, err := store.IsProcessed(context.Background(), "key-1")
	require.NoError(t, err)
	assert.False(t, processed)
}
