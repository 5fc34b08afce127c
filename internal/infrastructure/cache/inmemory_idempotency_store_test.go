package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/flowershop/storefront/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIdempotencyStore_Lifecycle(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	ok, err := store.Reserve(ctx, "checkout:u:1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Reserve(ctx, "checkout:u:1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok, "second reservation must lose")

	result, found, err := store.Lookup(ctx, "checkout:u:1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, result, "in flight")

	require.NoError(t, store.Complete(ctx, "checkout:u:1", "order-42", time.Hour))
	result, found, err = store.Lookup(ctx, "checkout:u:1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "order-42", result)
}

func TestInMemoryIdempotencyStore_Release(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()
	ctx := context.Background()

	_, err := store.Reserve(ctx, "k", time.Hour)
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, "k"))

	_, found, err := store.Lookup(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	ok, err := store.Reserve(ctx, "k", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok, "released keys can be reserved again")
}

func TestInMemoryIdempotencyStore_Expiry(t *testing.T) {
	store := newInMemoryIdempotencyStore(10 * time.Millisecond)
	defer store.Close()
	ctx := context.Background()

	_, err := store.Reserve(ctx, "short", time.Millisecond)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	ok, err := store.Reserve(ctx, "short", time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok, "expired reservations are overwritten")

	assert.Eventually(t, func() bool { return store.Size() == 0 }, time.Second, 10*time.Millisecond)
}

func TestInMemoryIdempotencyStore_ConcurrentReserve(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	defer store.Close()

	var winners atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.Reserve(context.Background(), "same", time.Minute); ok {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, winners.Load())
}

func TestInMemoryIdempotencyStore_CloseIsIdempotent(t *testing.T) {
	store := NewInMemoryIdempotencyStore()
	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestIdempotencyStoreFactory(t *testing.T) {
	t.Run("in-memory without redis", func(t *testing.T) {
		store, err := NewIdempotencyStoreFactory(config.RedisConfig{}).CreateStore(nil)
		require.NoError(t, err)
		defer store.Close()
		assert.IsType(t, &InMemoryIdempotencyStore{}, store)
	})

	t.Run("refuses fallback when disabled", func(t *testing.T) {
		f := NewIdempotencyStoreFactory(config.RedisConfig{Enabled: true}, WithInMemoryFallback(false))
		_, err := f.CreateStore(nil)
		assert.Error(t, err)
	})
}
