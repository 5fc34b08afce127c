package pool

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_TakeIsFIFO(t *testing.T) {
	p := New(Config{})
	_, _ = p.Add(KindOrderID, "a")
	_, _ = p.Add(KindOrderID, "b")

	v, ok := p.Take(KindOrderID)
	require.True(t, ok)
	assert.Equal(t, "a", v)
	v, ok = p.Take(KindOrderID)
	require.True(t, ok)
	assert.Equal(t, "b", v)

	_, ok = p.Take(KindOrderID)
	assert.False(t, ok)
	assert.Equal(t, Stats{Adds: 2, Hits: 2, Misses: 1}, p.Stats())
}

func TestPool_EvictsOldestWhenFull(t *testing.T) {
	p := New(Config{MaxPerKind: 2})
	_, _ = p.Add(KindProductID, 1)
	_, _ = p.Add(KindProductID, 2)
	evicted, err := p.Add(KindProductID, 3)

	require.NoError(t, err)
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 2, p.Count(KindProductID))
	v, _ := p.Take(KindProductID)
	assert.Equal(t, 2, v)
}

func TestPool_ExpiredValuesAreDropped(t *testing.T) {
	p := New(Config{TTL: time.Minute})
	now := time.Now()
	p.now = func() time.Time { return now }
	_, _ = p.Add(KindSession, "old")

	now = now.Add(2 * time.Minute)
	_, _ = p.Add(KindSession, "fresh")

	assert.Equal(t, 1, p.Count(KindSession))
	v, ok := p.Random(KindSession)
	require.True(t, ok)
	assert.Equal(t, "fresh", v)
}

func TestPool_KindsAreIndependent(t *testing.T) {
	p := New(Config{})
	_, _ = p.Add(KindOrderID, "order")

	_, ok := p.Take(KindProductID)
	assert.False(t, ok)
	assert.Equal(t, 1, p.Count(KindOrderID))
}

func TestPool_Closed(t *testing.T) {
	p := New(DefaultConfig())
	_, _ = p.Add(KindOrderID, "x")
	require.NoError(t, p.Close())

	_, err := p.Add(KindOrderID, "y")
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.Zero(t, p.Count(KindOrderID))
}

func TestPool_ConcurrentAddTake(t *testing.T) {
	p := New(Config{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = p.Add(KindOrderID, i)
		}(i)
	}
	wg.Wait()

	taken := 0
	for {
		if _, ok := p.Take(KindOrderID); !ok {
			break
		}
		taken++
	}
	assert.Equal(t, 50, taken)
}
