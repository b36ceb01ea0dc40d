package cache_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/zarrcore/engine/cache"
)

type blob []byte

func (b blob) Size() uint64 { return uint64(len(b)) }

func TestChunkLimitGetOrComputeCoalescesConcurrentMisses(t *testing.T) {
	c, err := cache.NewChunkLimit[blob](16)
	require.NoError(t, err)

	var computeCount int32
	var wg sync.WaitGroup
	results := make([]blob, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.GetOrCompute("k", func() (blob, error) {
				atomic.AddInt32(&computeCount, 1)
				time.Sleep(5 * time.Millisecond)
				return blob{1, 2, 3}, nil
			})
			require.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), atomic.LoadInt32(&computeCount))
	for _, r := range results {
		require.Equal(t, blob{1, 2, 3}, r)
	}
}

func TestChunkLimitGetMiss(t *testing.T) {
	c, err := cache.NewChunkLimit[blob](4)
	require.NoError(t, err)
	_, ok := c.Get("absent")
	require.False(t, ok)
}

func TestChunkLimitPropagatesComputeError(t *testing.T) {
	c, err := cache.NewChunkLimit[blob](4)
	require.NoError(t, err)
	boom := fmt.Errorf("boom")
	_, err = c.GetOrCompute("k", func() (blob, error) { return nil, boom })
	require.ErrorIs(t, err, boom)
}

func TestThreadLocalChunkLimitEvictsLeastRecentlyUsed(t *testing.T) {
	tl := cache.NewChunkLimitThreadLocal[blob](2)
	local := tl.Local("worker-0")

	_, err := local.GetOrCompute("a", func() (blob, error) { return blob{1}, nil })
	require.NoError(t, err)
	_, err = local.GetOrCompute("b", func() (blob, error) { return blob{2}, nil })
	require.NoError(t, err)
	// Touch "a" so "b" becomes the least recently used entry.
	_, _ = local.Get("a")
	_, err = local.GetOrCompute("c", func() (blob, error) { return blob{3}, nil })
	require.NoError(t, err)

	_, ok := local.Get("b")
	require.False(t, ok, "b should have been evicted as least recently used")
	_, ok = local.Get("a")
	require.True(t, ok)
	_, ok = local.Get("c")
	require.True(t, ok)
}

func TestThreadLocalCachesAreIndependentPerAccessor(t *testing.T) {
	tl := cache.NewSizeLimitThreadLocal[blob](1024)
	w0 := tl.Local("worker-0")
	w1 := tl.Local("worker-1")

	_, err := w0.GetOrCompute("k", func() (blob, error) { return blob{9, 9}, nil })
	require.NoError(t, err)

	_, ok := w1.Get("k")
	require.False(t, ok, "worker-1's cache must not see worker-0's entry")
}

func TestSizeLimitThreadLocalEvictsBySize(t *testing.T) {
	local := cache.NewSizeLimitThreadLocal[blob](4).Local("w")

	_, err := local.GetOrCompute("a", func() (blob, error) { return blob{1, 2}, nil })
	require.NoError(t, err)
	_, err = local.GetOrCompute("b", func() (blob, error) { return blob{3, 4}, nil })
	require.NoError(t, err)
	// Total size is now 4, at capacity. Inserting a 2-byte "c" must evict
	// "a" (least recently used) to stay within capacity.
	_, err = local.GetOrCompute("c", func() (blob, error) { return blob{5, 6}, nil })
	require.NoError(t, err)

	_, ok := local.Get("a")
	require.False(t, ok)
	_, ok = local.Get("b")
	require.True(t, ok)
	_, ok = local.Get("c")
	require.True(t, ok)
}

func TestDelRemovesEntry(t *testing.T) {
	local := cache.NewChunkLimitThreadLocal[blob](4).Local("w")
	_, err := local.GetOrCompute("a", func() (blob, error) { return blob{1}, nil })
	require.NoError(t, err)
	local.Del("a")
	_, ok := local.Get("a")
	require.False(t, ok)
}

// countingObserver records every CacheEviction call it receives.
type countingObserver struct {
	mu     sync.Mutex
	count  int
	family string
}

func (o *countingObserver) CacheEviction(family string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.count++
	o.family = family
}

func (o *countingObserver) evictions() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.count
}

func TestThreadLocalNotifiesEvictionObserver(t *testing.T) {
	tl := cache.NewChunkLimitThreadLocal[blob](2)
	obs := &countingObserver{}
	tl.SetEvictionObserver(obs, "chunk")
	local := tl.Local("worker-0")

	_, err := local.GetOrCompute("a", func() (blob, error) { return blob{1}, nil })
	require.NoError(t, err)
	_, err = local.GetOrCompute("b", func() (blob, error) { return blob{2}, nil })
	require.NoError(t, err)
	_, err = local.GetOrCompute("c", func() (blob, error) { return blob{3}, nil })
	require.NoError(t, err)

	require.Equal(t, 1, obs.evictions())
	require.Equal(t, "chunk", obs.family)
}

func TestThreadLocalSetEvictionObserverReachesExistingShards(t *testing.T) {
	tl := cache.NewChunkLimitThreadLocal[blob](1)
	local := tl.Local("worker-0")
	_, err := local.GetOrCompute("a", func() (blob, error) { return blob{1}, nil })
	require.NoError(t, err)

	obs := &countingObserver{}
	tl.SetEvictionObserver(obs, "chunk")

	_, err = local.GetOrCompute("b", func() (blob, error) { return blob{2}, nil })
	require.NoError(t, err)

	require.Equal(t, 1, obs.evictions())
}
