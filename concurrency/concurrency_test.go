package concurrency_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zarrcore/engine/concurrency"
)

func TestSplitShortcutsZeroAndOneChunk(t *testing.T) {
	chunksParallel, codecParallel := concurrency.Split(0, 4, 8)
	require.Equal(t, uint64(0), chunksParallel)
	require.Equal(t, uint64(4), codecParallel)

	chunksParallel, codecParallel = concurrency.Split(1, 4, 8)
	require.Equal(t, uint64(1), chunksParallel)
	require.Equal(t, uint64(4), codecParallel)
}

func TestSplitFavorsChunkParallelismByDefault(t *testing.T) {
	// Serial codec (c=1): all budget goes to chunk parallelism.
	chunksParallel, codecParallel := concurrency.Split(10, 1, 4)
	require.Equal(t, uint64(4), chunksParallel)
	require.Equal(t, uint64(1), codecParallel)
}

func TestSplitWidensCodecParallelismWhenChunksAreScarce(t *testing.T) {
	// c>1 and n<b: narrow chunk parallelism, widen codec parallelism.
	chunksParallel, codecParallel := concurrency.Split(2, 4, 8)
	require.LessOrEqual(t, chunksParallel*codecParallel, uint64(8))
	require.Equal(t, uint64(4), codecParallel)
	require.Equal(t, uint64(2), chunksParallel)
}

func TestSplitNeverExceedsBudget(t *testing.T) {
	for n := uint64(0); n <= 20; n++ {
		for c := uint64(1); c <= 8; c++ {
			for b := uint64(1); b <= 16; b++ {
				chunksParallel, codecParallel := concurrency.Split(n, c, b)
				require.LessOrEqual(t, chunksParallel*codecParallel, b,
					"n=%d c=%d b=%d produced %d*%d", n, c, b, chunksParallel, codecParallel)
			}
		}
	}
}

func TestRunChunksRunsEveryIndexExactlyOnce(t *testing.T) {
	const n = 50
	var seen [n]int32
	err := concurrency.RunChunks(context.Background(), n, 6, func(ctx context.Context, i uint64) error {
		atomic.AddInt32(&seen[i], 1)
		return nil
	})
	require.NoError(t, err)
	for i, count := range seen {
		require.Equal(t, int32(1), count, "index %d ran %d times", i, count)
	}
}

func TestRunChunksStopsOnFirstError(t *testing.T) {
	boom := fmt.Errorf("boom")
	err := concurrency.RunChunks(context.Background(), 10, 2, func(ctx context.Context, i uint64) error {
		if i == 3 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
}
