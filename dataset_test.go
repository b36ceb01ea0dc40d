package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zarrcore/engine"
	"github.com/zarrcore/engine/arraybytes"
	"github.com/zarrcore/engine/indexer"
)

func TestDatasetNextBatchCrossesChunkBoundaries(t *testing.T) {
	arr, _ := newUint8Array(t, []uint64{5, 2}, []uint64{2, 2})
	data := make([]byte, 10)
	for i := range data {
		data[i] = byte(i)
	}
	full := indexer.NewRangeSubset([]uint64{0, 0}, []uint64{5, 2})
	require.NoError(t, arr.StoreArraySubset(full, arraybytes.NewFixed(data)))

	ds, err := engine.NewDataset(arr, 3)
	require.NoError(t, err)
	require.Equal(t, uint64(2), ds.Len())

	batch1, shape1, done1, err := ds.NextBatch()
	require.NoError(t, err)
	require.False(t, done1)
	require.Equal(t, []uint64{3, 2}, shape1)
	require.Equal(t, data[0:6], batch1.Fixed())

	batch2, shape2, done2, err := ds.NextBatch()
	require.NoError(t, err)
	require.False(t, done2)
	require.Equal(t, []uint64{2, 2}, shape2)
	require.Equal(t, data[6:10], batch2.Fixed())

	_, _, done3, err := ds.NextBatch()
	require.NoError(t, err)
	require.True(t, done3)
}

func TestDatasetResetReplaysFromTheStart(t *testing.T) {
	arr, _ := newUint8Array(t, []uint64{4, 1}, []uint64{2, 1})
	data := []byte{1, 2, 3, 4}
	full := indexer.NewRangeSubset([]uint64{0, 0}, []uint64{4, 1})
	require.NoError(t, arr.StoreArraySubset(full, arraybytes.NewFixed(data)))

	ds, err := engine.NewDataset(arr, 4)
	require.NoError(t, err)
	first, _, _, err := ds.NextBatch()
	require.NoError(t, err)
	require.Equal(t, data, first.Fixed())

	ds.Reset()
	second, _, _, err := ds.NextBatch()
	require.NoError(t, err)
	require.Equal(t, first.Fixed(), second.Fixed())
}

func TestNewDatasetRejectsZeroBatchSize(t *testing.T) {
	arr, _ := newUint8Array(t, []uint64{4, 1}, []uint64{2, 1})
	_, err := engine.NewDataset(arr, 0)
	require.Error(t, err)
}
