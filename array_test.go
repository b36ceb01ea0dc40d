package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zarrcore/engine"
	"github.com/zarrcore/engine/arraybytes"
	"github.com/zarrcore/engine/chunkgrid"
	"github.com/zarrcore/engine/codec"
	"github.com/zarrcore/engine/codec/bytescodec"
	"github.com/zarrcore/engine/datatype"
	"github.com/zarrcore/engine/indexer"
	"github.com/zarrcore/engine/storage"
)

func newUint8Array(t *testing.T, arrayShape, chunkShape []uint64) (*engine.Array, *storage.MemStore) {
	t.Helper()
	grid, err := chunkgrid.NewRegular(arrayShape, chunkShape)
	require.NoError(t, err)
	chain, err := codec.NewChain(nil, bytescodec.New(bytescodec.Little), nil)
	require.NoError(t, err)
	store := storage.NewMemStore()
	fv, err := datatype.FromUint64(datatype.Uint8, 0)
	require.NoError(t, err)
	arr, err := engine.NewArray(store, grid, datatype.Uint8, fv, chain, engine.NewDefaultChunkKeyEncoding("/"), "arr")
	require.NoError(t, err)
	return arr, store
}

// Scenario S1 — fill-value elision.
func TestStoreChunkElidesFillValue(t *testing.T) {
	arr, store := newUint8Array(t, []uint64{4, 4}, []uint64{2, 2})

	err := arr.StoreChunk([]uint64{0, 0}, arraybytes.NewFixed(make([]byte, 4)))
	require.NoError(t, err)

	_, ok, err := store.Size("arr/c/0/0")
	require.NoError(t, err)
	require.False(t, ok)

	ab, err := arr.RetrieveChunk([]uint64{0, 0})
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0}, ab.Fixed())
}

// Invariant 4: retrieve_chunk on an absent key equals the fill-value
// buffer.
func TestRetrieveChunkFillsOnMiss(t *testing.T) {
	arr, _ := newUint8Array(t, []uint64{4, 4}, []uint64{2, 2})
	ab, err := arr.RetrieveChunk([]uint64{1, 1})
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0}, ab.Fixed())
}

// Scenario S2 — single-chunk round trip with edge clipping.
func TestStoreAndRetrieveArraySubsetEdgeClipping(t *testing.T) {
	arr, _ := newUint8Array(t, []uint64{4, 3}, []uint64{2, 2})

	full := make([]byte, 12)
	for i := range full {
		full[i] = byte(i + 1)
	}
	writeSubset := indexer.NewRangeSubset([]uint64{0, 0}, []uint64{4, 3})
	err := arr.StoreArraySubset(writeSubset, arraybytes.NewFixed(full))
	require.NoError(t, err)

	readSubset := indexer.NewRangeSubset([]uint64{1, 1}, []uint64{2, 2})
	got, err := arr.RetrieveArraySubset(readSubset)
	require.NoError(t, err)
	require.Equal(t, []byte{5, 6, 8, 9}, got.Fixed())
}

// Scenario S4 — multi-chunk OOB: the region beyond array bounds reads
// as fill.
func TestRetrieveArraySubsetBeyondArrayBoundsIsFill(t *testing.T) {
	arr, _ := newUint8Array(t, []uint64{4, 4}, []uint64{2, 2})
	subset := indexer.NewRangeSubset([]uint64{0, 0}, []uint64{5, 5})
	got, err := arr.RetrieveArraySubset(subset)
	require.NoError(t, err)
	require.Equal(t, make([]byte, 25), got.Fixed())
}

// Invariant 6: store_array_subset then retrieve_array_subset round
// trips, across chunk boundaries.
func TestStoreArraySubsetThenRetrieveRoundTrips(t *testing.T) {
	arr, _ := newUint8Array(t, []uint64{4, 4}, []uint64{2, 2})

	data := make([]byte, 16)
	for i := range data {
		data[i] = byte(i)
	}
	subset := indexer.NewRangeSubset([]uint64{0, 0}, []uint64{4, 4})
	require.NoError(t, arr.StoreArraySubset(subset, arraybytes.NewFixed(data)))

	got, err := arr.RetrieveArraySubset(subset)
	require.NoError(t, err)
	require.Equal(t, data, got.Fixed())
}

func TestEraseChunkIsNotAnErrorWhenAbsent(t *testing.T) {
	arr, _ := newUint8Array(t, []uint64{4, 4}, []uint64{2, 2})
	require.NoError(t, arr.EraseChunk([]uint64{0, 0}))
}

func TestEraseChunksDeletesEveryIntersectingChunk(t *testing.T) {
	arr, store := newUint8Array(t, []uint64{4, 4}, []uint64{2, 2})
	require.NoError(t, arr.StoreChunk([]uint64{0, 0}, arraybytes.NewFixed([]byte{1, 2, 3, 4})))
	require.NoError(t, arr.StoreChunk([]uint64{1, 1}, arraybytes.NewFixed([]byte{5, 6, 7, 8})))

	subset := indexer.NewRangeSubset([]uint64{0, 0}, []uint64{4, 4})
	require.NoError(t, arr.EraseChunks(subset))

	keys, err := store.List()
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestRetrieveChunkSubsetUsesPartialDecoder(t *testing.T) {
	arr, _ := newUint8Array(t, []uint64{4, 4}, []uint64{4, 4})
	data := make([]byte, 16)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, arr.StoreChunk([]uint64{0, 0}, arraybytes.NewFixed(data)))

	sub := indexer.NewRangeSubset([]uint64{1, 0}, []uint64{2, 1})
	got, err := arr.RetrieveChunkSubset([]uint64{0, 0}, sub)
	require.NoError(t, err)
	require.Equal(t, []byte{4, 8}, got.Fixed())
}
