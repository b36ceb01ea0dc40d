package engine_test

import (
	"context"
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

func newAsyncUint8Array(t *testing.T) *engine.AsyncArray {
	t.Helper()
	grid, err := chunkgrid.NewRegular([]uint64{4, 4}, []uint64{2, 2})
	require.NoError(t, err)
	chain, err := codec.NewChain(nil, bytescodec.New(bytescodec.Little), nil)
	require.NoError(t, err)
	fv, err := datatype.FromUint64(datatype.Uint8, 0)
	require.NoError(t, err)
	arr, err := engine.NewAsyncArray(storage.NewAsyncMemStore(), grid, datatype.Uint8, fv, chain, engine.NewDefaultChunkKeyEncoding("/"), "arr")
	require.NoError(t, err)
	return arr
}

func TestAsyncArrayStoreAndRetrieveChunkRoundTrips(t *testing.T) {
	ctx := context.Background()
	arr := newAsyncUint8Array(t)

	data := []byte{1, 2, 3, 4}
	require.NoError(t, arr.StoreChunk(ctx, []uint64{0, 0}, arraybytes.NewFixed(data)))

	got, err := arr.RetrieveChunk(ctx, []uint64{0, 0})
	require.NoError(t, err)
	require.Equal(t, data, got.Fixed())
}

func TestAsyncArrayRetrieveChunkFillsOnMiss(t *testing.T) {
	ctx := context.Background()
	arr := newAsyncUint8Array(t)
	got, err := arr.RetrieveChunk(ctx, []uint64{1, 1})
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0, 0}, got.Fixed())
}

func TestAsyncArrayRetrieveArraySubsetRespectsCancellation(t *testing.T) {
	arr := newAsyncUint8Array(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	subset := indexer.NewRangeSubset([]uint64{0, 0}, []uint64{2, 2})
	_, err := arr.RetrieveArraySubset(ctx, subset)
	require.ErrorIs(t, err, context.Canceled)
}

func TestAsyncArrayEraseChunkIsNotAnErrorWhenAbsent(t *testing.T) {
	ctx := context.Background()
	arr := newAsyncUint8Array(t)
	require.NoError(t, arr.EraseChunk(ctx, []uint64{0, 0}))
}
