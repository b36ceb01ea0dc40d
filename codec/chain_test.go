package codec_test

import (
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"github.com/zarrcore/engine/arraybytes"
	"github.com/zarrcore/engine/codec"
	"github.com/zarrcore/engine/codec/bytescodec"
	"github.com/zarrcore/engine/codec/zstdcodec"
	"github.com/zarrcore/engine/datatype"
	"github.com/zarrcore/engine/indexer"
	"github.com/zarrcore/engine/storage"
)

func uint8Rep(shape []uint64) codec.ChunkRepresentation {
	fv, _ := datatype.FromUint64(datatype.Uint8, 0)
	return codec.ChunkRepresentation{Shape: shape, DataType: datatype.Uint8, FillValue: fv}
}

// Without a bb codec, the chain's partial decoder is the a2b codec's
// own zero-copy byte-range path.
func TestChainPartialDecoderIsZeroCopyWithoutBytesToBytes(t *testing.T) {
	chain, err := codec.NewChain(nil, bytescodec.New(bytescodec.Little), nil)
	require.NoError(t, err)

	rep := uint8Rep([]uint64{4, 4})
	data := make([]byte, 16)
	for i := range data {
		data[i] = byte(i)
	}
	store := storage.NewMemStore()
	encoded, err := chain.Encode(arraybytes.NewFixed(data), rep, codec.NewOptions())
	require.NoError(t, err)
	require.NoError(t, store.Set("c/0/0", encoded))

	dec, err := chain.PartialDecoder(store, "c/0/0", rep)
	require.NoError(t, err)
	sub := indexer.NewRangeSubset([]uint64{1, 0}, []uint64{2, 1})
	got, err := dec.PartialDecode(sub, codec.NewOptions())
	require.NoError(t, err)
	require.Equal(t, []byte{4, 8}, got.Fixed())
}

// A compressing bb codec (zstd) cannot resolve byte ranges against its
// own encoded stream, so the chain must fall back to a full decode and
// in-memory slice instead of issuing byte-range reads straight against
// the compressed bytes.
func TestChainPartialDecoderMaterializesWhenBytesToBytesCannotPartialRead(t *testing.T) {
	zstdCodec := zstdcodec.New(zstd.SpeedDefault)
	require.False(t, zstdCodec.PartialDecoderCapability().PartialRead)

	chain, err := codec.NewChain(nil, bytescodec.New(bytescodec.Little), []codec.BytesToBytes{zstdCodec})
	require.NoError(t, err)

	rep := uint8Rep([]uint64{4, 4})
	data := make([]byte, 16)
	for i := range data {
		data[i] = byte(i)
	}
	store := storage.NewMemStore()
	encoded, err := chain.Encode(arraybytes.NewFixed(data), rep, codec.NewOptions())
	require.NoError(t, err)
	require.NoError(t, store.Set("c/0/0", encoded))

	dec, err := chain.PartialDecoder(store, "c/0/0", rep)
	require.NoError(t, err)
	sub := indexer.NewRangeSubset([]uint64{1, 0}, []uint64{2, 1})
	got, err := dec.PartialDecode(sub, codec.NewOptions())
	require.NoError(t, err)
	require.Equal(t, []byte{4, 8}, got.Fixed())
}

// A missing key still fill-values the requested region, whether or not
// the bb stage forces the materializing fallback.
func TestChainPartialDecoderMaterializedFillsOnMiss(t *testing.T) {
	zstdCodec := zstdcodec.New(zstd.SpeedDefault)
	chain, err := codec.NewChain(nil, bytescodec.New(bytescodec.Little), []codec.BytesToBytes{zstdCodec})
	require.NoError(t, err)

	rep := uint8Rep([]uint64{4, 4})
	store := storage.NewMemStore()

	dec, err := chain.PartialDecoder(store, "c/0/0", rep)
	require.NoError(t, err)
	sub := indexer.NewRangeSubset([]uint64{1, 0}, []uint64{2, 1})
	got, err := dec.PartialDecode(sub, codec.NewOptions())
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0}, got.Fixed())
}
