package transpose_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zarrcore/engine/arraybytes"
	"github.com/zarrcore/engine/codec"
	"github.com/zarrcore/engine/codec/transpose"
	"github.com/zarrcore/engine/datatype"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := transpose.New([]int{1, 0})
	rep := codec.ChunkRepresentation{Shape: []uint64{2, 3}, DataType: datatype.Uint8}
	// 2x3 row-major: [[0,1,2],[3,4,5]]
	ab := arraybytes.NewFixed([]byte{0, 1, 2, 3, 4, 5})

	encoded, err := c.Encode(ab, rep, codec.NewOptions())
	require.NoError(t, err)
	// 3x2 transposed: [[0,3],[1,4],[2,5]]
	require.Equal(t, []byte{0, 3, 1, 4, 2, 5}, encoded.Fixed())

	decoded, err := c.Decode(encoded, rep, codec.NewOptions())
	require.NoError(t, err)
	require.Equal(t, ab.Fixed(), decoded.Fixed())
}

func TestRejectsNonPermutation(t *testing.T) {
	c := transpose.New([]int{0, 0})
	rep := codec.ChunkRepresentation{Shape: []uint64{2, 2}, DataType: datatype.Uint8}
	_, err := c.Encode(arraybytes.NewFixed(make([]byte, 4)), rep, codec.NewOptions())
	require.Error(t, err)
}
