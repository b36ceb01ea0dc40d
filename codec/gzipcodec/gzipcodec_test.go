package gzipcodec_test

import (
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"
	"github.com/zarrcore/engine/codec"
	"github.com/zarrcore/engine/codec/gzipcodec"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := gzipcodec.New(gzip.DefaultCompression)
	input := []byte("the quick brown fox jumps over the lazy dog, repeated, repeated, repeated")
	encoded, err := c.Encode(input, codec.NewOptions())
	require.NoError(t, err)
	require.NotEqual(t, input, encoded)

	decoded, err := c.Decode(encoded, codec.NewOptions())
	require.NoError(t, err)
	require.Equal(t, input, decoded)
}

func TestDecodeRejectsCorruptStream(t *testing.T) {
	c := gzipcodec.New(gzip.DefaultCompression)
	_, err := c.Decode([]byte{0x01, 0x02, 0x03}, codec.NewOptions())
	require.Error(t, err)
}

func TestEncodeIsDeterministicAtFixedLevel(t *testing.T) {
	c := gzipcodec.New(gzip.BestCompression)
	input := make([]byte, 1024)
	encoded1, err := c.Encode(input, codec.NewOptions())
	require.NoError(t, err)
	encoded2, err := c.Encode(input, codec.NewOptions())
	require.NoError(t, err)
	require.Equal(t, encoded1, encoded2)
}
