package zstdcodec_test

import (
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"github.com/zarrcore/engine/codec"
	"github.com/zarrcore/engine/codec/zstdcodec"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := zstdcodec.New(zstd.SpeedDefault)
	input := []byte("the quick brown fox jumps over the lazy dog, repeated, repeated, repeated")
	encoded, err := c.Encode(input, codec.NewOptions())
	require.NoError(t, err)
	require.NotEqual(t, input, encoded)

	decoded, err := c.Decode(encoded, codec.NewOptions())
	require.NoError(t, err)
	require.Equal(t, input, decoded)
}

func TestEncodeEmptyInput(t *testing.T) {
	c := zstdcodec.New(zstd.SpeedDefault)
	encoded, err := c.Encode(nil, codec.NewOptions())
	require.NoError(t, err)
	decoded, err := c.Decode(encoded, codec.NewOptions())
	require.NoError(t, err)
	require.Empty(t, decoded)
}

func TestDecodeRejectsCorruptStream(t *testing.T) {
	c := zstdcodec.New(zstd.SpeedDefault)
	_, err := c.Decode([]byte{0x01, 0x02, 0x03}, codec.NewOptions())
	require.Error(t, err)
}
