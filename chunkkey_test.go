package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zarrcore/engine"
)

func TestV2ChunkKeyEncodingJoinsWithSeparator(t *testing.T) {
	enc := engine.NewV2ChunkKeyEncoding(".")
	require.Equal(t, "1.4", enc.EncodeChunkKey("", []uint64{1, 4}))
	require.Equal(t, "0.0.0", enc.EncodeChunkKey("", []uint64{0, 0, 0}))
	require.Equal(t, "10", enc.EncodeChunkKey("", []uint64{10}))
}

func TestV2ChunkKeyEncodingSupportsSlashSeparator(t *testing.T) {
	enc := engine.NewV2ChunkKeyEncoding("/")
	require.Equal(t, "1/2", enc.EncodeChunkKey("", []uint64{1, 2}))
}

func TestV2ChunkKeyEncodingZeroDimensional(t *testing.T) {
	enc := engine.NewV2ChunkKeyEncoding(".")
	require.Equal(t, "0", enc.EncodeChunkKey("", nil))
}

func TestV2ChunkKeyEncodingRelativeToArrayPath(t *testing.T) {
	enc := engine.NewV2ChunkKeyEncoding(".")
	require.Equal(t, "foo/1.2", enc.EncodeChunkKey("foo", []uint64{1, 2}))
}

func TestDefaultChunkKeyEncodingUsesCPrefix(t *testing.T) {
	enc := engine.NewDefaultChunkKeyEncoding("/")
	require.Equal(t, "c/1/4", enc.EncodeChunkKey("", []uint64{1, 4}))
	require.Equal(t, "myarray/c/1/4", enc.EncodeChunkKey("myarray", []uint64{1, 4}))
}
