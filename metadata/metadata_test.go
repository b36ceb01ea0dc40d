package metadata_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zarrcore/engine/metadata"
)

const sampleZarray = `{
	"zarr_format": 2,
	"shape": [10, 10],
	"chunks": [5, 5],
	"dtype": "<f4",
	"compressor": {"id": "zstd", "clevel": 5},
	"fill_value": 0.0,
	"order": "C"
}`

func TestParseV2DefaultsDimensionSeparator(t *testing.T) {
	m, err := metadata.ParseV2(strings.NewReader(sampleZarray))
	require.NoError(t, err)
	require.Equal(t, ".", m.DimensionSeparator)
	require.Equal(t, []uint64{10, 10}, m.Shape)
	require.Equal(t, "zstd", m.Compressor.ID)
}

func TestParseV2RejectsWrongFormat(t *testing.T) {
	_, err := metadata.ParseV2(strings.NewReader(`{"zarr_format": 3}`))
	require.Error(t, err)
}

func TestV2RoundTripsThroughWrite(t *testing.T) {
	m, err := metadata.ParseV2(strings.NewReader(sampleZarray))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, m.Write(&buf))

	m2, err := metadata.ParseV2(&buf)
	require.NoError(t, err)
	require.Equal(t, m.Shape, m2.Shape)
	require.Equal(t, m.Chunks, m2.Chunks)
	require.Equal(t, m.DType, m2.DType)
}

func TestParseAttributesEmptyIsNotError(t *testing.T) {
	attrs, err := metadata.ParseAttributes(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, attrs)
}

const sampleZarrJSON = `{
	"zarr_format": 3,
	"node_type": "array",
	"shape": [10, 10],
	"data_type": "float32",
	"chunk_grid": {"name": "regular", "configuration": {"chunk_shape": [5, 5]}},
	"chunk_key_encoding": {"name": "default", "configuration": {"separator": "/"}},
	"fill_value": 0.0,
	"codecs": [{"name": "bytes", "configuration": {"endian": "little"}}]
}`

func TestParseV3DecodesNamedConfigurations(t *testing.T) {
	m, err := metadata.ParseV3(strings.NewReader(sampleZarrJSON))
	require.NoError(t, err)
	require.Equal(t, "array", m.NodeType)
	require.Equal(t, "regular", m.ChunkGrid.Name)

	var cfg metadata.ChunkGridConfiguration
	require.NoError(t, json.Unmarshal(m.ChunkGrid.Configuration, &cfg))
	require.Equal(t, []uint64{5, 5}, cfg.ChunkShape)

	var keyCfg metadata.ChunkKeyEncodingConfiguration
	require.NoError(t, json.Unmarshal(m.ChunkKeyEncoding.Configuration, &keyCfg))
	require.Equal(t, "/", keyCfg.Separator)
}

func TestParseV3RejectsWrongFormat(t *testing.T) {
	_, err := metadata.ParseV3(strings.NewReader(`{"zarr_format": 2, "node_type": "array"}`))
	require.Error(t, err)
}
