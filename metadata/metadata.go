// Package metadata reads and writes the JSON metadata blobs Zarr
// stores alongside chunk data: V2's ".zarray"/".zattrs" pair and V3's
// single "zarr.json". Blobs are read and written verbatim; this
// package only parses far enough to hand the core the
// {shape, chunk_grid, data_type, fill_value, codec_chain,
// chunk_key_encoding, dimension_names} tuple described in spec §6.
package metadata

import (
	"encoding/json"
	"fmt"
	"io"
)

// CompressorConfig is the Zarr V2 numcodecs-style compressor entry.
type CompressorConfig struct {
	ID      string `json:"id"`
	Cname   string `json:"cname,omitempty"`
	Clevel  int    `json:"clevel,omitempty"`
	Shuffle int    `json:"shuffle,omitempty"`
}

// FilterConfig is a Zarr V2 numcodecs-style filter entry; filters run
// before the compressor.
type FilterConfig struct {
	ID            string          `json:"id"`
	Configuration json.RawMessage `json:"-"`
}

// V2 is the ".zarray" metadata blob. DimensionSeparator defaults to "."
// when absent, per the V2 spec.
type V2 struct {
	ZarrFormat         int                `json:"zarr_format"`
	Shape              []uint64           `json:"shape"`
	Chunks             []uint64           `json:"chunks"`
	DType              string             `json:"dtype"`
	Compressor         *CompressorConfig  `json:"compressor"`
	Filters            []FilterConfig     `json:"filters,omitempty"`
	FillValue          json.RawMessage    `json:"fill_value"`
	Order              string             `json:"order"`
	DimensionSeparator string             `json:"dimension_separator,omitempty"`
}

// Attributes is the ".zattrs" blob: a free-form JSON object.
type Attributes map[string]any

// ParseV2 decodes a ".zarray" blob.
func ParseV2(r io.Reader) (*V2, error) {
	var m V2
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("metadata: decode .zarray: %w", err)
	}
	if m.ZarrFormat != 2 {
		return nil, fmt.Errorf("metadata: unsupported zarr_format %d, expected 2", m.ZarrFormat)
	}
	if m.DimensionSeparator == "" {
		m.DimensionSeparator = "."
	}
	return &m, nil
}

// Write encodes the blob verbatim (indented, matching the common Zarr
// V2 implementations' output).
func (m *V2) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("metadata: encode .zarray: %w", err)
	}
	return nil
}

// ParseAttributes decodes a ".zattrs" blob. A missing/empty file is not
// an error: Zarr readers treat it as an empty attribute set.
func ParseAttributes(r io.Reader) (Attributes, error) {
	var attrs Attributes
	if err := json.NewDecoder(r).Decode(&attrs); err != nil {
		if err == io.EOF {
			return Attributes{}, nil
		}
		return nil, fmt.Errorf("metadata: decode .zattrs: %w", err)
	}
	return attrs, nil
}

// NamedConfiguration is the V3 {"name": ..., "configuration": {...}}
// shape shared by chunk_grid, chunk_key_encoding, and codecs entries.
type NamedConfiguration struct {
	Name          string          `json:"name"`
	Configuration json.RawMessage `json:"configuration,omitempty"`
}

// V3 is the "zarr.json" metadata blob.
type V3 struct {
	ZarrFormat       int                  `json:"zarr_format"`
	NodeType         string               `json:"node_type"`
	Shape            []uint64             `json:"shape,omitempty"`
	DataType         json.RawMessage      `json:"data_type,omitempty"`
	ChunkGrid        *NamedConfiguration  `json:"chunk_grid,omitempty"`
	ChunkKeyEncoding *NamedConfiguration  `json:"chunk_key_encoding,omitempty"`
	FillValue        json.RawMessage      `json:"fill_value,omitempty"`
	Codecs           []NamedConfiguration `json:"codecs,omitempty"`
	Attributes       Attributes           `json:"attributes,omitempty"`
	DimensionNames   []*string            `json:"dimension_names,omitempty"`
}

// ParseV3 decodes a "zarr.json" blob.
func ParseV3(r io.Reader) (*V3, error) {
	var m V3
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("metadata: decode zarr.json: %w", err)
	}
	if m.ZarrFormat != 3 {
		return nil, fmt.Errorf("metadata: unsupported zarr_format %d, expected 3", m.ZarrFormat)
	}
	return &m, nil
}

// Write encodes the blob verbatim.
func (m *V3) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("metadata: encode zarr.json: %w", err)
	}
	return nil
}

// ChunkGridConfiguration is the "configuration" payload of a V3 regular
// chunk_grid entry: {"chunk_shape": [...]}.
type ChunkGridConfiguration struct {
	ChunkShape []uint64 `json:"chunk_shape"`
}

// ChunkKeyEncodingConfiguration is the "configuration" payload of a V3
// chunk_key_encoding entry: {"separator": "/"} or {"separator": "."}.
type ChunkKeyEncodingConfiguration struct {
	Separator string `json:"separator"`
}
