// Package vlencodec implements the "vlen" ArrayToBytes codec: encodes a
// variable-length data type's element bytes and offsets as independent
// regions of the chunk stream, in the Apache-arrow variable-size binary
// layout (offsets monotonically increasing, validity bitmap elided).
//
// The encoded stream is an 8-byte little-endian index length, the
// little-endian uint64 offsets themselves (numElements+1 of them), and
// finally the concatenated element payload.
package vlencodec

import (
	"encoding/binary"
	"fmt"

	"github.com/zarrcore/engine/arraybytes"
	"github.com/zarrcore/engine/codec"
	"github.com/zarrcore/engine/storage"
)

// Codec is the "vlen" ArrayToBytes codec.
type Codec struct{}

func New() *Codec { return &Codec{} }

func (c *Codec) Name() string { return "vlen" }

func (c *Codec) Encode(ab arraybytes.ArrayBytes, rep codec.ChunkRepresentation, opts *codec.Options) ([]byte, error) {
	if rep.DataType.Size().IsFixed() {
		return nil, &codec.UnsupportedDataTypeError{Codec: c.Name(), DataType: rep.DataType.NameV3()}
	}
	if !ab.IsVariable() {
		return nil, fmt.Errorf("vlencodec: expected Variable ArrayBytes")
	}
	raw, offsets := ab.Variable()
	if uint64(len(offsets)) != rep.NumElements()+1 {
		return nil, fmt.Errorf("vlencodec: offsets length %d does not match element count+1 (%d)", len(offsets), rep.NumElements()+1)
	}

	indexBytes := make([]byte, 8*len(offsets))
	for i, o := range offsets {
		binary.LittleEndian.PutUint64(indexBytes[i*8:(i+1)*8], o)
	}

	out := make([]byte, 0, 8+len(indexBytes)+len(raw))
	lengthPrefix := make([]byte, 8)
	binary.LittleEndian.PutUint64(lengthPrefix, uint64(len(indexBytes)))
	out = append(out, lengthPrefix...)
	out = append(out, indexBytes...)
	out = append(out, raw...)
	return out, nil
}

func (c *Codec) Decode(encoded []byte, rep codec.ChunkRepresentation, opts *codec.Options) (arraybytes.ArrayBytes, error) {
	if rep.DataType.Size().IsFixed() {
		return arraybytes.ArrayBytes{}, &codec.UnsupportedDataTypeError{Codec: c.Name(), DataType: rep.DataType.NameV3()}
	}
	if len(encoded) < 8 {
		return arraybytes.ArrayBytes{}, fmt.Errorf("vlencodec: encoded stream too short for index length prefix")
	}
	indexLen := binary.LittleEndian.Uint64(encoded[:8])
	if uint64(len(encoded)) < 8+indexLen {
		return arraybytes.ArrayBytes{}, fmt.Errorf("vlencodec: encoded stream too short for declared index length %d", indexLen)
	}
	indexBytes := encoded[8 : 8+indexLen]
	if indexLen%8 != 0 {
		return arraybytes.ArrayBytes{}, fmt.Errorf("vlencodec: index byte length %d is not a multiple of 8", indexLen)
	}
	numOffsets := indexLen / 8
	offsets := make([]uint64, numOffsets)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint64(indexBytes[i*8 : (i+1)*8])
	}
	if numOffsets != rep.NumElements()+1 {
		return arraybytes.ArrayBytes{}, fmt.Errorf("vlencodec: decoded offset count %d does not match element count+1 (%d)", numOffsets, rep.NumElements()+1)
	}

	raw := encoded[8+indexLen:]
	if len(offsets) > 0 && offsets[len(offsets)-1] != uint64(len(raw)) {
		return arraybytes.ArrayBytes{}, fmt.Errorf("vlencodec: final offset %d does not match payload length %d", offsets[len(offsets)-1], len(raw))
	}
	return arraybytes.NewVariable(raw, offsets), nil
}

func (c *Codec) RecommendedConcurrency(rep codec.ChunkRepresentation) (codec.RecommendedConcurrency, error) {
	return codec.MaximumConcurrency(1), nil
}

func (c *Codec) EncodedRepresentation(rep codec.ChunkRepresentation) (codec.BytesRepresentation, error) {
	return codec.BytesRepresentation{Kind: codec.UnboundedSize}, nil
}

// PartialDecoderCapability reports no partial support: unlike the bytes
// codec's fixed-width fast path, serving a subset here would still
// require reading the whole index to locate element boundaries, so no
// partial decoder is offered.
func (c *Codec) PartialDecoderCapability() codec.PartialDecoderCapability {
	return codec.PartialDecoderCapability{}
}

func (c *Codec) PartialEncoderCapability() codec.PartialEncoderCapability {
	return codec.PartialEncoderCapability{}
}

func (c *Codec) PartialDecoder(store storage.Storage, key string, rep codec.ChunkRepresentation) (codec.PartialDecoder, error) {
	return nil, fmt.Errorf("vlencodec: partial decode not supported")
}

func (c *Codec) PartialEncoder(store storage.Storage, key string, rep codec.ChunkRepresentation) (codec.PartialEncoder, error) {
	return nil, fmt.Errorf("vlencodec: partial encode not supported")
}

var _ codec.ArrayToBytes = (*Codec)(nil)
