// Package bitround implements the "bitround" ArrayToArray codec: rounds
// the mantissa of floating-point elements to a configured number of
// kept bits, leaving the array more amenable to downstream compression.
// Round trip is lossy by design; Decode is the identity (rounding
// already happened on encode).
package bitround

import (
	"encoding/binary"
	"fmt"

	"github.com/zarrcore/engine/arraybytes"
	"github.com/zarrcore/engine/codec"
)

// Codec rounds float32/float64 mantissas to KeepBits bits.
type Codec struct {
	KeepBits uint32
}

func New(keepBits uint32) *Codec { return &Codec{KeepBits: keepBits} }

func (c *Codec) Name() string { return "bitround" }

func (c *Codec) mantissaBits(dt string) (uint32, error) {
	switch dt {
	case "float32":
		return 23, nil
	case "float64":
		return 52, nil
	default:
		return 0, fmt.Errorf("bitround: unsupported data type %s", dt)
	}
}

func (c *Codec) round(raw []byte, dtName string) ([]byte, error) {
	mantissaBits, err := c.mantissaBits(dtName)
	if err != nil {
		return nil, &codec.UnsupportedDataTypeError{Codec: c.Name(), DataType: dtName}
	}
	if c.KeepBits >= mantissaBits {
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	}
	maxBit := mantissaBits - c.KeepBits
	out := make([]byte, len(raw))
	copy(out, raw)

	switch dtName {
	case "float32":
		for i := 0; i+4 <= len(out); i += 4 {
			bits := binary.LittleEndian.Uint32(out[i : i+4])
			half := uint32(1) << (maxBit - 1)
			mask := ^((uint32(1) << maxBit) - 1)
			bits = (bits + half) & mask
			binary.LittleEndian.PutUint32(out[i:i+4], bits)
		}
	case "float64":
		for i := 0; i+8 <= len(out); i += 8 {
			bits := binary.LittleEndian.Uint64(out[i : i+8])
			half := uint64(1) << (maxBit - 1)
			mask := ^((uint64(1) << maxBit) - 1)
			bits = (bits + half) & mask
			binary.LittleEndian.PutUint64(out[i:i+8], bits)
		}
	}
	return out, nil
}

func (c *Codec) Encode(ab arraybytes.ArrayBytes, rep codec.ChunkRepresentation, opts *codec.Options) (arraybytes.ArrayBytes, error) {
	if !ab.IsFixed() {
		return arraybytes.ArrayBytes{}, fmt.Errorf("bitround: expected Fixed ArrayBytes")
	}
	rounded, err := c.round(ab.Fixed(), rep.DataType.NameV3())
	if err != nil {
		return arraybytes.ArrayBytes{}, err
	}
	return arraybytes.NewFixed(rounded), nil
}

// Decode is the identity: bitrounding is lossy and irreversible, so
// decoding a bitrounded chunk just passes the (already-rounded) bits
// through.
func (c *Codec) Decode(ab arraybytes.ArrayBytes, rep codec.ChunkRepresentation, opts *codec.Options) (arraybytes.ArrayBytes, error) {
	if !ab.IsFixed() {
		return arraybytes.ArrayBytes{}, fmt.Errorf("bitround: expected Fixed ArrayBytes")
	}
	return ab, nil
}

func (c *Codec) RecommendedConcurrency(rep codec.ChunkRepresentation) (codec.RecommendedConcurrency, error) {
	return codec.MaximumConcurrency(1), nil
}

func (c *Codec) EncodedRepresentation(input codec.ChunkRepresentation) (codec.ChunkRepresentation, error) {
	return input, nil
}

var _ codec.ArrayToArray = (*Codec)(nil)
