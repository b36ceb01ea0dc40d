// Package zstdcodec implements the "zstd" BytesToBytes codec, wrapping
// klauspost/compress's zstd implementation the way the teacher reads
// zstd-compressed chunks.
package zstdcodec

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/zarrcore/engine/codec"
)

// Codec compresses/decompresses chunk bytes with zstd at the configured
// level. A single *Codec is safe for concurrent use; its encoder/decoder
// are built lazily and cached.
type Codec struct {
	Level zstd.EncoderLevel
	Checksum bool

	mu      sync.Mutex
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func New(level zstd.EncoderLevel) *Codec { return &Codec{Level: level} }

func (c *Codec) Name() string { return "zstd" }

func (c *Codec) getEncoder() (*zstd.Encoder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.encoder == nil {
		opts := []zstd.EOption{zstd.WithEncoderLevel(c.Level)}
		if c.Checksum {
			opts = append(opts, zstd.WithEncoderCRC(true))
		}
		enc, err := zstd.NewWriter(nil, opts...)
		if err != nil {
			return nil, fmt.Errorf("zstdcodec: %w", err)
		}
		c.encoder = enc
	}
	return c.encoder, nil
}

func (c *Codec) getDecoder() (*zstd.Decoder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.decoder == nil {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("zstdcodec: %w", err)
		}
		c.decoder = dec
	}
	return c.decoder, nil
}

func (c *Codec) Encode(encoded []byte, opts *codec.Options) ([]byte, error) {
	enc, err := c.getEncoder()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return enc.EncodeAll(encoded, make([]byte, 0, len(encoded))), nil
}

func (c *Codec) Decode(encoded []byte, opts *codec.Options) ([]byte, error) {
	dec, err := c.getDecoder()
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out, err := dec.DecodeAll(encoded, nil)
	if err != nil {
		return nil, fmt.Errorf("zstdcodec: decode failed: %w", err)
	}
	return out, nil
}

func (c *Codec) RecommendedConcurrency() (codec.RecommendedConcurrency, error) {
	return codec.MaximumConcurrency(1), nil
}

func (c *Codec) EncodedRepresentation(input codec.BytesRepresentation) (codec.BytesRepresentation, error) {
	return codec.BytesRepresentation{Kind: codec.UnboundedSize}, nil
}

func (c *Codec) PartialDecoderCapability() codec.PartialDecoderCapability {
	return codec.PartialDecoderCapability{}
}

func (c *Codec) PartialEncoderCapability() codec.PartialEncoderCapability {
	return codec.PartialEncoderCapability{}
}

var _ codec.BytesToBytes = (*Codec)(nil)
