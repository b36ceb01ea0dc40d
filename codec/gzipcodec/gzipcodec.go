// Package gzipcodec implements the "gzip" BytesToBytes codec using
// klauspost/compress's drop-in gzip implementation.
package gzipcodec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/zarrcore/engine/codec"
)

// Codec compresses/decompresses chunk bytes with gzip at the configured
// level (gzip.NoCompression .. gzip.BestCompression).
type Codec struct {
	Level int
}

func New(level int) *Codec { return &Codec{Level: level} }

func (c *Codec) Name() string { return "gzip" }

func (c *Codec) Encode(encoded []byte, opts *codec.Options) ([]byte, error) {
	var buf bytes.Buffer
	w, err := gzip.NewWriterLevel(&buf, c.Level)
	if err != nil {
		return nil, fmt.Errorf("gzipcodec: %w", err)
	}
	if _, err := w.Write(encoded); err != nil {
		return nil, fmt.Errorf("gzipcodec: write failed: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzipcodec: close failed: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *Codec) Decode(encoded []byte, opts *codec.Options) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("gzipcodec: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("gzipcodec: decode failed: %w", err)
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
