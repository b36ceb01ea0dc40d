// Package codec defines the three codec categories that compose an
// encode/decode pipeline over a chunk (ArrayToArray, ArrayToBytes,
// BytesToBytes), their partial decode/encode contracts, and the
// ordered chain that composes them.
package codec

import (
	"fmt"

	"github.com/zarrcore/engine/arraybytes"
	"github.com/zarrcore/engine/datatype"
	"github.com/zarrcore/engine/indexer"
	"github.com/zarrcore/engine/storage"
)

// Error wraps a codec-plane failure with the offending codec's name.
type Error struct {
	Codec  string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("codec %s: %s: %v", e.Codec, e.Reason, e.Err)
	}
	return fmt.Sprintf("codec %s: %s", e.Codec, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// UnsupportedDataTypeError reports a codec invoked against a data type
// it cannot serialize (e.g. the bytes codec against a variable-length
// type).
type UnsupportedDataTypeError struct {
	Codec    string
	DataType string
}

func (e *UnsupportedDataTypeError) Error() string {
	return fmt.Sprintf("codec %s: unsupported data type %s", e.Codec, e.DataType)
}

// ChunkRepresentation is the (shape, data type, fill value) triple every
// codec operation is parameterized by.
type ChunkRepresentation struct {
	Shape     []uint64
	DataType  datatype.DataType
	FillValue datatype.FillValue
}

func (c ChunkRepresentation) NumElements() uint64 { return indexer.NumElements(c.Shape) }

// RecommendedConcurrency is a codec's intra-codec parallelism hint: a
// closed range [Min, Max]. Maximum(1) denotes an intrinsically serial
// codec (a streaming compressor with internal state).
type RecommendedConcurrency struct {
	Min, Max uint64
}

func MaximumConcurrency(n uint64) RecommendedConcurrency {
	return RecommendedConcurrency{Min: 1, Max: n}
}

// BytesRepresentation sizes a codec's encoded output ahead of encoding,
// used to size buffers and verify pipeline correctness.
type BytesRepresentation struct {
	Kind BytesSizeKind
	N    uint64 // meaningful for Fixed and Bounded
}

type BytesSizeKind int

const (
	FixedSize BytesSizeKind = iota
	BoundedSize
	UnboundedSize
)

// PartialDecoderCapability advertises whether a codec can serve a
// narrower-than-whole-chunk decode without materializing the full
// stream.
type PartialDecoderCapability struct {
	PartialRead   bool
	PartialDecode bool
}

// PartialEncoderCapability mirrors PartialDecoderCapability for writes.
type PartialEncoderCapability struct {
	PartialWrite  bool
	PartialEncode bool
}

// Options carries per-call tuning: the concurrency budget this
// operation may use (assigned by the concurrency controller, §4.6) and
// validation strictness.
type Options struct {
	ConcurrentTarget uint64
	ValidateOnly     bool
}

type Option func(*Options)

func WithConcurrentTarget(n uint64) Option {
	return func(o *Options) { o.ConcurrentTarget = n }
}

func WithValidateOnly(v bool) Option {
	return func(o *Options) { o.ValidateOnly = v }
}

func NewOptions(opts ...Option) *Options {
	o := &Options{ConcurrentTarget: 1}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ArrayToArray transforms ArrayBytes to ArrayBytes: permutations,
// reshapes, precision reduction.
type ArrayToArray interface {
	Name() string
	Encode(ab arraybytes.ArrayBytes, rep ChunkRepresentation, opts *Options) (arraybytes.ArrayBytes, error)
	Decode(ab arraybytes.ArrayBytes, rep ChunkRepresentation, opts *Options) (arraybytes.ArrayBytes, error)
	RecommendedConcurrency(rep ChunkRepresentation) (RecommendedConcurrency, error)
	// EncodedRepresentation returns the representation (data type and
	// shape) an encode call with this codec applied to input would
	// produce; most ArrayToArray codecs are shape/type-preserving.
	EncodedRepresentation(input ChunkRepresentation) (ChunkRepresentation, error)
}

// ArrayToBytes serializes ArrayBytes to a raw byte stream: endianness,
// vlen packing, compressed columnar formats.
type ArrayToBytes interface {
	Name() string
	Encode(ab arraybytes.ArrayBytes, rep ChunkRepresentation, opts *Options) ([]byte, error)
	Decode(encoded []byte, rep ChunkRepresentation, opts *Options) (arraybytes.ArrayBytes, error)
	RecommendedConcurrency(rep ChunkRepresentation) (RecommendedConcurrency, error)
	EncodedRepresentation(rep ChunkRepresentation) (BytesRepresentation, error)
	PartialDecoderCapability() PartialDecoderCapability
	PartialEncoderCapability() PartialEncoderCapability
	// PartialDecoder constructs a partial decoder bound to a storage
	// handle holding the encoded chunk at key.
	PartialDecoder(store storage.Storage, key string, rep ChunkRepresentation) (PartialDecoder, error)
	// PartialEncoder constructs a partial encoder bound to the same.
	PartialEncoder(store storage.Storage, key string, rep ChunkRepresentation) (PartialEncoder, error)
}

// BytesToBytes transforms a raw byte stream to another raw byte stream:
// entropy coding, checksums.
type BytesToBytes interface {
	Name() string
	Encode(encoded []byte, opts *Options) ([]byte, error)
	Decode(encoded []byte, opts *Options) ([]byte, error)
	RecommendedConcurrency() (RecommendedConcurrency, error)
	EncodedRepresentation(input BytesRepresentation) (BytesRepresentation, error)
	PartialDecoderCapability() PartialDecoderCapability
	PartialEncoderCapability() PartialEncoderCapability
}

// PartialDecoder is an object wrapping a lower-level decoder,
// constructed at pipeline-assembly time. It materializes only the
// elements an indexer names.
type PartialDecoder interface {
	PartialDecode(idx indexer.Indexer, opts *Options) (arraybytes.ArrayBytes, error)
	// SizeHeld is the bytes retained in memory: zero for stateless
	// decoders, positive for ones caching an inner stream.
	SizeHeld() uint64
	SupportsPartialDecode() bool
}

// PartialEncoder updates a subset of a stored chunk without rewriting
// the whole chunk, for codecs that support it.
type PartialEncoder interface {
	PartialEncode(idx indexer.Indexer, ab arraybytes.ArrayBytes, opts *Options) error
	SupportsPartialEncode() bool
}
