package codec

import (
	"fmt"

	"github.com/zarrcore/engine/arraybytes"
	"github.com/zarrcore/engine/indexer"
	"github.com/zarrcore/engine/storage"
)

// Chain is an ordered (aa_codecs[], a2b_codec, bb_codecs[]) pipeline.
// Encoding applies aa codecs in order, then a2b, then bb codecs in
// order; decoding reverses.
type Chain struct {
	ArrayToArray []ArrayToArray
	ArrayToBytes ArrayToBytes
	BytesToBytes []BytesToBytes
}

// NewChain builds a Chain. a2b is mandatory.
func NewChain(aa []ArrayToArray, a2b ArrayToBytes, bb []BytesToBytes) (*Chain, error) {
	if a2b == nil {
		return nil, fmt.Errorf("codec: a chain requires an ArrayToBytes codec")
	}
	return &Chain{ArrayToArray: aa, ArrayToBytes: a2b, BytesToBytes: bb}, nil
}

// Encode runs the full pipeline: aa codecs, then the a2b codec, then bb
// codecs, returning the final encoded bytes.
func (c *Chain) Encode(ab arraybytes.ArrayBytes, rep ChunkRepresentation, opts *Options) ([]byte, error) {
	cur := ab
	curRep := rep
	for _, codec := range c.ArrayToArray {
		encoded, err := codec.Encode(cur, curRep, opts)
		if err != nil {
			return nil, &Error{Codec: codec.Name(), Reason: "encode", Err: err}
		}
		nextRep, err := codec.EncodedRepresentation(curRep)
		if err != nil {
			return nil, &Error{Codec: codec.Name(), Reason: "encoded representation", Err: err}
		}
		cur = encoded
		curRep = nextRep
	}

	bytes, err := c.ArrayToBytes.Encode(cur, curRep, opts)
	if err != nil {
		return nil, &Error{Codec: c.ArrayToBytes.Name(), Reason: "encode", Err: err}
	}

	for _, codec := range c.BytesToBytes {
		encoded, err := codec.Encode(bytes, opts)
		if err != nil {
			return nil, &Error{Codec: codec.Name(), Reason: "encode", Err: err}
		}
		bytes = encoded
	}
	return bytes, nil
}

// Decode reverses Encode: bb codecs in reverse order, then the a2b
// codec, then aa codecs in reverse order.
func (c *Chain) Decode(encoded []byte, rep ChunkRepresentation, opts *Options) (arraybytes.ArrayBytes, error) {
	bytes := encoded
	for i := len(c.BytesToBytes) - 1; i >= 0; i-- {
		codec := c.BytesToBytes[i]
		decoded, err := codec.Decode(bytes, opts)
		if err != nil {
			return arraybytes.ArrayBytes{}, &Error{Codec: codec.Name(), Reason: "decode", Err: err}
		}
		bytes = decoded
	}

	// Recompute the representation the a2b codec sees, by replaying the
	// aa chain's forward representation transforms.
	a2bRep, err := c.arrayToBytesRepresentation(rep)
	if err != nil {
		return arraybytes.ArrayBytes{}, err
	}

	ab, err := c.ArrayToBytes.Decode(bytes, a2bRep, opts)
	if err != nil {
		return arraybytes.ArrayBytes{}, &Error{Codec: c.ArrayToBytes.Name(), Reason: "decode", Err: err}
	}

	reps, err := c.forwardRepresentations(rep)
	if err != nil {
		return arraybytes.ArrayBytes{}, err
	}
	for i := len(c.ArrayToArray) - 1; i >= 0; i-- {
		codec := c.ArrayToArray[i]
		decoded, err := codec.Decode(ab, reps[i], opts)
		if err != nil {
			return arraybytes.ArrayBytes{}, &Error{Codec: codec.Name(), Reason: "decode", Err: err}
		}
		ab = decoded
	}
	return ab, nil
}

// forwardRepresentations returns, for each aa codec index i, the
// representation that codec saw as *input* during encode.
func (c *Chain) forwardRepresentations(rep ChunkRepresentation) ([]ChunkRepresentation, error) {
	reps := make([]ChunkRepresentation, len(c.ArrayToArray))
	cur := rep
	for i, codec := range c.ArrayToArray {
		reps[i] = cur
		next, err := codec.EncodedRepresentation(cur)
		if err != nil {
			return nil, &Error{Codec: codec.Name(), Reason: "encoded representation", Err: err}
		}
		cur = next
	}
	return reps, nil
}

func (c *Chain) arrayToBytesRepresentation(rep ChunkRepresentation) (ChunkRepresentation, error) {
	cur := rep
	for _, codec := range c.ArrayToArray {
		next, err := codec.EncodedRepresentation(cur)
		if err != nil {
			return ChunkRepresentation{}, &Error{Codec: codec.Name(), Reason: "encoded representation", Err: err}
		}
		cur = next
	}
	return cur, nil
}

// RecommendedConcurrency returns the maximum of every member codec's
// recommendation, per §4.5: the chain as a whole accepts a single
// concurrency budget.
func (c *Chain) RecommendedConcurrency(rep ChunkRepresentation) (RecommendedConcurrency, error) {
	best := RecommendedConcurrency{Min: 1, Max: 1}
	curRep := rep
	for _, codec := range c.ArrayToArray {
		rc, err := codec.RecommendedConcurrency(curRep)
		if err != nil {
			return RecommendedConcurrency{}, err
		}
		best = maxConcurrency(best, rc)
		next, err := codec.EncodedRepresentation(curRep)
		if err != nil {
			return RecommendedConcurrency{}, err
		}
		curRep = next
	}
	rc, err := c.ArrayToBytes.RecommendedConcurrency(curRep)
	if err != nil {
		return RecommendedConcurrency{}, err
	}
	best = maxConcurrency(best, rc)
	for _, codec := range c.BytesToBytes {
		rc, err := codec.RecommendedConcurrency()
		if err != nil {
			return RecommendedConcurrency{}, err
		}
		best = maxConcurrency(best, rc)
	}
	return best, nil
}

func maxConcurrency(a, b RecommendedConcurrency) RecommendedConcurrency {
	out := a
	if b.Max > out.Max {
		out.Max = b.Max
	}
	if b.Min > out.Min {
		out.Min = b.Min
	}
	return out
}

// EncodedRepresentation sizes the chain's final byte output ahead of
// encoding.
func (c *Chain) EncodedRepresentation(rep ChunkRepresentation) (BytesRepresentation, error) {
	a2bRep, err := c.arrayToBytesRepresentation(rep)
	if err != nil {
		return BytesRepresentation{}, err
	}
	br, err := c.ArrayToBytes.EncodedRepresentation(a2bRep)
	if err != nil {
		return BytesRepresentation{}, err
	}
	for _, codec := range c.BytesToBytes {
		next, err := codec.EncodedRepresentation(br)
		if err != nil {
			return BytesRepresentation{}, err
		}
		br = next
	}
	return br, nil
}

// PartialDecoder builds the chain's partial decoder. When every bb
// codec reports PartialRead support, the a2b codec's own partial
// decoder is used directly, wrapped by each aa codec's default partial
// decoder. Otherwise the bb stage cannot resolve a byte range without
// materializing its whole encoded stream (a compressing codec like
// zstdcodec or gzipcodec breaks the a2b codec's direct byte-range reads,
// since those ranges are computed against the uncompressed layout but
// would be issued against compressed bytes on disk), so the chain falls
// back to decoding the full chunk once and slicing the requested region
// out of the decoded bytes.
func (c *Chain) PartialDecoder(store storage.Storage, key string, rep ChunkRepresentation) (PartialDecoder, error) {
	if !c.bytesToBytesSupportsPartialRead() {
		return &materializingPartialDecoder{chain: c, store: store, key: key, rep: rep}, nil
	}

	a2bRep, err := c.arrayToBytesRepresentation(rep)
	if err != nil {
		return nil, err
	}
	inner, err := c.ArrayToBytes.PartialDecoder(store, key, a2bRep)
	if err != nil {
		return nil, &Error{Codec: c.ArrayToBytes.Name(), Reason: "partial decoder", Err: err}
	}
	reps, err := c.forwardRepresentations(rep)
	if err != nil {
		return nil, err
	}
	dec := inner
	for i := len(c.ArrayToArray) - 1; i >= 0; i-- {
		dec = &arrayToArrayPartialDecoder{inner: dec, codec: c.ArrayToArray[i], rep: reps[i]}
	}
	return dec, nil
}

// bytesToBytesSupportsPartialRead reports whether every bb codec in the
// chain can resolve a byte range against its own encoded stream without
// materializing the whole chunk.
func (c *Chain) bytesToBytesSupportsPartialRead() bool {
	for _, codec := range c.BytesToBytes {
		if !codec.PartialDecoderCapability().PartialRead {
			return false
		}
	}
	return true
}

// materializingPartialDecoder is the default partial decoder for chains
// whose bb stage cannot serve byte ranges directly: it decodes the
// whole chunk once via Chain.Decode, then slices the requested region
// out of the decoded bytes. This mirrors the read-modify-write fallback
// Array.StoreArraySubset already uses for partial writes when no
// composable partial encoder is available.
type materializingPartialDecoder struct {
	chain *Chain
	store storage.Storage
	key   string
	rep   ChunkRepresentation
}

func (d *materializingPartialDecoder) PartialDecode(idx indexer.Indexer, opts *Options) (arraybytes.ArrayBytes, error) {
	if idx.Dimensionality() != len(d.rep.Shape) {
		return arraybytes.ArrayBytes{}, fmt.Errorf("codec: indexer dimensionality %d incompatible with chunk shape of dimensionality %d", idx.Dimensionality(), len(d.rep.Shape))
	}

	encoded, err := d.store.Get(d.key)
	if err != nil {
		return arraybytes.ArrayBytes{}, err
	}
	if encoded == nil {
		return arraybytes.NewFillValue(d.rep.DataType, idx.Len(), d.rep.FillValue)
	}

	full, err := d.chain.Decode(encoded, d.rep, opts)
	if err != nil {
		return arraybytes.ArrayBytes{}, err
	}
	size := d.rep.DataType.Size()
	if !size.IsFixed() || !full.IsFixed() {
		return arraybytes.ArrayBytes{}, &UnsupportedDataTypeError{Codec: "chain", DataType: d.rep.DataType.NameV3()}
	}

	byteRanges, err := idx.ContiguousByteRanges(d.rep.Shape, size.N())
	if err != nil {
		return arraybytes.ArrayBytes{}, err
	}
	raw := full.Fixed()
	out := make([]byte, 0, idx.Len()*size.N())
	for _, r := range byteRanges {
		out = append(out, raw[r.Offset:r.Offset+r.Length]...)
	}
	return arraybytes.NewFixed(out), nil
}

func (d *materializingPartialDecoder) SizeHeld() uint64 { return 0 }

func (d *materializingPartialDecoder) SupportsPartialDecode() bool { return true }

// arrayToArrayPartialDecoder is the default ArrayToArray partial
// decoder: it chains through its child and re-applies the codec on the
// narrow region, since most ArrayToArray codecs (transpose, bitround)
// have no cheaper subset-selective decode.
type arrayToArrayPartialDecoder struct {
	inner PartialDecoder
	codec ArrayToArray
	rep   ChunkRepresentation
}

func (d *arrayToArrayPartialDecoder) PartialDecode(idx indexer.Indexer, opts *Options) (arraybytes.ArrayBytes, error) {
	narrow, err := d.inner.PartialDecode(idx, opts)
	if err != nil {
		return arraybytes.ArrayBytes{}, err
	}
	narrowRep := d.rep
	narrowRep.Shape = idx.OutputShape()
	decoded, err := d.codec.Decode(narrow, narrowRep, opts)
	if err != nil {
		return arraybytes.ArrayBytes{}, &Error{Codec: d.codec.Name(), Reason: "partial decode", Err: err}
	}
	return decoded, nil
}

func (d *arrayToArrayPartialDecoder) SizeHeld() uint64 { return d.inner.SizeHeld() }

func (d *arrayToArrayPartialDecoder) SupportsPartialDecode() bool {
	return d.inner.SupportsPartialDecode()
}

var (
	_ PartialDecoder = (*materializingPartialDecoder)(nil)
	_ PartialDecoder = (*arrayToArrayPartialDecoder)(nil)
)
