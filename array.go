package engine

import (
	"context"
	"fmt"

	"github.com/zarrcore/engine/arraybytes"
	"github.com/zarrcore/engine/cache"
	"github.com/zarrcore/engine/chunkgrid"
	"github.com/zarrcore/engine/codec"
	"github.com/zarrcore/engine/concurrency"
	"github.com/zarrcore/engine/datatype"
	"github.com/zarrcore/engine/indexer"
	"github.com/zarrcore/engine/metrics"
	"github.com/zarrcore/engine/storage"
)

// ChunkEntry is the cache.Entry wrapping a decoded chunk, sized by its
// uncompressed byte footprint.
type ChunkEntry struct {
	Bytes arraybytes.ArrayBytes
	size  uint64
}

func (e ChunkEntry) Size() uint64 { return e.size }

// Array orchestrates the chunk grid, codec chain, concurrency
// controller, and storage trait surface into the read/write operations
// of §4.8: StoreChunk, RetrieveChunk, RetrieveArraySubset,
// StoreArraySubset, EraseChunk, EraseChunks.
type Array struct {
	Store            storage.Storage
	Grid             chunkgrid.Grid
	DataType         datatype.DataType
	FillValue        datatype.FillValue
	Chain            *codec.Chain
	KeyEncoding      ChunkKeyEncoding
	ArrayPath        string
	StoreEmptyChunks bool
	Cache            cache.Cache[ChunkEntry]
	Metrics          *metrics.Recorder
	ConcurrentTarget uint64
}

// ArrayOption configures optional Array fields at construction time.
type ArrayOption func(*Array)

func WithStoreEmptyChunks(v bool) ArrayOption {
	return func(a *Array) { a.StoreEmptyChunks = v }
}

func WithChunkCache(c cache.Cache[ChunkEntry]) ArrayOption {
	return func(a *Array) { a.Cache = c }
}

func WithMetricsRecorder(r *metrics.Recorder) ArrayOption {
	return func(a *Array) { a.Metrics = r }
}

func WithConcurrentTarget(n uint64) ArrayOption {
	return func(a *Array) { a.ConcurrentTarget = n }
}

// NewArray builds an Array over store, grid, dt/fv, and chain, keying
// chunks under arrayPath with keyEncoding. store_empty_chunks defaults
// to false, matching §4.8's fill-value elision default.
func NewArray(
	store storage.Storage,
	grid chunkgrid.Grid,
	dt datatype.DataType,
	fv datatype.FillValue,
	chain *codec.Chain,
	keyEncoding ChunkKeyEncoding,
	arrayPath string,
	opts ...ArrayOption,
) (*Array, error) {
	if store == nil || grid == nil || dt == nil || chain == nil || keyEncoding == nil {
		return nil, fmt.Errorf("engine: NewArray requires a non-nil store, grid, data type, chain, and key encoding")
	}
	a := &Array{
		Store:            store,
		Grid:             grid,
		DataType:         dt,
		FillValue:        fv,
		Chain:            chain,
		KeyEncoding:      keyEncoding,
		ArrayPath:        arrayPath,
		ConcurrentTarget: 1,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.Store = wrapStoreMetrics(a.Store, a.Metrics)
	if obs, ok := a.Cache.(cache.Observable); ok && a.Metrics != nil {
		obs.SetEvictionObserver(a.Metrics, "chunk")
	}
	return a, nil
}

func (a *Array) concurrentTarget() uint64 {
	if a.ConcurrentTarget == 0 {
		return 1
	}
	return a.ConcurrentTarget
}

// elementSize returns the fixed per-element byte stride, required by
// every operation that box-copies across chunk boundaries. Variable-size
// data types can still StoreChunk/RetrieveChunk (whole-chunk codec
// round trips) but not RetrieveArraySubset/StoreArraySubset, which rely
// on arraybytes.CopyND's fixed-stride assumption.
func (a *Array) elementSize() (uint64, error) {
	size := a.DataType.Size()
	if !size.IsFixed() {
		return 0, fmt.Errorf("%w: %s has no fixed element stride for array-subset box copies", ErrUnsupportedDataType, a.DataType.NameV3())
	}
	return size.N(), nil
}

func (a *Array) chunkRep(chunkIndices []uint64) (codec.ChunkRepresentation, error) {
	shape, ok := a.Grid.ChunkShape(chunkIndices)
	if !ok {
		return codec.ChunkRepresentation{}, fmt.Errorf("%w: %v", ErrInvalidChunkGridIndices, chunkIndices)
	}
	return codec.ChunkRepresentation{Shape: shape, DataType: a.DataType, FillValue: a.FillValue}, nil
}

func (a *Array) chunkKey(chunkIndices []uint64) string {
	return a.KeyEncoding.EncodeChunkKey(a.ArrayPath, chunkIndices)
}

// StoreChunk writes data (validated against the chunk's declared shape
// and this array's data type) to chunk_indices. A chunk whose data
// equals the fill value is elided (key erased) unless StoreEmptyChunks
// is set, per invariant 5.
func (a *Array) StoreChunk(chunkIndices []uint64, data arraybytes.ArrayBytes) error {
	return a.storeChunk(chunkIndices, data, codec.NewOptions(codec.WithConcurrentTarget(a.concurrentTarget())))
}

// storeChunk is StoreChunk parameterized by an explicit codec.Options,
// so multi-chunk callers (StoreArraySubset) can thread the concurrency
// controller's per-codec split (Plan.CodecOptions) through to each
// chunk's encode instead of every chunk rebuilding its own Options from
// the Array-level, un-split ConcurrentTarget.
func (a *Array) storeChunk(chunkIndices []uint64, data arraybytes.ArrayBytes, opts *codec.Options) error {
	rep, err := a.chunkRep(chunkIndices)
	if err != nil {
		return err
	}
	numElements := rep.NumElements()
	if err := arraybytes.Validate(data, numElements, a.DataType); err != nil {
		return fmt.Errorf("%w: %w", ErrIncompatibleDataShape, err)
	}

	key := a.chunkKey(chunkIndices)

	if !a.StoreEmptyChunks && arraybytes.IsFillValue(data, numElements, a.DataType, a.FillValue) {
		if a.Cache != nil {
			a.Cache.Del(key)
		}
		if err := a.Store.Erase(key); err != nil {
			return fmt.Errorf("%w: %w", ErrStore, err)
		}
		return nil
	}

	encoded, err := a.Chain.Encode(data, rep, opts)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCodec, err)
	}
	if err := a.Store.Set(key, encoded); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	if a.Cache != nil {
		a.Cache.Del(key)
	}
	return nil
}

// RetrieveChunk reads chunk_indices, constructing a fill-value buffer
// if the key is absent (invariant 4).
func (a *Array) RetrieveChunk(chunkIndices []uint64) (arraybytes.ArrayBytes, error) {
	return a.retrieveChunk(chunkIndices, codec.NewOptions(codec.WithConcurrentTarget(a.concurrentTarget())))
}

// retrieveChunk is RetrieveChunk parameterized by an explicit
// codec.Options; see storeChunk for why multi-chunk callers need this.
func (a *Array) retrieveChunk(chunkIndices []uint64, opts *codec.Options) (arraybytes.ArrayBytes, error) {
	rep, err := a.chunkRep(chunkIndices)
	if err != nil {
		return arraybytes.ArrayBytes{}, err
	}
	key := a.chunkKey(chunkIndices)

	decode := func() (ChunkEntry, error) {
		ab, size, err := a.fetchAndDecode(key, rep, opts)
		if err != nil {
			return ChunkEntry{}, err
		}
		return ChunkEntry{Bytes: ab, size: size}, nil
	}

	if a.Cache == nil {
		entry, err := decode()
		if err != nil {
			return arraybytes.ArrayBytes{}, err
		}
		return entry.Bytes, nil
	}

	if entry, ok := a.Cache.Get(key); ok {
		a.Metrics.CacheHit("chunk")
		return entry.Bytes, nil
	}
	a.Metrics.CacheMiss("chunk")
	entry, err := a.Cache.GetOrCompute(key, decode)
	if err != nil {
		return arraybytes.ArrayBytes{}, err
	}
	return entry.Bytes, nil
}

func (a *Array) fetchAndDecode(key string, rep codec.ChunkRepresentation, opts *codec.Options) (arraybytes.ArrayBytes, uint64, error) {
	value, err := a.Store.Get(key)
	if err != nil {
		return arraybytes.ArrayBytes{}, 0, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if value == nil {
		ab, err := arraybytes.NewFillValue(a.DataType, rep.NumElements(), a.FillValue)
		if err != nil {
			return arraybytes.ArrayBytes{}, 0, err
		}
		return ab, decodedByteSize(ab), nil
	}
	ab, err := a.Chain.Decode(value, rep, opts)
	if err != nil {
		return arraybytes.ArrayBytes{}, 0, fmt.Errorf("%w: %w", ErrCodec, err)
	}
	return ab, decodedByteSize(ab), nil
}

// decodedByteSize is the in-memory byte footprint of a decoded chunk.
func decodedByteSize(ab arraybytes.ArrayBytes) uint64 {
	switch {
	case ab.IsFixed():
		return uint64(len(ab.Fixed()))
	case ab.IsVariable():
		raw, offsets := ab.Variable()
		return uint64(len(raw)) + 8*uint64(len(offsets))
	default:
		inner, mask := ab.Optional()
		return decodedByteSize(inner) + uint64(len(mask))
	}
}

// RetrieveChunkSubset decodes only localSubset's portion of the chunk at
// chunk_indices, through the codec chain's partial-decoder path
// (Scenario S3). localSubset is in chunk-local coordinates.
func (a *Array) RetrieveChunkSubset(chunkIndices []uint64, localSubset *indexer.RangeSubset) (arraybytes.ArrayBytes, error) {
	return a.retrieveChunkSubset(chunkIndices, localSubset, codec.NewOptions(codec.WithConcurrentTarget(a.concurrentTarget())))
}

// retrieveChunkSubset is RetrieveChunkSubset parameterized by an
// explicit codec.Options; see storeChunk for why multi-chunk callers
// need this.
func (a *Array) retrieveChunkSubset(chunkIndices []uint64, localSubset *indexer.RangeSubset, opts *codec.Options) (arraybytes.ArrayBytes, error) {
	rep, err := a.chunkRep(chunkIndices)
	if err != nil {
		return arraybytes.ArrayBytes{}, err
	}
	key := a.chunkKey(chunkIndices)

	_, exists, err := a.Store.Size(key)
	if err != nil {
		return arraybytes.ArrayBytes{}, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if !exists {
		return arraybytes.NewFillValue(a.DataType, localSubset.Len(), a.FillValue)
	}

	dec, err := a.Chain.PartialDecoder(a.Store, key, rep)
	if err != nil {
		return arraybytes.ArrayBytes{}, fmt.Errorf("%w: %w", ErrCodec, err)
	}
	ab, err := dec.PartialDecode(localSubset, opts)
	if err != nil {
		return arraybytes.ArrayBytes{}, fmt.Errorf("%w: %w", ErrCodec, err)
	}
	return ab, nil
}

// RetrieveArraySubset reads subset, merging across every intersecting
// chunk (§4.8 step 4) or returning a fill-value buffer when no chunk
// intersects (step 2) or the whole-chunk fast path when exactly one
// chunk intersects and covers subset exactly (step 3).
func (a *Array) RetrieveArraySubset(subset *indexer.RangeSubset) (arraybytes.ArrayBytes, error) {
	elementSize, err := a.elementSize()
	if err != nil {
		return arraybytes.ArrayBytes{}, err
	}

	chunkIndicesList, err := a.intersectingChunks(subset)
	if err != nil {
		return arraybytes.ArrayBytes{}, err
	}
	if len(chunkIndicesList) == 0 {
		return arraybytes.NewFillValue(a.DataType, subset.Len(), a.FillValue)
	}

	rc, err := a.Chain.RecommendedConcurrency(codec.ChunkRepresentation{Shape: subset.Shape, DataType: a.DataType, FillValue: a.FillValue})
	if err != nil {
		return arraybytes.ArrayBytes{}, fmt.Errorf("%w: %w", ErrCodec, err)
	}
	plan := concurrency.PlanFor(uint64(len(chunkIndicesList)), rc, a.concurrentTarget())

	if len(chunkIndicesList) == 1 {
		chunkSubset, ok := a.Grid.Subset(chunkIndicesList[0])
		if ok && sameBox(chunkSubset, subset) {
			return a.retrieveChunk(chunkIndicesList[0], plan.CodecOptions)
		}
	}

	out := make([]byte, subset.Len()*elementSize)
	fillAb, err := arraybytes.NewFillValue(a.DataType, subset.Len(), a.FillValue)
	if err != nil {
		return arraybytes.ArrayBytes{}, err
	}
	copy(out, fillAb.Fixed())
	view := arraybytes.NewDisjointView(out, subset.Shape, elementSize)

	err = concurrency.RunChunks(context.Background(), uint64(len(chunkIndicesList)), plan.ChunksParallel, func(_ context.Context, i uint64) error {
		chunkIndices := chunkIndicesList[i]
		chunkSubset, ok := a.Grid.Subset(chunkIndices)
		if !ok {
			return fmt.Errorf("%w: %v", ErrInvalidChunkGridIndices, chunkIndices)
		}
		overlap, ok := subset.Intersect(chunkSubset)
		if !ok {
			return nil
		}
		localStart := subtractCoords(overlap.Start, chunkSubset.Start)
		localSubset := indexer.NewRangeSubset(localStart, overlap.Shape)
		region, err := a.retrieveChunkSubset(chunkIndices, localSubset, plan.CodecOptions)
		if err != nil {
			return err
		}
		destOrigin := subtractCoords(overlap.Start, subset.Start)
		zeros := make([]uint64, len(overlap.Shape))
		return view.WriteRegion(destOrigin, overlap.Shape, region.Fixed(), overlap.Shape, zeros)
	})
	if err != nil {
		return arraybytes.ArrayBytes{}, err
	}
	return arraybytes.NewFixed(view.Bytes()), nil
}

// StoreArraySubset writes value (shaped to subset) across every
// intersecting chunk: fully-covered chunks are written whole; partially
// covered chunks go through a read-modify-write of the existing (or
// fill) chunk buffer, since the codec chain exposes no composable
// chain-level partial encoder.
func (a *Array) StoreArraySubset(subset *indexer.RangeSubset, value arraybytes.ArrayBytes) error {
	elementSize, err := a.elementSize()
	if err != nil {
		return err
	}
	if err := arraybytes.Validate(value, subset.Len(), a.DataType); err != nil {
		return fmt.Errorf("%w: %w", ErrIncompatibleDataShape, err)
	}

	chunkIndicesList, err := a.intersectingChunks(subset)
	if err != nil {
		return err
	}
	if len(chunkIndicesList) == 0 {
		if subset.IsEmpty() {
			return nil
		}
		return fmt.Errorf("%w: subset %v does not intersect the array domain", ErrIncompatibleIndexer, subset.Start)
	}

	valueRaw := value.Fixed()

	rc, err := a.Chain.RecommendedConcurrency(codec.ChunkRepresentation{Shape: subset.Shape, DataType: a.DataType, FillValue: a.FillValue})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCodec, err)
	}
	plan := concurrency.PlanFor(uint64(len(chunkIndicesList)), rc, a.concurrentTarget())

	return concurrency.RunChunks(context.Background(), uint64(len(chunkIndicesList)), plan.ChunksParallel, func(_ context.Context, i uint64) error {
		chunkIndices := chunkIndicesList[i]
		chunkSubset, ok := a.Grid.Subset(chunkIndices)
		if !ok {
			return fmt.Errorf("%w: %v", ErrInvalidChunkGridIndices, chunkIndices)
		}
		overlap, ok := subset.Intersect(chunkSubset)
		if !ok {
			return nil
		}
		srcOrigin := subtractCoords(overlap.Start, subset.Start)

		if sameBox(&indexer.RangeSubset{Start: overlap.Start, Shape: overlap.Shape}, chunkSubset) {
			dst := make([]byte, indexer.NumElements(chunkSubset.Shape)*elementSize)
			zeros := make([]uint64, len(overlap.Shape))
			if err := arraybytes.CopyND(dst, chunkSubset.Shape, zeros, valueRaw, subset.Shape, srcOrigin, overlap.Shape, elementSize); err != nil {
				return err
			}
			return a.storeChunk(chunkIndices, arraybytes.NewFixed(dst), plan.CodecOptions)
		}

		existing, err := a.retrieveChunk(chunkIndices, plan.CodecOptions)
		if err != nil {
			return err
		}
		existingRaw := existing.Fixed()
		localOrigin := subtractCoords(overlap.Start, chunkSubset.Start)
		if err := arraybytes.CopyND(existingRaw, chunkSubset.Shape, localOrigin, valueRaw, subset.Shape, srcOrigin, overlap.Shape, elementSize); err != nil {
			return err
		}
		return a.storeChunk(chunkIndices, arraybytes.NewFixed(existingRaw), plan.CodecOptions)
	})
}

// EraseChunk deletes the key for chunk_indices. A missing key is not an
// error.
func (a *Array) EraseChunk(chunkIndices []uint64) error {
	key := a.chunkKey(chunkIndices)
	if a.Cache != nil {
		a.Cache.Del(key)
	}
	if err := a.Store.Erase(key); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	return nil
}

// EraseChunks deletes every chunk intersecting subset.
func (a *Array) EraseChunks(subset *indexer.RangeSubset) error {
	chunkIndicesList, err := a.intersectingChunks(subset)
	if err != nil {
		return err
	}
	return concurrency.RunChunks(context.Background(), uint64(len(chunkIndicesList)), a.concurrentTarget(), func(_ context.Context, i uint64) error {
		return a.EraseChunk(chunkIndicesList[i])
	})
}

func (a *Array) intersectingChunks(subset *indexer.RangeSubset) ([][]uint64, error) {
	if subset.IsEmpty() {
		return nil, nil
	}
	chunkRange, ok := a.Grid.ChunksInArraySubset(subset)
	if !ok || chunkRange == nil || chunkRange.IsEmpty() {
		return nil, nil
	}
	// Clip the chunk range to the grid on bounded axes, so the part of a
	// subset beyond the array bounds names no chunk and reads as fill.
	gridShape := a.Grid.GridShape()
	shape := make([]uint64, len(chunkRange.Shape))
	for i := range shape {
		shape[i] = chunkRange.Shape[i]
		if g := gridShape[i]; g != 0 {
			if chunkRange.Start[i] >= g {
				return nil, nil
			}
			shape[i] = min(shape[i], g-chunkRange.Start[i])
		}
	}
	return indexer.NewRangeSubset(chunkRange.Start, shape).Indices(gridShape)
}

func sameBox(a, b *indexer.RangeSubset) bool {
	if a == nil || b == nil || a.Dimensionality() != b.Dimensionality() {
		return false
	}
	for i := range a.Start {
		if a.Start[i] != b.Start[i] || a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	return true
}

func subtractCoords(minuend, subtrahend []uint64) []uint64 {
	out := make([]uint64, len(minuend))
	for i := range minuend {
		out[i] = minuend[i] - subtrahend[i]
	}
	return out
}
