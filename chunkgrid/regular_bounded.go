package chunkgrid

import (
	"fmt"

	"github.com/zarrcore/engine/indexer"
)

// RegularBounded is a chunk grid where every chunk shares a nominal
// chunk_shape, but edge chunks are truncated to the array boundary. It is
// the basis for partial-chunk-of-record semantics in codecs that require
// exact element counts. An out-of-bounds query returns "no such chunk".
type RegularBounded struct {
	inner *Regular
}

// NewRegularBounded builds a RegularBounded grid. The array shape must be
// fully bounded (no zero/unlimited dims), since edge truncation requires
// a concrete boundary.
func NewRegularBounded(arrayShape, chunkShape []uint64) (*RegularBounded, error) {
	for i, s := range arrayShape {
		if s == 0 {
			return nil, fmt.Errorf("chunkgrid: regular-bounded grid requires a bounded array shape, axis %d is 0", i)
		}
	}
	inner, err := NewRegular(arrayShape, chunkShape)
	if err != nil {
		return nil, err
	}
	return &RegularBounded{inner: inner}, nil
}

func (g *RegularBounded) Dimensionality() int  { return g.inner.Dimensionality() }
func (g *RegularBounded) ArrayShape() []uint64 { return g.inner.ArrayShape() }
func (g *RegularBounded) GridShape() []uint64  { return g.inner.GridShape() }

// ChunkShape returns the truncated element shape of the chunk at the
// array boundary, unlike Regular which always returns the nominal shape.
func (g *RegularBounded) ChunkShape(chunkIndices []uint64) ([]uint64, bool) {
	origin, ok := g.inner.ChunkOrigin(chunkIndices)
	if !ok {
		return nil, false
	}
	nominal, _ := g.inner.ChunkShape(chunkIndices)
	shape := make([]uint64, len(nominal))
	arrayShape := g.inner.ArrayShape()
	for i := range nominal {
		end := origin[i] + nominal[i]
		if end > arrayShape[i] {
			end = arrayShape[i]
		}
		shape[i] = end - origin[i]
	}
	return shape, true
}

func (g *RegularBounded) ChunkOrigin(chunkIndices []uint64) ([]uint64, bool) {
	return g.inner.ChunkOrigin(chunkIndices)
}

func (g *RegularBounded) Subset(chunkIndices []uint64) (*indexer.RangeSubset, bool) {
	origin, ok := g.inner.ChunkOrigin(chunkIndices)
	if !ok {
		return nil, false
	}
	shape, _ := g.ChunkShape(chunkIndices)
	return indexer.NewRangeSubset(origin, shape), true
}

func (g *RegularBounded) ChunksInArraySubset(subset *indexer.RangeSubset) (*indexer.RangeSubset, bool) {
	return g.inner.ChunksInArraySubset(subset)
}

func (g *RegularBounded) ChunkIndices(arrayIndices []uint64) ([]uint64, []uint64, bool) {
	return g.inner.ChunkIndices(arrayIndices)
}

func (g *RegularBounded) ChunkIndicesInBounds(chunkIndices []uint64) bool {
	return g.inner.ChunkIndicesInBounds(chunkIndices)
}

func (g *RegularBounded) ArrayIndicesInBounds(arrayIndices []uint64) bool {
	return g.inner.ArrayIndicesInBounds(arrayIndices)
}

var _ Grid = (*RegularBounded)(nil)
