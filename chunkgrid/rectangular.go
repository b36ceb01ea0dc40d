package chunkgrid

import (
	"fmt"

	"github.com/zarrcore/engine/indexer"
)

// Rectangular is a chunk grid whose per-axis chunk sizes are an explicit
// ordered partition (chunks need not be uniform). Lookup uses precomputed
// prefix sums per axis.
type Rectangular struct {
	arrayShape []uint64
	chunkSizes [][]uint64 // chunkSizes[axis][chunkIndexOnAxis]
	prefixSum  [][]uint64 // prefixSum[axis][i] = sum(chunkSizes[axis][:i])
	gridShape  []uint64
}

// NewRectangular builds a Rectangular grid from an explicit per-axis
// partition. sum(chunkSizes[axis]) must equal arrayShape[axis] for every
// bounded axis.
func NewRectangular(arrayShape []uint64, chunkSizes [][]uint64) (*Rectangular, error) {
	if len(arrayShape) != len(chunkSizes) {
		return nil, fmt.Errorf("chunkgrid: array shape rank %d does not match rectangular partition rank %d", len(arrayShape), len(chunkSizes))
	}
	prefix := make([][]uint64, len(chunkSizes))
	gridShape := make([]uint64, len(chunkSizes))
	for axis, sizes := range chunkSizes {
		p := make([]uint64, len(sizes)+1)
		for i, s := range sizes {
			if s == 0 {
				return nil, fmt.Errorf("chunkgrid: rectangular chunk size on axis %d must be strictly positive", axis)
			}
			p[i+1] = p[i] + s
		}
		if arrayShape[axis] != 0 && p[len(sizes)] != arrayShape[axis] {
			return nil, fmt.Errorf("chunkgrid: rectangular partition on axis %d sums to %d, expected %d", axis, p[len(sizes)], arrayShape[axis])
		}
		prefix[axis] = p
		gridShape[axis] = uint64(len(sizes))
	}
	return &Rectangular{arrayShape: arrayShape, chunkSizes: chunkSizes, prefixSum: prefix, gridShape: gridShape}, nil
}

func (g *Rectangular) Dimensionality() int  { return len(g.chunkSizes) }
func (g *Rectangular) ArrayShape() []uint64 { return g.arrayShape }
func (g *Rectangular) GridShape() []uint64  { return g.gridShape }

func (g *Rectangular) ChunkShape(chunkIndices []uint64) ([]uint64, bool) {
	if !g.ChunkIndicesInBounds(chunkIndices) {
		return nil, false
	}
	shape := make([]uint64, g.Dimensionality())
	for axis, c := range chunkIndices {
		shape[axis] = g.chunkSizes[axis][c]
	}
	return shape, true
}

func (g *Rectangular) ChunkOrigin(chunkIndices []uint64) ([]uint64, bool) {
	if !g.ChunkIndicesInBounds(chunkIndices) {
		return nil, false
	}
	origin := make([]uint64, g.Dimensionality())
	for axis, c := range chunkIndices {
		origin[axis] = g.prefixSum[axis][c]
	}
	return origin, true
}

func (g *Rectangular) Subset(chunkIndices []uint64) (*indexer.RangeSubset, bool) {
	origin, ok := g.ChunkOrigin(chunkIndices)
	if !ok {
		return nil, false
	}
	shape, _ := g.ChunkShape(chunkIndices)
	return indexer.NewRangeSubset(origin, shape), true
}

// searchPrefix returns the chunk index on an axis whose [start,end) span
// contains value, via binary search over the axis's prefix sums.
func searchPrefix(prefix []uint64, value uint64) int {
	lo, hi := 0, len(prefix)-2 // last valid chunk index
	for lo <= hi {
		mid := (lo + hi) / 2
		if value < prefix[mid] {
			hi = mid - 1
		} else if value >= prefix[mid+1] {
			lo = mid + 1
		} else {
			return mid
		}
	}
	return -1
}

func (g *Rectangular) ChunkIndices(arrayIndices []uint64) ([]uint64, []uint64, bool) {
	if !g.ArrayIndicesInBounds(arrayIndices) {
		return nil, nil, false
	}
	n := g.Dimensionality()
	chunkIdx := make([]uint64, n)
	offset := make([]uint64, n)
	for axis, v := range arrayIndices {
		c := searchPrefix(g.prefixSum[axis], v)
		if c < 0 {
			return nil, nil, false
		}
		chunkIdx[axis] = uint64(c)
		offset[axis] = v - g.prefixSum[axis][c]
	}
	return chunkIdx, offset, true
}

func (g *Rectangular) ChunksInArraySubset(subset *indexer.RangeSubset) (*indexer.RangeSubset, bool) {
	if subset.Dimensionality() != g.Dimensionality() {
		return nil, false
	}
	if subset.IsEmpty() {
		return indexer.NewRangeSubset(make([]uint64, g.Dimensionality()), make([]uint64, g.Dimensionality())), true
	}
	n := g.Dimensionality()
	start := make([]uint64, n)
	shape := make([]uint64, n)
	end := subset.End()
	for axis := 0; axis < n; axis++ {
		startChunk := searchPrefix(g.prefixSum[axis], subset.Start[axis])
		endChunk := searchPrefix(g.prefixSum[axis], end[axis]-1)
		if startChunk < 0 || endChunk < 0 {
			return nil, false
		}
		start[axis] = uint64(startChunk)
		shape[axis] = uint64(endChunk-startChunk) + 1
	}
	return indexer.NewRangeSubset(start, shape), true
}

func (g *Rectangular) ChunkIndicesInBounds(chunkIndices []uint64) bool {
	return chunkIndicesInBounds(chunkIndices, g.gridShape)
}

func (g *Rectangular) ArrayIndicesInBounds(arrayIndices []uint64) bool {
	return arrayIndicesInBounds(arrayIndices, g.arrayShape)
}

var _ Grid = (*Rectangular)(nil)
