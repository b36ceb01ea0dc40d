package chunkgrid_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zarrcore/engine/chunkgrid"
	"github.com/zarrcore/engine/indexer"
)

func TestRegularGridShape(t *testing.T) {
	g, err := chunkgrid.NewRegular([]uint64{10, 10}, []uint64{3, 4})
	require.NoError(t, err)
	require.Equal(t, []uint64{4, 3}, g.GridShape())
}

func TestRegularEdgeChunkNotTruncated(t *testing.T) {
	g, err := chunkgrid.NewRegular([]uint64{4, 3}, []uint64{2, 2})
	require.NoError(t, err)
	shape, ok := g.ChunkShape([]uint64{1, 1})
	require.True(t, ok)
	require.Equal(t, []uint64{2, 2}, shape) // nominal, not truncated to [2,1]
}

func TestRegularBoundedTruncatesEdges(t *testing.T) {
	g, err := chunkgrid.NewRegularBounded([]uint64{4, 3}, []uint64{2, 2})
	require.NoError(t, err)
	shape, ok := g.ChunkShape([]uint64{1, 1})
	require.True(t, ok)
	require.Equal(t, []uint64{2, 1}, shape)

	_, ok = g.ChunkShape([]uint64{5, 0})
	require.False(t, ok)
}

func TestChunksInArraySubset(t *testing.T) {
	g, err := chunkgrid.NewRegular([]uint64{4, 4}, []uint64{2, 2})
	require.NoError(t, err)
	chunkRange, ok := g.ChunksInArraySubset(indexer.NewRangeSubset([]uint64{1, 1}, []uint64{2, 2}))
	require.True(t, ok)
	require.Equal(t, []uint64{0, 0}, chunkRange.Start)
	require.Equal(t, []uint64{2, 2}, chunkRange.Shape)
}

func TestRectangularPartition(t *testing.T) {
	g, err := chunkgrid.NewRectangular([]uint64{10}, [][]uint64{{3, 3, 4}})
	require.NoError(t, err)
	origin, ok := g.ChunkOrigin([]uint64{2})
	require.True(t, ok)
	require.Equal(t, []uint64{6}, origin)

	chunkIdx, offset, ok := g.ChunkIndices([]uint64{7})
	require.True(t, ok)
	require.Equal(t, []uint64{2}, chunkIdx)
	require.Equal(t, []uint64{1}, offset)
}

// disjointness: invariant 1 -- for every pair of distinct chunk
// coordinates, their subsets do not overlap.
func assertDisjoint(t *testing.T, g chunkgrid.Grid, coords [][]uint64) {
	t.Helper()
	subsets := make([]*indexer.RangeSubset, len(coords))
	for i, c := range coords {
		s, ok := g.Subset(c)
		require.True(t, ok)
		subsets[i] = s
	}
	for i := range subsets {
		for j := range subsets {
			if i == j {
				continue
			}
			_, overlap := subsets[i].Intersect(subsets[j])
			require.False(t, overlap, "chunks %v and %v overlap", coords[i], coords[j])
		}
	}
}

func TestRegularGridChunksAreDisjoint(t *testing.T) {
	shapes := [][2][]uint64{
		{{10, 10}, {3, 4}},
		{{7, 5, 3}, {2, 2, 2}},
		{{1}, {1}},
	}
	for _, s := range shapes {
		g, err := chunkgrid.NewRegular(s[0], s[1])
		require.NoError(t, err)
		var coords [][]uint64
		grid := g.GridShape()
		var rec func(dim int, cur []uint64)
		rec = func(dim int, cur []uint64) {
			if dim == len(grid) {
				c := make([]uint64, len(cur))
				copy(c, cur)
				coords = append(coords, c)
				return
			}
			for i := uint64(0); i < grid[dim]; i++ {
				cur[dim] = i
				rec(dim+1, cur)
			}
		}
		rec(0, make([]uint64, len(grid)))
		assertDisjoint(t, g, coords)
	}
}

func TestRectangularGridChunksAreDisjoint(t *testing.T) {
	g, err := chunkgrid.NewRectangular([]uint64{10, 6}, [][]uint64{{3, 3, 4}, {1, 5}})
	require.NoError(t, err)
	var coords [][]uint64
	for i := uint64(0); i < 3; i++ {
		for j := uint64(0); j < 2; j++ {
			coords = append(coords, []uint64{i, j})
		}
	}
	assertDisjoint(t, g, coords)
}
