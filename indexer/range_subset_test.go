package indexer_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zarrcore/engine/indexer"
)

func TestRangeSubsetContiguousRunsCollapseFastestAxes(t *testing.T) {
	// Array shape [4,4], subset rows 1..3 (full width): the two rows are
	// adjacent in memory once the last axis is full width, so the 2-row
	// subset collapses to a single run of 8.
	arrayShape := []uint64{4, 4}
	sub := indexer.NewRangeSubset([]uint64{1, 0}, []uint64{2, 4})
	runs, err := sub.ContiguousLinearisedIndices(arrayShape)
	require.NoError(t, err)
	require.Equal(t, []indexer.Run{{Offset: 4, Length: 8}}, runs)
}

func TestRangeSubsetContiguousRunsPartialWidthYieldsOneRunPerRow(t *testing.T) {
	// Subset [1..3, 0..1] of a 4x4 array: not full width on the last axis,
	// so each row is its own run of length 1 -- matches Scenario S3's
	// "exactly two byte ranges of length 1" for retrieve_chunk_subset.
	arrayShape := []uint64{4, 4}
	sub := indexer.NewRangeSubset([]uint64{1, 0}, []uint64{2, 1})
	runs, err := sub.ContiguousLinearisedIndices(arrayShape)
	require.NoError(t, err)
	require.Equal(t, []indexer.Run{{Offset: 4, Length: 1}, {Offset: 8, Length: 1}}, runs)

	byteRanges, err := sub.ContiguousByteRanges(arrayShape, 1)
	require.NoError(t, err)
	require.Equal(t, []indexer.ByteRange{{Offset: 4, Length: 1}, {Offset: 8, Length: 1}}, byteRanges)
}

func TestRangeSubsetRunLengthsSumToLen(t *testing.T) {
	// Invariant 3: sum of run lengths equals the indexer's length.
	shapes := [][]uint64{{4, 4}, {7, 5, 3}, {1}, {10, 1, 10}}
	subsets := [][2][]uint64{
		{{0, 0}, {4, 4}},
		{{1, 1}, {2, 2}},
		{{2, 1, 0}, {3, 2, 3}},
		{{0}, {1}},
		{{3, 0, 2}, {5, 1, 4}},
	}
	for _, shape := range shapes {
		for _, se := range subsets {
			if len(se[0]) != len(shape) {
				continue
			}
			sub := indexer.NewRangeSubset(se[0], se[1])
			runs, err := sub.ContiguousLinearisedIndices(shape)
			if err != nil {
				continue
			}
			var sum uint64
			for _, r := range runs {
				sum += r.Length
			}
			require.Equal(t, sub.Len(), sum)
		}
	}
}

func TestRangeSubsetIndicesCOrder(t *testing.T) {
	sub := indexer.NewRangeSubset([]uint64{2, 1}, []uint64{2, 2})
	idxs, err := sub.Indices([]uint64{4, 3})
	require.NoError(t, err)
	require.Equal(t, [][]uint64{{2, 1}, {2, 2}, {3, 1}, {3, 2}}, idxs)
}

func TestRangeSubsetOutOfBounds(t *testing.T) {
	sub := indexer.NewRangeSubset([]uint64{3, 0}, []uint64{2, 1})
	_, err := sub.Indices([]uint64{4, 4})
	require.Error(t, err)
}

func TestRangeSubsetUnboundedDimAlwaysInBounds(t *testing.T) {
	sub := indexer.NewRangeSubset([]uint64{100, 0}, []uint64{5, 1})
	_, err := sub.Indices([]uint64{0, 4})
	require.NoError(t, err)
}

func TestRangeSubsetIntersect(t *testing.T) {
	a := indexer.NewRangeSubset([]uint64{0, 0}, []uint64{3, 3})
	b := indexer.NewRangeSubset([]uint64{2, 2}, []uint64{3, 3})
	got, ok := a.Intersect(b)
	require.True(t, ok)
	require.Equal(t, []uint64{2, 2}, got.Start)
	require.Equal(t, []uint64{1, 1}, got.Shape)

	c := indexer.NewRangeSubset([]uint64{5, 5}, []uint64{1, 1})
	_, ok = a.Intersect(c)
	require.False(t, ok)
}
