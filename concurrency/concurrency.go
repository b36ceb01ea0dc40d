// Package concurrency implements the controller that splits a caller's
// total concurrency budget between chunk-parallel dispatch and
// intra-codec parallelism, and the errgroup-based chunk dispatcher that
// acts on the split.
package concurrency

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/zarrcore/engine/codec"
)

// Split divides budget b into (chunksParallel, codecParallel) such that
// chunksParallel*codecParallel <= b. It favors chunk parallelism unless
// the codec reports intra-codec concurrency c > 1 and the chunk count n
// is smaller than b, in which case it narrows chunk parallelism and
// widens codec parallelism. Zero and one chunk are shortcut paths: no
// chunk parallelism is used.
func Split(n, c, b uint64) (chunksParallel, codecParallel uint64) {
	if b == 0 {
		b = 1
	}
	if n <= 1 {
		codecParallel = c
		if codecParallel > b {
			codecParallel = b
		}
		if codecParallel < 1 {
			codecParallel = 1
		}
		return n, codecParallel
	}

	if c > 1 && n < b {
		codecParallel = c
		if codecParallel > b {
			codecParallel = b
		}
		chunksParallel = b / codecParallel
		if chunksParallel < 1 {
			chunksParallel = 1
		}
		if chunksParallel > n {
			chunksParallel = n
		}
		return chunksParallel, codecParallel
	}

	chunksParallel = n
	if chunksParallel > b {
		chunksParallel = b
	}
	if chunksParallel < 1 {
		chunksParallel = 1
	}
	codecParallel = b / chunksParallel
	if codecParallel < 1 {
		codecParallel = 1
	}
	if codecParallel > c {
		codecParallel = c
	}
	return chunksParallel, codecParallel
}

// Plan is the result of applying the controller to a chunk-spanning
// request: how many chunks to process concurrently, and the per-codec
// Options each chunk's pipeline should run with.
type Plan struct {
	ChunksParallel uint64
	CodecOptions   *codec.Options
}

// PlanFor applies Split for a request touching numChunks chunks whose
// codec chain recommends concurrency rc, against total budget b.
func PlanFor(numChunks uint64, rc codec.RecommendedConcurrency, b uint64) Plan {
	chunksParallel, codecParallel := Split(numChunks, rc.Max, b)
	return Plan{
		ChunksParallel: chunksParallel,
		CodecOptions:   codec.NewOptions(codec.WithConcurrentTarget(codecParallel)),
	}
}

// RunChunks dispatches fn once per index in [0, n) with at most
// chunksParallel running concurrently, stopping at the first error.
func RunChunks(ctx context.Context, n uint64, chunksParallel uint64, fn func(ctx context.Context, i uint64) error) error {
	if n == 0 {
		return nil
	}
	limit := int(chunksParallel)
	if limit < 1 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i := uint64(0); i < n && gctx.Err() == nil; i++ {
		i := i
		g.Go(func() error {
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
