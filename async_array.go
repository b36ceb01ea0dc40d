package engine

import (
	"context"

	"github.com/zarrcore/engine/arraybytes"
	"github.com/zarrcore/engine/cache"
	"github.com/zarrcore/engine/chunkgrid"
	"github.com/zarrcore/engine/codec"
	"github.com/zarrcore/engine/datatype"
	"github.com/zarrcore/engine/indexer"
	"github.com/zarrcore/engine/metrics"
	"github.com/zarrcore/engine/storage"
)

// AsyncArray is the ctx-cancellable mirror of Array: every method
// suspends at each underlying Storage call and at chunk boundaries
// during multi-chunk operations, per §5's "suspension points" rule.
// Internally it delegates to Array's logic against a per-call adapter
// that runs each AsyncStorage round trip in its own goroutine and
// selects on ctx.Done(), rather than duplicating the orchestration.
type AsyncArray struct {
	Store            storage.AsyncStorage
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

// NewAsyncArray builds an AsyncArray with the same validation as
// NewArray, but over an AsyncStorage.
func NewAsyncArray(
	store storage.AsyncStorage,
	grid chunkgrid.Grid,
	dt datatype.DataType,
	fv datatype.FillValue,
	chain *codec.Chain,
	keyEncoding ChunkKeyEncoding,
	arrayPath string,
	opts ...ArrayOption,
) (*AsyncArray, error) {
	sync, err := NewArray(&ctxStorageAdapter{ctx: context.Background(), inner: store}, grid, dt, fv, chain, keyEncoding, arrayPath, opts...)
	if err != nil {
		return nil, err
	}
	return &AsyncArray{
		Store:            store,
		Grid:             sync.Grid,
		DataType:         sync.DataType,
		FillValue:        sync.FillValue,
		Chain:            sync.Chain,
		KeyEncoding:      sync.KeyEncoding,
		ArrayPath:        sync.ArrayPath,
		StoreEmptyChunks: sync.StoreEmptyChunks,
		Cache:            sync.Cache,
		Metrics:          sync.Metrics,
		ConcurrentTarget: sync.ConcurrentTarget,
	}, nil
}

// bind produces a synchronous Array whose Store adapts a.Store to ctx
// for the lifetime of a single call.
func (a *AsyncArray) bind(ctx context.Context) *Array {
	return &Array{
		Store:            wrapStoreMetrics(&ctxStorageAdapter{ctx: ctx, inner: a.Store}, a.Metrics),
		Grid:             a.Grid,
		DataType:         a.DataType,
		FillValue:        a.FillValue,
		Chain:            a.Chain,
		KeyEncoding:      a.KeyEncoding,
		ArrayPath:        a.ArrayPath,
		StoreEmptyChunks: a.StoreEmptyChunks,
		Cache:            a.Cache,
		Metrics:          a.Metrics,
		ConcurrentTarget: a.ConcurrentTarget,
	}
}

func (a *AsyncArray) StoreChunk(ctx context.Context, chunkIndices []uint64, data arraybytes.ArrayBytes) error {
	return a.bind(ctx).StoreChunk(chunkIndices, data)
}

func (a *AsyncArray) RetrieveChunk(ctx context.Context, chunkIndices []uint64) (arraybytes.ArrayBytes, error) {
	return a.bind(ctx).RetrieveChunk(chunkIndices)
}

func (a *AsyncArray) RetrieveChunkSubset(ctx context.Context, chunkIndices []uint64, localSubset *indexer.RangeSubset) (arraybytes.ArrayBytes, error) {
	return a.bind(ctx).RetrieveChunkSubset(chunkIndices, localSubset)
}

func (a *AsyncArray) RetrieveArraySubset(ctx context.Context, subset *indexer.RangeSubset) (arraybytes.ArrayBytes, error) {
	return a.bind(ctx).RetrieveArraySubset(subset)
}

func (a *AsyncArray) StoreArraySubset(ctx context.Context, subset *indexer.RangeSubset, value arraybytes.ArrayBytes) error {
	return a.bind(ctx).StoreArraySubset(subset, value)
}

func (a *AsyncArray) EraseChunk(ctx context.Context, chunkIndices []uint64) error {
	return a.bind(ctx).EraseChunk(chunkIndices)
}

func (a *AsyncArray) EraseChunks(ctx context.Context, subset *indexer.RangeSubset) error {
	return a.bind(ctx).EraseChunks(subset)
}

// ctxStorageAdapter adapts an AsyncStorage to the synchronous Storage
// interface for the duration of a single ctx: every call runs the
// AsyncStorage round trip in its own goroutine and returns as soon as
// either it completes or ctx is done, whichever comes first.
type ctxStorageAdapter struct {
	ctx   context.Context
	inner storage.AsyncStorage
}

type storageResult struct {
	a []byte
	b [][]byte
	c []string
	d []string
	n int64
	ok bool
	err error
}

func (s *ctxStorageAdapter) await(fn func() storageResult) storageResult {
	ch := make(chan storageResult, 1)
	go func() { ch <- fn() }()
	select {
	case <-s.ctx.Done():
		return storageResult{err: s.ctx.Err()}
	case r := <-ch:
		return r
	}
}

func (s *ctxStorageAdapter) Get(key string) ([]byte, error) {
	r := s.await(func() storageResult {
		v, err := s.inner.Get(s.ctx, key)
		return storageResult{a: v, err: err}
	})
	return r.a, r.err
}

func (s *ctxStorageAdapter) GetPartialMany(key string, ranges []indexer.ByteRange) ([][]byte, error) {
	r := s.await(func() storageResult {
		v, err := s.inner.GetPartialMany(s.ctx, key, ranges)
		return storageResult{b: v, err: err}
	})
	return r.b, r.err
}

func (s *ctxStorageAdapter) Set(key string, value []byte) error {
	r := s.await(func() storageResult {
		return storageResult{err: s.inner.Set(s.ctx, key, value)}
	})
	return r.err
}

func (s *ctxStorageAdapter) SetPartialMany(key string, ranges []indexer.ByteRange, values [][]byte) error {
	r := s.await(func() storageResult {
		return storageResult{err: s.inner.SetPartialMany(s.ctx, key, ranges, values)}
	})
	return r.err
}

func (s *ctxStorageAdapter) Erase(key string) error {
	r := s.await(func() storageResult {
		return storageResult{err: s.inner.Erase(s.ctx, key)}
	})
	return r.err
}

func (s *ctxStorageAdapter) ErasePrefix(prefix string) error {
	r := s.await(func() storageResult {
		return storageResult{err: s.inner.ErasePrefix(s.ctx, prefix)}
	})
	return r.err
}

func (s *ctxStorageAdapter) EraseMany(keys []string) error {
	r := s.await(func() storageResult {
		return storageResult{err: s.inner.EraseMany(s.ctx, keys)}
	})
	return r.err
}

func (s *ctxStorageAdapter) List() ([]string, error) {
	r := s.await(func() storageResult {
		v, err := s.inner.List(s.ctx)
		return storageResult{c: v, err: err}
	})
	return r.c, r.err
}

func (s *ctxStorageAdapter) ListPrefix(prefix string) ([]string, error) {
	r := s.await(func() storageResult {
		v, err := s.inner.ListPrefix(s.ctx, prefix)
		return storageResult{c: v, err: err}
	})
	return r.c, r.err
}

func (s *ctxStorageAdapter) ListDir(prefix string) (keys []string, prefixes []string, err error) {
	r := s.await(func() storageResult {
		k, p, err := s.inner.ListDir(s.ctx, prefix)
		return storageResult{c: k, d: p, err: err}
	})
	return r.c, r.d, r.err
}

func (s *ctxStorageAdapter) Size(key string) (int64, bool, error) {
	r := s.await(func() storageResult {
		n, ok, err := s.inner.Size(s.ctx, key)
		return storageResult{n: n, ok: ok, err: err}
	})
	return r.n, r.ok, r.err
}

func (s *ctxStorageAdapter) SizePrefix(prefix string) (int64, error) {
	r := s.await(func() storageResult {
		n, err := s.inner.SizePrefix(s.ctx, prefix)
		return storageResult{n: n, err: err}
	})
	return r.n, r.err
}

var _ storage.Storage = (*ctxStorageAdapter)(nil)
