package engine

import (
	"time"

	"github.com/zarrcore/engine/indexer"
	"github.com/zarrcore/engine/metrics"
	"github.com/zarrcore/engine/storage"
)

// instrumentedStore wraps a Storage with ObserveStoreOp timing around
// every call, mirroring ctxStorageAdapter's wrap-the-whole-interface
// shape in async_array.go.
type instrumentedStore struct {
	inner storage.Storage
	rec   *metrics.Recorder
}

// wrapStoreMetrics wraps store so every call reports its latency and
// outcome to m. A nil m makes this a no-op passthrough, so callers can
// wrap unconditionally instead of branching on whether metrics were
// configured.
func wrapStoreMetrics(store storage.Storage, m *metrics.Recorder) storage.Storage {
	if m == nil {
		return store
	}
	return &instrumentedStore{inner: store, rec: m}
}

func (s *instrumentedStore) Get(key string) ([]byte, error) {
	start := time.Now()
	v, err := s.inner.Get(key)
	s.rec.ObserveStoreOp("get", start, err)
	return v, err
}

func (s *instrumentedStore) GetPartialMany(key string, ranges []indexer.ByteRange) ([][]byte, error) {
	start := time.Now()
	v, err := s.inner.GetPartialMany(key, ranges)
	s.rec.ObserveStoreOp("get_partial_many", start, err)
	return v, err
}

func (s *instrumentedStore) Set(key string, value []byte) error {
	start := time.Now()
	err := s.inner.Set(key, value)
	s.rec.ObserveStoreOp("set", start, err)
	return err
}

func (s *instrumentedStore) SetPartialMany(key string, ranges []indexer.ByteRange, values [][]byte) error {
	start := time.Now()
	err := s.inner.SetPartialMany(key, ranges, values)
	s.rec.ObserveStoreOp("set_partial_many", start, err)
	return err
}

func (s *instrumentedStore) Erase(key string) error {
	start := time.Now()
	err := s.inner.Erase(key)
	s.rec.ObserveStoreOp("erase", start, err)
	return err
}

func (s *instrumentedStore) ErasePrefix(prefix string) error {
	start := time.Now()
	err := s.inner.ErasePrefix(prefix)
	s.rec.ObserveStoreOp("erase_prefix", start, err)
	return err
}

func (s *instrumentedStore) EraseMany(keys []string) error {
	start := time.Now()
	err := s.inner.EraseMany(keys)
	s.rec.ObserveStoreOp("erase_many", start, err)
	return err
}

func (s *instrumentedStore) List() ([]string, error) {
	start := time.Now()
	v, err := s.inner.List()
	s.rec.ObserveStoreOp("list", start, err)
	return v, err
}

func (s *instrumentedStore) ListPrefix(prefix string) ([]string, error) {
	start := time.Now()
	v, err := s.inner.ListPrefix(prefix)
	s.rec.ObserveStoreOp("list_prefix", start, err)
	return v, err
}

func (s *instrumentedStore) ListDir(prefix string) (keys []string, prefixes []string, err error) {
	start := time.Now()
	keys, prefixes, err = s.inner.ListDir(prefix)
	s.rec.ObserveStoreOp("list_dir", start, err)
	return keys, prefixes, err
}

func (s *instrumentedStore) Size(key string) (int64, bool, error) {
	start := time.Now()
	n, ok, err := s.inner.Size(key)
	s.rec.ObserveStoreOp("size", start, err)
	return n, ok, err
}

func (s *instrumentedStore) SizePrefix(prefix string) (int64, error) {
	start := time.Now()
	n, err := s.inner.SizePrefix(prefix)
	s.rec.ObserveStoreOp("size_prefix", start, err)
	return n, err
}

var _ storage.Storage = (*instrumentedStore)(nil)
