package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/zarrcore/engine/indexer"
)

// MemStore is an in-memory Storage, used by tests and as the reference
// implementation of the RMW SetPartialMany fallback.
type MemStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (m *MemStore) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemStore) GetPartialMany(key string, ranges []indexer.ByteRange) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	out := make([][]byte, len(ranges))
	for i, r := range ranges {
		b, err := ApplyRange(v, r)
		if err != nil {
			return nil, fmt.Errorf("memstore: %s: %w", key, err)
		}
		cp := make([]byte, len(b))
		copy(cp, b)
		out[i] = cp
	}
	return out, nil
}

func (m *MemStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	return nil
}

func (m *MemStore) SetPartialMany(key string, ranges []indexer.ByteRange, values [][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return rmwSetPartialMany(
		func() ([]byte, error) { return m.data[key], nil },
		func(v []byte) error { m.data[key] = v; return nil },
		ranges, values,
	)
}

func (m *MemStore) Erase(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemStore) ErasePrefix(prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *MemStore) EraseMany(keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *MemStore) List() ([]string, error) {
	return m.ListPrefix("")
}

func (m *MemStore) ListPrefix(prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemStore) ListDir(prefix string) (keys []string, prefixes []string, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seenPrefix := make(map[string]bool)
	for k := range m.data {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := k[len(prefix):]
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			child := prefix + rest[:i+1]
			if !seenPrefix[child] {
				seenPrefix[child] = true
				prefixes = append(prefixes, child)
			}
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sort.Strings(prefixes)
	return keys, prefixes, nil
}

func (m *MemStore) Size(key string) (int64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return 0, false, nil
	}
	return int64(len(v)), true, nil
}

func (m *MemStore) SizePrefix(prefix string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			total += int64(len(v))
		}
	}
	return total, nil
}

var _ Storage = (*MemStore)(nil)

// AsyncMemStore wraps MemStore with a ctx-cancellable AsyncStorage
// mirror, selecting on ctx.Done() before every operation as the
// suspension point the async Array API relies on.
type AsyncMemStore struct {
	inner *MemStore
}

func NewAsyncMemStore() *AsyncMemStore {
	return &AsyncMemStore{inner: NewMemStore()}
}

func (a *AsyncMemStore) checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func (a *AsyncMemStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := a.checkCtx(ctx); err != nil {
		return nil, err
	}
	return a.inner.Get(key)
}

func (a *AsyncMemStore) GetPartialMany(ctx context.Context, key string, ranges []indexer.ByteRange) ([][]byte, error) {
	if err := a.checkCtx(ctx); err != nil {
		return nil, err
	}
	return a.inner.GetPartialMany(key, ranges)
}

func (a *AsyncMemStore) Set(ctx context.Context, key string, value []byte) error {
	if err := a.checkCtx(ctx); err != nil {
		return err
	}
	return a.inner.Set(key, value)
}

func (a *AsyncMemStore) SetPartialMany(ctx context.Context, key string, ranges []indexer.ByteRange, values [][]byte) error {
	if err := a.checkCtx(ctx); err != nil {
		return err
	}
	return a.inner.SetPartialMany(key, ranges, values)
}

func (a *AsyncMemStore) Erase(ctx context.Context, key string) error {
	if err := a.checkCtx(ctx); err != nil {
		return err
	}
	return a.inner.Erase(key)
}

func (a *AsyncMemStore) ErasePrefix(ctx context.Context, prefix string) error {
	if err := a.checkCtx(ctx); err != nil {
		return err
	}
	return a.inner.ErasePrefix(prefix)
}

func (a *AsyncMemStore) EraseMany(ctx context.Context, keys []string) error {
	if err := a.checkCtx(ctx); err != nil {
		return err
	}
	return a.inner.EraseMany(keys)
}

func (a *AsyncMemStore) List(ctx context.Context) ([]string, error) {
	if err := a.checkCtx(ctx); err != nil {
		return nil, err
	}
	return a.inner.List()
}

func (a *AsyncMemStore) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	if err := a.checkCtx(ctx); err != nil {
		return nil, err
	}
	return a.inner.ListPrefix(prefix)
}

func (a *AsyncMemStore) ListDir(ctx context.Context, prefix string) ([]string, []string, error) {
	if err := a.checkCtx(ctx); err != nil {
		return nil, nil, err
	}
	return a.inner.ListDir(prefix)
}

func (a *AsyncMemStore) Size(ctx context.Context, key string) (int64, bool, error) {
	if err := a.checkCtx(ctx); err != nil {
		return 0, false, err
	}
	return a.inner.Size(key)
}

func (a *AsyncMemStore) SizePrefix(ctx context.Context, prefix string) (int64, error) {
	if err := a.checkCtx(ctx); err != nil {
		return 0, err
	}
	return a.inner.SizePrefix(prefix)
}

var _ AsyncStorage = (*AsyncMemStore)(nil)
