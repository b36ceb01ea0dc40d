// Package cache implements the four chunk-cache families: process-wide
// or thread-local sharing, bounded by chunk count or total byte size.
// Process-wide caches give a key-level "compute once" guarantee via
// singleflight coalescing; thread-local caches need none, since threads
// never share state.
package cache

import (
	"container/list"
	"sync"

	"github.com/dgraph-io/ristretto"
	"golang.org/x/sync/singleflight"
)

// Entry is anything a cache can hold: it must report the size charged
// against capacity (decoded bytes, encoded bytes, or a partial
// decoder's SizeHeld()).
type Entry interface {
	Size() uint64
}

// EvictionObserver receives a notification whenever a cache family
// evicts an entry to stay under its configured capacity, labeled by
// family (e.g. "chunk").
type EvictionObserver interface {
	CacheEviction(family string)
}

// Observable is implemented by cache families that support wiring an
// EvictionObserver after construction. Ristretto's eviction callback
// and the thread-local LRU's capacity eviction both only fire once the
// cache is in use, so the observer is set post-construction rather than
// threaded through every constructor.
type Observable interface {
	SetEvictionObserver(obs EvictionObserver, family string)
}

// Cache is the shape shared by every family.
type Cache[T Entry] interface {
	Get(key string) (T, bool)
	// GetOrCompute returns the cached value for key, computing and
	// inserting it via compute on a miss. Concurrent misses on the same
	// key coalesce to a single compute call on process-wide caches.
	GetOrCompute(key string, compute func() (T, error)) (T, error)
	Del(key string)
}

const minCounters = 100

// ProcessWide is the ChunkLimit/SizeLimit family: a single ristretto
// instance shared across all callers, with singleflight coalescing
// per key.
type ProcessWide[T Entry] struct {
	rcache   *ristretto.Cache
	group    singleflight.Group
	byCount  bool
	observer EvictionObserver
	family   string
}

// NewChunkLimit builds a process-wide cache bounded by chunk count.
func NewChunkLimit[T Entry](capacityChunks int64) (*ProcessWide[T], error) {
	return newProcessWide[T](capacityChunks, capacityChunks*10, true)
}

// NewSizeLimit builds a process-wide cache bounded by total byte size.
func NewSizeLimit[T Entry](capacityBytes int64) (*ProcessWide[T], error) {
	numCounters := capacityBytes / 4096 * 10
	return newProcessWide[T](capacityBytes, numCounters, false)
}

func newProcessWide[T Entry](maxCost, numCounters int64, byCount bool) (*ProcessWide[T], error) {
	if numCounters < minCounters {
		numCounters = minCounters
	}
	c := &ProcessWide[T]{byCount: byCount}
	rc, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: 64,
		// Costs are chunk counts or decoded bytes only, with no
		// per-item bookkeeping overhead added by ristretto.
		IgnoreInternalCost: true,
		OnEvict: func(item *ristretto.Item) {
			if c.observer != nil {
				c.observer.CacheEviction(c.family)
			}
		},
	})
	if err != nil {
		return nil, err
	}
	c.rcache = rc
	return c, nil
}

// SetEvictionObserver wires obs to receive a CacheEviction(family)
// notification whenever ristretto evicts an entry under cost pressure.
func (c *ProcessWide[T]) SetEvictionObserver(obs EvictionObserver, family string) {
	c.observer = obs
	c.family = family
}

func (c *ProcessWide[T]) Get(key string) (T, bool) {
	v, ok := c.rcache.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

func (c *ProcessWide[T]) GetOrCompute(key string, compute func() (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		val, err := compute()
		if err != nil {
			return nil, err
		}
		cost := int64(1)
		if !c.byCount {
			cost = int64(val.Size())
		}
		c.rcache.Set(key, val, cost)
		c.rcache.Wait()
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

func (c *ProcessWide[T]) Del(key string) { c.rcache.Del(key) }

func (c *ProcessWide[T]) Close() { c.rcache.Close() }

// localEntry is the list payload for localLRU.
type localEntry[T Entry] struct {
	key   string
	value T
	size  uint64
}

// localLRU is a single thread's private LRU: no locking is strictly
// required if the owner never shares it across goroutines, but it
// guards against accidental misuse since Local() handles can still
// outlive their intended single-threaded caller.
type localLRU[T Entry] struct {
	mu       sync.Mutex
	ll       *list.List
	items    map[string]*list.Element
	capacity uint64
	size     uint64
	byCount  bool
	observer EvictionObserver
	family   string
}

func newLocalLRU[T Entry](capacity uint64, byCount bool, observer EvictionObserver, family string) *localLRU[T] {
	return &localLRU[T]{ll: list.New(), items: make(map[string]*list.Element), capacity: capacity, byCount: byCount, observer: observer, family: family}
}

// SetEvictionObserver wires obs to receive a CacheEviction(family)
// notification whenever this shard evicts an entry under capacity
// pressure.
func (l *localLRU[T]) SetEvictionObserver(obs EvictionObserver, family string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observer = obs
	l.family = family
}

func (l *localLRU[T]) Get(key string) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	el, ok := l.items[key]
	if !ok {
		var zero T
		return zero, false
	}
	l.ll.MoveToFront(el)
	return el.Value.(*localEntry[T]).value, true
}

func (l *localLRU[T]) GetOrCompute(key string, compute func() (T, error)) (T, error) {
	if v, ok := l.Get(key); ok {
		return v, nil
	}
	val, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	l.insert(key, val)
	return val, nil
}

func (l *localLRU[T]) insert(key string, val T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	size := uint64(1)
	if !l.byCount {
		size = val.Size()
	}

	if el, ok := l.items[key]; ok {
		l.size -= el.Value.(*localEntry[T]).size
		el.Value = &localEntry[T]{key: key, value: val, size: size}
		l.size += size
		l.ll.MoveToFront(el)
	} else {
		el := l.ll.PushFront(&localEntry[T]{key: key, value: val, size: size})
		l.items[key] = el
		l.size += size
	}

	for l.size > l.capacity && l.ll.Len() > 0 {
		back := l.ll.Back()
		if back == nil {
			break
		}
		entry := back.Value.(*localEntry[T])
		l.size -= entry.size
		l.ll.Remove(back)
		delete(l.items, entry.key)
		if l.observer != nil {
			l.observer.CacheEviction(l.family)
		}
	}
}

func (l *localLRU[T]) Del(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	el, ok := l.items[key]
	if !ok {
		return
	}
	l.size -= el.Value.(*localEntry[T]).size
	l.ll.Remove(el)
	delete(l.items, key)
}

// ThreadLocal is the ChunkLimitThreadLocal/SizeLimitThreadLocal family:
// a per-accessor private LRU, so callers that genuinely run one at a
// time per OS thread or goroutine pool worker get no cross-worker
// contention and need no compute-once coalescing.
type ThreadLocal[T Entry] struct {
	mu       sync.Mutex
	shards   map[string]*localLRU[T]
	capacity uint64
	byCount  bool
	observer EvictionObserver
	family   string
}

// SetEvictionObserver wires obs to receive a CacheEviction(family)
// notification whenever any shard evicts an entry under capacity
// pressure. Shards created after this call pick it up at creation;
// shards already created before this call are updated in place.
func (tl *ThreadLocal[T]) SetEvictionObserver(obs EvictionObserver, family string) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.observer = obs
	tl.family = family
	for _, s := range tl.shards {
		s.SetEvictionObserver(obs, family)
	}
}

// NewChunkLimitThreadLocal builds a thread-local cache family bounded
// by chunk count per accessor.
func NewChunkLimitThreadLocal[T Entry](capacityChunks uint64) *ThreadLocal[T] {
	return &ThreadLocal[T]{shards: make(map[string]*localLRU[T]), capacity: capacityChunks, byCount: true}
}

// NewSizeLimitThreadLocal builds a thread-local cache family bounded by
// total byte size per accessor.
func NewSizeLimitThreadLocal[T Entry](capacityBytes uint64) *ThreadLocal[T] {
	return &ThreadLocal[T]{shards: make(map[string]*localLRU[T]), capacity: capacityBytes, byCount: false}
}

// Local returns the private cache for accessor id, creating it on
// first use. Callers typically key id by goroutine pool worker index
// or a per-request token; the cache never coalesces across ids.
func (tl *ThreadLocal[T]) Local(id string) Cache[T] {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	if s, ok := tl.shards[id]; ok {
		return s
	}
	s := newLocalLRU[T](tl.capacity, tl.byCount, tl.observer, tl.family)
	tl.shards[id] = s
	return s
}

var (
	_ Cache[sizedBytes] = (*ProcessWide[sizedBytes])(nil)
	_ Cache[sizedBytes] = (*localLRU[sizedBytes])(nil)
	_ Observable        = (*ProcessWide[sizedBytes])(nil)
	_ Observable        = (*localLRU[sizedBytes])(nil)
	_ Observable        = (*ThreadLocal[sizedBytes])(nil)
	_ EvictionObserver  = (*noopEvictionObserver)(nil)
)

// noopEvictionObserver anchors the EvictionObserver interface-satisfaction
// check above without depending on the metrics package from here.
type noopEvictionObserver struct{}

func (noopEvictionObserver) CacheEviction(family string) {}

// sizedBytes is a minimal Entry implementation used only to anchor the
// interface-satisfaction checks above.
type sizedBytes []byte

func (b sizedBytes) Size() uint64 { return uint64(len(b)) }
