// Package storage defines the key-value trait surface the core consumes:
// get/set/erase/list over string keys, with batched partial reads and
// writes as the primitives codecs and the cache build on.
package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/zarrcore/engine/indexer"
)

// ErrKeyNotFound names the absent-key condition. No store in this
// package returns it: Size reports absence with ok == false, and Get and
// GetPartialMany return a nil slice, since "missing chunk" is an
// expected outcome on every read path, not an error.
var ErrKeyNotFound = fmt.Errorf("storage: key not found")

// KeyRange pairs a key with a byte range to retrieve from it, for
// batched GetPartialMany calls that span multiple keys.
type KeyRange struct {
	Key   string
	Range indexer.ByteRange
}

// Storage is the synchronous store surface the core consumes. Get and
// GetPartialMany return (nil, nil) for an absent key; Set/SetPartialMany
// overwrite; Erase of an absent key is not an error.
type Storage interface {
	Get(key string) ([]byte, error)
	// GetPartialMany returns one []byte per requested range, or nil if
	// the key is absent. Ranges belonging to the same key are grouped by
	// the caller when it matters for batching (see GroupByKey).
	GetPartialMany(key string, ranges []indexer.ByteRange) ([][]byte, error)
	Set(key string, value []byte) error
	// SetPartialMany writes value ranges into an existing (or
	// fill-constructed) key. Stores without a native partial-write
	// primitive fall back to a read-modify-write.
	SetPartialMany(key string, ranges []indexer.ByteRange, values [][]byte) error
	Erase(key string) error
	ErasePrefix(prefix string) error
	EraseMany(keys []string) error
	List() ([]string, error)
	ListPrefix(prefix string) ([]string, error)
	ListDir(prefix string) (keys []string, prefixes []string, err error)
	Size(key string) (int64, bool, error)
	SizePrefix(prefix string) (int64, error)
}

// AsyncStorage mirrors Storage with ctx-cancellable operations, for the
// async Array API.
type AsyncStorage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	GetPartialMany(ctx context.Context, key string, ranges []indexer.ByteRange) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetPartialMany(ctx context.Context, key string, ranges []indexer.ByteRange, values [][]byte) error
	Erase(ctx context.Context, key string) error
	ErasePrefix(ctx context.Context, prefix string) error
	EraseMany(ctx context.Context, keys []string) error
	List(ctx context.Context) ([]string, error)
	ListPrefix(ctx context.Context, prefix string) ([]string, error)
	ListDir(ctx context.Context, prefix string) (keys []string, prefixes []string, err error)
	Size(ctx context.Context, key string) (int64, bool, error)
	SizePrefix(ctx context.Context, prefix string) (int64, error)
}

// GroupByKey batches KeyRange entries by key, preserving first-seen key
// order, mirroring get_partial_values_batched_by_key's grouping so a
// Storage implementation can issue one call per key instead of one per
// range.
func GroupByKey(keyRanges []KeyRange) (keys []string, grouped map[string][]indexer.ByteRange) {
	grouped = make(map[string][]indexer.ByteRange)
	seen := make(map[string]bool)
	for _, kr := range keyRanges {
		if !seen[kr.Key] {
			seen[kr.Key] = true
			keys = append(keys, kr.Key)
		}
		grouped[kr.Key] = append(grouped[kr.Key], kr.Range)
	}
	return keys, grouped
}

// ApplyRange extracts the bytes named by r from a value of the given
// total size. A zero-length range at the end of the value is valid.
func ApplyRange(value []byte, r indexer.ByteRange) ([]byte, error) {
	end := r.Offset + r.Length
	if end > uint64(len(value)) {
		return nil, fmt.Errorf("storage: byte range [%d,%d) exceeds value length %d", r.Offset, end, len(value))
	}
	return value[r.Offset:end], nil
}

// rmwSetPartialMany is the default SetPartialMany for stores without a
// native partial-write primitive: read the existing value (or start from
// a zero-filled buffer sized to the furthest range), splice in the new
// ranges, and write back the whole value.
func rmwSetPartialMany(get func() ([]byte, error), set func([]byte) error, ranges []indexer.ByteRange, values [][]byte) error {
	if len(ranges) != len(values) {
		return fmt.Errorf("storage: SetPartialMany ranges/values length mismatch")
	}
	existing, err := get()
	if err != nil {
		return err
	}
	maxEnd := uint64(0)
	for _, r := range ranges {
		if end := r.Offset + r.Length; end > maxEnd {
			maxEnd = end
		}
	}
	if uint64(len(existing)) < maxEnd {
		grown := make([]byte, maxEnd)
		copy(grown, existing)
		existing = grown
	}

	// Apply in range-offset order so overlapping ranges (if any) resolve
	// deterministically in caller-declared priority via stable sort.
	order := make([]int, len(ranges))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return ranges[order[a]].Offset < ranges[order[b]].Offset })
	for _, i := range order {
		r := ranges[i]
		copy(existing[r.Offset:r.Offset+r.Length], values[i])
	}
	return set(existing)
}
