package engine

import (
	"strconv"
	"strings"
)

// ChunkKeyEncoding maps a chunk coordinate to a store key, per the two
// schemes named in spec §6. It only encodes: no method maps a store key
// back to chunk coordinates.
type ChunkKeyEncoding interface {
	// EncodeChunkKey returns the store key for chunkIndices, relative to
	// arrayPath.
	EncodeChunkKey(arrayPath string, chunkIndices []uint64) string
}

// DefaultChunkKeyEncoding is the V3 "default" scheme: "<arrayPath>/c/i0/i1/…"
// with a configurable separator between "c" and each coordinate; the
// array path is always joined to the key with "/".
type DefaultChunkKeyEncoding struct {
	Separator string
}

// NewDefaultChunkKeyEncoding builds the default scheme with separator
// sep (conventionally "/").
func NewDefaultChunkKeyEncoding(sep string) DefaultChunkKeyEncoding {
	return DefaultChunkKeyEncoding{Separator: sep}
}

func (e DefaultChunkKeyEncoding) EncodeChunkKey(arrayPath string, chunkIndices []uint64) string {
	parts := make([]string, 0, len(chunkIndices)+1)
	parts = append(parts, "c")
	for _, idx := range chunkIndices {
		parts = append(parts, strconv.FormatUint(idx, 10))
	}
	key := strings.Join(parts, e.Separator)
	return joinPath(arrayPath, key)
}

// V2ChunkKeyEncoding is the V2 scheme: "i0.i1.…" (or with a caller-chosen
// separator) relative to the array path. A 0-dimensional array encodes
// to "0", per the V2 spec.
type V2ChunkKeyEncoding struct {
	Separator string
}

// NewV2ChunkKeyEncoding builds the V2 scheme with separator sep
// (conventionally "." or "/").
func NewV2ChunkKeyEncoding(sep string) V2ChunkKeyEncoding {
	return V2ChunkKeyEncoding{Separator: sep}
}

func (e V2ChunkKeyEncoding) EncodeChunkKey(arrayPath string, chunkIndices []uint64) string {
	var key string
	switch len(chunkIndices) {
	case 0:
		key = "0"
	default:
		parts := make([]string, len(chunkIndices))
		for i, idx := range chunkIndices {
			parts[i] = strconv.FormatUint(idx, 10)
		}
		key = strings.Join(parts, e.Separator)
	}
	return joinPath(arrayPath, key)
}

func joinPath(arrayPath, key string) string {
	if arrayPath == "" {
		return key
	}
	return strings.TrimSuffix(arrayPath, "/") + "/" + key
}

var (
	_ ChunkKeyEncoding = DefaultChunkKeyEncoding{}
	_ ChunkKeyEncoding = V2ChunkKeyEncoding{}
)
