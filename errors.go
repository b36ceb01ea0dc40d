// Package engine is the Zarr chunk I/O core: the Array API that
// orchestrates the chunk grid, codec chain, concurrency controller, and
// storage trait surface into StoreChunk/RetrieveChunk/
// RetrieveArraySubset/StoreArraySubset/EraseChunk/EraseChunks.
package engine

import "errors"

// Sentinel error kinds. Every exported error wraps one of these with
// context via %w; callers compare with errors.Is.
var (
	ErrStore                   = errors.New("engine: store error")
	ErrInvalidMetadata         = errors.New("engine: invalid metadata")
	ErrInvalidChunkGridIndices = errors.New("engine: invalid chunk grid indices")
	ErrIncompatibleDataShape   = errors.New("engine: incompatible data shape")
	ErrIncompatibleIndexer     = errors.New("engine: incompatible indexer")
	ErrCodec                   = errors.New("engine: codec error")
	ErrUnsupportedDataType     = errors.New("engine: unsupported data type")
)
