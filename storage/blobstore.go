package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"

	"github.com/zarrcore/engine/indexer"
)

// BlobStore adapts a gocloud.dev/blob.Bucket (file://, s3://, gs://,
// azblob://, mem://, …) to the Storage surface. Key absence is reported
// as (nil, nil), matching gcerrors.NotFound.
type BlobStore struct {
	bucket *blob.Bucket
}

// OpenBlobStore opens a bucket at path (any gocloud.dev URL scheme).
func OpenBlobStore(ctx context.Context, path string) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to open bucket %s: %w", path, err)
	}
	return &BlobStore{bucket: bucket}, nil
}

func NewBlobStore(bucket *blob.Bucket) *BlobStore { return &BlobStore{bucket: bucket} }

func (s *BlobStore) Close() error { return s.bucket.Close() }

func isNotFound(err error) bool {
	return err != nil && gcerrors.Code(err) == gcerrors.NotFound
}

func (s *BlobStore) Get(key string) ([]byte, error) {
	ctx := context.Background()
	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: failed to open %s: %w", key, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to read %s: %w", key, err)
	}
	return data, nil
}

func (s *BlobStore) GetPartialMany(key string, ranges []indexer.ByteRange) ([][]byte, error) {
	ctx := context.Background()
	exists, err := s.bucket.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to stat %s: %w", key, err)
	}
	if !exists {
		return nil, nil
	}
	out := make([][]byte, len(ranges))
	for i, rg := range ranges {
		r, err := s.bucket.NewRangeReader(ctx, key, int64(rg.Offset), int64(rg.Length), nil)
		if err != nil {
			return nil, fmt.Errorf("storage: failed to open range of %s: %w", key, err)
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			return nil, fmt.Errorf("storage: failed to read range of %s: %w", key, err)
		}
		out[i] = data
	}
	return out, nil
}

func (s *BlobStore) Set(key string, value []byte) error {
	ctx := context.Background()
	w, err := s.bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return fmt.Errorf("storage: failed to open writer for %s: %w", key, err)
	}
	if _, err := w.Write(value); err != nil {
		w.Close()
		return fmt.Errorf("storage: failed to write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("storage: failed to finalize %s: %w", key, err)
	}
	return nil
}

func (s *BlobStore) SetPartialMany(key string, ranges []indexer.ByteRange, values [][]byte) error {
	return rmwSetPartialMany(
		func() ([]byte, error) {
			v, err := s.Get(key)
			if err != nil {
				return nil, err
			}
			return v, nil
		},
		func(v []byte) error { return s.Set(key, v) },
		ranges, values,
	)
}

func (s *BlobStore) Erase(key string) error {
	ctx := context.Background()
	err := s.bucket.Delete(ctx, key)
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("storage: failed to erase %s: %w", key, err)
	}
	return nil
}

func (s *BlobStore) ErasePrefix(prefix string) error {
	keys, err := s.ListPrefix(prefix)
	if err != nil {
		return err
	}
	return s.EraseMany(keys)
}

func (s *BlobStore) EraseMany(keys []string) error {
	for _, k := range keys {
		if err := s.Erase(k); err != nil {
			return err
		}
	}
	return nil
}

func (s *BlobStore) List() ([]string, error) { return s.ListPrefix("") }

func (s *BlobStore) ListPrefix(prefix string) ([]string, error) {
	ctx := context.Background()
	var out []string
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("storage: failed to list prefix %s: %w", prefix, err)
		}
		if !obj.IsDir {
			out = append(out, obj.Key)
		}
	}
	return out, nil
}

func (s *BlobStore) ListDir(prefix string) (keys []string, prefixes []string, err error) {
	ctx := context.Background()
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix, Delimiter: "/"})
	for {
		obj, ierr := iter.Next(ctx)
		if ierr == io.EOF {
			break
		}
		if ierr != nil {
			return nil, nil, fmt.Errorf("storage: failed to list dir %s: %w", prefix, ierr)
		}
		if obj.IsDir {
			prefixes = append(prefixes, obj.Key)
		} else {
			keys = append(keys, obj.Key)
		}
	}
	return keys, prefixes, nil
}

func (s *BlobStore) Size(key string) (int64, bool, error) {
	ctx := context.Background()
	attrs, err := s.bucket.Attributes(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("storage: failed to stat %s: %w", key, err)
	}
	return attrs.Size, true, nil
}

func (s *BlobStore) SizePrefix(prefix string) (int64, error) {
	ctx := context.Background()
	var total int64
	iter := s.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("storage: failed to size prefix %s: %w", prefix, err)
		}
		if !obj.IsDir {
			total += obj.Size
		}
	}
	return total, nil
}

var _ Storage = (*BlobStore)(nil)

// keyJoin joins path segments with "/", matching the default chunk key
// separator used throughout the rest of the module.
func keyJoin(segments ...string) string {
	return strings.Join(segments, "/")
}
