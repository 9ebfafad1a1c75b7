package backup

import (
	"context"
	"errors"
	"fmt"
	"io"

	gcsstorage "cloud.google.com/go/storage"
)

// Bucket is a Sink and Source over a Cloud Storage bucket. Objects are
// written under prefix.
type Bucket struct {
	bucket *gcsstorage.BucketHandle
	prefix string
}

// NewBucket wraps bucket. prefix may be empty.
func NewBucket(bucket *gcsstorage.BucketHandle, prefix string) *Bucket {
	return &Bucket{bucket: bucket, prefix: prefix}
}

func (b *Bucket) object(key string) (*gcsstorage.ObjectHandle, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	return b.bucket.Object(b.prefix + key), nil
}

// Write uploads r under key.
func (b *Bucket) Write(ctx context.Context, key string, r io.Reader) error {
	obj, err := b.object(key)
	if err != nil {
		return err
	}
	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// Open downloads the archive stored under key.
func (b *Bucket) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := b.object(key)
	if err != nil {
		return nil, err
	}
	reader, err := obj.NewReader(ctx)
	if errors.Is(err, gcsstorage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	return reader, nil
}
