// Package gcsupload publishes part files to Google Cloud Storage.
package gcsupload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/discochess/partsplit/internal/source"
	"github.com/discochess/partsplit/internal/upload"
)

// Compile-time check that Bucket implements upload.Bucket.
var _ upload.Bucket = (*Bucket)(nil)

// ObjectStore is the subset of a GCS bucket used by Bucket. Keys are full
// object names.
type ObjectStore interface {
	NewWriter(ctx context.Context, key string) io.WriteCloser
	Keys(ctx context.Context, prefix string) ([]string, error)
	Delete(ctx context.Context, key string) error
}

// bucketStore adapts a storage.BucketHandle to ObjectStore.
type bucketStore struct {
	bucket *storage.BucketHandle
}

func (b bucketStore) NewWriter(ctx context.Context, key string) io.WriteCloser {
	return b.bucket.Object(key).NewWriter(ctx)
}

func (b bucketStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	it := b.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return keys, nil
		}
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		keys = append(keys, attrs.Name)
	}
}

func (b bucketStore) Delete(ctx context.Context, key string) error {
	return b.bucket.Object(key).Delete(ctx)
}

// Bucket uploads into gs://bucket/prefix.
type Bucket struct {
	client *storage.Client
	store  ObjectStore
	bucket string
	prefix string
}

// Option configures a Bucket.
type Option func(*Bucket)

// WithStore writes through s instead of a storage.Client.
func WithStore(s ObjectStore) Option {
	return func(b *Bucket) { b.store = s }
}

// New creates a Bucket for "gs://bucket/prefix".
func New(ctx context.Context, rawURL string, opts ...Option) (*Bucket, error) {
	bucket, prefix, err := source.ParseBucketURL(rawURL, "gs")
	if err != nil {
		return nil, err
	}

	b := &Bucket{bucket: bucket, prefix: strings.TrimSuffix(prefix, "/")}
	for _, opt := range opts {
		opt(b)
	}

	if b.store == nil {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating GCS client: %w", err)
		}
		b.client = client
		b.store = bucketStore{bucket: client.Bucket(bucket)}
	}
	return b, nil
}

// Put uploads the file at localPath as name.
func (b *Bucket) Put(ctx context.Context, name, localPath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()

	w := b.store.NewWriter(ctx, upload.JoinKey(b.prefix, name))
	if _, err := io.Copy(w, file); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// List returns the names, relative to the bucket prefix, of objects starting
// with prefix.
func (b *Bucket) List(ctx context.Context, prefix string) ([]string, error) {
	keys, err := b.store.Keys(ctx, upload.JoinKey(b.prefix, prefix))
	if err != nil {
		return nil, err
	}
	base := upload.JoinKey(b.prefix, "")
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		name := strings.TrimPrefix(k, base)
		// Skip objects in nested "directories".
		if strings.Contains(name, "/") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Delete removes the object name.
func (b *Bucket) Delete(ctx context.Context, name string) error {
	if err := b.store.Delete(ctx, upload.JoinKey(b.prefix, name)); err != nil {
		return fmt.Errorf("deleting %s: %w", b.URL(name), err)
	}
	return nil
}

// URL returns the gs:// URL of the object name.
func (b *Bucket) URL(name string) string {
	return "gs://" + b.bucket + "/" + upload.JoinKey(b.prefix, name)
}

// Close releases the GCS client, if the Bucket created one.
func (b *Bucket) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}
