// Package gcssource implements a Google Cloud Storage object line source.
package gcssource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"

	"github.com/discochess/partsplit/internal/codec"
	"github.com/discochess/partsplit/internal/codec/gzipcodec"
	"github.com/discochess/partsplit/internal/codec/noopcodec"
	"github.com/discochess/partsplit/internal/codec/zstdcodec"
	"github.com/discochess/partsplit/internal/source"
)

// Compile-time check that Source implements source.Source.
var _ source.Source = (*Source)(nil)

// ObjectOpener opens GCS objects for reading.
type ObjectOpener interface {
	NewReader(ctx context.Context, bucket, object string) (io.ReadCloser, error)
}

// clientOpener adapts a storage.Client to ObjectOpener.
type clientOpener struct {
	client *storage.Client
}

func (c clientOpener) NewReader(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	return c.client.Bucket(bucket).Object(object).NewReader(ctx)
}

// Source reads one GCS object. Every Open starts a new object reader.
type Source struct {
	client *storage.Client
	opener ObjectOpener
	bucket string
	object string
	codec  codec.Codec
}

// Option configures a Source.
type Option func(*Source)

// WithOpener reads objects through o instead of a storage.Client.
func WithOpener(o ObjectOpener) Option {
	return func(s *Source) { s.opener = o }
}

// WithCodec forces the codec used to decode the object.
func WithCodec(c codec.Codec) Option {
	return func(s *Source) { s.codec = c }
}

// New creates a source for gs://bucket/object.
// Objects whose name ends in ".gz" or ".zst" are decompressed.
func New(ctx context.Context, bucket, object string, opts ...Option) (*Source, error) {
	if bucket == "" || object == "" {
		return nil, fmt.Errorf("gcs source needs both bucket and object")
	}

	s := &Source{
		bucket: bucket,
		object: object,
		codec:  codec.Match(object, noopcodec.New(), gzipcodec.New(), zstdcodec.New()),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.opener == nil {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating GCS client: %w", err)
		}
		s.client = client
		s.opener = clientOpener{client: client}
	}

	return s, nil
}

// FromURL creates a source from "gs://bucket/object".
func FromURL(ctx context.Context, raw string, opts ...Option) (*Source, error) {
	bucket, object, err := source.ParseBucketURL(raw, "gs")
	if err != nil {
		return nil, err
	}
	return New(ctx, bucket, object, opts...)
}

// Name returns the base name of the object without any codec extension.
func (s *Source) Name() string {
	return codec.TrimExtension(path.Base(s.object), s.codec)
}

// URL returns the gs:// URL of the object.
func (s *Source) URL() string {
	return "gs://" + s.bucket + "/" + s.object
}

// Open reads the object from the beginning.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	reader, err := s.opener.NewReader(ctx, s.bucket, s.object)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", source.ErrNotFound, s.URL())
		}
		return nil, fmt.Errorf("creating reader for %s: %w", s.URL(), err)
	}

	decoder, err := s.codec.Reader(reader)
	if err != nil {
		reader.Close()
		return nil, fmt.Errorf("creating decompressor: %w", err)
	}
	return source.Chain(decoder, decoder, reader), nil
}

// Close releases the GCS client, if the source created one.
func (s *Source) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
