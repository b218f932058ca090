// Package s3source implements an AWS S3 object line source.
package s3source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/discochess/partsplit/internal/codec"
	"github.com/discochess/partsplit/internal/codec/gzipcodec"
	"github.com/discochess/partsplit/internal/codec/noopcodec"
	"github.com/discochess/partsplit/internal/codec/zstdcodec"
	"github.com/discochess/partsplit/internal/source"
)

// Compile-time check that Source implements source.Source.
var _ source.Source = (*Source)(nil)

// ObjectGetter is the subset of the S3 client used by Source.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Source reads one S3 object. Every Open issues a new GetObject.
type Source struct {
	client ObjectGetter
	bucket string
	key    string
	codec  codec.Codec
}

// Option configures a Source.
type Option func(*sourceConfig) error

type sourceConfig struct {
	loadOpts []func(*config.LoadOptions) error
	endpoint string
	client   ObjectGetter
	codec    codec.Codec
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(c *sourceConfig) error {
		c.loadOpts = append(c.loadOpts, config.WithRegion(region))
		return nil
	}
}

// WithEndpoint sets a custom endpoint (for S3-compatible services like MinIO).
func WithEndpoint(endpoint string) Option {
	return func(c *sourceConfig) error {
		c.endpoint = endpoint
		return nil
	}
}

// WithClient uses client instead of one built from the default AWS config.
func WithClient(client ObjectGetter) Option {
	return func(c *sourceConfig) error {
		c.client = client
		return nil
	}
}

// WithCodec forces the codec used to decode the object.
func WithCodec(cd codec.Codec) Option {
	return func(c *sourceConfig) error {
		c.codec = cd
		return nil
	}
}

// New creates a source for s3://bucket/key.
// Objects whose key ends in ".gz" or ".zst" are decompressed.
func New(ctx context.Context, bucket, key string, opts ...Option) (*Source, error) {
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("s3 source needs both bucket and key")
	}

	cfg := &sourceConfig{
		codec: codec.Match(key, noopcodec.New(), gzipcodec.New(), zstdcodec.New()),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	client := cfg.client
	if client == nil {
		awsCfg, err := config.LoadDefaultConfig(ctx, cfg.loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("loading AWS config: %w", err)
		}
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.endpoint)
				o.UsePathStyle = true
			}
		})
	}

	return &Source{
		client: client,
		bucket: bucket,
		key:    key,
		codec:  cfg.codec,
	}, nil
}

// FromURL creates a source from "s3://bucket/key".
func FromURL(ctx context.Context, raw string, opts ...Option) (*Source, error) {
	bucket, key, err := source.ParseBucketURL(raw, "s3")
	if err != nil {
		return nil, err
	}
	return New(ctx, bucket, key, opts...)
}

// Name returns the base name of the key without any codec extension.
func (s *Source) Name() string {
	return codec.TrimExtension(path.Base(s.key), s.codec)
}

// URL returns the s3:// URL of the object.
func (s *Source) URL() string {
	return "s3://" + s.bucket + "/" + s.key
}

// Open fetches the object from the beginning.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: %s", source.ErrNotFound, s.URL())
		}
		return nil, fmt.Errorf("getting %s: %w", s.URL(), err)
	}

	decoder, err := s.codec.Reader(result.Body)
	if err != nil {
		result.Body.Close()
		return nil, fmt.Errorf("creating decompressor: %w", err)
	}
	return source.Chain(decoder, decoder, result.Body), nil
}
