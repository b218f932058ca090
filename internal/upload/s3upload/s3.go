// Package s3upload publishes part files to AWS S3.
package s3upload

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/discochess/partsplit/internal/source"
	"github.com/discochess/partsplit/internal/upload"
)

// Compile-time check that Bucket implements upload.Bucket.
var _ upload.Bucket = (*Bucket)(nil)

// Client is the subset of the S3 client used by Bucket.
type Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	s3.ListObjectsV2APIClient
}

// Bucket uploads into s3://bucket/prefix.
type Bucket struct {
	client Client
	bucket string
	prefix string
}

// Option configures a Bucket.
type Option func(*bucketConfig) error

type bucketConfig struct {
	loadOpts []func(*config.LoadOptions) error
	endpoint string
	client   Client
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(c *bucketConfig) error {
		c.loadOpts = append(c.loadOpts, config.WithRegion(region))
		return nil
	}
}

// WithEndpoint sets a custom endpoint (for S3-compatible services like MinIO).
func WithEndpoint(endpoint string) Option {
	return func(c *bucketConfig) error {
		c.endpoint = endpoint
		return nil
	}
}

// WithClient uses client instead of one built from the default AWS config.
func WithClient(client Client) Option {
	return func(c *bucketConfig) error {
		c.client = client
		return nil
	}
}

// New creates a Bucket for "s3://bucket/prefix".
func New(ctx context.Context, rawURL string, opts ...Option) (*Bucket, error) {
	bucket, prefix, err := source.ParseBucketURL(rawURL, "s3")
	if err != nil {
		return nil, err
	}

	cfg := &bucketConfig{}
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

	return &Bucket{
		client: client,
		bucket: bucket,
		prefix: strings.TrimSuffix(prefix, "/"),
	}, nil
}

// Put uploads the file at localPath as name.
func (b *Bucket) Put(ctx context.Context, name, localPath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(upload.JoinKey(b.prefix, name)),
		Body:          file,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("putting %s: %w", b.URL(name), err)
	}
	return nil
}

// List returns the names, relative to the bucket prefix, of objects starting
// with prefix.
func (b *Bucket) List(ctx context.Context, prefix string) ([]string, error) {
	base := upload.JoinKey(b.prefix, "")
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(base + prefix),
	})

	var names []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), base)
			if strings.Contains(name, "/") {
				continue
			}
			names = append(names, name)
		}
	}
	return names, nil
}

// Delete removes the object name.
func (b *Bucket) Delete(ctx context.Context, name string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(upload.JoinKey(b.prefix, name)),
	})
	if err != nil {
		return fmt.Errorf("deleting %s: %w", b.URL(name), err)
	}
	return nil
}

// URL returns the s3:// URL of the object name.
func (b *Bucket) URL(name string) string {
	return "s3://" + b.bucket + "/" + upload.JoinKey(b.prefix, name)
}

// Close is a no-op; the S3 client holds no resources that need releasing.
func (b *Bucket) Close() error {
	return nil
}
