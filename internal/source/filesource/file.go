// Package filesource implements a local filesystem line source.
package filesource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/discochess/partsplit/internal/codec"
	"github.com/discochess/partsplit/internal/codec/gzipcodec"
	"github.com/discochess/partsplit/internal/codec/noopcodec"
	"github.com/discochess/partsplit/internal/codec/zstdcodec"
	"github.com/discochess/partsplit/internal/source"
)

// Compile-time check that Source implements source.Source.
var _ source.Source = (*Source)(nil)

// Source reads a file from the local filesystem.
type Source struct {
	path  string
	codec codec.Codec
}

// Option configures a Source.
type Option func(*Source)

// WithCodec forces the codec used to decode the file, bypassing detection
// by extension.
func WithCodec(c codec.Codec) Option {
	return func(s *Source) { s.codec = c }
}

// New creates a source for the file at path. Files ending in ".gz" or ".zst"
// are decompressed on read unless WithCodec says otherwise.
// The file is not touched until Open.
func New(path string, opts ...Option) *Source {
	s := &Source{
		path:  path,
		codec: codec.Match(path, noopcodec.New(), gzipcodec.New(), zstdcodec.New()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the path with any codec extension removed.
func (s *Source) Name() string {
	return codec.TrimExtension(s.path, s.codec)
}

// Path returns the path of the file as given.
func (s *Source) Path() string {
	return s.path
}

// Open opens the file from the beginning.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", source.ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("opening %s: %w", s.path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat %s: %w", s.path, err)
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("%s is a directory", s.path)
	}

	decoder, err := s.codec.Reader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("creating decompressor for %s: %w", s.path, err)
	}
	return source.Chain(decoder, decoder, file), nil
}
