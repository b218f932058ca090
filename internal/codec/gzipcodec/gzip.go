// Package gzipcodec provides a gzip decompression codec.
package gzipcodec

import (
	"compress/gzip"
	"io"

	"github.com/discochess/partsplit/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements gzip decompression.
type Codec struct{}

// New returns a new gzip codec.
func New() *Codec {
	return &Codec{}
}

// Reader wraps r to decompress gzip data.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}

// Extension returns "gz".
func (c *Codec) Extension() string {
	return "gz"
}
