// Package source defines the re-openable inputs a split reads from.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/multierr"
)

// ErrNotFound is returned when the input behind a source does not exist.
var ErrNotFound = errors.New("source: not found")

// Source is a named, re-openable input.
// Implementations handle transport and decompression internally.
type Source interface {
	// Name identifies the input. Its base name is used to derive part names.
	Name() string

	// Open returns a stream positioned at the start of the input.
	// Every call starts over; callers close the stream when done.
	Open(ctx context.Context) (io.ReadCloser, error)
}

// ParseBucketURL parses "scheme://bucket/key" into bucket and key.
// The key may be empty.
func ParseBucketURL(raw, scheme string) (bucket, key string, err error) {
	prefix := scheme + "://"
	if !strings.HasPrefix(raw, prefix) {
		return "", "", fmt.Errorf("invalid %s URL %q: must start with %s", scheme, raw, prefix)
	}

	parts := strings.SplitN(strings.TrimPrefix(raw, prefix), "/", 2)
	if parts[0] == "" {
		return "", "", fmt.Errorf("invalid %s URL %q: missing bucket name", scheme, raw)
	}

	bucket = parts[0]
	if len(parts) > 1 {
		key = parts[1]
	}
	return bucket, key, nil
}

// readCloser closes a decoding reader and the stream underneath it.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

// Chain returns a ReadCloser reading from r whose Close closes each closer
// in order, combining their errors.
func Chain(r io.Reader, closers ...io.Closer) io.ReadCloser {
	return &readCloser{Reader: r, closers: closers}
}

func (rc *readCloser) Close() error {
	var err error
	for _, c := range rc.closers {
		err = multierr.Append(err, c.Close())
	}
	return err
}
