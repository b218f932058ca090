// Package codec decodes compressed line sources.
package codec

import (
	"io"
	"path/filepath"
	"strings"
)

// Codec decompresses an input stream.
type Codec interface {
	// Reader wraps r to decompress data read from it.
	Reader(r io.Reader) (io.ReadCloser, error)
	// Extension returns the file extension without dot (e.g., "zst", "gz").
	// Returns empty string for no compression.
	Extension() string
}

// Match returns the codec among cs whose extension matches the extension of
// name, or fallback when none does.
func Match(name string, fallback Codec, cs ...Codec) Codec {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return fallback
	}
	for _, c := range cs {
		if c.Extension() == ext {
			return c
		}
	}
	return fallback
}

// TrimExtension strips the codec extension from name, so that parts of
// "app.log.gz" are named after "app.log".
func TrimExtension(name string, c Codec) string {
	ext := c.Extension()
	if ext == "" {
		return name
	}
	return strings.TrimSuffix(name, "."+ext)
}
