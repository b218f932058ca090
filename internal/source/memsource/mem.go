// Package memsource provides an in-memory line source.
package memsource

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/discochess/partsplit/internal/source"
)

// Compile-time check that Source implements source.Source.
var _ source.Source = (*Source)(nil)

// Source serves a byte buffer held in memory.
type Source struct {
	name string

	mu    sync.RWMutex
	data  []byte
	opens int
}

// New creates a source named name over data.
// The data is copied to prevent caller mutations from affecting the source.
func New(name string, data []byte) *Source {
	s := &Source{name: name}
	s.Set(data)
	return s
}

// FromLines creates a source whose content is lines, each terminated by "\n".
func FromLines(name string, lines ...string) *Source {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return &Source{name: name, data: []byte(b.String())}
}

// Set replaces the content served by later opens.
func (s *Source) Set(data []byte) {
	copied := make([]byte, len(data))
	copy(copied, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = copied
}

// Name returns the name given at construction.
func (s *Source) Name() string {
	return s.name
}

// Open returns a reader over the current content.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

// Opens reports how many times Open has been called.
func (s *Source) Opens() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.opens
}
