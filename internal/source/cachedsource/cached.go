// Package cachedsource spools the bodies of remote sources to local files so
// that the counting and distributing passes of a split fetch them only once.
//
// A spool serves exactly one reopen: the first Open fetches the body into a
// temporary file, the next Open reads that file and drops it. A later Open
// fetches again, so every split sees the current content of the source.
package cachedsource

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/multierr"

	"github.com/discochess/partsplit/internal/source"
	"github.com/discochess/partsplit/internal/stats"
)

// Compile-time check that Source implements source.Source.
var _ source.Source = (*Source)(nil)

// Stats contains cache statistics.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int // Current number of spooled bodies
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// spool is a body fetched into a local file.
type spool struct {
	path  string
	taken bool // The file now belongs to the reader that took it.
}

// Cache is a thread-safe LRU of spool files, shared by any number of cached
// sources. Spools pushed out of the LRU are deleted.
type Cache struct {
	dir       string
	spools    *lru.Cache[uint64, *spool]
	collector stats.Collector

	nextID atomic.Uint64
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache creates a cache holding at most capacity spools in dir. An empty
// dir means os.TempDir. The collector is optional; if nil, a no-op collector
// is used.
func NewCache(capacity int, dir string, collector stats.Collector) (*Cache, error) {
	spools, err := lru.NewWithEvict(capacity, func(_ uint64, s *spool) {
		if !s.taken {
			os.Remove(s.path)
		}
	})
	if err != nil {
		return nil, err
	}
	if collector == nil {
		collector = stats.NewNoop()
	}
	return &Cache{dir: dir, spools: spools, collector: collector}, nil
}

// take removes the spool of id from the cache and hands its file to the
// caller, who must delete it.
func (c *Cache) take(id uint64) (string, bool) {
	s, ok := c.spools.Peek(id)
	if !ok {
		c.misses.Add(1)
		c.collector.IncCounter(stats.MetricSourceCacheMisses, 1)
		return "", false
	}
	s.taken = true
	c.spools.Remove(id)
	c.hits.Add(1)
	c.collector.IncCounter(stats.MetricSourceCacheHits, 1)
	return s.path, true
}

// Stats returns cache statistics.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.spools.Len(),
	}
}

// Close deletes every spool still held.
func (c *Cache) Close() error {
	c.spools.Purge()
	return nil
}

// Source wraps another Source, serving the reopen that follows each fetch
// from a spool file.
type Source struct {
	underlying source.Source
	cache      *Cache
	id         uint64
}

// New creates a cached view of underlying. Each Source has its own spool, so
// equally named sources never share content.
func New(underlying source.Source, cache *Cache) *Source {
	return &Source{
		underlying: underlying,
		cache:      cache,
		id:         cache.nextID.Add(1),
	}
}

// Name returns the name of the underlying source.
func (s *Source) Name() string {
	return s.underlying.Name()
}

// Open serves the spool left by the previous Open, or fetches the body from
// the underlying source into a new spool.
func (s *Source) Open(ctx context.Context) (io.ReadCloser, error) {
	if path, ok := s.cache.take(s.id); ok {
		f, err := os.Open(path)
		if err != nil {
			os.Remove(path)
			return nil, fmt.Errorf("opening spool of %s: %w", s.Name(), err)
		}
		return &spoolReader{File: f, remove: true}, nil
	}

	f, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.spools.Add(s.id, &spool{path: f.Name()})
	return &spoolReader{File: f}, nil
}

// fetch copies the underlying body into a temporary file positioned at its
// start.
func (s *Source) fetch(ctx context.Context) (_ *os.File, err error) {
	rc, err := s.underlying.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Append(err, rc.Close())
	}()

	f, err := os.CreateTemp(s.cache.dir, "partsplit-spool-*")
	if err != nil {
		return nil, fmt.Errorf("creating spool: %w", err)
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	if _, err := io.Copy(f, rc); err != nil {
		return nil, fmt.Errorf("spooling %s: %w", s.Name(), err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding spool: %w", err)
	}
	return f, nil
}

// Close drops any spool of this source and closes the underlying source when
// it holds resources.
func (s *Source) Close() error {
	s.cache.spools.Remove(s.id)
	if c, ok := s.underlying.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// spoolReader reads a spool file, deleting it on Close when it was taken.
type spoolReader struct {
	*os.File
	remove bool
}

func (r *spoolReader) Close() error {
	err := r.File.Close()
	if r.remove {
		err = multierr.Append(err, os.Remove(r.Name()))
	}
	return err
}
