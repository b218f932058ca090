// Package upload publishes produced part files to object storage.
package upload

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Concurrency is the number of files Publish uploads at once.
const Concurrency = 4

// Bucket is a flat object namespace under a fixed prefix.
type Bucket interface {
	// Put stores the file at localPath as name, replacing any existing object.
	Put(ctx context.Context, name, localPath string) error

	// List returns the names of objects whose names start with prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the object name.
	Delete(ctx context.Context, name string) error

	// URL returns the URL of the object name.
	URL(name string) string

	// Close releases resources.
	Close() error
}

// Result summarizes a Publish.
type Result struct {
	Uploaded []string // Object URLs.
	Pruned   []string // Object URLs.
}

// Publish uploads files to b under their base names, then deletes objects
// named stalePrefix followed by a decimal index that were not uploaded, so
// that a split into fewer parts does not leave parts of an earlier split
// behind. An empty stalePrefix disables pruning.
//
// Up to Concurrency files are uploaded at once. Pruning starts only after
// every upload succeeded and its failures are logged, not returned.
func Publish(ctx context.Context, b Bucket, files []string, stalePrefix string, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, path := range files {
		if _, err := os.Stat(path); err != nil {
			return &Result{}, fmt.Errorf("uploading %s: %w", filepath.Base(path), err)
		}
	}

	done := make([]bool, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(Concurrency)
	for i, path := range files {
		i, path := i, path // per-iteration copies (go 1.21 loop semantics)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			name := filepath.Base(path)
			if err := b.Put(gctx, name, path); err != nil {
				return fmt.Errorf("uploading %s: %w", name, err)
			}
			done[i] = true
			logger.Debug("uploaded", zap.String("object", b.URL(name)))
			return nil
		})
	}
	err := g.Wait()

	res := &Result{}
	uploaded := make(map[string]bool, len(files))
	for i, path := range files {
		if done[i] {
			name := filepath.Base(path)
			uploaded[name] = true
			res.Uploaded = append(res.Uploaded, b.URL(name))
		}
	}
	if err != nil {
		return res, err
	}

	if stalePrefix == "" {
		return res, nil
	}

	names, err := b.List(ctx, stalePrefix)
	if err != nil {
		logger.Warn("listing stale parts failed", zap.Error(err))
		return res, nil
	}
	for _, name := range names {
		if uploaded[name] || !isIndexed(name, stalePrefix) {
			continue
		}
		if err := b.Delete(ctx, name); err != nil {
			logger.Warn("deleting stale part failed", zap.String("object", b.URL(name)), zap.Error(err))
			continue
		}
		res.Pruned = append(res.Pruned, b.URL(name))
	}

	logger.Info("upload complete",
		zap.Int("uploaded", len(res.Uploaded)),
		zap.Int("pruned", len(res.Pruned)),
	)
	return res, nil
}

// isIndexed reports whether name is prefix followed by decimal digits.
func isIndexed(name, prefix string) bool {
	index, ok := strings.CutPrefix(name, prefix)
	if !ok || index == "" {
		return false
	}
	for _, r := range index {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// JoinKey joins a key prefix and an object name with a single slash.
func JoinKey(prefix, name string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
