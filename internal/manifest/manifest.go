// Package manifest records the outcome of a split next to its parts.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Version is the manifest format written by this package.
const Version = 1

// Suffix is appended to the input base name to form the manifest file name.
const Suffix = ".parts.json"

// ErrVersion indicates a manifest written in an unsupported format.
var ErrVersion = errors.New("manifest: unsupported version")

// Manifest describes one completed split.
type Manifest struct {
	Version        int       `json:"version"`
	ID             string    `json:"id"`
	Source         string    `json:"source"`
	RequestedParts int       `json:"requested_parts"`
	LineCount      int       `json:"line_count"`
	Policy         string    `json:"policy,omitempty"`
	SplitAt        time.Time `json:"split_at"`
	Parts          []Part    `json:"parts"`
}

// Part is one produced part file. Name is relative to the manifest's
// directory.
type Part struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Lines int    `json:"lines"`
	Bytes int64  `json:"bytes"`
}

// Bytes returns the total size of all parts.
func (m *Manifest) Bytes() int64 {
	var n int64
	for _, p := range m.Parts {
		n += p.Bytes
	}
	return n
}

// Filename returns the manifest file name for an input named base.
func Filename(base string) string {
	if base == "" {
		base = "part"
	}
	return filepath.Base(base) + Suffix
}

// Write writes m into dir under Filename(base) and returns its path.
func Write(dir, base string, m *Manifest) (string, error) {
	if m.Version == 0 {
		m.Version = Version
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling manifest: %w", err)
	}
	path := filepath.Join(dir, Filename(base))
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return "", fmt.Errorf("writing manifest: %w", err)
	}
	return path, nil
}

// Read reads the manifest at path.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if m.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, m.Version)
	}
	return &m, nil
}

// Find returns the paths of all manifests in dir, sorted by name.
func Find(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), Suffix) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

// Verify checks that every part listed in m exists in dir with the recorded
// size. It returns one error per mismatch, combined with multierr.
func Verify(dir string, m *Manifest) error {
	var errs error
	for _, p := range m.Parts {
		info, err := os.Stat(filepath.Join(dir, p.Name))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("part %d: %w", p.Index, err))
			continue
		}
		if info.Size() != p.Bytes {
			errs = multierr.Append(errs, fmt.Errorf("part %d: size %d, manifest records %d", p.Index, info.Size(), p.Bytes))
		}
	}
	return errs
}
