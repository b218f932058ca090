// Package partsplit splits a line-oriented text input into a sequence of
// smaller part files.
//
// A Splitter drives a Policy through two passes over the input: the first
// counts lines, the second distributes them into parts. The Policy decides
// where part boundaries fall, how parts are named and how each part is framed.
//
// Example usage:
//
//	s, err := partsplit.NewFromFile("/var/log/app.log",
//	    partsplit.WithOutputDir("/tmp/parts"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	parts, err := s.Split(ctx, 4)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, p := range parts {
//	    fmt.Printf("%s: %d lines\n", p.Path, p.Lines)
//	}
package partsplit

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/discochess/partsplit/internal/source/filesource"
	"github.com/discochess/partsplit/internal/stats"
)

// Sentinel errors for well-defined error conditions.
var (
	// ErrConfig indicates invalid construction arguments: a missing policy or
	// source, a non-positive part count, or an output path that is not a
	// directory.
	ErrConfig = errors.New("partsplit: invalid configuration")

	// ErrIO indicates a failure opening, reading or writing the source or a
	// part file.
	ErrIO = errors.New("partsplit: i/o failure")

	// ErrBusy indicates Split was called while another Split on the same
	// Splitter was still running.
	ErrBusy = errors.New("partsplit: split already in progress")
)

// Splitter splits the input of a Policy into part files.
//
// Only configuration survives between calls to Split. A Splitter is not
// reentrant: concurrent calls to Split fail with ErrBusy. Use one Splitter
// per input to split several inputs concurrently.
type Splitter struct {
	policy        Policy
	outputDir     string
	logger        *zap.Logger
	stats         stats.Collector
	progress      ProgressFunc
	progressEvery int

	running atomic.Bool
	state   atomic.Int32
}

// New creates a Splitter driven by policy.
func New(policy Policy, opts ...Option) (*Splitter, error) {
	if policy == nil {
		return nil, fmt.Errorf("%w: policy is nil", ErrConfig)
	}

	cfg := defaultOptions()
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	s := &Splitter{
		policy:        policy,
		logger:        cfg.logger,
		stats:         cfg.stats,
		progress:      cfg.progress,
		progressEvery: cfg.progressEvery,
	}
	if err := s.SetOutputDir(cfg.outputDir); err != nil {
		return nil, err
	}

	s.logger.Debug("splitter initialized",
		zap.String("policy", fmt.Sprintf("%T", policy)),
		zap.String("outputDir", cfg.outputDir),
	)

	return s, nil
}

// NewFromFile creates a Splitter with the default policy bound to the file at
// path. Inputs ending in ".gz" or ".zst" are decompressed while reading.
// Lines end at "\n", "\r\n" or a lone "\r"; a line longer than 10 MiB fails
// the split with ErrIO wrapping bufio.ErrTooLong.
func NewFromFile(path string, opts ...Option) (*Splitter, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: path is empty", ErrConfig)
	}
	return New(NewDefaultPolicy(filesource.New(path)), opts...)
}

// Policy returns the policy driving this Splitter.
func (s *Splitter) Policy() Policy {
	return s.policy
}

// State returns the stage the most recent Split reached.
func (s *Splitter) State() State {
	return State(s.state.Load())
}

// SetOutputDir sets the directory the parts are written to. The directory
// may not exist yet; it is created by Split. An empty dir restores the
// default, the directory of the input.
func (s *Splitter) SetOutputDir(dir string) error {
	if dir != "" {
		info, err := os.Stat(dir)
		switch {
		case err == nil && !info.IsDir():
			return fmt.Errorf("%w: %q is not a directory", ErrConfig, dir)
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return fmt.Errorf("%w: stat output directory: %w", ErrIO, err)
		}
	}
	s.outputDir = dir
	return nil
}

// OutputDir returns the directory the parts are written to.
func (s *Splitter) OutputDir() (string, error) {
	if s.outputDir != "" {
		return s.outputDir, nil
	}
	src := s.policy.Source()
	if src == nil {
		return "", fmt.Errorf("%w: %T returned no source", ErrConfig, s.policy)
	}
	return filepath.Dir(src.Name()), nil
}

func (s *Splitter) setState(st State) {
	s.state.Store(int32(st))
	s.logger.Debug("state", zap.Stringer("state", st))
}
