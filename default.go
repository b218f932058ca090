package partsplit

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/discochess/partsplit/internal/source"
)

// DefaultFileMode is the permission of part files created by DefaultPolicy.
const DefaultFileMode os.FileMode = 0644

// PartHook observes the start or the end of a part. It may write framing
// such as a header or footer to w.
type PartHook func(path string, w io.Writer) error

// Compile-time check that DefaultPolicy implements Policy.
var _ Policy = (*DefaultPolicy)(nil)

// DefaultPolicy reads lines from a LineSource and splits them uniformly,
// unless configured otherwise.
//
// To change how lines are produced, embed *DefaultPolicy in a struct that
// overrides OpenReader, CloseReader and NextLine.
type DefaultPolicy struct {
	src      LineSource
	split    SplitFunc
	name     NameFunc
	onStart  PartHook
	onStop   PartHook
	fileMode os.FileMode

	lines    int
	parts    int
	partSize int

	reader *source.Lines
}

// PolicyOption configures a DefaultPolicy.
type PolicyOption func(*DefaultPolicy)

// WithSplitFunc sets the boundary decision. Default is Uniform.
func WithSplitFunc(fn SplitFunc) PolicyOption {
	return func(p *DefaultPolicy) { p.split = fn }
}

// WithNameFunc sets how parts are named. Default is DefaultNames.
func WithNameFunc(fn NameFunc) PolicyOption {
	return func(p *DefaultPolicy) { p.name = fn }
}

// WithPartHooks sets callbacks run when a part starts and stops. Either may
// be nil.
func WithPartHooks(start, stop PartHook) PolicyOption {
	return func(p *DefaultPolicy) {
		p.onStart = start
		p.onStop = stop
	}
}

// WithFileMode sets the permission of created part files.
func WithFileMode(mode os.FileMode) PolicyOption {
	return func(p *DefaultPolicy) { p.fileMode = mode }
}

// NewDefaultPolicy creates a policy reading from src.
func NewDefaultPolicy(src LineSource, opts ...PolicyOption) *DefaultPolicy {
	p := &DefaultPolicy{
		src:      src,
		split:    Uniform,
		name:     DefaultNames,
		fileMode: DefaultFileMode,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Source returns the input.
func (p *DefaultPolicy) Source() LineSource {
	return p.src
}

// Initialize records the counts and derives the part size,
// ceil(lines / parts).
func (p *DefaultPolicy) Initialize(lines, parts int) error {
	if parts <= 0 {
		return fmt.Errorf("%w: part count must be positive, got %d", ErrConfig, parts)
	}
	if lines < 0 {
		return fmt.Errorf("%w: line count must not be negative, got %d", ErrConfig, lines)
	}
	p.lines = lines
	p.parts = parts
	p.partSize = (lines + parts - 1) / parts
	return nil
}

// Lines returns the line count of the input, set by Initialize.
func (p *DefaultPolicy) Lines() int {
	return p.lines
}

// Parts returns the requested part count, set by Initialize.
func (p *DefaultPolicy) Parts() int {
	return p.parts
}

// PartSize returns the number of lines per part, set by Initialize.
func (p *DefaultPolicy) PartSize() int {
	return p.partSize
}

// OpenReader opens the source from the beginning, closing any read session
// still open.
func (p *DefaultPolicy) OpenReader(ctx context.Context) error {
	if err := p.CloseReader(); err != nil {
		return err
	}
	if p.src == nil {
		return fmt.Errorf("%w: policy has no source", ErrConfig)
	}

	rc, err := p.src.Open(ctx)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %w", ErrIO, p.src.Name(), err)
	}
	p.reader = source.NewLines(rc)
	return nil
}

// CloseReader closes the read session, if any.
func (p *DefaultPolicy) CloseReader() error {
	if p.reader == nil {
		return nil
	}
	err := p.reader.Close()
	p.reader = nil
	if err != nil {
		return fmt.Errorf("%w: closing %s: %w", ErrIO, p.src.Name(), err)
	}
	return nil
}

// NextLine returns the next line of the source. Without an open read
// session it reports end of input.
func (p *DefaultPolicy) NextLine() (string, bool, error) {
	if p.reader == nil {
		return "", false, nil
	}
	line, ok, err := p.reader.Next()
	if err != nil {
		return "", false, fmt.Errorf("%w: reading %s: %w", ErrIO, p.src.Name(), err)
	}
	return line, ok, nil
}

// PartName names the part at index after the base name of the source.
func (p *DefaultPolicy) PartName(index int) string {
	var base string
	if p.src != nil && p.src.Name() != "" {
		base = filepath.Base(p.src.Name())
	}
	return p.name(base, index)
}

// OpenWriter creates or truncates the file at path and returns a buffered
// writer whose Close flushes and closes the file.
func (p *DefaultPolicy) OpenWriter(path string) (io.WriteCloser, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, p.fileMode)
	if err != nil {
		return nil, fmt.Errorf("%w: creating part: %w", ErrIO, err)
	}
	return &fileWriter{Writer: bufio.NewWriter(f), file: f}, nil
}

// StartPart runs the start hook, if any.
func (p *DefaultPolicy) StartPart(path string, w io.Writer) error {
	if p.onStart == nil {
		return nil
	}
	return p.onStart(path, w)
}

// StopPart runs the stop hook, if any.
func (p *DefaultPolicy) StopPart(path string, w io.Writer) error {
	if p.onStop == nil {
		return nil
	}
	return p.onStop(path, w)
}

// CanSplit applies the configured SplitFunc.
func (p *DefaultPolicy) CanSplit(line int, content string) (bool, error) {
	return p.split(p, line, content)
}

// fileWriter is a buffered part file.
type fileWriter struct {
	*bufio.Writer
	file *os.File
}

func (w *fileWriter) Close() error {
	err := w.Flush()
	err = multierr.Append(err, w.file.Close())
	if err != nil {
		return fmt.Errorf("%w: closing %s: %w", ErrIO, w.file.Name(), err)
	}
	return nil
}
