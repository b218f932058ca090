package partsplit

import (
	"context"
	"io"

	"github.com/discochess/partsplit/internal/source"
)

// LineSource is a named, re-openable input. Open must return a stream
// positioned at the start of the input on every call.
type LineSource = source.Source

// Policy decides how an input is split into parts.
//
// During Split the Splitter calls a Policy in this order:
//
//  1. OpenReader, then NextLine until it reports the end of input, then
//     CloseReader, to count the lines;
//  2. Initialize with the line count and the requested part count;
//  3. PartName for every index in [0, parts);
//  4. OpenReader again, then NextLine for each line. Before the first line
//     of a part, OpenWriter and StartPart. After every line, CanSplit; when
//     it reports true, StopPart and the writer is closed;
//  5. CloseReader, and StopPart plus close for the part still open.
//
// A Policy never calls back into the Splitter. Errors returned by a Policy
// are passed to the caller of Split unchanged.
type Policy interface {
	// Source returns the input being split.
	Source() LineSource

	// Initialize records the line count of the input and the requested part
	// count. It is called once per Split, between the two passes.
	Initialize(lines, parts int) error

	// OpenReader starts reading the input from the beginning. Calling it
	// again after CloseReader starts over.
	OpenReader(ctx context.Context) error

	// CloseReader ends the read session. It is safe to call repeatedly, and
	// is also called when OpenReader fails.
	CloseReader() error

	// NextLine returns the next line of input without its terminator.
	// ok is false at end of input and on every call after that.
	NextLine() (line string, ok bool, err error)

	// PartName returns the file name of the part at index. It must return
	// distinct names for distinct indexes.
	PartName(index int) string

	// OpenWriter creates the sink a part is written to.
	OpenWriter(path string) (io.WriteCloser, error)

	// StartPart is called after OpenWriter, before the first line of a part.
	StartPart(path string, w io.Writer) error

	// StopPart is called after the last line of a part, before its writer
	// is closed.
	StopPart(path string, w io.Writer) error

	// CanSplit reports whether the current part ends after line, the 1-based
	// number of the line within the current part, whose content is content.
	CanSplit(line int, content string) (bool, error)
}

// Part describes one produced part file.
type Part struct {
	Index int
	Name  string
	Path  string
	Lines int
	Bytes int64
}

// Paths returns the paths of parts in order.
func Paths(parts []Part) []string {
	paths := make([]string, len(parts))
	for i, p := range parts {
		paths[i] = p.Path
	}
	return paths
}
