package source

import (
	"bufio"
	"bytes"
	"io"
)

const (
	initialLineBuffer = 1024 * 1024
	maxLineLength     = 10 * 1024 * 1024
)

// Lines reads lines from an opened input. A line ends at "\n", "\r\n" or
// a lone "\r", and the terminator is stripped; a final line without a
// terminator is still returned. Lines longer than 10 MiB fail with
// bufio.ErrTooLong.
type Lines struct {
	rc      io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

// NewLines wraps rc. Closing the Lines closes rc.
func NewLines(rc io.ReadCloser) *Lines {
	scanner := bufio.NewScanner(rc)
	scanner.Buffer(make([]byte, 0, initialLineBuffer), maxLineLength)
	scanner.Split(scanLines)
	return &Lines{rc: rc, scanner: scanner}
}

// Next returns the next line. ok is false at end of input, and stays false
// on every later call.
func (l *Lines) Next() (line string, ok bool, err error) {
	if l.done {
		return "", false, nil
	}
	if l.scanner.Scan() {
		return l.scanner.Text(), true, nil
	}
	l.done = true
	return "", false, l.scanner.Err()
}

// Close closes the underlying input.
func (l *Lines) Close() error {
	l.done = true
	return l.rc.Close()
}

// scanLines is bufio.ScanLines that also ends a line at a lone '\r'.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	i := bytes.IndexAny(data, "\r\n")
	switch {
	case i < 0:
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	case data[i] == '\n':
		return i + 1, data[:i], nil
	case i+1 < len(data):
		if data[i+1] == '\n' {
			return i + 2, data[:i], nil
		}
		return i + 1, data[:i], nil
	case atEOF:
		return i + 1, data[:i], nil
	}
	// A '\r' ends the buffer; wait to see whether '\n' follows.
	return 0, nil, nil
}
