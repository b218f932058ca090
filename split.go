package partsplit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/discochess/partsplit/internal/stats"
)

// Split splits the input into at most parts part files and returns the parts
// that hold content, in index order.
//
// The input is read twice: once to count its lines and once to distribute
// them. Part files are created in the output directory, which is created if
// needed; existing files with the same names are overwritten. Fewer than
// parts files are produced when the policy reports fewer boundaries.
//
// A boundary reported on the last line of input does not create an empty
// trailing part. A boundary reported while the last part is being written is
// ignored, so the last part receives all remaining lines.
//
// On failure, parts already written are left on disk. The read session and
// the part being written are always closed.
func (s *Splitter) Split(ctx context.Context, parts int) (_ []Part, err error) {
	if parts <= 0 {
		return nil, fmt.Errorf("%w: part count must be positive, got %d", ErrConfig, parts)
	}
	src := s.policy.Source()
	if src == nil {
		return nil, fmt.Errorf("%w: %T returned no source", ErrConfig, s.policy)
	}
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer s.running.Store(false)

	r := &run{
		Splitter: s,
		parts:    parts,
		start:    time.Now(),
	}
	s.stats.IncCounter(stats.MetricSplits, 1)
	s.setState(StateIdle)

	defer func() {
		if err != nil {
			s.setState(StateFailed)
			s.stats.IncCounter(stats.MetricSplitFailures, 1)
			s.logger.Warn("split failed",
				zap.String("source", src.Name()),
				zap.Int("parts", parts),
				zap.Error(err),
			)
		}
	}()

	s.setState(StateCounting)
	lines, err := r.count(ctx)
	if err != nil {
		return nil, err
	}
	r.lines = lines
	s.stats.IncCounter(stats.MetricLinesCounted, int64(lines))

	if err := s.policy.Initialize(lines, parts); err != nil {
		return nil, err
	}
	s.setState(StateInitialized)

	s.setState(StateDistributing)
	produced, err := r.distribute(ctx)
	if err != nil {
		return nil, err
	}

	s.setState(StateDone)
	elapsed := time.Since(r.start)
	s.stats.IncCounter(stats.MetricPartsWritten, int64(len(produced)))
	s.stats.SetGauge(stats.MetricLastPartCount, int64(len(produced)))
	s.stats.ObserveHistogram(stats.MetricSplitSeconds, elapsed.Seconds())
	r.report(PhaseDone)

	s.logger.Info("split complete",
		zap.String("source", src.Name()),
		zap.Int("lines", lines),
		zap.Int("requestedParts", parts),
		zap.Int("producedParts", len(produced)),
		zap.Int64("bytes", r.bytes),
		zap.Duration("elapsed", elapsed),
	)

	return produced, nil
}

// run holds the state of one Split.
type run struct {
	*Splitter

	parts int
	start time.Time

	lines     int // Total, known after counting.
	read      int
	partsDone int
	bytes     int64
}

// count reads the whole input once and returns its line count.
func (r *run) count(ctx context.Context) (n int, err error) {
	if err := r.policy.OpenReader(ctx); err != nil {
		return 0, multierr.Append(err, r.policy.CloseReader())
	}
	defer func() {
		err = multierr.Append(err, r.policy.CloseReader())
	}()

	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		_, ok, err := r.policy.NextLine()
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		n++
		if n%r.progressEvery == 0 {
			r.read = n
			r.report(PhaseCount)
		}
	}
}

// distribute reads the input again and writes every line to its part.
func (r *run) distribute(ctx context.Context) (_ []Part, err error) {
	dir, err := r.OutputDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: creating output directory: %w", ErrIO, err)
	}

	names, err := r.partNames()
	if err != nil {
		return nil, err
	}

	if err := r.policy.OpenReader(ctx); err != nil {
		return nil, multierr.Append(err, r.policy.CloseReader())
	}
	reading := true
	defer func() {
		if reading {
			err = multierr.Append(err, r.policy.CloseReader())
		}
	}()

	var (
		produced []Part
		current  *partWriter
		index    int
		buf      []byte
	)
	defer func() {
		// Only set when leaving early; the normal path closes it below.
		if current != nil {
			err = multierr.Append(err, current.release())
		}
	}()

	r.read = 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line, ok, err := r.policy.NextLine()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		r.read++

		if current == nil {
			current, err = r.openPart(index, names[index], filepath.Join(dir, names[index]))
			if err != nil {
				return nil, err
			}
		}

		buf = append(append(buf[:0], line...), '\n')
		if err := current.write(buf); err != nil {
			return nil, err
		}

		split, err := r.policy.CanSplit(current.part.Lines, line)
		if err != nil {
			return nil, err
		}
		if split {
			if index == r.parts-1 {
				r.logger.Debug("boundary past last part ignored",
					zap.Int("part", index),
					zap.Int("line", r.read),
				)
			} else {
				part, err := r.closePart(current)
				current = nil
				if err != nil {
					return nil, err
				}
				produced = append(produced, part)
				index++
			}
		}

		if r.read%r.progressEvery == 0 {
			r.report(PhaseDistribute)
		}
	}

	reading = false
	if err := r.policy.CloseReader(); err != nil {
		return nil, err
	}

	if current != nil {
		part, err := r.closePart(current)
		current = nil
		if err != nil {
			return nil, err
		}
		produced = append(produced, part)
	}

	return r.existing(produced)
}

// partNames computes the names of every requested part and checks they are
// usable file names.
func (r *run) partNames() ([]string, error) {
	names := make([]string, r.parts)
	seen := make(map[string]int, r.parts)
	for i := range names {
		name := r.policy.PartName(i)
		if name == "" || name != filepath.Base(name) {
			return nil, fmt.Errorf("%w: invalid name %q for part %d", ErrConfig, name, i)
		}
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("%w: parts %d and %d are both named %q", ErrConfig, prev, i, name)
		}
		seen[name] = i
		names[i] = name
	}
	return names, nil
}

// existing drops parts without content on disk and records their size.
func (r *run) existing(parts []Part) ([]Part, error) {
	kept := parts[:0]
	for _, p := range parts {
		info, err := os.Stat(p.Path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: stat part %d: %w", ErrIO, p.Index, err)
		}
		if info.Size() == 0 {
			continue
		}
		p.Bytes = info.Size()
		kept = append(kept, p)
	}
	return kept, nil
}

// partWriter is the write session of one part.
type partWriter struct {
	part Part
	w    io.WriteCloser
}

func (r *run) openPart(index int, name, path string) (*partWriter, error) {
	w, err := r.policy.OpenWriter(path)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("%w: %T returned no writer for %s", ErrConfig, r.policy, path)
	}

	pw := &partWriter{
		part: Part{Index: index, Name: name, Path: path},
		w:    w,
	}
	if err := r.policy.StartPart(path, w); err != nil {
		return nil, multierr.Append(err, pw.release())
	}

	r.logger.Debug("part opened", zap.Int("part", index), zap.String("path", path))
	return pw, nil
}

func (r *run) closePart(pw *partWriter) (Part, error) {
	if err := r.policy.StopPart(pw.part.Path, pw.w); err != nil {
		return Part{}, multierr.Append(err, pw.release())
	}
	if err := pw.release(); err != nil {
		return Part{}, err
	}

	r.partsDone++
	r.bytes += pw.part.Bytes
	r.stats.IncCounter(stats.MetricLinesWritten, int64(pw.part.Lines))
	r.stats.IncCounter(stats.MetricBytesWritten, pw.part.Bytes)
	r.report(PhaseDistribute)

	r.logger.Debug("part closed",
		zap.Int("part", pw.part.Index),
		zap.Int("lines", pw.part.Lines),
		zap.Int64("bytes", pw.part.Bytes),
	)
	return pw.part, nil
}

func (pw *partWriter) write(b []byte) error {
	n, err := pw.w.Write(b)
	pw.part.Bytes += int64(n)
	if err != nil {
		return fmt.Errorf("%w: writing part %d: %w", ErrIO, pw.part.Index, err)
	}
	pw.part.Lines++
	return nil
}

// release closes the writer once.
func (pw *partWriter) release() error {
	if pw.w == nil {
		return nil
	}
	err := pw.w.Close()
	pw.w = nil
	return err
}

func (r *run) report(phase string) {
	if r.progress == nil {
		return
	}
	r.progress(Progress{
		Phase:        phase,
		LinesRead:    r.read,
		LinesTotal:   r.lines,
		PartsWritten: r.partsDone,
		PartsTotal:   r.parts,
		BytesWritten: r.bytes,
		StartTime:    r.start,
	})
}
