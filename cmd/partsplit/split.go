package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/discochess/partsplit"
	"github.com/discochess/partsplit/internal/manifest"
	"github.com/discochess/partsplit/internal/source"
	"github.com/discochess/partsplit/internal/source/cachedsource"
	"github.com/discochess/partsplit/internal/source/filesource"
	"github.com/discochess/partsplit/internal/source/gcssource"
	"github.com/discochess/partsplit/internal/source/httpsource"
	"github.com/discochess/partsplit/internal/source/s3source"
	"github.com/discochess/partsplit/internal/stats"
	statslogger "github.com/discochess/partsplit/internal/stats/logger"
	statsprom "github.com/discochess/partsplit/internal/stats/prometheus"
	"github.com/discochess/partsplit/internal/upload"
	"github.com/discochess/partsplit/internal/upload/gcsupload"
	"github.com/discochess/partsplit/internal/upload/s3upload"
)

type splitFlags struct {
	*globalFlags

	parts        int
	output       string
	linesPerPart int
	delimiter    string
	maxBytes     int64
	pad          int
	withManifest bool
	uploadURL    string
	metricsFile  string
	quiet        bool
}

func newSplitCmd(g *globalFlags) *cobra.Command {
	f := &splitFlags{globalFlags: g}

	cmd := &cobra.Command{
		Use:   "split SOURCE",
		Short: "Split a file into at most N parts",
		Long: `Split SOURCE into at most --parts part files.

SOURCE is a local path, an http(s) URL, s3://bucket/key or gs://bucket/object.
Inputs ending in .gz or .zst are decompressed. Parts are named
<base>.part<index>, where <base> is the input name without the
compression extension.

By default lines are spread evenly: each part but the last holds
ceil(lines / parts) lines. --lines-per-part, --delimiter and --max-bytes
end a part earlier; when several are given, the first to fire wins.
No more than --parts files are written; once the last part is reached,
it takes every remaining line.

Examples:
  # Four even parts written next to the input
  partsplit split data.txt --parts 4

  # One record per part, records separated by lines of "%%"
  partsplit split fortunes --parts 10000 --delimiter '^%%$' -o ./out

  # Parts of at most 64 MiB, sortable names, published to S3
  partsplit split app.log.zst --parts 1000 --max-bytes 67108864 --pad 5 \
      --manifest --upload s3://logs/app/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSplit(cmd, f, args[0])
		},
	}

	fl := cmd.Flags()
	fl.IntVarP(&f.parts, "parts", "n", 2, "maximum number of parts")
	fl.StringVarP(&f.output, "output", "o", "", "output directory (default: next to a local input, current directory otherwise)")
	fl.IntVar(&f.linesPerPart, "lines-per-part", 0, "end a part after this many lines")
	fl.StringVar(&f.delimiter, "delimiter", "", "end a part after each line matching this regular expression")
	fl.Int64Var(&f.maxBytes, "max-bytes", 0, "end a part once it holds this many bytes")
	fl.IntVar(&f.pad, "pad", 0, "zero-pad part indexes to this many digits")
	fl.BoolVar(&f.withManifest, "manifest", false, "write <base>.parts.json describing the split")
	fl.StringVar(&f.uploadURL, "upload", "", "publish parts to gs://bucket/prefix or s3://bucket/prefix")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus metrics in text format to this file")
	fl.BoolVarP(&f.quiet, "quiet", "q", false, "do not print progress")

	return cmd
}

func runSplit(cmd *cobra.Command, f *splitFlags, raw string) (err error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := f.logger()
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	registry := prometheus.NewRegistry()
	collector := stats.Tee{statsprom.New(registry)}
	if f.verbose {
		collector = append(collector, statslogger.New(logger))
	}
	if f.metricsFile != "" {
		// Written on failure too.
		defer func() {
			if werr := prometheus.WriteToTextfile(f.metricsFile, registry); werr != nil {
				err = multierr.Append(err, fmt.Errorf("writing metrics: %w", werr))
			}
		}()
	}

	src, closeSrc, err := openSource(ctx, raw, collector)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, closeSrc())
	}()

	policyOpts, err := f.policyOptions()
	if err != nil {
		return err
	}

	outputDir := f.output
	if outputDir == "" && !isLocal(raw) {
		outputDir = "."
	}

	out := cmd.OutOrStdout()
	opts := []partsplit.Option{
		partsplit.WithOutputDir(outputDir),
		partsplit.WithLogger(logger),
		partsplit.WithStats(collector),
	}
	if !f.quiet {
		opts = append(opts, partsplit.WithProgress(progressPrinter(cmd.ErrOrStderr())))
	}

	s, err := partsplit.New(partsplit.NewDefaultPolicy(src, policyOpts...), opts...)
	if err != nil {
		return err
	}
	dir, err := s.OutputDir()
	if err != nil {
		return err
	}

	if !f.quiet {
		fmt.Fprintf(out, "Splitting %s\n", raw)
		fmt.Fprintf(out, "  Parts:  %d\n", f.parts)
		fmt.Fprintf(out, "  Output: %s\n", dir)
		fmt.Fprintln(out)
	}

	parts, err := s.Split(ctx, f.parts)
	if err != nil {
		return err
	}

	files := partsplit.Paths(parts)
	if f.withManifest {
		path, err := writeManifest(dir, raw, src, s, f.parts, parts)
		if err != nil {
			return err
		}
		files = append(files, path)
	}

	for _, p := range parts {
		fmt.Fprintf(out, "%s\t%d lines\t%s\n", p.Path, p.Lines, formatBytes(p.Bytes))
	}

	if f.uploadURL != "" {
		if err := publish(ctx, f.uploadURL, files, stalePrefix(parts), logger, out); err != nil {
			return err
		}
	}
	return nil
}

// policyOptions turns the boundary and naming flags into policy options.
func (f *splitFlags) policyOptions() ([]partsplit.PolicyOption, error) {
	var boundaries []partsplit.SplitFunc
	if f.linesPerPart > 0 {
		boundaries = append(boundaries, partsplit.EveryN(f.linesPerPart))
	}
	if f.delimiter != "" {
		re, err := regexp.Compile(f.delimiter)
		if err != nil {
			return nil, fmt.Errorf("invalid --delimiter: %w", err)
		}
		boundaries = append(boundaries, partsplit.OnMatch(re))
	}
	if f.maxBytes > 0 {
		boundaries = append(boundaries, partsplit.MaxBytes(f.maxBytes))
	}

	var opts []partsplit.PolicyOption
	switch len(boundaries) {
	case 0:
	case 1:
		opts = append(opts, partsplit.WithSplitFunc(boundaries[0]))
	default:
		opts = append(opts, partsplit.WithSplitFunc(partsplit.Any(boundaries...)))
	}
	if f.pad > 0 {
		opts = append(opts, partsplit.WithNameFunc(partsplit.PaddedNames(f.pad)))
	}
	return opts, nil
}

func isLocal(raw string) bool {
	return !strings.Contains(raw, "://")
}

// openSource resolves raw to a line source. Remote inputs are cached in
// memory so both passes of a split fetch them once.
func openSource(ctx context.Context, raw string, collector stats.Collector) (source.Source, func() error, error) {
	noop := func() error { return nil }

	var remote source.Source
	switch {
	case isLocal(raw):
		return filesource.New(raw), noop, nil
	case strings.HasPrefix(raw, "s3://"):
		s, err := s3source.FromURL(ctx, raw)
		if err != nil {
			return nil, nil, err
		}
		remote = s
	case strings.HasPrefix(raw, "gs://"):
		s, err := gcssource.FromURL(ctx, raw)
		if err != nil {
			return nil, nil, err
		}
		remote = s
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		s, err := httpsource.New(raw)
		if err != nil {
			return nil, nil, err
		}
		remote = s
	default:
		return nil, nil, fmt.Errorf("unsupported source %q", raw)
	}

	cache, err := cachedsource.NewCache(1, "", collector)
	if err != nil {
		return nil, nil, err
	}
	cached := cachedsource.New(remote, cache)
	return cached, func() error {
		return multierr.Append(cached.Close(), cache.Close())
	}, nil
}

func writeManifest(dir, raw string, src source.Source, s *partsplit.Splitter, requested int, parts []partsplit.Part) (string, error) {
	m := &manifest.Manifest{
		Source:         raw,
		RequestedParts: requested,
		SplitAt:        time.Now().UTC(),
		Policy:         fmt.Sprintf("%T", s.Policy()),
	}
	if p, ok := s.Policy().(*partsplit.DefaultPolicy); ok {
		m.LineCount = p.Lines()
	}
	for _, p := range parts {
		m.Parts = append(m.Parts, manifest.Part{
			Index: p.Index,
			Name:  p.Name,
			Lines: p.Lines,
			Bytes: p.Bytes,
		})
	}
	return manifest.Write(dir, src.Name(), m)
}

// stalePrefix returns the name shared by all parts of an input, with the
// index removed.
func stalePrefix(parts []partsplit.Part) string {
	if len(parts) == 0 {
		return ""
	}
	return strings.TrimRight(parts[0].Name, "0123456789")
}

func openBucket(ctx context.Context, raw string) (upload.Bucket, error) {
	switch {
	case strings.HasPrefix(raw, "gs://"):
		return gcsupload.New(ctx, raw)
	case strings.HasPrefix(raw, "s3://"):
		return s3upload.New(ctx, raw)
	default:
		return nil, fmt.Errorf("unsupported upload URL %q: want gs:// or s3://", raw)
	}
}

func publish(ctx context.Context, raw string, files []string, prefix string, logger *zap.Logger, out io.Writer) (err error) {
	b, err := openBucket(ctx, raw)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, b.Close())
	}()

	fmt.Fprintf(out, "[Upload] Uploading %d files to %s...\n", len(files), raw)
	res, err := upload.Publish(ctx, b, files, prefix, logger)
	if err != nil {
		return fmt.Errorf("uploading: %w", err)
	}
	fmt.Fprintf(out, "[Upload] Done: %d uploaded, %d stale removed\n", len(res.Uploaded), len(res.Pruned))
	return nil
}
