package partsplit

import (
	"go.uber.org/zap"

	"github.com/discochess/partsplit/internal/stats"
)

// DefaultProgressEvery is how many lines pass between progress reports.
const DefaultProgressEvery = 100000

// Option configures a Splitter.
type Option interface {
	apply(*options)
}

// options holds the splitter configuration.
type options struct {
	outputDir     string
	stats         stats.Collector
	logger        *zap.Logger
	progress      ProgressFunc
	progressEvery int
}

// defaultOptions returns the default configuration.
func defaultOptions() options {
	return options{
		stats:         stats.NewNoop(),
		logger:        zap.NewNop(),
		progressEvery: DefaultProgressEvery,
	}
}

// optionFunc wraps a function to implement Option.
type optionFunc func(*options)

// Compile-time check that optionFunc implements Option.
var _ Option = optionFunc(nil)

func (f optionFunc) apply(o *options) { f(o) }

// WithOutputDir sets the directory parts are written to.
// If not set, parts are written next to the input.
func WithOutputDir(dir string) Option {
	return optionFunc(func(o *options) {
		o.outputDir = dir
	})
}

// WithStats sets the stats collector.
// If not set, a no-op collector is used.
func WithStats(c stats.Collector) Option {
	return optionFunc(func(o *options) {
		if c != nil {
			o.stats = c
		}
	})
}

// WithLogger sets the logger.
// If not set, a no-op logger is used.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		if l != nil {
			o.logger = l
		}
	})
}

// WithProgress sets a callback invoked as the split advances.
func WithProgress(fn ProgressFunc) Option {
	return optionFunc(func(o *options) {
		o.progress = fn
	})
}

// WithProgressEvery sets how many lines pass between progress reports.
// Non-positive values are ignored.
func WithProgressEvery(n int) Option {
	return optionFunc(func(o *options) {
		if n > 0 {
			o.progressEvery = n
		}
	})
}
