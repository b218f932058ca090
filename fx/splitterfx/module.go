// Package splitterfx provides an fx module that builds file splitters.
package splitterfx

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/discochess/partsplit"
	"github.com/discochess/partsplit/internal/source/cachedsource"
	"github.com/discochess/partsplit/internal/stats"
	"github.com/discochess/partsplit/internal/stats/logger"
)

// Config holds configuration for the splitters built by the Factory.
type Config struct {
	// OutputDir is the directory parts are written to.
	// Default is the directory of each input.
	OutputDir string

	// CacheSize is the number of remote source bodies kept in memory.
	// Default is 4.
	CacheSize int

	// ProgressEvery is how many lines pass between progress log entries.
	// Default is partsplit.DefaultProgressEvery.
	ProgressEvery int
}

// Module provides a *Factory.
// Requires a Config and a *zap.Logger to be provided.
var Module = fx.Module("splitter",
	fx.Provide(
		newStatsCollector,
		newFactory,
	),
)

func newStatsCollector(log *zap.Logger) stats.Collector {
	return logger.New(log.Named("partsplit.stats"))
}

// Params holds dependencies for creating the factory.
type Params struct {
	fx.In

	Config    Config
	Logger    *zap.Logger
	Collector stats.Collector
	Lifecycle fx.Lifecycle
}

// Result holds the provided factory.
type Result struct {
	fx.Out

	Factory *Factory
}

// Factory creates Splitters sharing one logger, stats collector and source
// cache.
type Factory struct {
	config    Config
	logger    *zap.Logger
	collector stats.Collector
	cache     *cachedsource.Cache
}

func newFactory(p Params) (Result, error) {
	cacheSize := p.Config.CacheSize
	if cacheSize <= 0 {
		cacheSize = 4
	}

	cache, err := cachedsource.NewCache(cacheSize, "", p.Collector)
	if err != nil {
		return Result{}, err
	}

	f := &Factory{
		config:    p.Config,
		logger:    p.Logger.Named("partsplit"),
		collector: p.Collector,
		cache:     cache,
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			s := cache.Stats()
			f.logger.Info("source cache",
				zap.Int64("hits", s.Hits),
				zap.Int64("misses", s.Misses),
				zap.Float64("hitRate", s.HitRate()),
			)
			return cache.Close()
		},
	})

	return Result{Factory: f}, nil
}

// New creates a Splitter driven by policy.
func (f *Factory) New(policy partsplit.Policy, opts ...partsplit.Option) (*partsplit.Splitter, error) {
	return partsplit.New(policy, append(f.options(), opts...)...)
}

// NewFromFile creates a Splitter with the default policy over a local file.
func (f *Factory) NewFromFile(path string, opts ...partsplit.PolicyOption) (*partsplit.Splitter, error) {
	return f.New(partsplit.NewDefaultPolicy(partsplit.FileSource(path), opts...))
}

// NewCached creates a Splitter with the default policy over src, whose body
// is spooled to disk by the counting pass and read back by the distributing
// pass of the same split.
func (f *Factory) NewCached(src partsplit.LineSource, opts ...partsplit.PolicyOption) (*partsplit.Splitter, error) {
	return f.New(partsplit.NewDefaultPolicy(cachedsource.New(src, f.cache), opts...))
}

// CacheStats returns statistics of the shared source cache.
func (f *Factory) CacheStats() cachedsource.Stats {
	return f.cache.Stats()
}

func (f *Factory) options() []partsplit.Option {
	opts := []partsplit.Option{
		partsplit.WithOutputDir(f.config.OutputDir),
		partsplit.WithLogger(f.logger),
		partsplit.WithStats(f.collector),
	}
	if f.config.ProgressEvery > 0 {
		opts = append(opts,
			partsplit.WithProgressEvery(f.config.ProgressEvery),
			partsplit.WithProgress(f.logProgress),
		)
	}
	return opts
}

func (f *Factory) logProgress(p partsplit.Progress) {
	f.logger.Debug("progress",
		zap.String("phase", p.Phase),
		zap.Int("linesRead", p.LinesRead),
		zap.Int("linesTotal", p.LinesTotal),
		zap.Int("partsWritten", p.PartsWritten),
	)
}
