// Package stats provides a unified interface for collecting split metrics.
package stats

// Metric names used throughout the module.
const (
	// Splitter metrics.
	MetricSplits        = "partsplit_splits_total"
	MetricSplitFailures = "partsplit_split_failures_total"
	MetricLinesCounted  = "partsplit_lines_counted_total"
	MetricLinesWritten  = "partsplit_lines_written_total"
	MetricPartsWritten  = "partsplit_parts_written_total"
	MetricBytesWritten  = "partsplit_bytes_written_total"
	MetricSplitSeconds  = "partsplit_split_duration_seconds"
	MetricLastPartCount = "partsplit_last_part_count"

	// Source cache metrics.
	MetricSourceCacheHits   = "partsplit_source_cache_hits_total"
	MetricSourceCacheMisses = "partsplit_source_cache_misses_total"
)

// Help describes each metric for exporters that carry help text.
var Help = map[string]string{
	MetricSplits:            "Split operations started.",
	MetricSplitFailures:     "Split operations that returned an error.",
	MetricLinesCounted:      "Lines seen during the counting pass.",
	MetricLinesWritten:      "Lines distributed into part files.",
	MetricPartsWritten:      "Part files produced.",
	MetricBytesWritten:      "Bytes written to part files, including line terminators.",
	MetricSplitSeconds:      "Wall time of successful split operations.",
	MetricLastPartCount:     "Number of parts produced by the most recent split.",
	MetricSourceCacheHits:   "Source opens served from a body spooled by the previous open.",
	MetricSourceCacheMisses: "Source opens that fetched the body from the backing source.",
}

// Collector defines the interface for collecting metrics.
type Collector interface {
	// IncCounter increments a counter metric by delta.
	IncCounter(name string, delta int64)

	// SetGauge sets a gauge metric to value.
	SetGauge(name string, value int64)

	// ObserveHistogram records a value in a histogram metric.
	ObserveHistogram(name string, value float64)
}
