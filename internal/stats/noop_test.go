package stats

import "testing"

type recorder struct {
	counters map[string]int64
	gauges   map[string]int64
	observed []float64
}

func newRecorder() *recorder {
	return &recorder{counters: map[string]int64{}, gauges: map[string]int64{}}
}

func (r *recorder) IncCounter(name string, delta int64)         { r.counters[name] += delta }
func (r *recorder) SetGauge(name string, value int64)           { r.gauges[name] = value }
func (r *recorder) ObserveHistogram(name string, value float64) { r.observed = append(r.observed, value) }

func TestTee(t *testing.T) {
	a, b := newRecorder(), newRecorder()
	tee := Tee{a, NewNoop(), b}

	tee.IncCounter(MetricLinesWritten, 2)
	tee.IncCounter(MetricLinesWritten, 3)
	tee.SetGauge(MetricLastPartCount, 4)
	tee.ObserveHistogram(MetricSplitSeconds, 1.5)

	for i, r := range []*recorder{a, b} {
		if got := r.counters[MetricLinesWritten]; got != 5 {
			t.Errorf("collector %d counter = %d, want 5", i, got)
		}
		if got := r.gauges[MetricLastPartCount]; got != 4 {
			t.Errorf("collector %d gauge = %d, want 4", i, got)
		}
		if len(r.observed) != 1 || r.observed[0] != 1.5 {
			t.Errorf("collector %d observed = %v, want [1.5]", i, r.observed)
		}
	}
}

func TestHelp_CoversMetrics(t *testing.T) {
	for _, name := range []string{
		MetricSplits, MetricSplitFailures, MetricLinesCounted, MetricLinesWritten,
		MetricPartsWritten, MetricBytesWritten, MetricSplitSeconds, MetricLastPartCount,
		MetricSourceCacheHits, MetricSourceCacheMisses,
	} {
		if Help[name] == "" {
			t.Errorf("Help[%q] is empty", name)
		}
	}
}
