package prometheus

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/discochess/partsplit/internal/stats"
)

// gather returns the metric family named name, or nil.
func gather(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestNew_DefaultRegistry(t *testing.T) {
	c := New(nil)
	if c.registry != prometheus.DefaultRegisterer {
		t.Error("registry should default to prometheus.DefaultRegisterer")
	}
}

func TestCollector_IncCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncCounter(stats.MetricLinesWritten, 5)
	c.IncCounter(stats.MetricLinesWritten, 3)

	mf := gather(t, reg, stats.MetricLinesWritten)
	if mf == nil {
		t.Fatalf("%s not registered", stats.MetricLinesWritten)
	}
	if got := mf.GetMetric()[0].GetCounter().GetValue(); got != 8 {
		t.Errorf("counter value = %v, want 8", got)
	}
	if got := mf.GetHelp(); got != stats.Help[stats.MetricLinesWritten] {
		t.Errorf("help = %q, want %q", got, stats.Help[stats.MetricLinesWritten])
	}
}

func TestCollector_SetGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.SetGauge(stats.MetricLastPartCount, 7)
	c.SetGauge(stats.MetricLastPartCount, 4)

	mf := gather(t, reg, stats.MetricLastPartCount)
	if mf == nil {
		t.Fatalf("%s not registered", stats.MetricLastPartCount)
	}
	if got := mf.GetMetric()[0].GetGauge().GetValue(); got != 4 {
		t.Errorf("gauge value = %v, want 4", got)
	}
}

func TestCollector_ObserveHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	for _, v := range []float64{0.01, 0.2, 3} {
		c.ObserveHistogram(stats.MetricSplitSeconds, v)
	}

	mf := gather(t, reg, stats.MetricSplitSeconds)
	if mf == nil {
		t.Fatalf("%s not registered", stats.MetricSplitSeconds)
	}
	h := mf.GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 3 {
		t.Errorf("histogram count = %v, want 3", h.GetSampleCount())
	}
	if len(h.GetBucket()) != len(DurationBuckets) {
		t.Errorf("histogram has %d buckets, want %d", len(h.GetBucket()), len(DurationBuckets))
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncCounter("concurrent_counter", 1)
				c.ObserveHistogram("concurrent_histogram", float64(j))
			}
		}()
	}
	wg.Wait()

	if got := gather(t, reg, "concurrent_counter").GetMetric()[0].GetCounter().GetValue(); got != 1000 {
		t.Errorf("counter value = %v, want 1000", got)
	}
	if got := gather(t, reg, "concurrent_histogram").GetMetric()[0].GetHistogram().GetSampleCount(); got != 1000 {
		t.Errorf("histogram count = %v, want 1000", got)
	}
}

func TestCollector_AlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()

	existing := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "preexisting_counter",
		Help: "preexisting_counter",
	})
	reg.MustRegister(existing)
	existing.Add(100)

	c := New(reg)
	c.IncCounter("preexisting_counter", 5)

	if got := gather(t, reg, "preexisting_counter").GetMetric()[0].GetCounter().GetValue(); got != 105 {
		t.Errorf("counter value = %v, want 105", got)
	}
}
