package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/discochess/partsplit/internal/stats"
)

func TestCollector_LogsObservations(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := New(zap.New(core))

	c.IncCounter(stats.MetricPartsWritten, 3)
	c.SetGauge(stats.MetricLastPartCount, 3)
	c.ObserveHistogram(stats.MetricSplitSeconds, 0.25)

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("logged %d entries, want 3", len(entries))
	}

	wantMessages := []string{"counter", "gauge", "histogram"}
	for i, e := range entries {
		if e.Message != wantMessages[i] {
			t.Errorf("entry %d message = %q, want %q", i, e.Message, wantMessages[i])
		}
		if e.Level != zapcore.DebugLevel {
			t.Errorf("entry %d level = %v, want debug", i, e.Level)
		}
	}

	if got := entries[0].ContextMap()["metric"]; got != stats.MetricPartsWritten {
		t.Errorf("metric field = %v, want %q", got, stats.MetricPartsWritten)
	}
}

func TestNewAtLevel_FiltersBelowCoreLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	New(zap.New(core)).IncCounter(stats.MetricSplits, 1)
	if logs.Len() != 0 {
		t.Errorf("debug collector logged %d entries at info core, want 0", logs.Len())
	}

	NewAtLevel(zap.New(core), zapcore.InfoLevel).IncCounter(stats.MetricSplits, 1)
	if logs.Len() != 1 {
		t.Errorf("info collector logged %d entries, want 1", logs.Len())
	}
}

func TestNew_NilLogger(t *testing.T) {
	c := New(nil)
	c.IncCounter(stats.MetricSplits, 1)
}
