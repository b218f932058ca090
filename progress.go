package partsplit

import "time"

// Progress phases.
const (
	PhaseCount      = "count"
	PhaseDistribute = "distribute"
	PhaseDone       = "done"
)

// Progress tracks split progress.
type Progress struct {
	Phase        string
	LinesRead    int
	LinesTotal   int // Known once counting is over.
	PartsWritten int
	PartsTotal   int
	BytesWritten int64
	StartTime    time.Time
}

// ProgressFunc is called periodically with progress updates.
type ProgressFunc func(Progress)
