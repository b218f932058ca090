package main

import (
	"fmt"
	"io"
	"time"

	"github.com/discochess/partsplit"
)

// progressPrinter returns a ProgressFunc printing to w.
func progressPrinter(w io.Writer) partsplit.ProgressFunc {
	return func(p partsplit.Progress) {
		switch p.Phase {
		case partsplit.PhaseCount:
			fmt.Fprintf(w, "\r[Count] %d lines", p.LinesRead)
		case partsplit.PhaseDistribute:
			pct := float64(0)
			if p.LinesTotal > 0 {
				pct = float64(p.LinesRead) / float64(p.LinesTotal) * 100
			}
			fmt.Fprintf(w, "\r[Split] %d / %d lines (%.1f%%), %d parts, %s",
				p.LinesRead, p.LinesTotal, pct, p.PartsWritten, formatBytes(p.BytesWritten))
		case partsplit.PhaseDone:
			fmt.Fprintf(w, "\n[Done] %d lines in %d parts, %s (%s)\n",
				p.LinesTotal, p.PartsWritten, formatBytes(p.BytesWritten),
				formatDuration(time.Since(p.StartTime)))
		}
	}
}

// formatBytes formats bytes as human-readable string.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// formatDuration formats duration as human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
