package models

import "time"

// SourceProgress tracks how far one source's backfill has advanced
type SourceProgress struct {
	Fetched     int `json:"fetched"`      // items captured all-time
	WindowIndex int `json:"window_index"` // index into the window schedule
}

// Checkpoint is the durable per-source resume marker. It is loaded once at
// the start of a run and written back exactly once after a clean run, so a
// mid-run crash resumes from the previous run's boundary.
type Checkpoint struct {
	LastRun      string                    `json:"last_run"` // YYYY-MM-DD, empty when never run
	TotalFetched int                       `json:"total_fetched"`
	Sources      map[string]SourceProgress `json:"source_progress"`
}

// NewCheckpoint creates a fresh checkpoint with every source at window 0
func NewCheckpoint(sources []string) *Checkpoint {
	progress := make(map[string]SourceProgress, len(sources))
	for _, s := range sources {
		progress[s] = SourceProgress{}
	}
	return &Checkpoint{Sources: progress}
}

// Progress returns the recorded progress for a source, zero-valued when the
// source has never been seen (e.g. newly added to the configuration)
func (c *Checkpoint) Progress(source string) SourceProgress {
	if c.Sources == nil {
		return SourceProgress{}
	}
	return c.Sources[source]
}

// SetProgress records progress for a source
func (c *Checkpoint) SetProgress(source string, p SourceProgress) {
	if c.Sources == nil {
		c.Sources = make(map[string]SourceProgress)
	}
	c.Sources[source] = p
}

// Backfilled reports whether a source has drained the whole window schedule
func (c *Checkpoint) Backfilled(source string, numWindows int) bool {
	return c.Progress(source).WindowIndex >= numWindows
}

// RanOn reports whether the checkpoint records a successful run on the given
// date; the orchestrator uses this as its re-entrancy guard
func (c *Checkpoint) RanOn(date string) bool {
	return c.LastRun == date
}

// RunDate formats a time the way checkpoints record run dates
func RunDate(t time.Time) string {
	return t.Format("2006-01-02")
}
