package models

import "time"

// RunSummary is the ephemeral record of one scheduler invocation, produced
// for observability only and never persisted
type RunSummary struct {
	Date      string
	NewPosts  int            // new items captured this run
	Duplicate int            // skipped because already known
	Errors    int            // enrichment or persistence failures
	Pushed    int            // records appended to the store
	PerSource map[string]int // new items per source
	Duration  time.Duration
	NoOp      bool // true when the re-entrancy guard short-circuited the run
}
