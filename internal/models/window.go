package models

// Window is a named, bounded time range used to scope a retrieval pass.
// The schedule is ordered from most recent to least recent and is shared by
// all sources; backfill drains it front to back.
type Window struct {
	Filter string // origin time-filter value: day, week, month, year
	Label  string // human-readable name for logs and status output
}

// SortMode selects how the origin ranks results within a window
type SortMode string

const (
	// SortTop retrieves the highest-scored posts of the window
	SortTop SortMode = "top"
	// SortNew retrieves the freshest posts; these have not had time to
	// accumulate votes, so walkers pair this mode with a lower score floor
	SortNew SortMode = "new"
)

// DefaultWindows returns the standard backfill schedule, coarsest and most
// recent first
func DefaultWindows() []Window {
	return []Window{
		{Filter: "day", Label: "Last 24 hours"},
		{Filter: "week", Label: "Last week"},
		{Filter: "month", Label: "Last month"},
		{Filter: "year", Label: "Last year"},
	}
}
