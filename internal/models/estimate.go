package models

// Rough one-year post totals per community, used only for progress
// estimates. Sources without an entry get the generous default.
var estimatedYearTotals = map[string]int{
	"vosfinances": 6000,
	"vossous":     2500,
}

const defaultYearTotal = 10000

// SourceEstimate is the backfill outlook for one source
type SourceEstimate struct {
	Fetched        int
	EstimatedTotal int
	Remaining      int
	DaysToComplete int
}

// BacklogEstimate projects how much harvesting remains before every source
// is backfilled, at the configured daily budget
type BacklogEstimate struct {
	TotalEstimated int
	TotalRemaining int
	DaysToComplete int
	Sources        map[string]SourceEstimate
}

// EstimateBacklog computes the backlog outlook from a checkpoint. A source
// past the end of the window schedule counts as done regardless of how many
// posts the estimate says it holds.
func EstimateBacklog(cp *Checkpoint, sources []string, numWindows, dailyBudget int) BacklogEstimate {
	est := BacklogEstimate{Sources: make(map[string]SourceEstimate, len(sources))}

	for _, source := range sources {
		prog := cp.Progress(source)

		total, ok := estimatedYearTotals[source]
		if !ok {
			total = defaultYearTotal
		}

		remaining := total - prog.Fetched
		if remaining < 0 || prog.WindowIndex >= numWindows {
			remaining = 0
		}

		est.Sources[source] = SourceEstimate{
			Fetched:        prog.Fetched,
			EstimatedTotal: total,
			Remaining:      remaining,
			DaysToComplete: ceilDiv(remaining, dailyBudget),
		}
		est.TotalEstimated += total
		est.TotalRemaining += remaining
	}

	// All sources advance in parallel within one run
	est.DaysToComplete = ceilDiv(est.TotalRemaining, dailyBudget*len(sources))

	return est
}

func ceilDiv(n, d int) int {
	if d <= 0 || n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}
