package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateBacklog(t *testing.T) {
	cp := NewCheckpoint([]string{"vosfinances", "vossous"})
	cp.SetProgress("vosfinances", SourceProgress{Fetched: 1000, WindowIndex: 2})
	cp.SetProgress("vossous", SourceProgress{Fetched: 100, WindowIndex: 0})

	est := EstimateBacklog(cp, []string{"vosfinances", "vossous"}, 4, 500)

	vf := est.Sources["vosfinances"]
	assert.Equal(t, 1000, vf.Fetched)
	assert.Equal(t, 6000, vf.EstimatedTotal)
	assert.Equal(t, 5000, vf.Remaining)
	assert.Equal(t, 10, vf.DaysToComplete)

	vs := est.Sources["vossous"]
	assert.Equal(t, 2400, vs.Remaining)
	assert.Equal(t, 5, vs.DaysToComplete, "partial day rounds up")

	assert.Equal(t, 8500, est.TotalEstimated)
	assert.Equal(t, 7400, est.TotalRemaining)
	assert.Equal(t, 8, est.DaysToComplete, "sources drain in parallel")
}

func TestEstimateBacklog_BackfilledSourceHasNoRemaining(t *testing.T) {
	cp := NewCheckpoint([]string{"vosfinances"})
	cp.SetProgress("vosfinances", SourceProgress{Fetched: 1200, WindowIndex: 4})

	est := EstimateBacklog(cp, []string{"vosfinances"}, 4, 500)

	require.Contains(t, est.Sources, "vosfinances")
	assert.Zero(t, est.Sources["vosfinances"].Remaining)
	assert.Zero(t, est.Sources["vosfinances"].DaysToComplete)
	assert.Zero(t, est.TotalRemaining)
}

func TestEstimateBacklog_UnknownSourceUsesDefault(t *testing.T) {
	cp := NewCheckpoint([]string{"frugalfr"})

	est := EstimateBacklog(cp, []string{"frugalfr"}, 4, 500)

	assert.Equal(t, 10000, est.Sources["frugalfr"].EstimatedTotal)
	assert.Equal(t, 10000, est.Sources["frugalfr"].Remaining)
	assert.Equal(t, 20, est.DaysToComplete)
}

func TestEstimateBacklog_OverfetchedClampsToZero(t *testing.T) {
	cp := NewCheckpoint([]string{"vossous"})
	cp.SetProgress("vossous", SourceProgress{Fetched: 9000, WindowIndex: 1})

	est := EstimateBacklog(cp, []string{"vossous"}, 4, 500)

	assert.Zero(t, est.Sources["vossous"].Remaining)
}
