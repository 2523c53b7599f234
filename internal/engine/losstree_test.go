package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantworks/oee-cli/internal/model"
)

func TestBuildLossTree_BaselineFamilies(t *testing.T) {
	t.Parallel()

	res, err := Calculate(baselineInput())
	require.NoError(t, err)
	tree := res.LossTree

	assert.Equal(t, model.LossRoot, tree.Category)
	assert.Equal(t, 8*time.Hour, tree.Duration)
	assert.InDelta(t, 1.0, tree.PercentOfPlanned, 1e-12)
	assert.Nil(t, tree.PercentOfParent)
	require.Len(t, tree.Children, 3)

	avail := tree.Child(model.LossAvailabilityFamily)
	require.NotNil(t, avail)
	assert.Equal(t, 55*time.Minute, avail.Duration)
	assert.Equal(t, 25*time.Minute, avail.Child(model.LossBreakdowns).Duration)
	assert.Equal(t, 15*time.Minute, avail.Child(model.LossSetupChangeover).Duration)
	assert.Equal(t, 3*time.Minute, avail.Child(model.LossSmallStops).Duration)
	assert.Equal(t, 12*time.Minute, avail.Child(model.LossOtherStops).Duration)

	perf := tree.Child(model.LossPerformanceFamily)
	require.NotNil(t, perf)
	assert.Equal(t, 30*time.Second, perf.Child(model.LossMicroStoppages).Duration)
	assert.Equal(t, 5200*time.Second, perf.Child(model.LossSpeedLosses).Duration)
	assert.Equal(t, model.ValueDerived, perf.Child(model.LossSpeedLosses).ValueSource)
	assert.Equal(t, model.ValueMeasured, perf.Child(model.LossMicroStoppages).ValueSource)

	quality := tree.Child(model.LossQualityFamily)
	require.NotNil(t, quality)
	// No temporal analysis supplied, so all 80 scrap units book as
	// production rejects.
	assert.Nil(t, quality.Child(model.LossStartupRejects))
	assert.Equal(t, 80*25*time.Second, quality.Child(model.LossProductionRejects).Duration)
}

func TestBuildLossTree_FamilyDurationEqualsChildSum(t *testing.T) {
	t.Parallel()

	res, err := Calculate(baselineInput())
	require.NoError(t, err)

	for _, fam := range res.LossTree.Children {
		assert.Equal(t, fam.ChildDuration(), fam.Duration, fam.Category)
	}
}

func TestBuildLossTree_RootInvariant(t *testing.T) {
	t.Parallel()

	res, err := Calculate(baselineInput())
	require.NoError(t, err)

	assert.LessOrEqual(t, res.LossTree.ChildDuration(), res.LossTree.Duration)
}

func TestBuildLossTree_ClampsInconsistentDowntime(t *testing.T) {
	t.Parallel()

	// 95 minutes of recorded downtime against a 60 minute plan draws a
	// warning, not a fatal issue; the tree must still keep every
	// percentage inside [0,1].
	start := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	in := &model.AnalysisInput{
		Window: model.AnalysisWindow{Start: start, End: start.Add(time.Hour)},
		Time: model.TimeModel{
			PlannedProductionTime: model.Explicit(time.Hour),
			Allocations: []model.TimeAllocation{
				{State: model.StateStopped, Duration: model.Explicit(time.Hour)},
			},
		},
		Production: model.ProductionSummary{
			TotalUnits: model.Explicit[int64](0),
			GoodUnits:  model.Explicit[int64](0),
			ScrapUnits: model.Explicit[int64](0),
		},
		Cycle: model.CycleTimeModel{IdealCycleTime: model.Explicit(25 * time.Second)},
		Downtime: []model.DowntimeRecord{
			{Duration: 45 * time.Minute, IsFailure: true},
			{Duration: 50 * time.Minute},
		},
	}

	res, err := Calculate(in)
	require.NoError(t, err)

	var sum time.Duration
	for _, fam := range res.LossTree.Children {
		sum += fam.Duration
	}
	assert.LessOrEqual(t, sum, time.Hour)

	avail := res.LossTree.Child(model.LossAvailabilityFamily)
	require.NotNil(t, avail)
	assert.LessOrEqual(t, avail.Duration, time.Hour)
	// Children keep their 45:50 proportion after scaling.
	breakdowns := avail.Child(model.LossBreakdowns)
	other := avail.Child(model.LossOtherStops)
	require.NotNil(t, breakdowns)
	require.NotNil(t, other)
	assert.InDelta(t, 45.0/50.0, float64(breakdowns.Duration)/float64(other.Duration), 1e-6)

	res.LossTree.Walk(func(n *model.LossTreeNode, _ int) {
		assert.GreaterOrEqual(t, n.PercentOfPlanned, 0.0, n.Category)
		assert.LessOrEqual(t, n.PercentOfPlanned, 1.0, n.Category)
		if n.PercentOfParent != nil {
			assert.GreaterOrEqual(t, *n.PercentOfParent, 0.0, n.Category)
			assert.LessOrEqual(t, *n.PercentOfParent, 1.0, n.Category)
		}
	})
}

func TestBuildLossTree_ZeroPlannedAllZeroPercentages(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	in := &model.AnalysisInput{
		Window: model.AnalysisWindow{Start: start, End: start},
		Time: model.TimeModel{
			PlannedProductionTime: model.Explicit(time.Duration(0)),
		},
		Production: model.ProductionSummary{
			TotalUnits: model.Explicit[int64](0),
			GoodUnits:  model.Explicit[int64](0),
			ScrapUnits: model.Explicit[int64](0),
		},
		Cycle: model.CycleTimeModel{IdealCycleTime: model.Explicit(25 * time.Second)},
	}

	res, err := Calculate(in)
	require.NoError(t, err)

	res.LossTree.Walk(func(n *model.LossTreeNode, _ int) {
		assert.Zero(t, n.PercentOfPlanned, n.Category)
	})
	assert.Zero(t, res.LossTree.Duration)
}

func TestBuildLossTree_MicroVersusSmallThresholds(t *testing.T) {
	t.Parallel()

	in := baselineInput()
	// 59s sits under the micro threshold, 60s exactly on it, 299s just
	// under the small-stop bound, 300s exactly on it.
	in.Downtime = []model.DowntimeRecord{
		{Duration: 59 * time.Second},
		{Duration: 60 * time.Second},
		{Duration: 299 * time.Second},
		{Duration: 300 * time.Second},
	}

	res, err := Calculate(in)
	require.NoError(t, err)

	perf := res.LossTree.Child(model.LossPerformanceFamily)
	avail := res.LossTree.Child(model.LossAvailabilityFamily)
	require.NotNil(t, perf)
	require.NotNil(t, avail)

	assert.Equal(t, 59*time.Second, perf.Child(model.LossMicroStoppages).Duration)
	assert.Equal(t, (60+299)*time.Second, avail.Child(model.LossSmallStops).Duration)
	assert.Equal(t, 300*time.Second, avail.Child(model.LossOtherStops).Duration)
	assert.Nil(t, avail.Child(model.LossBreakdowns))
}
