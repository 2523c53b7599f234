package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantworks/oee-cli/internal/engine"
	"github.com/plantworks/oee-cli/internal/fleet"
	"github.com/plantworks/oee-cli/internal/model"
	"github.com/plantworks/oee-cli/internal/scrap"
	"github.com/plantworks/oee-cli/internal/sensitivity"
)

func fixtureInput() *model.AnalysisInput {
	start := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	return &model.AnalysisInput{
		Window:  model.AnalysisWindow{Start: start, End: start.Add(8 * time.Hour)},
		Machine: model.MachineContext{MachineID: "press-7", Line: "L1", Product: "widget", Shift: "day"},
		Time: model.TimeModel{
			PlannedProductionTime: model.Explicit(8 * time.Hour),
			Allocations: []model.TimeAllocation{
				{State: model.StateRunning, Duration: model.Explicit(7 * time.Hour)},
				{State: model.StateStopped, Duration: model.Explicit(time.Hour)},
			},
		},
		Production: model.ProductionSummary{
			TotalUnits:    model.Explicit[int64](12000),
			GoodUnits:     model.Explicit[int64](11800),
			ScrapUnits:    model.Explicit[int64](200),
			ReworkedUnits: model.Explicit[int64](0),
		},
		Cycle: model.CycleTimeModel{IdealCycleTime: model.Explicit(2 * time.Second)},
		Downtime: []model.DowntimeRecord{
			{Duration: 40 * time.Minute, IsFailure: true},
		},
	}
}

func TestFormat_SummaryAndUnits(t *testing.T) {
	t.Parallel()

	result, err := engine.Calculate(fixtureInput())
	require.NoError(t, err)

	out := Format(result)
	assert.Contains(t, out, "# OEE Analysis: press-7")
	assert.Contains(t, out, "Window: 2026-03-02T06:00:00Z to 2026-03-02T14:00:00Z (8h0m0s)")
	assert.Contains(t, out, "Line: L1 | Product: widget | Shift: day")
	assert.Contains(t, out, "(confidence high)")
	assert.Contains(t, out, "- Availability 87.5%")
	assert.Contains(t, out, "- Quality 98.3%")
	assert.Contains(t, out, "Units: 12,000 total / 11,800 good / 200 scrap / 0 reworked")
	assert.NotContains(t, out, "## Economics")
}

func TestFormat_LossTreeIndented(t *testing.T) {
	t.Parallel()

	result, err := engine.Calculate(fixtureInput())
	require.NoError(t, err)

	out := Format(result)
	require.Contains(t, out, "## Loss Tree")
	assert.Contains(t, out, model.LossRoot)
	assert.Contains(t, out, "\n  "+model.LossAvailabilityFamily)
}

func TestFormat_AssumptionsAndSources(t *testing.T) {
	t.Parallel()

	in := fixtureInput()
	in.Production.ScrapUnits = model.Inferred[int64](200)

	result, err := engine.Calculate(in)
	require.NoError(t, err)

	out := Format(result)
	require.Contains(t, out, "## Assumptions")
	assert.Contains(t, out, "(inferred)")
	assert.Regexp(t, `Sources: \d+ explicit / [1-9]\d* inferred / \d+ default`, out)
}

func TestFormat_CriticalAssumptionsFirst(t *testing.T) {
	t.Parallel()

	result, err := engine.Calculate(fixtureInput())
	require.NoError(t, err)

	out := Format(result)
	first := strings.Index(out, "[critical]")
	low := strings.Index(out, "[low]")
	require.GreaterOrEqual(t, first, 0)
	if low >= 0 {
		assert.Less(t, first, low)
	}
}

func TestFormat_EconomicsSection(t *testing.T) {
	t.Parallel()

	params := model.EconomicParams{
		DowntimeCostPerHour: 1200,
		RevenuePerUnit:      3.5,
		ScrapCostPerUnit:    2,
		ReworkCostPerUnit:   1,
		Currency:            "EUR",
	}
	result, err := engine.CalculateWithEconomics(fixtureInput(), params)
	require.NoError(t, err)

	out := Format(result)
	assert.Contains(t, out, "## Economics (EUR)")
	assert.Contains(t, out, "- Downtime cost: 1,200.00")
	assert.Contains(t, out, "- Total loss cost:")
}

func TestFormatSensitivity_ListsParametersInOrder(t *testing.T) {
	t.Parallel()

	rep := &sensitivity.Report{
		Variation:   0.10,
		BaselineOEE: 0.625,
		Results: []sensitivity.Result{
			{Parameter: "planned_time", BaselineOEE: 0.625, VariedOEE: 0.5682, Delta: -0.0568, Impact: sensitivity.ImpactCritical},
			{Parameter: "total_downtime", BaselineOEE: 0.625, VariedOEE: 0.625, Delta: 0, Impact: sensitivity.ImpactLow},
		},
		MostSensitive:  "planned_time",
		LeastSensitive: "total_downtime",
	}

	out := FormatSensitivity(rep)
	assert.Contains(t, out, "Baseline OEE 62.5%, variation 10.0%")
	assert.Contains(t, out, "planned_time")
	assert.Contains(t, out, "delta -0.0568, critical")
	assert.Contains(t, out, "Most sensitive: planned_time")
	assert.Contains(t, out, "Least sensitive: total_downtime")
	assert.Less(t, strings.Index(out, "planned_time"), strings.Index(out, "total_downtime"))
}

func TestFormatFleet_SystemAndBottlenecks(t *testing.T) {
	t.Parallel()

	rep := &fleet.Report{
		Strategy:           fleet.StrategyTimeWeighted,
		MachineCount:       2,
		SystemOEE:          0.58,
		SystemAvailability: 0.82,
		SystemPerformance:  0.79,
		SystemQuality:      0.90,
		SystemConfidence:   model.ConfidenceMedium,
		BestMachine:        "cnc-1",
		WorstMachine:       "cnc-2",
		CapacityUnitsPerHour: 1440,
		Machines: []fleet.MachineSummary{
			{MachineID: "cnc-1", OEE: 0.71, Availability: 0.9, Performance: 0.85, Quality: 0.93, Confidence: model.ConfidenceHigh},
			{MachineID: "cnc-2", OEE: 0.45, Availability: 0.74, Performance: 0.73, Quality: 0.87, Confidence: model.ConfidenceMedium},
		},
		Bottlenecks: []fleet.Bottleneck{
			{MachineID: "cnc-2", OEE: 0.45, WeakestFactor: model.MetricPerformance, RecommendedAction: fleet.ActionAddressSpeedLosses, ThroughputImpact: 93.6},
		},
	}

	out := FormatFleet(rep)
	assert.Contains(t, out, "# Fleet Report (time_weighted, 2 machines)")
	assert.Contains(t, out, "System OEE 58.0% (confidence medium)")
	assert.Contains(t, out, "- Best cnc-1 / Worst cnc-2")
	assert.Contains(t, out, "- Capacity 1,440 units/hour")
	assert.Contains(t, out, "cnc-2")
	assert.Contains(t, out, "weakest performance -> address_speed_losses (impact 93.6 units/hour)")
}

func TestFormatScrap_Sections(t *testing.T) {
	t.Parallel()

	a := &scrap.Analysis{
		Boundary:              time.Date(2026, 3, 2, 6, 30, 0, 0, time.UTC),
		BoundaryStrategy:      scrap.StrategyFixedDuration,
		StartupUnits:          60,
		SteadyUnits:           20,
		StartupPercent:        0.75,
		SteadyPercent:         0.25,
		StartupTimeEquivalent: 25 * time.Minute,
		SteadyTimeEquivalent:  8*time.Minute + 20*time.Second,
		EventsAnalyzed:        5,
	}

	out := FormatScrap(a)
	assert.Contains(t, out, "Boundary: 2026-03-02T06:30:00Z (strategy fixed_duration)")
	assert.Contains(t, out, "- Startup: 60 units (75.0%), time equivalent 25m0s")
	assert.Contains(t, out, "- Steady-state: 20 units (25.0%), time equivalent 8m20s")
	assert.Contains(t, out, "Events analyzed: 5")
}

func TestFormatValidation_IssueLinesSorted(t *testing.T) {
	t.Parallel()

	result := model.ValidationResult{Issues: []model.Issue{
		{
			Code:       model.CodeAllocationOverflow,
			Severity:   model.SeverityFatal,
			Field:      "time.allocations",
			MessageKey: "validation.time.allocation_overflow",
			Params:     map[string]any{"planned": "8h0m0s", "allocated": "9h0m0s"},
		},
	}}

	out := FormatValidation(result)
	assert.Contains(t, out, "[fatal] "+model.CodeAllocationOverflow)
	assert.Contains(t, out, "(time.allocations)")
	// params render in key order regardless of map iteration
	assert.Contains(t, out, "allocated=9h0m0s planned=8h0m0s")
	assert.Contains(t, out, "1 issue(s): 1 fatal, 0 warning(s)")
}

func TestFormatValidation_NoIssues(t *testing.T) {
	t.Parallel()

	out := FormatValidation(model.ValidationResult{})
	assert.Contains(t, out, "No issues found.")
}
