package engine

import (
	"github.com/plantworks/oee-cli/internal/model"
)

// Core metric formulas, recorded verbatim on every MetricValue.
const (
	formulaAvailability = "running_time / planned_production_time"
	formulaPerformance  = "(total_units * ideal_cycle_time) / running_time"
	formulaQuality      = "good_units / total_units"
	formulaOEE          = "availability * performance * quality"
)

// computeCore derives the three OEE factors and their product. Division
// by zero is resolved by fixed conventions: zero planned time yields zero
// availability, zero running time yields zero performance, and zero total
// units yields perfect quality. Performance is deliberately unclamped; a
// machine beating its design cycle reports > 1.0.
func computeCore(in *model.AnalysisInput, totals model.Totals) model.CoreMetrics {
	availability := model.MetricValue{
		Key:        model.MetricAvailability,
		Unit:       model.UnitRatio,
		Formula:    formulaAvailability,
		Confidence: model.ConfidenceFromSources(availabilitySources(in)...),
		FormulaParams: map[string]float64{
			"running_seconds": totals.RunningSeconds,
			"planned_seconds": totals.PlannedSeconds,
		},
	}
	if totals.PlannedSeconds > 0 {
		availability.Value = totals.RunningSeconds / totals.PlannedSeconds
	}

	performance := model.MetricValue{
		Key:        model.MetricPerformance,
		Unit:       model.UnitRatio,
		Formula:    formulaPerformance,
		Confidence: model.ConfidenceFromSources(performanceSources(in)...),
		FormulaParams: map[string]float64{
			"total_units":           float64(totals.TotalUnits),
			"ideal_cycle_seconds":   totals.IdealCycleSeconds,
			"running_seconds":       totals.RunningSeconds,
			"theoretical_max_units": theoreticalMaxUnits(totals.RunningSeconds, totals.IdealCycleSeconds),
		},
	}
	if totals.RunningSeconds > 0 {
		performance.Value = (float64(totals.TotalUnits) * totals.IdealCycleSeconds) / totals.RunningSeconds
	}

	quality := model.MetricValue{
		Key:        model.MetricQuality,
		Unit:       model.UnitRatio,
		Formula:    formulaQuality,
		Confidence: model.ConfidenceFromSources(qualitySources(in)...),
		FormulaParams: map[string]float64{
			"good_units":  float64(totals.GoodUnits),
			"total_units": float64(totals.TotalUnits),
		},
	}
	if totals.TotalUnits == 0 {
		quality.Value = 1.0
	} else {
		quality.Value = float64(totals.GoodUnits) / float64(totals.TotalUnits)
	}

	// OEE must equal the literal float product of the three stored
	// factors, not a re-derivation from raw inputs.
	oee := model.MetricValue{
		Key:        model.MetricOEE,
		Value:      availability.Value * performance.Value * quality.Value,
		Unit:       model.UnitRatio,
		Formula:    formulaOEE,
		Confidence: model.Weakest(availability.Confidence, performance.Confidence, quality.Confidence),
		FormulaParams: map[string]float64{
			"availability": availability.Value,
			"performance":  performance.Value,
			"quality":      quality.Value,
		},
	}

	return model.CoreMetrics{
		Availability: availability,
		Performance:  performance,
		Quality:      quality,
		OEE:          oee,
	}
}

// runningSources collects the provenance of every running allocation.
func runningSources(in *model.AnalysisInput) []model.Source {
	var out []model.Source
	for _, a := range in.Time.Allocations {
		if a.State == model.StateRunning {
			out = append(out, a.Duration.Source())
		}
	}
	return out
}

func availabilitySources(in *model.AnalysisInput) []model.Source {
	return append([]model.Source{in.Time.PlannedProductionTime.Source()}, runningSources(in)...)
}

func performanceSources(in *model.AnalysisInput) []model.Source {
	srcs := []model.Source{
		in.Production.TotalUnits.Source(),
		in.Cycle.IdealCycleTime.Source(),
	}
	return append(srcs, runningSources(in)...)
}

func qualitySources(in *model.AnalysisInput) []model.Source {
	return []model.Source{
		in.Production.GoodUnits.Source(),
		in.Production.TotalUnits.Source(),
	}
}
