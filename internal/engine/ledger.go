package engine

import (
	"strconv"
	"time"

	"github.com/plantworks/oee-cli/internal/model"
)

// buildLedger assembles the audit trail: every tracked input with its
// provenance and impact, the resolved thresholds, and the validation
// issues restated as ledger warnings. The ledger never feeds back into
// any computed number.
func buildLedger(in *model.AnalysisInput, thresholds model.ThresholdConfiguration, validation model.ValidationResult) model.AssumptionLedger {
	assumptions := []model.TrackedAssumption{
		durationAssumption("planned_production_time", in.Time.PlannedProductionTime, model.ImpactCritical),
		durationAssumption("ideal_cycle_time", in.Cycle.IdealCycleTime, model.ImpactCritical),
		countAssumption("total_units", in.Production.TotalUnits, model.ImpactCritical),
		countAssumption("good_units", in.Production.GoodUnits, model.ImpactHigh),
		countAssumption("scrap_units", in.Production.ScrapUnits, model.ImpactMedium),
	}
	if in.Cycle.AverageCycleTime != nil {
		assumptions = append(assumptions,
			durationAssumption("average_cycle_time", *in.Cycle.AverageCycleTime, model.ImpactMedium))
	}
	if in.Time.AllTime != nil {
		assumptions = append(assumptions,
			durationAssumption("all_time", *in.Time.AllTime, model.ImpactMedium))
	}
	assumptions = append(assumptions,
		countAssumption("reworked_units", in.Production.ReworkedUnits, model.ImpactLow))

	tracked := []model.TrackedAssumption{
		durationAssumption("micro_stoppage_threshold", thresholds.MicroStoppageThreshold, model.ImpactLow),
		durationAssumption("small_stop_threshold", thresholds.SmallStopThreshold, model.ImpactLow),
		ratioAssumption("speed_loss_threshold", thresholds.SpeedLossThreshold, model.ImpactLow),
		ratioAssumption("high_scrap_rate_threshold", thresholds.HighScrapRateThreshold, model.ImpactLow),
		ratioAssumption("low_utilization_threshold", thresholds.LowUtilizationThreshold, model.ImpactLow),
	}

	warnings := make([]model.LedgerWarning, 0, len(validation.Issues))
	for _, is := range validation.Issues {
		warnings = append(warnings, model.LedgerWarning{
			Code:       is.Code,
			MessageKey: is.MessageKey,
			Params:     is.Params,
			Severity:   severityImpact(is.Severity),
		})
	}

	var stats model.SourceStats
	for _, a := range assumptions {
		switch a.Source {
		case model.SourceExplicit:
			stats.Explicit++
		case model.SourceInferred:
			stats.Inferred++
		default:
			stats.Default++
		}
	}

	return model.AssumptionLedger{
		Assumptions: assumptions,
		Thresholds:  tracked,
		Warnings:    warnings,
		SourceStats: stats,
		Metadata: map[string]string{
			"engine_version":   Version,
			"assumption_count": strconv.Itoa(len(assumptions)),
			"issue_count":      strconv.Itoa(len(validation.Issues)),
			"downtime_records": strconv.Itoa(len(in.Downtime)),
		},
	}
}

// severityImpact maps validation severity onto ledger impact.
func severityImpact(sev model.Severity) model.ImpactLevel {
	switch sev {
	case model.SeverityFatal:
		return model.ImpactHigh
	case model.SeverityWarning:
		return model.ImpactMedium
	default:
		return model.ImpactLow
	}
}

func durationAssumption(name string, v model.Value[time.Duration], impact model.ImpactLevel) model.TrackedAssumption {
	return model.TrackedAssumption{
		Name:   name,
		Value:  v.Get().String(),
		Source: v.Source(),
		Impact: impact,
	}
}

func countAssumption(name string, v model.Value[int64], impact model.ImpactLevel) model.TrackedAssumption {
	return model.TrackedAssumption{
		Name:   name,
		Value:  strconv.FormatInt(v.Get(), 10),
		Source: v.Source(),
		Impact: impact,
	}
}

func ratioAssumption(name string, v model.Value[float64], impact model.ImpactLevel) model.TrackedAssumption {
	return model.TrackedAssumption{
		Name:   name,
		Value:  strconv.FormatFloat(v.Get(), 'g', -1, 64),
		Source: v.Source(),
		Impact: impact,
	}
}
