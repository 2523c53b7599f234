package engine

import (
	"github.com/plantworks/oee-cli/internal/model"
)

// Validate runs every consistency check against the input and returns the
// issues in check order. It never mutates the input and never stops
// early; callers decide what a fatal issue means for them.
func Validate(in *model.AnalysisInput, thresholds model.ThresholdConfiguration) model.ValidationResult {
	var issues []model.Issue

	planned := in.Time.PlannedProductionTime.Get()
	running := in.Time.RunningTime()
	allocated := in.Time.AllocatedTime()
	stopped := in.Time.StoppedTime()
	ideal := in.Cycle.IdealCycleTime.Get()
	total := in.Production.TotalUnits.Get()
	good := in.Production.GoodUnits.Get()
	scrapUnits := in.Production.ScrapUnits.Get()

	if allocated > planned {
		issues = append(issues, model.Issue{
			Code:       model.CodeAllocationOverflow,
			Severity:   model.SeverityFatal,
			Field:      "time.allocations",
			MessageKey: "allocation_overflow",
			Params: map[string]any{
				"allocated_seconds": allocated.Seconds(),
				"planned_seconds":   planned.Seconds(),
			},
		})
	}

	if good+scrapUnits > total {
		issues = append(issues, model.Issue{
			Code:       model.CodeCountOverflow,
			Severity:   model.SeverityFatal,
			Field:      "production",
			MessageKey: "count_overflow",
			Params: map[string]any{
				"good_units":  good,
				"scrap_units": scrapUnits,
				"total_units": total,
			},
		})
	}

	if ideal <= 0 {
		issues = append(issues, model.Issue{
			Code:       model.CodeNonpositiveCycleTime,
			Severity:   model.SeverityFatal,
			Field:      "cycle.ideal_cycle_time",
			MessageKey: "nonpositive_cycle_time",
			Params: map[string]any{
				"ideal_cycle_seconds": ideal.Seconds(),
			},
		})
	}

	if ideal > 0 {
		maxUnits := theoreticalMaxUnits(running.Seconds(), ideal.Seconds())
		if float64(total) > maxUnits {
			issues = append(issues, model.Issue{
				Code:       model.CodeCapacityExceeded,
				Severity:   model.SeverityFatal,
				Field:      "production.total_units",
				MessageKey: "capacity_exceeded",
				Params: map[string]any{
					"total_units":           total,
					"theoretical_max_units": maxUnits,
				},
			})
		}
	}

	if planned == 0 {
		issues = append(issues, model.Issue{
			Code:       model.CodeZeroPlannedTime,
			Severity:   model.SeverityWarning,
			Field:      "time.planned_production_time",
			MessageKey: "zero_planned_time",
		})
	}

	if avg := in.Cycle.AverageCycleTime; avg != nil && ideal > 0 && avg.Get() < ideal {
		issues = append(issues, model.Issue{
			Code:       model.CodeCycleFasterThanIdeal,
			Severity:   model.SeverityWarning,
			Field:      "cycle.average_cycle_time",
			MessageKey: "cycle_faster_than_ideal",
			Params: map[string]any{
				"average_cycle_seconds": avg.Get().Seconds(),
				"ideal_cycle_seconds":   ideal.Seconds(),
			},
		})
	}

	if recorded := model.TotalDowntime(in.Downtime); recorded > stopped {
		issues = append(issues, model.Issue{
			Code:       model.CodeDowntimeAllocationMismatch,
			Severity:   model.SeverityWarning,
			Field:      "downtime",
			MessageKey: "downtime_allocation_mismatch",
			Params: map[string]any{
				"recorded_seconds": recorded.Seconds(),
				"stopped_seconds":  stopped.Seconds(),
			},
		})
	}

	if total > 0 {
		rate := float64(scrapUnits) / float64(total)
		if rate > thresholds.HighScrapRateThreshold.Get() {
			issues = append(issues, model.Issue{
				Code:       model.CodeHighScrapRate,
				Severity:   model.SeverityWarning,
				Field:      "production.scrap_units",
				MessageKey: "high_scrap_rate",
				Params: map[string]any{
					"scrap_rate": rate,
					"threshold":  thresholds.HighScrapRateThreshold.Get(),
				},
			})
		}
	}

	if planned > 0 {
		utilization := running.Seconds() / planned.Seconds()
		if utilization < thresholds.LowUtilizationThreshold.Get() {
			issues = append(issues, model.Issue{
				Code:       model.CodeLowUtilization,
				Severity:   model.SeverityWarning,
				Field:      "time.allocations",
				MessageKey: "low_utilization",
				Params: map[string]any{
					"utilization": utilization,
					"threshold":   thresholds.LowUtilizationThreshold.Get(),
				},
			})
		}
	}

	if running > 0 && ideal > 0 {
		speedLoss := running.Seconds() - float64(total)*ideal.Seconds()
		if fraction := speedLoss / running.Seconds(); fraction > thresholds.SpeedLossThreshold.Get() {
			issues = append(issues, model.Issue{
				Code:       model.CodeExcessiveSpeedLoss,
				Severity:   model.SeverityWarning,
				Field:      "cycle",
				MessageKey: "excessive_speed_loss",
				Params: map[string]any{
					"speed_loss_seconds":  speedLoss,
					"running_seconds":     running.Seconds(),
					"speed_loss_fraction": fraction,
					"threshold":           thresholds.SpeedLossThreshold.Get(),
				},
			})
		}
	}

	if stopped > 0 && len(in.Downtime) == 0 {
		issues = append(issues, model.Issue{
			Code:       model.CodeMissingDowntimeRecords,
			Severity:   model.SeverityInfo,
			Field:      "downtime",
			MessageKey: "missing_downtime_records",
			Params: map[string]any{
				"stopped_seconds": stopped.Seconds(),
			},
		})
	}

	if total == 0 {
		issues = append(issues, model.Issue{
			Code:       model.CodeZeroProduction,
			Severity:   model.SeverityInfo,
			Field:      "production.total_units",
			MessageKey: "zero_production",
		})
	}

	return model.ValidationResult{Issues: issues}
}
