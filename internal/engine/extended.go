package engine

import (
	"github.com/plantworks/oee-cli/internal/model"
)

type utilizationCalculator struct{}

func (utilizationCalculator) Key() string { return model.MetricUtilization }

// Compute reports running time against planned time. Numerically the
// same ratio as availability, tracked separately because capacity
// planning consumes it independently of the OEE product.
func (utilizationCalculator) Compute(in *model.AnalysisInput, _ model.CoreMetrics, totals model.Totals) *model.MetricValue {
	mv := &model.MetricValue{
		Key:        model.MetricUtilization,
		Unit:       model.UnitRatio,
		Formula:    "running_time / planned_production_time",
		Confidence: model.ConfidenceFromSources(availabilitySources(in)...),
		FormulaParams: map[string]float64{
			"running_seconds": totals.RunningSeconds,
			"planned_seconds": totals.PlannedSeconds,
		},
	}
	if totals.PlannedSeconds > 0 {
		mv.Value = totals.RunningSeconds / totals.PlannedSeconds
	}
	return mv
}

type teepCalculator struct{}

func (teepCalculator) Key() string { return model.MetricTEEP }

// Compute folds calendar time into effectiveness. Undefined without an
// all-time figure.
func (teepCalculator) Compute(in *model.AnalysisInput, core model.CoreMetrics, totals model.Totals) *model.MetricValue {
	if in.Time.AllTime == nil {
		return nil
	}
	var loading float64
	if totals.AllSeconds > 0 {
		loading = totals.RunningSeconds / totals.AllSeconds
	}
	return &model.MetricValue{
		Key:     model.MetricTEEP,
		Value:   loading * core.Performance.Value * core.Quality.Value,
		Unit:    model.UnitRatio,
		Formula: "loading_factor * performance * quality",
		Confidence: model.Weakest(
			core.Performance.Confidence,
			core.Quality.Confidence,
			model.ConfidenceFromSources(in.Time.AllTime.Source()),
		),
		FormulaParams: map[string]float64{
			"loading_factor":  loading,
			"running_seconds": totals.RunningSeconds,
			"all_seconds":     totals.AllSeconds,
			"performance":     core.Performance.Value,
			"quality":         core.Quality.Value,
		},
	}
}

type mtbfCalculator struct{}

func (mtbfCalculator) Key() string { return model.MetricMTBF }

// Compute reports mean running hours between failures. Undefined with no
// failure-flagged downtime; zero failures is not infinite reliability,
// it is no evidence.
func (mtbfCalculator) Compute(in *model.AnalysisInput, _ model.CoreMetrics, totals model.Totals) *model.MetricValue {
	failures := model.FailureCount(in.Downtime)
	if failures == 0 {
		return nil
	}
	runningHours := totals.RunningSeconds / 3600
	return &model.MetricValue{
		Key:        model.MetricMTBF,
		Value:      runningHours / float64(failures),
		Unit:       model.UnitHours,
		Formula:    "running_time / failure_count",
		Confidence: model.ConfidenceFromSources(runningSources(in)...),
		FormulaParams: map[string]float64{
			"running_hours": runningHours,
			"failure_count": float64(failures),
		},
	}
}

type mttrCalculator struct{}

func (mttrCalculator) Key() string { return model.MetricMTTR }

// Compute reports mean repair hours per failure.
func (mttrCalculator) Compute(in *model.AnalysisInput, _ model.CoreMetrics, _ model.Totals) *model.MetricValue {
	failures := model.FailureCount(in.Downtime)
	if failures == 0 {
		return nil
	}
	failureHours := model.FailureDowntime(in.Downtime).Hours()
	return &model.MetricValue{
		Key:        model.MetricMTTR,
		Value:      failureHours / float64(failures),
		Unit:       model.UnitHours,
		Formula:    "failure_downtime / failure_count",
		Confidence: model.ConfidenceHigh,
		FormulaParams: map[string]float64{
			"failure_downtime_hours": failureHours,
			"failure_count":          float64(failures),
		},
	}
}

type scrapRateCalculator struct{}

func (scrapRateCalculator) Key() string { return model.MetricScrapRate }

func (scrapRateCalculator) Compute(in *model.AnalysisInput, _ model.CoreMetrics, totals model.Totals) *model.MetricValue {
	mv := &model.MetricValue{
		Key:     model.MetricScrapRate,
		Unit:    model.UnitRatio,
		Formula: "scrap_units / total_units",
		Confidence: model.ConfidenceFromSources(
			in.Production.ScrapUnits.Source(),
			in.Production.TotalUnits.Source(),
		),
		FormulaParams: map[string]float64{
			"scrap_units": float64(totals.ScrapUnits),
			"total_units": float64(totals.TotalUnits),
		},
	}
	if totals.TotalUnits > 0 {
		mv.Value = float64(totals.ScrapUnits) / float64(totals.TotalUnits)
	}
	return mv
}

type reworkRateCalculator struct{}

func (reworkRateCalculator) Key() string { return model.MetricReworkRate }

func (reworkRateCalculator) Compute(in *model.AnalysisInput, _ model.CoreMetrics, totals model.Totals) *model.MetricValue {
	mv := &model.MetricValue{
		Key:     model.MetricReworkRate,
		Unit:    model.UnitRatio,
		Formula: "reworked_units / total_units",
		Confidence: model.ConfidenceFromSources(
			in.Production.ReworkedUnits.Source(),
			in.Production.TotalUnits.Source(),
		),
		FormulaParams: map[string]float64{
			"reworked_units": float64(totals.ReworkedUnits),
			"total_units":    float64(totals.TotalUnits),
		},
	}
	if totals.TotalUnits > 0 {
		mv.Value = float64(totals.ReworkedUnits) / float64(totals.TotalUnits)
	}
	return mv
}
