// Package engine computes equipment-effectiveness analytics from a single
// machine observation window. It is a pure transformation: one immutable
// input in, one immutable result out, no I/O and no cross-call state.
package engine

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/plantworks/oee-cli/internal/model"
	"github.com/plantworks/oee-cli/internal/scrap"
)

// Version identifies the calculation semantics recorded in every ledger.
const Version = "1.0.0"

// Option adjusts a single calculation call.
type Option func(*options)

type options struct {
	scrapAnalysis *scrap.Analysis
}

// WithScrapAnalysis supplies a temporal scrap analysis so the quality
// branch of the loss tree can split rejects into startup and production
// phases.
func WithScrapAnalysis(a *scrap.Analysis) Option {
	return func(o *options) {
		o.scrapAnalysis = a
	}
}

// Calculate runs the validation pipeline and, when no fatal issue is
// found, computes core metrics, extended metrics, the loss tree and the
// assumption ledger. Fatal issues abort with a *ValidationError carrying
// every issue the pipeline found.
func Calculate(in *model.AnalysisInput, opts ...Option) (*model.EngineResult, error) {
	return calculate(in, nil, opts)
}

// CalculateWithEconomics is Calculate plus a priced loss breakdown.
func CalculateWithEconomics(in *model.AnalysisInput, params model.EconomicParams, opts ...Option) (*model.EngineResult, error) {
	return calculate(in, &params, opts)
}

func calculate(in *model.AnalysisInput, econ *model.EconomicParams, opts []Option) (*model.EngineResult, error) {
	if in == nil {
		return nil, eris.New("engine: nil analysis input")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	thresholds := resolveThresholds(in.Thresholds)
	validation := Validate(in, thresholds)
	if validation.HasFatal() {
		zap.L().Warn("engine: aborting on fatal validation issues",
			zap.String("machine_id", in.Machine.MachineID),
			zap.Int("fatal", len(validation.Fatal())),
			zap.Int("total_issues", len(validation.Issues)))
		return nil, &ValidationError{Result: validation}
	}

	totals := snapshotTotals(in)
	core := computeCore(in, totals)
	extended := computeExtended(in, core, totals)
	tree := buildLossTree(in, thresholds, totals, o.scrapAnalysis)
	ledger := buildLedger(in, thresholds, validation)

	res := &model.EngineResult{
		Machine:    in.Machine,
		Window:     in.Window,
		Core:       core,
		Extended:   extended,
		LossTree:   tree,
		Ledger:     ledger,
		Validation: validation,
		Totals:     totals,
	}
	if econ != nil {
		ea := computeEconomics(tree, totals, *econ)
		res.Economics = &ea
	}

	zap.L().Debug("engine: calculation complete",
		zap.String("machine_id", in.Machine.MachineID),
		zap.Float64("oee", core.OEE.Value),
		zap.String("confidence", string(core.OEE.Confidence)),
		zap.Int("warnings", len(validation.Warnings())))
	return res, nil
}

// ComputeCore derives the core metrics without running validation. The
// sensitivity analyzer recomputes perturbed clones through this path;
// everything else goes through Calculate. Performance stays unclamped
// here, so inputs beating the design cycle report above 1.0.
func ComputeCore(in *model.AnalysisInput) model.CoreMetrics {
	return computeCore(in, snapshotTotals(in))
}

// resolveThresholds fills unset threshold fields with the built-in
// defaults, preserving the provenance of anything the caller supplied.
func resolveThresholds(cfg *model.ThresholdConfiguration) model.ThresholdConfiguration {
	out := model.DefaultThresholds()
	if cfg == nil {
		return out
	}
	if cfg.MicroStoppageThreshold.Source() != "" {
		out.MicroStoppageThreshold = cfg.MicroStoppageThreshold
	}
	if cfg.SmallStopThreshold.Source() != "" {
		out.SmallStopThreshold = cfg.SmallStopThreshold
	}
	if cfg.SpeedLossThreshold.Source() != "" {
		out.SpeedLossThreshold = cfg.SpeedLossThreshold
	}
	if cfg.HighScrapRateThreshold.Source() != "" {
		out.HighScrapRateThreshold = cfg.HighScrapRateThreshold
	}
	if cfg.LowUtilizationThreshold.Source() != "" {
		out.LowUtilizationThreshold = cfg.LowUtilizationThreshold
	}
	return out
}

// snapshotTotals flattens the input quantities every downstream stage
// shares, so they are derived exactly once.
func snapshotTotals(in *model.AnalysisInput) model.Totals {
	t := model.Totals{
		PlannedSeconds:    in.Time.PlannedProductionTime.Get().Seconds(),
		RunningSeconds:    in.Time.RunningTime().Seconds(),
		IdealCycleSeconds: in.Cycle.IdealCycleTime.Get().Seconds(),
		TotalUnits:        in.Production.TotalUnits.Get(),
		GoodUnits:         in.Production.GoodUnits.Get(),
		ScrapUnits:        in.Production.ScrapUnits.Get(),
		ReworkedUnits:     in.Production.ReworkedUnits.Get(),
	}
	if in.Time.AllTime != nil {
		t.AllSeconds = in.Time.AllTime.Get().Seconds()
	}
	return t
}

// theoreticalMaxUnits is the capacity implied by running time at the
// design cycle, zero when the cycle time is unusable.
func theoreticalMaxUnits(runningSeconds, idealCycleSeconds float64) float64 {
	if idealCycleSeconds <= 0 {
		return 0
	}
	return runningSeconds / idealCycleSeconds
}

// scaleDuration multiplies a duration by a ratio, used when a loss family
// has to be shrunk to fit inside planned time.
func scaleDuration(d time.Duration, ratio float64) time.Duration {
	return time.Duration(float64(d) * ratio)
}
