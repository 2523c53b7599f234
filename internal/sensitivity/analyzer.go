// Package sensitivity ranks how hard each input parameter moves OEE by
// perturbing cloned inputs one parameter at a time and recomputing the
// core metrics.
package sensitivity

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/plantworks/oee-cli/internal/engine"
	"github.com/plantworks/oee-cli/internal/model"
)

// Perturbed parameters, in the canonical report order.
const (
	ParamPlannedTime    = "planned_time"
	ParamTotalDowntime  = "total_downtime"
	ParamIdealCycleTime = "ideal_cycle_time"
	ParamTotalUnits     = "total_units"
	ParamGoodUnits      = "good_units"
	ParamScrapUnits     = "scrap_units"
)

var parameterOrder = []string{
	ParamPlannedTime,
	ParamTotalDowntime,
	ParamIdealCycleTime,
	ParamTotalUnits,
	ParamGoodUnits,
	ParamScrapUnits,
}

// DefaultVariation is the perturbation fraction applied when the caller
// does not choose one.
const DefaultVariation = 0.10

// Impact classifies the OEE delta a perturbation produced.
type Impact string

const (
	ImpactCritical Impact = "critical"
	ImpactHigh     Impact = "high"
	ImpactMedium   Impact = "medium"
	ImpactLow      Impact = "low"
)

// classifyImpact buckets an OEE delta by magnitude: five points of OEE is
// critical, two high, half a point medium.
func classifyImpact(delta float64) Impact {
	switch abs := math.Abs(delta); {
	case abs > 0.05:
		return ImpactCritical
	case abs > 0.02:
		return ImpactHigh
	case abs > 0.005:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

// Result is the outcome of one perturbation.
type Result struct {
	Parameter         string  `json:"parameter"`
	Variation         float64 `json:"variation"`
	BaselineOEE       float64 `json:"baseline_oee"`
	VariedOEE         float64 `json:"varied_oee"`
	Delta             float64 `json:"delta"`
	DeltaAvailability float64 `json:"delta_availability"`
	DeltaPerformance  float64 `json:"delta_performance"`
	DeltaQuality      float64 `json:"delta_quality"`
	Impact            Impact  `json:"impact"`
}

// Report carries every perturbation result in canonical parameter order.
type Report struct {
	Variation      float64  `json:"variation"`
	BaselineOEE    float64  `json:"baseline_oee"`
	Results        []Result `json:"results"`
	MostSensitive  string   `json:"most_sensitive"`
	LeastSensitive string   `json:"least_sensitive"`
}

// Analyzer perturbs inputs by a fixed fraction.
type Analyzer struct {
	variation float64
}

// NewAnalyzer builds an analyzer; non-positive variations fall back to
// the default.
func NewAnalyzer(variation float64) *Analyzer {
	if variation <= 0 {
		variation = DefaultVariation
	}
	return &Analyzer{variation: variation}
}

// Analyze validates the baseline through the engine, then runs the six
// perturbations in parallel. Every perturbation works on its own clone;
// the baseline input is never touched. Results land in index-addressed
// slots, so the report order is stable regardless of scheduling.
func (a *Analyzer) Analyze(ctx context.Context, in *model.AnalysisInput) (*Report, error) {
	baseline, err := engine.Calculate(in)
	if err != nil {
		return nil, eris.Wrap(err, "sensitivity: baseline calculation")
	}

	results := make([]Result, len(parameterOrder))
	g, _ := errgroup.WithContext(ctx)
	for i, param := range parameterOrder {
		g.Go(func() error {
			clone := in.Clone()
			a.perturb(clone, param)
			varied := engine.ComputeCore(clone)
			results[i] = a.buildResult(param, baseline.Core, varied)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "sensitivity: perturbation run")
	}

	report := &Report{
		Variation:   a.variation,
		BaselineOEE: baseline.Core.OEE.Value,
		Results:     results,
	}
	report.MostSensitive, report.LeastSensitive = rank(results)

	zap.L().Debug("sensitivity: analysis complete",
		zap.String("machine_id", in.Machine.MachineID),
		zap.Float64("variation", a.variation),
		zap.String("most_sensitive", report.MostSensitive),
		zap.String("least_sensitive", report.LeastSensitive))
	return report, nil
}

// rank picks the most and least sensitive parameters by |delta|, first
// wins on ties.
func rank(results []Result) (most, least string) {
	if len(results) == 0 {
		return "", ""
	}
	most, least = results[0].Parameter, results[0].Parameter
	bigVal, smallVal := math.Abs(results[0].Delta), math.Abs(results[0].Delta)
	for _, r := range results[1:] {
		abs := math.Abs(r.Delta)
		if abs > bigVal {
			bigVal, most = abs, r.Parameter
		}
		if abs < smallVal {
			smallVal, least = abs, r.Parameter
		}
	}
	return most, least
}

func (a *Analyzer) buildResult(param string, baseline, varied model.CoreMetrics) Result {
	delta := varied.OEE.Value - baseline.OEE.Value
	return Result{
		Parameter:         param,
		Variation:         a.variation,
		BaselineOEE:       baseline.OEE.Value,
		VariedOEE:         varied.OEE.Value,
		Delta:             delta,
		DeltaAvailability: varied.Availability.Value - baseline.Availability.Value,
		DeltaPerformance:  varied.Performance.Value - baseline.Performance.Value,
		DeltaQuality:      varied.Quality.Value - baseline.Quality.Value,
		Impact:            classifyImpact(delta),
	}
}

// perturb applies the improvement-direction change for one parameter,
// propagating its secondary effects so the clone stays self-consistent.
func (a *Analyzer) perturb(in *model.AnalysisInput, param string) {
	switch param {
	case ParamPlannedTime:
		perturbPlannedTime(in, a.variation)
	case ParamTotalDowntime:
		perturbDowntime(in, a.variation)
	case ParamIdealCycleTime:
		perturbIdealCycle(in, a.variation)
	case ParamTotalUnits:
		perturbTotalUnits(in, a.variation)
	case ParamGoodUnits:
		perturbGoodUnits(in, a.variation)
	case ParamScrapUnits:
		perturbScrapUnits(in, a.variation)
	}
}

// perturbPlannedTime inflates the schedule. Allocations are left alone,
// so the allocation invariant cannot break; availability drops.
func perturbPlannedTime(in *model.AnalysisInput, v float64) {
	in.Time.PlannedProductionTime = in.Time.PlannedProductionTime.Map(func(d time.Duration) time.Duration {
		return scaleDur(d, 1+v)
	})
}

// perturbDowntime shortens every downtime record and returns the saved
// time to running. The same time is drained proportionally from the
// stopped-family allocations, keeping planned-time accounting balanced:
// running afterwards equals running before plus the downtime removed.
func perturbDowntime(in *model.AnalysisInput, v float64) {
	var saved time.Duration
	for i := range in.Downtime {
		old := in.Downtime[i].Duration
		reduced := scaleDur(old, 1-v)
		saved += old - reduced
		in.Downtime[i].Duration = reduced
	}
	if saved <= 0 {
		return
	}

	returned := false
	for i := range in.Time.Allocations {
		if in.Time.Allocations[i].State == model.StateRunning {
			in.Time.Allocations[i].Duration = in.Time.Allocations[i].Duration.Map(func(d time.Duration) time.Duration {
				return d + saved
			})
			returned = true
			break
		}
	}
	if !returned {
		in.Time.Allocations = append(in.Time.Allocations, model.TimeAllocation{
			State:    model.StateRunning,
			Duration: model.Inferred(saved),
		})
	}

	stopped := in.Time.StoppedTime()
	remove := saved
	if remove > stopped {
		remove = stopped
	}
	if stopped > 0 && remove > 0 {
		ratio := float64(stopped-remove) / float64(stopped)
		for i := range in.Time.Allocations {
			if in.Time.Allocations[i].State.IsStoppedFamily() {
				in.Time.Allocations[i].Duration = in.Time.Allocations[i].Duration.Map(func(d time.Duration) time.Duration {
					return scaleDur(d, ratio)
				})
			}
		}
	}
}

// perturbIdealCycle speeds up the design cycle and rescales production to
// the new pace, capped at the new theoretical max, preserving the
// baseline quality ratio.
func perturbIdealCycle(in *model.AnalysisInput, v float64) {
	oldIdeal := in.Cycle.IdealCycleTime.Get()
	in.Cycle.IdealCycleTime = in.Cycle.IdealCycleTime.Map(func(d time.Duration) time.Duration {
		return scaleDur(d, 1-v)
	})
	newIdeal := in.Cycle.IdealCycleTime.Get()
	if oldIdeal <= 0 || newIdeal <= 0 {
		return
	}

	q := qualityRatio(in)
	total := in.Production.TotalUnits.Get()
	scaled := int64(math.Round(float64(total) * float64(oldIdeal) / float64(newIdeal)))
	if limit := int64(in.Time.RunningTime() / newIdeal); scaled > limit {
		scaled = limit
	}
	setCounts(in, scaled, q)
}

// perturbTotalUnits raises output, capped at the theoretical max for the
// unchanged cycle time, preserving the baseline quality ratio.
func perturbTotalUnits(in *model.AnalysisInput, v float64) {
	total := in.Production.TotalUnits.Get()
	scaled := int64(math.Round(float64(total) * (1 + v)))
	ideal := in.Cycle.IdealCycleTime.Get()
	if ideal > 0 {
		if limit := int64(in.Time.RunningTime() / ideal); scaled > limit {
			scaled = limit
		}
	}
	setCounts(in, scaled, qualityRatio(in))
}

// perturbGoodUnits converts scrap into good output; totals never move.
func perturbGoodUnits(in *model.AnalysisInput, v float64) {
	good := in.Production.GoodUnits.Get()
	scrapUnits := in.Production.ScrapUnits.Get()
	moved := int64(math.Round(float64(good) * v))
	if moved > scrapUnits {
		moved = scrapUnits
	}
	if moved <= 0 {
		return
	}
	shiftCounts(in, moved)
}

// perturbScrapUnits reduces scrap, crediting the units back as good.
func perturbScrapUnits(in *model.AnalysisInput, v float64) {
	scrapUnits := in.Production.ScrapUnits.Get()
	moved := int64(math.Round(float64(scrapUnits) * v))
	if moved > scrapUnits {
		moved = scrapUnits
	}
	if moved <= 0 {
		return
	}
	shiftCounts(in, moved)
}

// setCounts rewrites the unit counts at a new total, preserving each
// value's provenance tag and the given quality ratio.
func setCounts(in *model.AnalysisInput, total int64, q float64) {
	if total < 0 {
		total = 0
	}
	good := int64(math.Round(float64(total) * q))
	if good > total {
		good = total
	}
	in.Production.TotalUnits = model.Tagged(total, in.Production.TotalUnits.Source())
	in.Production.GoodUnits = model.Tagged(good, in.Production.GoodUnits.Source())
	in.Production.ScrapUnits = model.Tagged(total-good, in.Production.ScrapUnits.Source())
}

// shiftCounts moves units from scrap to good without touching the total.
func shiftCounts(in *model.AnalysisInput, moved int64) {
	in.Production.GoodUnits = in.Production.GoodUnits.Map(func(n int64) int64 { return n + moved })
	in.Production.ScrapUnits = in.Production.ScrapUnits.Map(func(n int64) int64 { return n - moved })
}

// qualityRatio mirrors the engine's quality convention: perfect when
// nothing was produced.
func qualityRatio(in *model.AnalysisInput) float64 {
	total := in.Production.TotalUnits.Get()
	if total == 0 {
		return 1.0
	}
	return float64(in.Production.GoodUnits.Get()) / float64(total)
}

func scaleDur(d time.Duration, f float64) time.Duration {
	return time.Duration(float64(d) * f)
}
