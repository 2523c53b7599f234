// Package fleet combines independently computed machine results into a
// system-level effectiveness figure with a bottleneck report.
package fleet

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/plantworks/oee-cli/internal/engine"
	"github.com/plantworks/oee-cli/internal/model"
)

// BottleneckOEEFloor flags any machine below this absolute OEE regardless
// of fleet size.
const BottleneckOEEFloor = 0.70

// Recommended action keys, chosen by a bottleneck's weakest factor.
const (
	ActionReduceDowntime        = "reduce_downtime"
	ActionAddressSpeedLosses    = "address_speed_losses"
	ActionImproveFirstPassYield = "improve_first_pass_yield"
)

// MachineResult pairs a machine identifier with its computed result.
type MachineResult struct {
	MachineID string              `json:"machine_id"`
	Result    *model.EngineResult `json:"result"`
}

// MachineSummary is the per-machine line in the fleet report.
type MachineSummary struct {
	MachineID    string           `json:"machine_id"`
	OEE          float64          `json:"oee"`
	Availability float64          `json:"availability"`
	Performance  float64          `json:"performance"`
	Quality      float64          `json:"quality"`
	Confidence   model.Confidence `json:"confidence"`
}

// Bottleneck describes one constrained machine and the most promising
// lever to relieve it. ThroughputImpact estimates the units per hour the
// fleet loses to the gap between this machine and the fleet mean.
type Bottleneck struct {
	MachineID         string  `json:"machine_id"`
	OEE               float64 `json:"oee"`
	WeakestFactor     string  `json:"weakest_factor"`
	RecommendedAction string  `json:"recommended_action"`
	ThroughputImpact  float64 `json:"throughput_impact_units_per_hour"`
}

// Report is the system-level aggregation of a machine fleet.
type Report struct {
	Strategy             Strategy         `json:"strategy"`
	MachineCount         int              `json:"machine_count"`
	SystemOEE            float64          `json:"system_oee"`
	SystemAvailability   float64          `json:"system_availability"`
	SystemPerformance    float64          `json:"system_performance"`
	SystemQuality        float64          `json:"system_quality"`
	SystemConfidence     model.Confidence `json:"system_confidence"`
	BestMachine          string           `json:"best_machine"`
	WorstMachine         string           `json:"worst_machine"`
	CapacityUnitsPerHour float64          `json:"capacity_units_per_hour"`
	Machines             []MachineSummary `json:"machines"`
	Bottlenecks          []Bottleneck     `json:"bottlenecks"`
}

// Aggregator folds machine results under one strategy.
type Aggregator struct {
	strategy Strategy
}

// NewAggregator validates the strategy up front. The empty strategy picks
// the default.
func NewAggregator(strategy Strategy) (*Aggregator, error) {
	parsed, err := ParseStrategy(string(strategy))
	if err != nil {
		return nil, err
	}
	return &Aggregator{strategy: parsed}, nil
}

// ComputeAll runs the engine over every input in parallel, pairing each
// result with its machine id. Results keep the input order. A machine
// that fails validation fails the whole batch. A concurrency of 0 or
// less leaves the group unbounded.
func ComputeAll(ctx context.Context, inputs []*model.AnalysisInput, concurrency int, opts ...engine.Option) ([]MachineResult, error) {
	if len(inputs) == 0 {
		return nil, eris.New("fleet: no machine inputs")
	}

	results := make([]MachineResult, len(inputs))
	g, _ := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, in := range inputs {
		if in == nil {
			return nil, eris.Errorf("fleet: nil input at index %d", i)
		}
		g.Go(func() error {
			res, err := engine.Calculate(in, opts...)
			if err != nil {
				return eris.Wrapf(err, "fleet: machine %q", in.Machine.MachineID)
			}
			results[i] = MachineResult{MachineID: in.Machine.MachineID, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Aggregate combines independently computed machine results into one
// system-level report.
func (a *Aggregator) Aggregate(machines []MachineResult) (*Report, error) {
	if len(machines) == 0 {
		return nil, eris.New("fleet: no machine results to aggregate")
	}
	for i, m := range machines {
		if m.Result == nil {
			return nil, eris.Errorf("fleet: nil result for machine %q at index %d", m.MachineID, i)
		}
	}

	sys := strategies[a.strategy](machines)

	best, worst := machines[0], machines[0]
	confidences := make([]model.Confidence, 0, len(machines))
	summaries := make([]MachineSummary, 0, len(machines))
	var meanOEE float64
	for _, m := range machines {
		core := m.Result.Core
		if core.OEE.Value > best.Result.Core.OEE.Value {
			best = m
		}
		if core.OEE.Value < worst.Result.Core.OEE.Value {
			worst = m
		}
		meanOEE += core.OEE.Value
		confidences = append(confidences, m.Result.Confidence())
		summaries = append(summaries, MachineSummary{
			MachineID:    m.MachineID,
			OEE:          core.OEE.Value,
			Availability: core.Availability.Value,
			Performance:  core.Performance.Value,
			Quality:      core.Quality.Value,
			Confidence:   m.Result.Confidence(),
		})
	}
	meanOEE /= float64(len(machines))

	report := &Report{
		Strategy:             a.strategy,
		MachineCount:         len(machines),
		SystemOEE:            sys.oee,
		SystemAvailability:   sys.availability,
		SystemPerformance:    sys.performance,
		SystemQuality:        sys.quality,
		SystemConfidence:     model.Weakest(confidences...),
		BestMachine:          best.MachineID,
		WorstMachine:         worst.MachineID,
		CapacityUnitsPerHour: systemCapacity(machines),
		Machines:             summaries,
		Bottlenecks:          findBottlenecks(machines, meanOEE),
	}

	zap.L().Debug("fleet: aggregation complete",
		zap.String("strategy", string(a.strategy)),
		zap.Int("machines", report.MachineCount),
		zap.Float64("system_oee", report.SystemOEE),
		zap.Int("bottlenecks", len(report.Bottlenecks)))
	return report, nil
}

// systemCapacity is the serial-line ceiling: the lowest units-per-hour
// rate implied by any machine's ideal cycle time. Machines without a
// positive cycle time do not define capacity.
func systemCapacity(machines []MachineResult) float64 {
	capacity := 0.0
	for _, m := range machines {
		ideal := m.Result.Totals.IdealCycleSeconds
		if ideal <= 0 {
			continue
		}
		rate := 3600 / ideal
		if capacity == 0 || rate < capacity {
			capacity = rate
		}
	}
	return capacity
}

// findBottlenecks flags every machine below the absolute OEE floor plus
// the bottom fifth of the fleet, worst first.
func findBottlenecks(machines []MachineResult, meanOEE float64) []Bottleneck {
	order := make([]int, len(machines))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return machines[order[i]].Result.Core.OEE.Value < machines[order[j]].Result.Core.OEE.Value
	})

	flagged := make(map[int]bool, len(machines))
	for _, idx := range order[:len(machines)/5] {
		flagged[idx] = true
	}
	for i, m := range machines {
		if m.Result.Core.OEE.Value < BottleneckOEEFloor {
			flagged[i] = true
		}
	}

	out := make([]Bottleneck, 0, len(flagged))
	for _, idx := range order {
		if !flagged[idx] {
			continue
		}
		m := machines[idx]
		factor, action := weakestFactor(m.Result.Core)
		impact := 0.0
		if ideal := m.Result.Totals.IdealCycleSeconds; ideal > 0 {
			impact = (meanOEE - m.Result.Core.OEE.Value) * (3600 / ideal)
			if impact < 0 {
				impact = 0
			}
		}
		out = append(out, Bottleneck{
			MachineID:         m.MachineID,
			OEE:               m.Result.Core.OEE.Value,
			WeakestFactor:     factor,
			RecommendedAction: action,
			ThroughputImpact:  impact,
		})
	}
	return out
}

// weakestFactor picks the lowest of the three factors, availability
// winning ties, and maps it to the action most likely to move it.
func weakestFactor(core model.CoreMetrics) (string, string) {
	key, val := model.MetricAvailability, core.Availability.Value
	if core.Performance.Value < val {
		key, val = model.MetricPerformance, core.Performance.Value
	}
	if core.Quality.Value < val {
		key = model.MetricQuality
	}
	switch key {
	case model.MetricPerformance:
		return key, ActionAddressSpeedLosses
	case model.MetricQuality:
		return key, ActionImproveFirstPassYield
	default:
		return key, ActionReduceDowntime
	}
}
