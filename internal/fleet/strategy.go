package fleet

import "github.com/rotisserie/eris"

// Strategy selects how per-machine results combine into one system figure.
type Strategy string

const (
	// StrategySimpleAverage is the unweighted mean of machine OEEs.
	StrategySimpleAverage Strategy = "simple_average"
	// StrategyProductionWeighted weights each machine by its unit output.
	StrategyProductionWeighted Strategy = "production_weighted"
	// StrategyTimeWeighted weights each machine by its planned time.
	StrategyTimeWeighted Strategy = "time_weighted"
	// StrategyMinimum reports the weakest machine, for tightly-coupled
	// serial lines.
	StrategyMinimum Strategy = "minimum"
	// StrategyMultiplicative multiplies machine factors, modeling strict
	// serial dependence with no buffering.
	StrategyMultiplicative Strategy = "multiplicative"
)

// DefaultStrategy is used when the caller does not pick one.
const DefaultStrategy = StrategyTimeWeighted

// factors is the aggregate of the three OEE factors and their combined
// system OEE under one strategy.
type factors struct {
	availability float64
	performance  float64
	quality      float64
	oee          float64
}

type aggregateFunc func(machines []MachineResult) factors

var (
	strategies    = map[Strategy]aggregateFunc{}
	strategyOrder []Strategy
)

func register(s Strategy, fn aggregateFunc) {
	if _, dup := strategies[s]; dup {
		panic("fleet: duplicate strategy " + string(s))
	}
	strategies[s] = fn
	strategyOrder = append(strategyOrder, s)
}

func init() {
	register(StrategySimpleAverage, aggregateSimpleAverage)
	register(StrategyProductionWeighted, aggregateProductionWeighted)
	register(StrategyTimeWeighted, aggregateTimeWeighted)
	register(StrategyMinimum, aggregateMinimum)
	register(StrategyMultiplicative, aggregateMultiplicative)
}

// Strategies returns the registered strategy keys in registration order.
func Strategies() []Strategy {
	out := make([]Strategy, len(strategyOrder))
	copy(out, strategyOrder)
	return out
}

// ParseStrategy maps a configuration string onto a registered strategy.
// The empty string selects the default.
func ParseStrategy(s string) (Strategy, error) {
	if s == "" {
		return DefaultStrategy, nil
	}
	if _, ok := strategies[Strategy(s)]; !ok {
		return "", eris.Errorf("fleet: unknown aggregation strategy %q", s)
	}
	return Strategy(s), nil
}

func aggregateSimpleAverage(machines []MachineResult) factors {
	return weightedFactors(machines, func(MachineResult) float64 { return 1 })
}

func aggregateProductionWeighted(machines []MachineResult) factors {
	return weightedFactors(machines, func(m MachineResult) float64 {
		return float64(m.Result.Totals.TotalUnits)
	})
}

func aggregateTimeWeighted(machines []MachineResult) factors {
	return weightedFactors(machines, func(m MachineResult) float64 {
		return m.Result.Totals.PlannedSeconds
	})
}

// aggregateMinimum reports the weakest machine's factors verbatim, so the
// system OEE keeps that machine's own product identity.
func aggregateMinimum(machines []MachineResult) factors {
	weakest := machines[0]
	for _, m := range machines[1:] {
		if m.Result.Core.OEE.Value < weakest.Result.Core.OEE.Value {
			weakest = m
		}
	}
	core := weakest.Result.Core
	return factors{
		availability: core.Availability.Value,
		performance:  core.Performance.Value,
		quality:      core.Quality.Value,
		oee:          core.OEE.Value,
	}
}

// aggregateMultiplicative multiplies each factor across machines and keeps
// the system OEE equal to the product of the three system factors.
func aggregateMultiplicative(machines []MachineResult) factors {
	f := factors{availability: 1, performance: 1, quality: 1}
	for _, m := range machines {
		f.availability *= m.Result.Core.Availability.Value
		f.performance *= m.Result.Core.Performance.Value
		f.quality *= m.Result.Core.Quality.Value
	}
	f.oee = f.availability * f.performance * f.quality
	return f
}

// weightedFactors computes weighted means of the factors and of OEE. When
// every weight is zero the machines count equally instead.
func weightedFactors(machines []MachineResult, weight func(MachineResult) float64) factors {
	var sum float64
	weights := make([]float64, len(machines))
	for i, m := range machines {
		w := weight(m)
		if w < 0 {
			w = 0
		}
		weights[i] = w
		sum += w
	}
	if sum <= 0 {
		for i := range weights {
			weights[i] = 1
		}
		sum = float64(len(machines))
	}

	var f factors
	for i, m := range machines {
		w := weights[i] / sum
		f.availability += w * m.Result.Core.Availability.Value
		f.performance += w * m.Result.Core.Performance.Value
		f.quality += w * m.Result.Core.Quality.Value
		f.oee += w * m.Result.Core.OEE.Value
	}
	return f
}
