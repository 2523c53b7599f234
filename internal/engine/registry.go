package engine

import "github.com/plantworks/oee-cli/internal/model"

// Calculator computes one extended metric. Implementations return nil
// when the metric is undefined for the input, which the result renders
// as absent rather than zero.
type Calculator interface {
	Key() string
	Compute(in *model.AnalysisInput, core model.CoreMetrics, totals model.Totals) *model.MetricValue
}

// The calculator registry is populated once at init and read-only
// afterwards, so concurrent lookups need no locking. Registration order
// is the iteration order everywhere.
var (
	calculators     = map[string]Calculator{}
	calculatorOrder []string
)

func register(c Calculator) {
	if _, dup := calculators[c.Key()]; dup {
		panic("engine: duplicate calculator " + c.Key())
	}
	calculators[c.Key()] = c
	calculatorOrder = append(calculatorOrder, c.Key())
}

func init() {
	register(utilizationCalculator{})
	register(teepCalculator{})
	register(mtbfCalculator{})
	register(mttrCalculator{})
	register(scrapRateCalculator{})
	register(reworkRateCalculator{})
}

// Calculators returns the registered calculators in registration order.
func Calculators() []Calculator {
	out := make([]Calculator, 0, len(calculatorOrder))
	for _, key := range calculatorOrder {
		out = append(out, calculators[key])
	}
	return out
}

// CalculatorFor returns the calculator registered under key.
func CalculatorFor(key string) (Calculator, bool) {
	c, ok := calculators[key]
	return c, ok
}

// computeExtended runs every registered calculator and slots its output
// into the extended-metrics struct.
func computeExtended(in *model.AnalysisInput, core model.CoreMetrics, totals model.Totals) model.ExtendedMetrics {
	var ext model.ExtendedMetrics
	for _, c := range Calculators() {
		mv := c.Compute(in, core, totals)
		switch c.Key() {
		case model.MetricUtilization:
			if mv != nil {
				ext.Utilization = *mv
			}
		case model.MetricTEEP:
			ext.TEEP = mv
		case model.MetricMTBF:
			ext.MTBF = mv
		case model.MetricMTTR:
			ext.MTTR = mv
		case model.MetricScrapRate:
			if mv != nil {
				ext.ScrapRate = *mv
			}
		case model.MetricReworkRate:
			if mv != nil {
				ext.ReworkRate = *mv
			}
		}
	}
	return ext
}
