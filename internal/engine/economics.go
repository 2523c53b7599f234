package engine

import (
	"github.com/plantworks/oee-cli/internal/model"
)

// defaultCurrency labels economic output when the caller does not name one.
const defaultCurrency = "USD"

// computeEconomics prices the decomposed losses. Hour figures come from
// the already-clamped loss tree, so priced downtime can never exceed the
// planned window.
func computeEconomics(tree model.LossTreeNode, totals model.Totals, params model.EconomicParams) model.EconomicAnalysis {
	var availabilityHours, performanceHours float64
	if fam := tree.Child(model.LossAvailabilityFamily); fam != nil {
		availabilityHours = fam.Duration.Hours()
	}
	if fam := tree.Child(model.LossPerformanceFamily); fam != nil {
		performanceHours = fam.Duration.Hours()
	}

	ea := model.EconomicAnalysis{
		DowntimeCost:  availabilityHours * params.DowntimeCostPerHour,
		SpeedLossCost: performanceHours * params.DowntimeCostPerHour,
		ScrapCost:     float64(totals.ScrapUnits) * params.ScrapCostPerUnit,
		ReworkCost:    float64(totals.ReworkedUnits) * params.ReworkCostPerUnit,
		Currency:      params.Currency,
	}
	ea.TotalLossCost = ea.DowntimeCost + ea.SpeedLossCost + ea.ScrapCost + ea.ReworkCost

	// Revenue left on the table had the full planned window produced good
	// units at the design cycle.
	if totals.IdealCycleSeconds > 0 {
		plannedCapacity := totals.PlannedSeconds / totals.IdealCycleSeconds
		if missed := plannedCapacity - float64(totals.GoodUnits); missed > 0 {
			ea.LostRevenueOpportunity = missed * params.RevenuePerUnit
		}
	}

	if ea.Currency == "" {
		ea.Currency = defaultCurrency
	}
	return ea
}
