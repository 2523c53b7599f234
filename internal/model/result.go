package model

// Totals is the flattened input snapshot embedded in every result, so
// consumers (fleet weighting, rendering, persistence) never have to walk
// back to the original input.
type Totals struct {
	PlannedSeconds    float64 `json:"planned_seconds"`
	RunningSeconds    float64 `json:"running_seconds"`
	AllSeconds        float64 `json:"all_seconds,omitempty"`
	IdealCycleSeconds float64 `json:"ideal_cycle_seconds"`
	TotalUnits        int64   `json:"total_units"`
	GoodUnits         int64   `json:"good_units"`
	ScrapUnits        int64   `json:"scrap_units"`
	ReworkedUnits     int64   `json:"reworked_units"`
}

// EconomicAnalysis prices the decomposed losses.
type EconomicAnalysis struct {
	DowntimeCost           float64 `json:"downtime_cost"`
	SpeedLossCost          float64 `json:"speed_loss_cost"`
	ScrapCost              float64 `json:"scrap_cost"`
	ReworkCost             float64 `json:"rework_cost"`
	TotalLossCost          float64 `json:"total_loss_cost"`
	LostRevenueOpportunity float64 `json:"lost_revenue_opportunity"`
	Currency               string  `json:"currency"`
}

// EngineResult is the full output of one analysis. It is immutable after
// construction; identical inputs produce identical results.
type EngineResult struct {
	Machine    MachineContext    `json:"machine"`
	Window     AnalysisWindow    `json:"window"`
	Core       CoreMetrics       `json:"core"`
	Extended   ExtendedMetrics   `json:"extended"`
	LossTree   LossTreeNode      `json:"loss_tree"`
	Economics  *EconomicAnalysis `json:"economics,omitempty"`
	Ledger     AssumptionLedger  `json:"ledger"`
	Validation ValidationResult  `json:"validation"`
	Totals     Totals            `json:"totals"`
}

// Confidence returns the overall confidence of the result, the weakest of
// the three factor confidences.
func (r *EngineResult) Confidence() Confidence {
	return r.Core.OEE.Confidence
}
