package model

// AnalysisInput is the complete observation set for one machine over one
// window. Callers build it directly or through the ingest package; the
// engine never mutates it.
type AnalysisInput struct {
	Window      AnalysisWindow          `json:"window"`
	Machine     MachineContext          `json:"machine"`
	Time        TimeModel               `json:"time"`
	Production  ProductionSummary       `json:"production"`
	Cycle       CycleTimeModel          `json:"cycle"`
	Downtime    []DowntimeRecord        `json:"downtime,omitempty"`
	ScrapEvents []ScrapEvent            `json:"scrap_events,omitempty"`
	Thresholds  *ThresholdConfiguration `json:"thresholds,omitempty"`
}

// Clone returns a deep copy. What-if analysis perturbs clones so the
// baseline input stays untouched.
func (in *AnalysisInput) Clone() *AnalysisInput {
	if in == nil {
		return nil
	}
	out := *in
	if in.Time.Allocations != nil {
		out.Time.Allocations = make([]TimeAllocation, len(in.Time.Allocations))
		copy(out.Time.Allocations, in.Time.Allocations)
	}
	if in.Time.AllTime != nil {
		at := *in.Time.AllTime
		out.Time.AllTime = &at
	}
	if in.Cycle.AverageCycleTime != nil {
		avg := *in.Cycle.AverageCycleTime
		out.Cycle.AverageCycleTime = &avg
	}
	if in.Downtime != nil {
		out.Downtime = make([]DowntimeRecord, len(in.Downtime))
		copy(out.Downtime, in.Downtime)
		for i := range out.Downtime {
			if in.Downtime[i].Reason != nil {
				out.Downtime[i].Reason = append(ReasonCode(nil), in.Downtime[i].Reason...)
			}
		}
	}
	if in.ScrapEvents != nil {
		out.ScrapEvents = make([]ScrapEvent, len(in.ScrapEvents))
		copy(out.ScrapEvents, in.ScrapEvents)
		for i := range out.ScrapEvents {
			if in.ScrapEvents[i].Reason != nil {
				out.ScrapEvents[i].Reason = append(ReasonCode(nil), in.ScrapEvents[i].Reason...)
			}
		}
	}
	if in.Thresholds != nil {
		th := *in.Thresholds
		out.Thresholds = &th
	}
	return &out
}

// EconomicParams prices the losses for the economics layer. Currency is a
// display label only.
type EconomicParams struct {
	DowntimeCostPerHour float64 `json:"downtime_cost_per_hour"`
	RevenuePerUnit      float64 `json:"revenue_per_unit"`
	ScrapCostPerUnit    float64 `json:"scrap_cost_per_unit"`
	ReworkCostPerUnit   float64 `json:"rework_cost_per_unit"`
	Currency            string  `json:"currency,omitempty"`
}
