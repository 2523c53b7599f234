package model

// ImpactLevel grades how strongly an assumption can move the headline
// metrics.
type ImpactLevel string

const (
	ImpactCritical ImpactLevel = "critical"
	ImpactHigh     ImpactLevel = "high"
	ImpactMedium   ImpactLevel = "medium"
	ImpactLow      ImpactLevel = "low"
)

// TrackedAssumption records one input the engine relied on, with its
// provenance and how much it matters.
type TrackedAssumption struct {
	Name   string      `json:"name"`
	Value  string      `json:"value"`
	Source Source      `json:"source"`
	Impact ImpactLevel `json:"impact"`
}

// LedgerWarning mirrors a validation issue into the ledger so the audit
// trail is complete without the full validation result.
type LedgerWarning struct {
	Code       string         `json:"code"`
	MessageKey string         `json:"message_key"`
	Params     map[string]any `json:"params,omitempty"`
	Severity   ImpactLevel    `json:"severity"`
}

// SourceStats counts tracked inputs by provenance.
type SourceStats struct {
	Explicit int `json:"explicit"`
	Inferred int `json:"inferred"`
	Default  int `json:"default"`
}

// AssumptionLedger is the audit trail attached to every analysis. It is
// observational only; nothing here feeds back into computation.
type AssumptionLedger struct {
	Assumptions []TrackedAssumption `json:"assumptions"`
	Thresholds  []TrackedAssumption `json:"thresholds"`
	Warnings    []LedgerWarning     `json:"warnings,omitempty"`
	SourceStats SourceStats         `json:"source_stats"`
	Metadata    map[string]string   `json:"metadata,omitempty"`
}

// CriticalAssumptions returns the critical-impact assumptions in ledger
// order.
func (l AssumptionLedger) CriticalAssumptions() []TrackedAssumption {
	var out []TrackedAssumption
	for _, a := range l.Assumptions {
		if a.Impact == ImpactCritical {
			out = append(out, a)
		}
	}
	return out
}

// DefaultedInputs returns the tracked assumptions that fell back to a
// system default, the usual first stop when confidence comes back low.
func (l AssumptionLedger) DefaultedInputs() []TrackedAssumption {
	var out []TrackedAssumption
	for _, a := range l.Assumptions {
		if a.Source == SourceDefault {
			out = append(out, a)
		}
	}
	return out
}
