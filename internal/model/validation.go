package model

// Severity classifies a validation issue.
type Severity string

const (
	SeverityFatal   Severity = "fatal"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Validation issue codes.
const (
	CodeAllocationOverflow         = "ALLOCATION_OVERFLOW"
	CodeCountOverflow              = "COUNT_OVERFLOW"
	CodeNonpositiveCycleTime       = "NONPOSITIVE_CYCLE_TIME"
	CodeCapacityExceeded           = "CAPACITY_EXCEEDED"
	CodeZeroPlannedTime            = "ZERO_PLANNED_TIME"
	CodeCycleFasterThanIdeal       = "CYCLE_FASTER_THAN_IDEAL"
	CodeDowntimeAllocationMismatch = "DOWNTIME_ALLOCATION_MISMATCH"
	CodeHighScrapRate              = "HIGH_SCRAP_RATE"
	CodeLowUtilization             = "LOW_UTILIZATION"
	CodeExcessiveSpeedLoss         = "EXCESSIVE_SPEED_LOSS"
	CodeMissingDowntimeRecords     = "MISSING_DOWNTIME_RECORDS"
	CodeZeroProduction             = "ZERO_PRODUCTION"
)

// Issue is one finding from the validation pipeline. MessageKey plus
// Params keep the payload renderable by any frontend; no prose is baked
// into the engine output.
type Issue struct {
	Code       string         `json:"code"`
	Severity   Severity       `json:"severity"`
	Field      string         `json:"field,omitempty"`
	MessageKey string         `json:"message_key"`
	Params     map[string]any `json:"params,omitempty"`
}

// ValidationResult collects every issue found in one pipeline run, in
// check order.
type ValidationResult struct {
	Issues []Issue `json:"issues"`
}

// HasFatal reports whether any issue is fatal.
func (r ValidationResult) HasFatal() bool {
	return len(r.BySeverity(SeverityFatal)) > 0
}

// HasWarnings reports whether any issue is a warning.
func (r ValidationResult) HasWarnings() bool {
	return len(r.BySeverity(SeverityWarning)) > 0
}

// Fatal returns the fatal issues in check order.
func (r ValidationResult) Fatal() []Issue {
	return r.BySeverity(SeverityFatal)
}

// Warnings returns the warning issues in check order.
func (r ValidationResult) Warnings() []Issue {
	return r.BySeverity(SeverityWarning)
}

// BySeverity filters issues by severity, preserving check order.
func (r ValidationResult) BySeverity(sev Severity) []Issue {
	var out []Issue
	for _, is := range r.Issues {
		if is.Severity == sev {
			out = append(out, is)
		}
	}
	return out
}
