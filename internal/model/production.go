package model

import (
	"strings"
	"time"
)

// ProductionSummary carries the unit counts for the window. GoodUnits and
// ScrapUnits are allowed to undercount TotalUnits (uncategorized output);
// overcounting is a fatal validation error.
type ProductionSummary struct {
	TotalUnits    Value[int64] `json:"total_units"`
	GoodUnits     Value[int64] `json:"good_units"`
	ScrapUnits    Value[int64] `json:"scrap_units"`
	ReworkedUnits Value[int64] `json:"reworked_units"`
}

// CycleTimeModel holds the design-speed cycle time and, optionally, the
// observed average cycle time.
type CycleTimeModel struct {
	IdealCycleTime   Value[time.Duration]  `json:"ideal_cycle_time"`
	AverageCycleTime *Value[time.Duration] `json:"average_cycle_time,omitempty"`
}

// ReasonCode is an ordered reason path, most general element first.
type ReasonCode []string

// String joins the path for display.
func (r ReasonCode) String() string {
	return strings.Join(r, " / ")
}

// DowntimeRecord describes one stoppage inside the window. IsFailure
// separates breakdowns (feeding MTBF/MTTR) from ordinary stops.
type DowntimeRecord struct {
	Duration  time.Duration `json:"duration"`
	IsFailure bool          `json:"is_failure"`
	Reason    ReasonCode    `json:"reason,omitempty"`
}

// ScrapEvent is a timestamped scrap observation used by the temporal
// scrap analyzer.
type ScrapEvent struct {
	Timestamp time.Time  `json:"timestamp"`
	Units     int64      `json:"units"`
	Reason    ReasonCode `json:"reason,omitempty"`
}

// TotalDowntime sums the duration of every record.
func TotalDowntime(records []DowntimeRecord) time.Duration {
	var total time.Duration
	for _, r := range records {
		total += r.Duration
	}
	return total
}

// FailureDowntime sums the duration of failure-flagged records.
func FailureDowntime(records []DowntimeRecord) time.Duration {
	var total time.Duration
	for _, r := range records {
		if r.IsFailure {
			total += r.Duration
		}
	}
	return total
}

// FailureCount counts failure-flagged records.
func FailureCount(records []DowntimeRecord) int {
	n := 0
	for _, r := range records {
		if r.IsFailure {
			n++
		}
	}
	return n
}
