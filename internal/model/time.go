package model

import "time"

// MachineState labels how a slice of planned production time was spent.
type MachineState string

const (
	StateRunning     MachineState = "running"
	StateStopped     MachineState = "stopped"
	StateSetup       MachineState = "setup"
	StateStarved     MachineState = "starved"
	StateBlocked     MachineState = "blocked"
	StateMaintenance MachineState = "maintenance"
	StateUnknown     MachineState = "unknown"
)

// knownStates is the canonical state order used wherever allocations are
// iterated, so derived output never depends on map ordering.
var knownStates = []MachineState{
	StateRunning,
	StateStopped,
	StateSetup,
	StateStarved,
	StateBlocked,
	StateMaintenance,
	StateUnknown,
}

// KnownStates returns the canonical machine-state order.
func KnownStates() []MachineState {
	out := make([]MachineState, len(knownStates))
	copy(out, knownStates)
	return out
}

// ParseMachineState normalizes a raw state label. Unrecognized labels map
// to StateUnknown rather than failing, so partial floor data still loads.
func ParseMachineState(raw string) MachineState {
	s := MachineState(raw)
	for _, k := range knownStates {
		if s == k {
			return k
		}
	}
	return StateUnknown
}

// IsStoppedFamily reports whether the state represents time the machine
// was not producing and not in planned changeover.
func (s MachineState) IsStoppedFamily() bool {
	switch s {
	case StateStopped, StateStarved, StateBlocked, StateMaintenance, StateUnknown:
		return true
	}
	return false
}

// AnalysisWindow bounds the observation period.
type AnalysisWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the window length, clamped to zero for inverted windows.
func (w AnalysisWindow) Duration() time.Duration {
	d := w.End.Sub(w.Start)
	if d < 0 {
		return 0
	}
	return d
}

// MachineContext identifies the machine under analysis. Pure metadata; no
// field influences any computed metric.
type MachineContext struct {
	MachineID string `json:"machine_id"`
	Line      string `json:"line,omitempty"`
	Product   string `json:"product,omitempty"`
	Shift     string `json:"shift,omitempty"`
}

// TimeAllocation assigns a duration of the planned window to one state.
type TimeAllocation struct {
	State    MachineState         `json:"state"`
	Duration Value[time.Duration] `json:"duration"`
}

// TimeModel describes how the analysis window was planned and spent.
// AllTime is the calendar time backing TEEP; when absent TEEP is undefined.
type TimeModel struct {
	PlannedProductionTime Value[time.Duration]  `json:"planned_production_time"`
	Allocations           []TimeAllocation      `json:"allocations"`
	AllTime               *Value[time.Duration] `json:"all_time,omitempty"`
}

// RunningTime sums all running-state allocations.
func (t TimeModel) RunningTime() time.Duration {
	return t.StateTime(StateRunning)
}

// StateTime sums the allocations recorded for one state.
func (t TimeModel) StateTime(state MachineState) time.Duration {
	var total time.Duration
	for _, a := range t.Allocations {
		if a.State == state {
			total += a.Duration.Get()
		}
	}
	return total
}

// AllocatedTime sums every allocation regardless of state.
func (t TimeModel) AllocatedTime() time.Duration {
	var total time.Duration
	for _, a := range t.Allocations {
		total += a.Duration.Get()
	}
	return total
}

// StoppedTime sums the stopped-family allocations, the time bucket that
// downtime records are reconciled against.
func (t TimeModel) StoppedTime() time.Duration {
	var total time.Duration
	for _, a := range t.Allocations {
		if a.State.IsStoppedFamily() {
			total += a.Duration.Get()
		}
	}
	return total
}
