package model

import "time"

// Built-in threshold defaults. Every defaulted threshold is recorded in
// the assumption ledger so a reader can see which knobs the analysis
// leaned on.
const (
	DefaultMicroStoppageThreshold  = 60 * time.Second
	DefaultSmallStopThreshold      = 5 * time.Minute
	DefaultSpeedLossThreshold      = 0.10
	DefaultHighScrapRateThreshold  = 0.05
	DefaultLowUtilizationThreshold = 0.60
)

// ThresholdConfiguration tunes classification boundaries and warning
// triggers. Fields carry provenance so overridden thresholds are
// distinguishable from built-in defaults in the ledger.
type ThresholdConfiguration struct {
	// MicroStoppageThreshold is the upper bound below which a non-failure
	// stop counts as a micro stoppage (a performance loss).
	MicroStoppageThreshold Value[time.Duration] `json:"micro_stoppage_threshold"`
	// SmallStopThreshold is the upper bound below which a non-failure stop
	// counts as a small stop (an availability loss).
	SmallStopThreshold Value[time.Duration] `json:"small_stop_threshold"`
	// SpeedLossThreshold is the speed-loss fraction of running time above
	// which the validator warns.
	SpeedLossThreshold Value[float64] `json:"speed_loss_threshold"`
	// HighScrapRateThreshold is the scrap rate above which the validator warns.
	HighScrapRateThreshold Value[float64] `json:"high_scrap_rate_threshold"`
	// LowUtilizationThreshold is the utilization below which the validator warns.
	LowUtilizationThreshold Value[float64] `json:"low_utilization_threshold"`
}

// DefaultThresholds returns the built-in configuration with every field
// tagged as a default.
func DefaultThresholds() ThresholdConfiguration {
	return ThresholdConfiguration{
		MicroStoppageThreshold:  Default(DefaultMicroStoppageThreshold),
		SmallStopThreshold:      Default(DefaultSmallStopThreshold),
		SpeedLossThreshold:      Default(DefaultSpeedLossThreshold),
		HighScrapRateThreshold:  Default(DefaultHighScrapRateThreshold),
		LowUtilizationThreshold: Default(DefaultLowUtilizationThreshold),
	}
}
