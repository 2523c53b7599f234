// Package scrap splits timestamped scrap into startup and steady-state
// phases so quality losses can be attributed to the right part of the run.
package scrap

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/plantworks/oee-cli/internal/model"
)

// Boundary strategies, named by what fired.
const (
	StrategyFixedDuration = "fixed_duration"
	StrategyWindowPercent = "window_percent"
	StrategyDynamic       = "dynamic_rate_drop"
	StrategyNone          = "none"
)

// DynamicConfig tunes rolling-window startup detection.
type DynamicConfig struct {
	Enabled       bool          `json:"enabled"`
	RollingWindow time.Duration `json:"rolling_window"`
	DropRatio     float64       `json:"drop_ratio"`
}

// Config selects the startup-window strategies. Every enabled strategy
// proposes a boundary; the earliest proposal wins, which is the most
// conservative split (least scrap attributed to startup).
type Config struct {
	FixedStartupDuration time.Duration `json:"fixed_startup_duration"`
	WindowPercent        float64       `json:"window_percent"`
	Dynamic              DynamicConfig `json:"dynamic"`
}

// DefaultConfig returns the standard startup-detection configuration.
func DefaultConfig() Config {
	return Config{
		FixedStartupDuration: 30 * time.Minute,
		WindowPercent:        0.10,
		Dynamic: DynamicConfig{
			Enabled:       true,
			RollingWindow: 10 * time.Minute,
			DropRatio:     0.25,
		},
	}
}

// Analysis is the outcome of categorizing scrap events into startup and
// steady-state phases.
type Analysis struct {
	Boundary              time.Time     `json:"boundary"`
	BoundaryStrategy      string        `json:"boundary_strategy"`
	StartupUnits          int64         `json:"startup_units"`
	SteadyUnits           int64         `json:"steady_units"`
	StartupPercent        float64       `json:"startup_percent"`
	SteadyPercent         float64       `json:"steady_percent"`
	StartupTimeEquivalent time.Duration `json:"startup_time_equivalent_ns"`
	SteadyTimeEquivalent  time.Duration `json:"steady_time_equivalent_ns"`
	EventsAnalyzed        int           `json:"events_analyzed"`
}

// Analyzer categorizes timestamped scrap into startup versus steady-state
// phases.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer builds an analyzer with the given configuration.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Analyze splits the scrap events at the startup boundary. Events with a
// timestamp strictly before the boundary count as startup scrap. The
// result is deterministic for any event ordering.
func (a *Analyzer) Analyze(window model.AnalysisWindow, events []model.ScrapEvent, idealCycle time.Duration) *Analysis {
	sorted := make([]model.ScrapEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	boundary, strategy := a.boundary(window, sorted)

	var startup, steady int64
	for _, ev := range sorted {
		if ev.Timestamp.Before(boundary) {
			startup += ev.Units
		} else {
			steady += ev.Units
		}
	}

	out := &Analysis{
		Boundary:              boundary,
		BoundaryStrategy:      strategy,
		StartupUnits:          startup,
		SteadyUnits:           steady,
		StartupTimeEquivalent: time.Duration(startup) * idealCycle,
		SteadyTimeEquivalent:  time.Duration(steady) * idealCycle,
		EventsAnalyzed:        len(sorted),
	}
	if total := startup + steady; total > 0 {
		out.StartupPercent = float64(startup) / float64(total)
		out.SteadyPercent = float64(steady) / float64(total)
	}

	zap.L().Debug("scrap: analyzed events",
		zap.String("strategy", strategy),
		zap.Time("boundary", boundary),
		zap.Int64("startup_units", startup),
		zap.Int64("steady_units", steady))
	return out
}

// boundary returns the earliest candidate among the enabled strategies,
// falling back to the window start (nothing counts as startup) when no
// strategy produces one.
func (a *Analyzer) boundary(window model.AnalysisWindow, sorted []model.ScrapEvent) (time.Time, string) {
	type candidate struct {
		at       time.Time
		strategy string
	}
	var candidates []candidate

	if a.cfg.FixedStartupDuration > 0 {
		candidates = append(candidates, candidate{
			at:       window.Start.Add(a.cfg.FixedStartupDuration),
			strategy: StrategyFixedDuration,
		})
	}
	if a.cfg.WindowPercent > 0 && window.Duration() > 0 {
		offset := time.Duration(float64(window.Duration()) * a.cfg.WindowPercent)
		candidates = append(candidates, candidate{
			at:       window.Start.Add(offset),
			strategy: StrategyWindowPercent,
		})
	}
	if at, ok := a.dynamicBoundary(window, sorted); ok {
		candidates = append(candidates, candidate{at: at, strategy: StrategyDynamic})
	}

	if len(candidates) == 0 {
		return window.Start, StrategyNone
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.at.Before(best.at) {
			best = c
		}
	}
	return best.at, best.strategy
}

// dynamicBoundary slides a rolling window across the analysis window in
// quarter-window steps and proposes the first step at which the scrap
// rate has dropped to DropRatio of the opening rate. A silent opening
// window means there is no startup spike to detect.
func (a *Analyzer) dynamicBoundary(window model.AnalysisWindow, sorted []model.ScrapEvent) (time.Time, bool) {
	cfg := a.cfg.Dynamic
	if !cfg.Enabled || cfg.RollingWindow <= 0 || len(sorted) == 0 || window.Duration() <= 0 {
		return time.Time{}, false
	}

	initial := unitsBetween(sorted, window.Start, window.Start.Add(cfg.RollingWindow))
	if initial == 0 {
		return time.Time{}, false
	}
	threshold := cfg.DropRatio * float64(initial)

	step := cfg.RollingWindow / 4
	if step <= 0 {
		return time.Time{}, false
	}
	for at := window.Start.Add(step); !at.Add(cfg.RollingWindow).After(window.End); at = at.Add(step) {
		if float64(unitsBetween(sorted, at, at.Add(cfg.RollingWindow))) <= threshold {
			return at, true
		}
	}
	return time.Time{}, false
}

// unitsBetween sums event units with timestamps in [from, to).
func unitsBetween(sorted []model.ScrapEvent, from, to time.Time) int64 {
	var total int64
	for _, ev := range sorted {
		if !ev.Timestamp.Before(from) && ev.Timestamp.Before(to) {
			total += ev.Units
		}
	}
	return total
}
