package main

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/plantworks/oee-cli/internal/config"
	"github.com/plantworks/oee-cli/internal/ingest"
	"github.com/plantworks/oee-cli/internal/model"
	"github.com/plantworks/oee-cli/internal/scrap"
)

// loadInput reads one observation file, dispatching on extension.
func loadInput(path string) (*model.AnalysisInput, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ingest.LoadYAML(path)
	case ".json":
		return ingest.LoadJSON(path)
	case ".xlsx":
		return ingest.LoadXLSX(path)
	default:
		return nil, eris.Errorf("unsupported input format: %s (want .yaml, .json, or .xlsx)", path)
	}
}

// applyThresholds resolves the threshold layering for one input: an
// explicit --thresholds file wins outright, otherwise config overrides
// are applied, and inputs that carry their own thresholds keep them.
func applyThresholds(in *model.AnalysisInput, overridePath string) error {
	if overridePath != "" {
		th, err := ingest.LoadThresholds(overridePath)
		if err != nil {
			return err
		}
		in.Thresholds = th
		return nil
	}
	if in.Thresholds == nil {
		in.Thresholds = thresholdsFromSettings(cfg.Thresholds)
	}
	return nil
}

// thresholdsFromSettings converts the config section into an engine
// threshold set. Values matching the built-in defaults keep the default
// tag; anything the operator changed is tagged explicit.
func thresholdsFromSettings(t config.ThresholdsConfig) *model.ThresholdConfiguration {
	th := model.DefaultThresholds()
	if t.MicroStoppageThreshold != model.DefaultMicroStoppageThreshold {
		th.MicroStoppageThreshold = model.Explicit(t.MicroStoppageThreshold)
	}
	if t.SmallStopThreshold != model.DefaultSmallStopThreshold {
		th.SmallStopThreshold = model.Explicit(t.SmallStopThreshold)
	}
	if t.SpeedLossThreshold != model.DefaultSpeedLossThreshold {
		th.SpeedLossThreshold = model.Explicit(t.SpeedLossThreshold)
	}
	if t.HighScrapRateThreshold != model.DefaultHighScrapRateThreshold {
		th.HighScrapRateThreshold = model.Explicit(t.HighScrapRateThreshold)
	}
	if t.LowUtilizationThreshold != model.DefaultLowUtilizationThreshold {
		th.LowUtilizationThreshold = model.Explicit(t.LowUtilizationThreshold)
	}
	return &th
}

// scrapConfigFromSettings converts the config section into the analyzer
// configuration.
func scrapConfigFromSettings(s config.ScrapConfig) scrap.Config {
	return scrap.Config{
		FixedStartupDuration: s.FixedStartupDuration,
		WindowPercent:        s.WindowPercent,
		Dynamic: scrap.DynamicConfig{
			Enabled:       s.DynamicEnabled,
			RollingWindow: s.DynamicRollingWindow,
			DropRatio:     s.DynamicDropRatio,
		},
	}
}
