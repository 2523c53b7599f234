package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// chdirTemp moves the test into an empty directory so no stray
// config.yaml is picked up.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "oee.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.InDelta(t, 0.10, cfg.Analysis.SensitivityVariation, 0.001)
	assert.Equal(t, "time_weighted", cfg.Fleet.Strategy)
	assert.Equal(t, 8, cfg.Fleet.MaxConcurrent)
	assert.Equal(t, 30*time.Minute, cfg.Scrap.FixedStartupDuration)
	assert.InDelta(t, 0.10, cfg.Scrap.WindowPercent, 0.001)
	assert.True(t, cfg.Scrap.DynamicEnabled)
	assert.Equal(t, 10*time.Minute, cfg.Scrap.DynamicRollingWindow)
	assert.InDelta(t, 0.25, cfg.Scrap.DynamicDropRatio, 0.001)
	assert.Equal(t, 60*time.Second, cfg.Thresholds.MicroStoppageThreshold)
	assert.Equal(t, 5*time.Minute, cfg.Thresholds.SmallStopThreshold)
	assert.InDelta(t, 0.10, cfg.Thresholds.SpeedLossThreshold, 0.001)
	assert.InDelta(t, 0.05, cfg.Thresholds.HighScrapRateThreshold, 0.001)
	assert.InDelta(t, 0.60, cfg.Thresholds.LowUtilizationThreshold, 0.001)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/oee
log:
  level: debug
  format: console
fleet:
  strategy: production_weighted
  max_concurrent: 4
thresholds:
  micro_stoppage_threshold: 45s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/oee", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "production_weighted", cfg.Fleet.Strategy)
	assert.Equal(t, 4, cfg.Fleet.MaxConcurrent)
	assert.Equal(t, 45*time.Second, cfg.Thresholds.MicroStoppageThreshold)
	// Defaults still apply for unset values
	assert.Equal(t, 5*time.Minute, cfg.Thresholds.SmallStopThreshold)
	assert.InDelta(t, 0.10, cfg.Analysis.SensitivityVariation, 0.001)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("OEE_STORE_DRIVER", "postgres")
	t.Setenv("OEE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("OEE_FLEET_MAX_CONCURRENT", "16")
	t.Setenv("OEE_SCRAP_FIXED_STARTUP_DURATION", "45m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Fleet.MaxConcurrent)
	assert.Equal(t, 45*time.Minute, cfg.Scrap.FixedStartupDuration)
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	cfg.Store.Driver = "oracle"
	cfg.Log.Format = "xml"
	cfg.Analysis.SensitivityVariation = 1.5
	cfg.Fleet.MaxConcurrent = 0

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
	assert.Contains(t, err.Error(), "log.format must be json or console")
	assert.Contains(t, err.Error(), "analysis.sensitivity_variation")
	assert.Contains(t, err.Error(), "fleet.max_concurrent must be between 1 and 64")
}

func TestValidate_PostgresNeedsURL(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
}

func TestValidate_ThresholdOrdering(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	cfg.Thresholds.MicroStoppageThreshold = 10 * time.Minute
	cfg.Thresholds.SmallStopThreshold = 5 * time.Minute

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not exceed thresholds.small_stop_threshold")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
