// Package config loads application settings from config.yaml and the
// environment. It is deliberately a plain bag of values; consumers
// convert sections into their own domain types.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Analysis   AnalysisConfig   `yaml:"analysis" mapstructure:"analysis"`
	Fleet      FleetConfig      `yaml:"fleet" mapstructure:"fleet"`
	Scrap      ScrapConfig      `yaml:"scrap" mapstructure:"scrap"`
	Thresholds ThresholdsConfig `yaml:"thresholds" mapstructure:"thresholds"`
}

// StoreConfig configures the run-history backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// AnalysisConfig tunes the analysis commands.
type AnalysisConfig struct {
	SensitivityVariation float64 `yaml:"sensitivity_variation" mapstructure:"sensitivity_variation"`
}

// FleetConfig configures multi-machine aggregation.
type FleetConfig struct {
	Strategy      string `yaml:"strategy" mapstructure:"strategy"`
	MaxConcurrent int    `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ScrapConfig tunes startup-window detection for temporal scrap analysis.
type ScrapConfig struct {
	FixedStartupDuration time.Duration `yaml:"fixed_startup_duration" mapstructure:"fixed_startup_duration"`
	WindowPercent        float64       `yaml:"window_percent" mapstructure:"window_percent"`
	DynamicEnabled       bool          `yaml:"dynamic_enabled" mapstructure:"dynamic_enabled"`
	DynamicRollingWindow time.Duration `yaml:"dynamic_rolling_window" mapstructure:"dynamic_rolling_window"`
	DynamicDropRatio     float64       `yaml:"dynamic_drop_ratio" mapstructure:"dynamic_drop_ratio"`
}

// ThresholdsConfig overrides the built-in classification thresholds. A
// per-run thresholds file takes precedence over this section.
type ThresholdsConfig struct {
	MicroStoppageThreshold  time.Duration `yaml:"micro_stoppage_threshold" mapstructure:"micro_stoppage_threshold"`
	SmallStopThreshold      time.Duration `yaml:"small_stop_threshold" mapstructure:"small_stop_threshold"`
	SpeedLossThreshold      float64       `yaml:"speed_loss_threshold" mapstructure:"speed_loss_threshold"`
	HighScrapRateThreshold  float64       `yaml:"high_scrap_rate_threshold" mapstructure:"high_scrap_rate_threshold"`
	LowUtilizationThreshold float64       `yaml:"low_utilization_threshold" mapstructure:"low_utilization_threshold"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OEE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "oee.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("analysis.sensitivity_variation", 0.10)
	v.SetDefault("fleet.strategy", "time_weighted")
	v.SetDefault("fleet.max_concurrent", 8)
	v.SetDefault("scrap.fixed_startup_duration", "30m")
	v.SetDefault("scrap.window_percent", 0.10)
	v.SetDefault("scrap.dynamic_enabled", true)
	v.SetDefault("scrap.dynamic_rolling_window", "10m")
	v.SetDefault("scrap.dynamic_drop_ratio", 0.25)
	v.SetDefault("thresholds.micro_stoppage_threshold", "60s")
	v.SetDefault("thresholds.small_stop_threshold", "5m")
	v.SetDefault("thresholds.speed_loss_threshold", 0.10)
	v.SetDefault("thresholds.high_scrap_rate_threshold", 0.05)
	v.SetDefault("thresholds.low_utilization_threshold", 0.60)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var problems []string

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required for the postgres driver")
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		problems = append(problems, "log.format must be json or console")
	}

	if c.Analysis.SensitivityVariation <= 0 || c.Analysis.SensitivityVariation >= 1 {
		problems = append(problems, "analysis.sensitivity_variation must be between 0 and 1 exclusive")
	}

	if c.Fleet.MaxConcurrent < 1 || c.Fleet.MaxConcurrent > 64 {
		problems = append(problems, "fleet.max_concurrent must be between 1 and 64")
	}

	if c.Scrap.WindowPercent < 0 || c.Scrap.WindowPercent > 1 {
		problems = append(problems, "scrap.window_percent must be between 0 and 1")
	}
	if c.Scrap.DynamicDropRatio <= 0 || c.Scrap.DynamicDropRatio >= 1 {
		problems = append(problems, "scrap.dynamic_drop_ratio must be between 0 and 1 exclusive")
	}

	if c.Thresholds.MicroStoppageThreshold < 0 || c.Thresholds.SmallStopThreshold < 0 {
		problems = append(problems, "thresholds durations must not be negative")
	}
	if c.Thresholds.MicroStoppageThreshold > c.Thresholds.SmallStopThreshold {
		problems = append(problems, "thresholds.micro_stoppage_threshold must not exceed thresholds.small_stop_threshold")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
