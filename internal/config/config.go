package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Analysis    AnalysisConfig    `mapstructure:"analysis"`
	Coordinator CoordinatorConfig `mapstructure:"coordinator"`
	Catalog     CatalogConfig     `mapstructure:"catalog"`
	Telegram    TelegramConfig    `mapstructure:"telegram"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// AnalysisConfig holds parameters shared by the seismology estimators
type AnalysisConfig struct {
	BinWidth         float64  `mapstructure:"bin_width"`
	McCorrection     float64  `mapstructure:"mc_correction"`
	MinMagnitude     *float64 `mapstructure:"min_magnitude"`
	DeclusterWindows string   `mapstructure:"decluster_windows"`
	MinClusterSize   int      `mapstructure:"min_cluster_size"`
	DayCap           int      `mapstructure:"day_cap"`
}

// CoordinatorConfig holds background computation and sampling configuration
type CoordinatorConfig struct {
	SampleBudget      int     `mapstructure:"sample_budget"`
	SampleTopFraction float64 `mapstructure:"sample_top_fraction"`
	CacheMaxEntries   int     `mapstructure:"cache_max_entries"`
}

// CatalogConfig holds catalogue REST API configuration
type CatalogConfig struct {
	APIBaseURL     string        `mapstructure:"api_base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// TelegramConfig holds Telegram alert configuration
type TelegramConfig struct {
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	Enabled        bool          `mapstructure:"enabled"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// MetricsConfig holds Prometheus exposition configuration
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
// An empty path yields defaults plus environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Enable environment variable override
	v.SetEnvPrefix("QUAKELENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	// Analysis defaults
	v.SetDefault("analysis.bin_width", 0.1)
	v.SetDefault("analysis.mc_correction", 0.2)
	v.SetDefault("analysis.decluster_windows", "gardner-knopoff")
	v.SetDefault("analysis.min_cluster_size", 3)
	v.SetDefault("analysis.day_cap", 365)

	// Coordinator defaults
	v.SetDefault("coordinator.sample_budget", 5000)
	v.SetDefault("coordinator.sample_top_fraction", 0.2)
	v.SetDefault("coordinator.cache_max_entries", 64)

	// Catalog defaults
	v.SetDefault("catalog.api_base_url", "http://localhost:8000")
	v.SetDefault("catalog.timeout", "30s")
	v.SetDefault("catalog.max_retries", 3)
	v.SetDefault("catalog.retry_delay_base", "1s")

	// Telegram defaults
	v.SetDefault("telegram.max_retries", 3)
	v.SetDefault("telegram.retry_delay_base", "1s")

	// Metrics defaults
	v.SetDefault("metrics.listen_addr", ":9090")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	// Validate Analysis config
	if c.Analysis.BinWidth < 0.001 || c.Analysis.BinWidth > 1 {
		return fmt.Errorf("analysis.bin_width must be between 0.001 and 1.0")
	}
	if c.Analysis.McCorrection < -1 || c.Analysis.McCorrection > 1 {
		return fmt.Errorf("analysis.mc_correction must be between -1.0 and 1.0")
	}
	if c.Analysis.MinMagnitude != nil && (*c.Analysis.MinMagnitude < -3 || *c.Analysis.MinMagnitude > 10) {
		return fmt.Errorf("analysis.min_magnitude must be between -3.0 and 10.0")
	}
	validWindows := map[string]bool{"gardner-knopoff": true, "uhrhammer": true}
	if !validWindows[c.Analysis.DeclusterWindows] {
		return fmt.Errorf("analysis.decluster_windows must be one of: gardner-knopoff, uhrhammer")
	}
	if c.Analysis.MinClusterSize < 2 {
		return fmt.Errorf("analysis.min_cluster_size must be at least 2")
	}
	if c.Analysis.DayCap < 1 {
		return fmt.Errorf("analysis.day_cap must be at least 1")
	}

	// Validate Coordinator config
	if c.Coordinator.SampleBudget < 1 {
		return fmt.Errorf("coordinator.sample_budget must be at least 1")
	}
	if c.Coordinator.SampleTopFraction < 0.0 || c.Coordinator.SampleTopFraction > 1.0 {
		return fmt.Errorf("coordinator.sample_top_fraction must be between 0.0 and 1.0")
	}
	if c.Coordinator.CacheMaxEntries < 1 {
		return fmt.Errorf("coordinator.cache_max_entries must be at least 1")
	}

	// Validate Catalog config
	if c.Catalog.APIBaseURL == "" {
		return fmt.Errorf("catalog.api_base_url is required")
	}
	if c.Catalog.Timeout < 1*time.Second {
		return fmt.Errorf("catalog.timeout must be at least 1 second")
	}
	if c.Catalog.MaxRetries < 1 {
		return fmt.Errorf("catalog.max_retries must be at least 1")
	}

	// Validate Telegram config
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}

	// Validate Metrics config
	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return fmt.Errorf("metrics.listen_addr is required when metrics are enabled")
	}

	// Validate Logging config
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	return nil
}
