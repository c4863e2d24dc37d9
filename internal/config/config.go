// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Network   NetworkConfig   `mapstructure:"network" yaml:"network"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline" yaml:"pipeline"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts" yaml:"artifacts"`
	Heal      HealConfig      `mapstructure:"heal" yaml:"heal"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig holds settings for the headless browser instance.
type BrowserConfig struct {
	Headless        bool           `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Args            []string       `mapstructure:"args" yaml:"args"`
	Viewport        map[string]int `mapstructure:"viewport" yaml:"viewport"`
	// TypeDelay is the per-character delay of the fallback character-by-
	// character typing path.
	TypeDelay time.Duration `mapstructure:"type_delay" yaml:"type_delay"`
}

// NetworkConfig tunes navigation behavior. Page-level navigation timeouts are
// owned here, not by the pipeline.
type NetworkConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration `mapstructure:"post_load_wait" yaml:"post_load_wait"`
}

// PipelineConfig tunes the resolve-locate-fill pipeline.
type PipelineConfig struct {
	MaxRetries      int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	VisibilityWait  time.Duration `mapstructure:"visibility_wait" yaml:"visibility_wait"`
	ProximityBandPx float64       `mapstructure:"proximity_band_px" yaml:"proximity_band_px"`
	SettleWait      time.Duration `mapstructure:"settle_wait" yaml:"settle_wait"`
}

// ArtifactsConfig says where run outputs land.
type ArtifactsConfig struct {
	ScreenshotDir string `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
	ReportPath    string `mapstructure:"report_path" yaml:"report_path"`
}

// HealConfig configures the offline selector-healing flow.
type HealConfig struct {
	OutputPath string `mapstructure:"output_path" yaml:"output_path"`
	// Roles is the ordered role list the discovery ladder probes.
	Roles []string `mapstructure:"roles" yaml:"roles"`
	// VisibilityWait bounds the settle wait on a confirmed replacement.
	VisibilityWait time.Duration `mapstructure:"visibility_wait" yaml:"visibility_wait"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "autoform")
	v.SetDefault("logger.log_file", "autoform.log")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.viewport", map[string]int{"width": 1440, "height": 900})
	v.SetDefault("browser.type_delay", "35ms")

	// -- Network --
	v.SetDefault("network.navigation_timeout", "60s")
	v.SetDefault("network.post_load_wait", "2s")

	// -- Pipeline --
	v.SetDefault("pipeline.max_retries", 2)
	v.SetDefault("pipeline.retry_delay", "1s")
	v.SetDefault("pipeline.visibility_wait", "3s")
	v.SetDefault("pipeline.proximity_band_px", 150)
	v.SetDefault("pipeline.settle_wait", "1500ms")

	// -- Artifacts --
	v.SetDefault("artifacts.screenshot_dir", "artifacts/screenshots")
	v.SetDefault("artifacts.report_path", "artifacts/report.json")

	// -- Heal --
	v.SetDefault("heal.output_path", "artifacts/corrections.json")
	v.SetDefault("heal.roles", []string{"checkbox", "switch", "radio", "spinbutton", "combobox", "textbox", "button"})
	v.SetDefault("heal.visibility_wait", "3s")
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults only, but fail loudly if it does.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Pipeline.MaxRetries < 0 {
		return fmt.Errorf("pipeline.max_retries must not be negative")
	}
	if c.Pipeline.RetryDelay <= 0 {
		return fmt.Errorf("pipeline.retry_delay must be a positive duration")
	}
	if c.Pipeline.ProximityBandPx <= 0 {
		return fmt.Errorf("pipeline.proximity_band_px must be positive")
	}
	if c.Network.NavigationTimeout <= 0 {
		return fmt.Errorf("network.navigation_timeout must be a positive duration")
	}
	return nil
}
