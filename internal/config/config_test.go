// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 35*time.Millisecond, cfg.Browser.TypeDelay)
	assert.Equal(t, 60*time.Second, cfg.Network.NavigationTimeout)

	assert.Equal(t, 2, cfg.Pipeline.MaxRetries)
	assert.Equal(t, time.Second, cfg.Pipeline.RetryDelay)
	assert.Equal(t, float64(150), cfg.Pipeline.ProximityBandPx)
	assert.Equal(t, 1500*time.Millisecond, cfg.Pipeline.SettleWait)

	assert.NotEmpty(t, cfg.Artifacts.ScreenshotDir)
	assert.NotEmpty(t, cfg.Heal.OutputPath)
	assert.Contains(t, cfg.Heal.Roles, "spinbutton")
	assert.Equal(t, 3*time.Second, cfg.Heal.VisibilityWait)

	assert.NoError(t, cfg.Validate())
}

func TestNewConfigFromViper_OverridesDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("pipeline.max_retries", 5)
	v.Set("pipeline.retry_delay", "250ms")
	v.Set("browser.headless", false)

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.RetryDelay)
	assert.False(t, cfg.Browser.Headless)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"negative retries", func(c *Config) { c.Pipeline.MaxRetries = -1 }, "max_retries"},
		{"zero retry delay", func(c *Config) { c.Pipeline.RetryDelay = 0 }, "retry_delay"},
		{"zero proximity band", func(c *Config) { c.Pipeline.ProximityBandPx = 0 }, "proximity_band_px"},
		{"zero navigation timeout", func(c *Config) { c.Network.NavigationTimeout = 0 }, "navigation_timeout"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
