package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "loadgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
name: flash-sale
target:
  baseURL: http://shop:8080/api/v1
duration: 30s
workers: 32
scenarios:
  browse: 0
  purchase: 100
  confirm: 0
  cancel: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "flash-sale", cfg.Name)
	assert.Equal(t, "http://shop:8080/api/v1", cfg.Target.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Target.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Duration)
	assert.Equal(t, 32, cfg.Workers)
	assert.Equal(t, 100, cfg.Scenarios.Purchase)
	assert.Zero(t, cfg.Scenarios.Browse)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no base url", func(c *Config) { c.Target.BaseURL = "" }},
		{"zero workers", func(c *Config) { c.Workers = 0 }},
		{"zero duration", func(c *Config) { c.Duration = 0 }},
		{"negative qps", func(c *Config) { c.QPS = -1 }},
		{"no scenarios", func(c *Config) { c.Scenarios = ScenarioWeights{} }},
		{"admin scenarios without admin", func(c *Config) { c.Admin.Username = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}
