// Package config loads the YAML configuration of the storefront load generator.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Errors returned by the config package.
var (
	ErrInvalidConfig  = errors.New("config: invalid configuration")
	ErrConfigNotFound = errors.New("config: configuration file not found")
)

// Config is the root configuration of a load run
type Config struct {
	Name     string        `yaml:"name"`
	Target   TargetConfig  `yaml:"target"`
	Admin    AdminConfig   `yaml:"admin"`
	Duration time.Duration `yaml:"duration"`
	// Workers is the number of concurrent virtual users
	Workers int `yaml:"workers"`
	// QPS caps scenario starts per second across all workers (0 means no cap)
	QPS float64 `yaml:"qps"`
	// Burst is the rate limiter burst size
	Burst     int             `yaml:"burst"`
	Scenarios ScenarioWeights `yaml:"scenarios"`
	// MaxQuantity is the largest quantity a buyer puts into the cart
	MaxQuantity int `yaml:"maxQuantity"`
	// MetricsAddr exposes Prometheus metrics when set (e.g. ":9091")
	MetricsAddr string `yaml:"metricsAddr"`
}

// TargetConfig describes the storefront under test
type TargetConfig struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
}

// AdminConfig holds the back-office account used to confirm and cancel orders
type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ScenarioWeights sets how often each scenario is picked
type ScenarioWeights struct {
	Browse   int `yaml:"browse"`
	Purchase int `yaml:"purchase"`
	Confirm  int `yaml:"confirm"`
	Cancel   int `yaml:"cancel"`
}

// Total returns the sum of all weights
func (w ScenarioWeights) Total() int {
	return w.Browse + w.Purchase + w.Confirm + w.Cancel
}

// Default returns the configuration used for missing fields
func Default() Config {
	return Config{
		Name:     "storefront",
		Target:   TargetConfig{BaseURL: "http://localhost:8080/api/v1", Timeout: 10 * time.Second},
		Admin:    AdminConfig{Username: "admin", Password: "admin123"},
		Duration: time.Minute,
		Workers:  8,
		QPS:      20,
		Burst:    5,
		Scenarios: ScenarioWeights{
			Browse:   50,
			Purchase: 30,
			Confirm:  10,
			Cancel:   10,
		},
		MaxQuantity: 3,
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
			}
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	var errs []error
	if c.Target.BaseURL == "" {
		errs = append(errs, errors.New("target.baseURL is required"))
	}
	if c.Duration <= 0 {
		errs = append(errs, errors.New("duration must be positive"))
	}
	if c.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}
	if c.QPS < 0 {
		errs = append(errs, errors.New("qps cannot be negative"))
	}
	if c.MaxQuantity <= 0 {
		errs = append(errs, errors.New("maxQuantity must be positive"))
	}
	if c.Scenarios.Total() <= 0 {
		errs = append(errs, errors.New("at least one scenario weight must be positive"))
	}
	if (c.Scenarios.Confirm > 0 || c.Scenarios.Cancel > 0) && c.Admin.Username == "" {
		errs = append(errs, errors.New("admin.username is required for confirm and cancel scenarios"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
