package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowershop/storefront/tools/loadgen/internal/metrics"
	"github.com/flowershop/storefront/tools/loadgen/internal/runner"
)

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: smoke\nworkers: 2\nqps: 5\n"), 0o600))

	opts, err := parseFlags(flag.NewFlagSet("loadgen", flag.ContinueOnError),
		[]string{"-c", path, "-workers", "6", "-d", "30s", "-target", "http://shop:8080/api/v1"})
	require.NoError(t, err)

	cfg, err := loadConfig(opts)
	require.NoError(t, err)
	assert.Equal(t, "smoke", cfg.Name)
	assert.Equal(t, 6, cfg.Workers)
	assert.Equal(t, 5.0, cfg.QPS)
	assert.Equal(t, 30*time.Second, cfg.Duration)
	assert.Equal(t, "http://shop:8080/api/v1", cfg.Target.BaseURL)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := loadConfig(&options{configPath: filepath.Join(t.TempDir(), "absent.yaml")})
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	rec := metrics.NewRecorder()
	rec.Observe(runner.ScenarioPurchase, metrics.OutcomeOK, time.Millisecond)
	rec.Observe(runner.ScenarioPurchase, metrics.OutcomeRejected, time.Millisecond)
	rec.AddUnitsOrdered(3)

	var buf bytes.Buffer
	printSummary(&buf, rec, time.Second)

	assert.Contains(t, buf.String(), "purchase")
	assert.Contains(t, buf.String(), "Units ordered: 3")
}
