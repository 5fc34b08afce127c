// Package main provides the CLI entry point for the storefront load generator.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flowershop/storefront/tools/loadgen/internal/client"
	"github.com/flowershop/storefront/tools/loadgen/internal/config"
	"github.com/flowershop/storefront/tools/loadgen/internal/metrics"
	"github.com/flowershop/storefront/tools/loadgen/internal/pool"
	"github.com/flowershop/storefront/tools/loadgen/internal/runner"
)

// Version information (populated at build time)
var version = "dev"

// options are the command line overrides
type options struct {
	configPath  string
	baseURL     string
	duration    time.Duration
	workers     int
	qps         float64
	metricsAddr string
	validate    bool
	showVersion bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*options, error) {
	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "Path to the YAML configuration file (defaults are used when empty)")
	fs.StringVar(&opts.configPath, "c", "", "Path to the YAML configuration file (shorthand)")
	fs.StringVar(&opts.baseURL, "target", "", "Override the storefront API base URL")
	fs.DurationVar(&opts.duration, "duration", 0, "Override run duration (e.g., 5m)")
	fs.DurationVar(&opts.duration, "d", 0, "Override run duration (shorthand)")
	fs.IntVar(&opts.workers, "workers", 0, "Override number of concurrent virtual users")
	fs.Float64Var(&opts.qps, "qps", 0, "Override scenario starts per second")
	fs.StringVar(&opts.metricsAddr, "metrics", "", "Serve Prometheus metrics on this address (e.g., :9091)")
	fs.BoolVar(&opts.validate, "validate", false, "Validate configuration and exit")
	fs.BoolVar(&opts.showVersion, "version", false, "Show version information")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return opts, nil
}

// loadConfig reads the configuration file and applies the flag overrides
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.baseURL != "" {
		cfg.Target.BaseURL = opts.baseURL
	}
	if opts.duration > 0 {
		cfg.Duration = opts.duration
	}
	if opts.workers > 0 {
		cfg.Workers = opts.workers
	}
	if opts.qps > 0 {
		cfg.QPS = opts.qps
	}
	if opts.metricsAddr != "" {
		cfg.MetricsAddr = opts.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if opts.showVersion {
		fmt.Printf("storefront-loadgen %s\n", version)
		return
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if opts.validate {
		fmt.Println("Configuration is valid")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	api, err := client.New(cfg.Target)
	if err != nil {
		return err
	}
	recorder := metrics.NewRecorder()
	values := pool.New(pool.DefaultConfig())
	defer values.Close()

	if cfg.MetricsAddr != "" {
		metricsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := recorder.Serve(metricsCtx, cfg.MetricsAddr); err != nil && !errors.Is(err, context.Canceled) {
				fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
			}
		}()
	}

	fmt.Fprintf(out, "Running %q against %s: %d workers, %.0f qps, %s\n",
		cfg.Name, cfg.Target.BaseURL, cfg.Workers, cfg.QPS, cfg.Duration)

	start := time.Now()
	if err := runner.New(*cfg, api, recorder, values).Run(ctx); err != nil {
		return err
	}
	printSummary(out, recorder, time.Since(start))
	return nil
}

func printSummary(out io.Writer, rec *metrics.Recorder, elapsed time.Duration) {
	fmt.Fprintf(out, "\nFinished in %s\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "%-10s %8s %8s %8s %8s\n", "SCENARIO", "OK", "REJECTED", "SKIPPED", "ERROR")
	for _, s := range []string{runner.ScenarioBrowse, runner.ScenarioPurchase, runner.ScenarioConfirm, runner.ScenarioCancel} {
		fmt.Fprintf(out, "%-10s %8.0f %8.0f %8.0f %8.0f\n", s,
			rec.Count(s, metrics.OutcomeOK),
			rec.Count(s, metrics.OutcomeRejected),
			rec.Count(s, metrics.OutcomeSkipped),
			rec.Count(s, metrics.OutcomeError))
	}
	fmt.Fprintf(out, "Units ordered: %.0f\n", rec.UnitsOrdered())
}
