// Package metrics records scenario outcomes of a load run in a Prometheus
// registry and optionally serves it over HTTP.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Metric names
const (
	MetricScenariosTotal   = "loadgen_scenarios_total"
	MetricScenarioDuration = "loadgen_scenario_duration_seconds"
	MetricUnitsOrdered     = "loadgen_units_ordered_total"
	MetricActiveWorkers    = "loadgen_active_workers"
)

// Outcomes of a scenario run
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
	OutcomeError    = "error"
)

// Recorder collects load run metrics
type Recorder struct {
	registry      *prometheus.Registry
	scenarios     *prometheus.CounterVec
	durations     *prometheus.HistogramVec
	unitsOrdered  prometheus.Counter
	activeWorkers prometheus.Gauge
}

// NewRecorder registers the load run metrics in a fresh registry
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		scenarios: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricScenariosTotal,
			Help: "Scenario runs by scenario and outcome",
		}, []string{"scenario", "outcome"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricScenarioDuration,
			Help:    "Scenario run duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"scenario"}),
		unitsOrdered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricUnitsOrdered,
			Help: "Units bought through successful checkouts",
		}),
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricActiveWorkers,
			Help: "Workers currently running",
		}),
	}
	r.registry.MustRegister(r.scenarios, r.durations, r.unitsOrdered, r.activeWorkers)
	return r
}

// Observe records one scenario run
func (r *Recorder) Observe(scenario, outcome string, d time.Duration) {
	r.scenarios.WithLabelValues(scenario, outcome).Inc()
	r.durations.WithLabelValues(scenario).Observe(d.Seconds())
}

// AddUnitsOrdered counts units bought by a checkout
func (r *Recorder) AddUnitsOrdered(n int) {
	r.unitsOrdered.Add(float64(n))
}

// WorkerStarted marks a worker as running
func (r *Recorder) WorkerStarted() { r.activeWorkers.Inc() }

// WorkerStopped marks a worker as finished
func (r *Recorder) WorkerStopped() { r.activeWorkers.Dec() }

// Count returns how many runs of scenario ended with outcome
func (r *Recorder) Count(scenario, outcome string) float64 {
	return counterValue(r.scenarios.WithLabelValues(scenario, outcome))
}

// UnitsOrdered returns the total units bought
func (r *Recorder) UnitsOrdered() float64 {
	return counterValue(r.unitsOrdered)
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Serve exposes /metrics on addr until ctx is done
func (r *Recorder) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func counterValue(c prometheus.Counter) float64 {
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}
