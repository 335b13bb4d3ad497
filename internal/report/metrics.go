package report

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/themizzi/storecheck/internal/harness"
)

const namespace = "storecheck"

// Recorder keeps suite metrics in its own registry so several recorders can
// coexist in one process and tests.
type Recorder struct {
	reg *prometheus.Registry

	scenarios   *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	lastRun     prometheus.Gauge
	lastSuccess prometheus.Gauge
	lastFailed  *prometheus.GaugeVec
	runDuration prometheus.Gauge
}

// NewRecorder registers the suite metrics on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	auto := promauto.With(reg)
	return &Recorder{
		reg: reg,
		scenarios: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "results_total",
			Help:      "Scenario results by outcome and failure kind",
		}, []string{"scenario", "outcome", "kind"}),
		duration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scenario",
			Name:      "duration_seconds",
			Help:      "Scenario wall time",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome"}),
		runs: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "total",
			Help:      "Suite runs by status",
		}, []string{"status"}),
		lastRun: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_timestamp_seconds",
			Help:      "Unix time the last suite run finished",
		}),
		lastSuccess: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_success",
			Help:      "1 when the last suite run passed, 0 otherwise",
		}),
		lastFailed: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_failures",
			Help:      "Failed scenarios in the last run by kind",
		}, []string{"kind"}),
		runDuration: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "run",
			Name:      "last_duration_seconds",
			Help:      "Wall time of the last suite run",
		}),
	}
}

// Registry exposes the recorder's metrics, e.g. to promhttp.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// Record adds one suite run.
func (r *Recorder) Record(res harness.Results, elapsed time.Duration, finished time.Time) {
	for _, t := range res.Tests {
		kind := ""
		if t.Failed() {
			kind = t.Kind().String()
		}
		r.scenarios.WithLabelValues(t.TestID.String(), t.Outcome(), kind).Inc()
		r.duration.WithLabelValues(t.Outcome()).Observe(t.Duration.Seconds())
	}
	status := harness.OutcomePassed
	success := 1.0
	if !res.OK() {
		status, success = harness.OutcomeFailed, 0
	}
	r.runs.WithLabelValues(status).Inc()
	r.lastRun.Set(float64(finished.Unix()))
	r.lastSuccess.Set(success)
	r.runDuration.Set(elapsed.Seconds())
	counts := res.ByKind()
	for _, k := range harness.Kinds {
		r.lastFailed.WithLabelValues(k.String()).Set(float64(counts[k]))
	}
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
