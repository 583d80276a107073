package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the process-wide metrics container.
type Metrics struct {
	RunsTotal          *prometheus.CounterVec
	RunDuration        *prometheus.HistogramVec
	IterationsTotal    *prometheus.CounterVec
	BestObjective      *prometheus.GaugeVec
	CurrentTemperature *prometheus.GaugeVec
	DestroySize        *prometheus.HistogramVec
	OperatorWeight     *prometheus.GaugeVec
	SegmentAcceptRate  *prometheus.GaugeVec

	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics creates and registers the metrics container.
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		RunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "runs_total",
				Help:      "Total number of ALNS runs",
			},
			[]string{"status"},
		),

		RunDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "run_duration_seconds",
				Help:      "Wall-clock duration of an ALNS run",
				Buckets:   []float64{.1, .5, 1, 5, 10, 30, 60, 300, 600},
			},
			[]string{"outcome"},
		),

		IterationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "iterations_total",
				Help:      "Total number of ALNS iterations processed",
			},
			[]string{"run_id"},
		),

		BestObjective: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "best_objective",
				Help:      "Best objective value seen so far in the current run",
			},
			[]string{"run_id"},
		),

		CurrentTemperature: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "current_temperature",
				Help:      "Current simulated-annealing temperature",
			},
			[]string{"run_id"},
		),

		DestroySize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "destroy_size",
				Help:      "Number of customers removed per destroy operation",
				Buckets:   []float64{1, 2, 5, 10, 20, 30, 50, 75, 100},
			},
			[]string{"family", "policy"},
		),

		OperatorWeight: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "operator_weight",
				Help:      "Adaptive weight of a destroy/repair operator at the last segment boundary",
			},
			[]string{"run_id", "operator"},
		),

		SegmentAcceptRate: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "segment_accept_rate",
				Help:      "Fraction of iterations accepted (new-best, improving, or SA-accepted) in the last segment",
			},
			[]string{"run_id"},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Build information",
			},
			[]string{"version", "environment"},
		),
	}

	prometheus.MustRegister(NewRuntimeCollector(namespace, subsystem))

	defaultMetrics = m
	return m
}

// Get returns the process-wide metrics container, initializing it with
// defaults on first use.
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("lrp_alns", "")
	}
	return defaultMetrics
}

// RecordRunStart marks the start of an ALNS run.
func (m *Metrics) RecordRunStart() {
	m.RunsTotal.WithLabelValues("started").Inc()
}

// RecordRunEnd records the outcome and duration of a completed run.
func (m *Metrics) RecordRunEnd(outcome string, duration time.Duration) {
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordSegment records the per-segment snapshot taken at a segment boundary
// (§4.7 step 7): current best, temperature, operator weights, and accept
// rate. Never called from inside the per-iteration hot loop.
func (m *Metrics) RecordSegment(runID string, bestObjective, temperature, acceptRate float64, weights map[string]float64) {
	m.BestObjective.WithLabelValues(runID).Set(bestObjective)
	m.CurrentTemperature.WithLabelValues(runID).Set(temperature)
	m.SegmentAcceptRate.WithLabelValues(runID).Set(acceptRate)
	for op, w := range weights {
		m.OperatorWeight.WithLabelValues(runID, op).Set(w)
	}
}

// RecordIteration increments the iteration counter and destroy-size
// histogram for a single ALNS iteration.
func (m *Metrics) RecordIteration(runID, family, policy string, destroySize int) {
	m.IterationsTotal.WithLabelValues(runID).Inc()
	m.DestroySize.WithLabelValues(family, policy).Observe(float64(destroySize))
}

// SetServiceInfo sets the build information gauge.
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler returns the HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer starts a blocking HTTP server exposing /metrics.
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint, write error not actionable
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
