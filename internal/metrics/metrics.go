package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the API
	Registry = prometheus.NewRegistry()
	// HTTPRequests counts requests by method, path, and status
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)

	// SolveDuration tracks wall-clock solver time per period in seconds
	SolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "solve_duration_seconds", Help: "Solver wall-clock time per period.", Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600}},
	)
	// PeriodOutcomes counts period results by status
	PeriodOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "period_outcomes_total", Help: "Optimization period outcomes by status."},
		[]string{"status"},
	)
	// SolverIterations counts search iterations across all solves
	SolverIterations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "solver_iterations_total", Help: "Total solver search iterations."},
	)
)

// RegisterDefault registers collectors to the dedicated registry.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(HTTPRequests)
		Registry.MustRegister(HTTPDuration)
		Registry.MustRegister(SolveDuration)
		Registry.MustRegister(PeriodOutcomes)
		Registry.MustRegister(SolverIterations)
		// Go/process collectors on our registry
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

var regOnce sync.Once
