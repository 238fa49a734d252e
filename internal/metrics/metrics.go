// Package metrics exposes the Prometheus collectors for the dashboard
// process.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	TestsStarted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "speedboard_tests_started_total",
		Help: "Total number of measurement runs started",
	})
	TestsCompleted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "speedboard_tests_completed_total",
		Help: "Total number of measurement runs completed",
	})
	TestsCancelled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "speedboard_tests_cancelled_total",
		Help: "Total number of measurement runs cancelled before completion",
	})
	Progress = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "speedboard_test_progress_percent",
		Help: "Progress of the current measurement run (0-100)",
	})
	HTTPRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "speedboard_http_requests_total",
		Help: "Total number of HTTP requests served",
	})

	registerOnce sync.Once
)

func init() {
	Register()
}

// Register installs all collectors on the default registry. Safe to
// call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			TestsStarted,
			TestsCompleted,
			TestsCancelled,
			Progress,
			HTTPRequestsTotal,
		)
	})
}
