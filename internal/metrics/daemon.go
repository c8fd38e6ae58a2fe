package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Daemon subsystem metrics
var (
	// ErrorsTotal tracks total errors encountered by the daemon
	ErrorsTotal prometheus.Counter

	// ClearCyclesTotal counts scheduled clearing cycles
	ClearCyclesTotal prometheus.Counter

	// ClearLastRunTimestamp records Unix timestamp of the last clearing cycle
	ClearLastRunTimestamp prometheus.Gauge

	// ClearLastRemoved tracks entries removed per rule path in the last cycle
	ClearLastRemoved *prometheus.GaugeVec
)

// initDaemonMetrics initializes all daemon subsystem metrics
func initDaemonMetrics() {
	ErrorsTotal = NewCounter(
		"fileutils_daemon_errors_total",
		"Total number of errors encountered by the clearing daemon.",
	)

	ClearCyclesTotal = NewCounter(
		"fileutils_daemon_clear_cycles_total",
		"Total number of clearing cycles run by the daemon.",
	)

	ClearLastRunTimestamp = NewGauge(
		"fileutils_daemon_clear_last_run_timestamp",
		"Timestamp of the last clearing cycle (Unix epoch seconds).",
	)

	ClearLastRemoved = NewGaugeVec(
		"fileutils_daemon_clear_last_removed",
		"Entries removed per rule path during the last clearing cycle.",
		[]string{"path"},
	)
}

// registerDaemonMetrics registers all daemon metrics with Prometheus
func registerDaemonMetrics() {
	prometheus.MustRegister(ErrorsTotal)
	prometheus.MustRegister(ClearCyclesTotal)
	prometheus.MustRegister(ClearLastRunTimestamp)
	prometheus.MustRegister(ClearLastRemoved)
}

// RecordClearCycle marks the start of a clearing cycle
func RecordClearCycle() {
	Init()
	ClearCyclesTotal.Inc()
	ClearLastRunTimestamp.Set(float64(time.Now().Unix()))
}

// RecordRuleResult sets the entries removed for a rule path in the current cycle
func RecordRuleResult(path string, removed int, err error) {
	Init()
	ClearLastRemoved.WithLabelValues(path).Set(float64(removed))
	if err != nil {
		ErrorsTotal.Inc()
	}
}
