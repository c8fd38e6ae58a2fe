package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Tree operation metrics
var (
	// OperationsTotal counts top-level operations by name and outcome
	OperationsTotal *prometheus.CounterVec

	// OperationDuration tracks how long top-level operations take
	OperationDuration *prometheus.HistogramVec

	// EntriesRemovedTotal counts files and directories removed, per operation
	EntriesRemovedTotal *prometheus.CounterVec

	// BytesCopiedTotal tracks bytes written by copy, store and move
	BytesCopiedTotal prometheus.Counter

	// CopySizeBytes tracks the size of individual copies
	CopySizeBytes prometheus.Histogram
)

func initOperationMetrics() {
	OperationsTotal = NewCounterVec(
		"fileutils_operations_total",
		"Total tree operations by operation and outcome.",
		[]string{"operation", "outcome"},
	)

	OperationDuration = NewDurationHistogramVec(
		"fileutils_operation_duration_seconds",
		"Duration of tree operations in seconds.",
		[]string{"operation"},
	)

	EntriesRemovedTotal = NewCounterVec(
		"fileutils_entries_removed_total",
		"Total files and directories removed.",
		[]string{"operation"},
	)

	BytesCopiedTotal = NewCounter(
		"fileutils_bytes_copied_total",
		"Total bytes written by copy operations.",
	)

	CopySizeBytes = NewBytesHistogram(
		"fileutils_copy_size_bytes",
		"Size of individual copy operations in bytes.",
	)
}

func registerOperationMetrics() {
	prometheus.MustRegister(OperationsTotal)
	prometheus.MustRegister(OperationDuration)
	prometheus.MustRegister(EntriesRemovedTotal)
	prometheus.MustRegister(BytesCopiedTotal)
	prometheus.MustRegister(CopySizeBytes)
}

// RecordOperation records the outcome and duration of one operation.
func RecordOperation(operation string, err error, elapsed time.Duration) {
	Init()
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	OperationsTotal.WithLabelValues(operation, outcome).Inc()
	OperationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// RecordRemoved adds n removed entries for an operation.
func RecordRemoved(operation string, n int) {
	Init()
	if n <= 0 {
		return
	}
	EntriesRemovedTotal.WithLabelValues(operation).Add(float64(n))
}

// RecordCopied records one finished copy of n bytes.
func RecordCopied(n int64) {
	Init()
	if n < 0 {
		return
	}
	BytesCopiedTotal.Add(float64(n))
	CopySizeBytes.Observe(float64(n))
}
