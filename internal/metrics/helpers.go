package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Standard histogram buckets for different metric types
var (
	// DurationBuckets: 1ms to 5min for tree operation durations
	DurationBuckets = []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30, 300}

	// BytesBuckets: 1KB to 1GB for copied payload sizes
	BytesBuckets = []float64{1024, 10240, 102400, 1048576, 10485760, 104857600, 1073741824}
)

// NewDurationHistogramVec creates a labeled histogram for durations in seconds
// with standard buckets: [0.001, 0.01, 0.1, 0.5, 1, 5, 30, 300]
func NewDurationHistogramVec(name, help string, labels []string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    name,
		Help:    help,
		Buckets: DurationBuckets,
	}, labels)
}

// NewBytesHistogram creates a histogram for payload sizes in bytes
func NewBytesHistogram(name, help string) prometheus.Histogram {
	return prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    name,
		Help:    help,
		Buckets: BytesBuckets,
	})
}

// NewCounter creates a standard counter metric
func NewCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: name,
		Help: help,
	})
}

// NewCounterVec creates a labeled counter
func NewCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: name,
		Help: help,
	}, labels)
}

// NewGauge creates a standard gauge metric
func NewGauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	})
}

// NewGaugeVec creates a labeled gauge
func NewGaugeVec(name, help string, labels []string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	}, labels)
}
