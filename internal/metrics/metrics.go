package metrics

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Core synchronization primitives
	initOnce       sync.Once
	serverMutex    sync.Mutex
	currentSrv     *http.Server
	triggerChannel chan struct{}
)

// Init initializes all metrics subsystems and registers them with Prometheus
// This function is safe to call multiple times (uses sync.Once)
func Init() {
	initOnce.Do(func() {
		initOperationMetrics()
		initDaemonMetrics()

		registerOperationMetrics()
		registerDaemonMetrics()

		// Expose the gauge before the first cycle runs
		ClearLastRunTimestamp.Set(0)
	})
}

// SetTriggerChannel sets the channel for triggering clearing cycles
func SetTriggerChannel(ch chan struct{}) {
	serverMutex.Lock()
	defer serverMutex.Unlock()
	triggerChannel = ch
}

// NewHandler builds the metrics mux: /metrics, /health and /trigger
func NewHandler() http.Handler {
	Init()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","healthy":true}`))
	})

	mux.HandleFunc("/trigger", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		serverMutex.Lock()
		ch := triggerChannel
		serverMutex.Unlock()

		if ch == nil {
			http.Error(w, "Trigger channel not initialized", http.StatusServiceUnavailable)
			return
		}
		select {
		case ch <- struct{}{}:
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Clearing cycle triggered"))
		default:
			http.Error(w, "Trigger channel full", http.StatusServiceUnavailable)
		}
	})

	return mux
}

// StartServer starts the metrics HTTP server on the specified address
func StartServer(addr string, logger *log.Logger) {
	serverMutex.Lock()
	defer serverMutex.Unlock()

	if currentSrv != nil {
		logger.Printf("metrics server already running on %s", currentSrv.Addr)
		return
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           NewHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	currentSrv = srv

	go func() {
		logger.Printf("metrics server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Printf("metrics server error: %v", err)
			ErrorsTotal.Inc()
		}
	}()
}

// Shutdown gracefully shuts down the metrics server
func Shutdown(ctx context.Context, logger *log.Logger) {
	serverMutex.Lock()
	defer serverMutex.Unlock()

	if currentSrv == nil {
		return
	}

	if err := currentSrv.Shutdown(ctx); err != nil {
		logger.Printf("metrics server shutdown error: %v", err)
		ErrorsTotal.Inc()
	}
	currentSrv = nil
}
