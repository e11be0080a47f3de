package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric definitions for the featurize CLI

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ffe",
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of feature runs",
		},
		[]string{"source", "status"},
	)

	runDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ffe",
			Subsystem: "pipeline",
			Name:      "run_duration_seconds",
			Help:      "Feature run duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 15), // 10ms to ~5min
		},
		[]string{"source"},
	)

	rowsIn = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ffe",
			Subsystem: "pipeline",
			Name:      "rows_in_total",
			Help:      "Input rows read across runs",
		},
	)

	rowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ffe",
			Subsystem: "pipeline",
			Name:      "rows_dropped_total",
			Help:      "Input rows dropped during normalization",
		},
		[]string{"reason"},
	)

	rowsOut = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ffe",
			Subsystem: "pipeline",
			Name:      "rows_out_total",
			Help:      "Feature rows produced across runs",
		},
	)

	datasetLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ffe",
			Subsystem: "dataset",
			Name:      "load_duration_seconds",
			Help:      "Input load duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		},
		[]string{"source"},
	)

	exportRowsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ffe",
			Subsystem: "dataset",
			Name:      "export_rows_total",
			Help:      "Feature rows written to the output",
		},
		[]string{"format"},
	)

	dbPoolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "ffe",
			Subsystem: "db",
			Name:      "pool_connections",
			Help:      "Database connection pool state",
		},
		[]string{"state"},
	)
)

// MetricsHandler returns the prometheus scrape handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer serves /metrics and /healthz on the given address until
// Shutdown is called on the returned server.
func StartMetricsServer(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics listener started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics listener failed", "error", err)
		}
	}()

	return srv
}

// RecordRun records the outcome of one feature run
func RecordRun(source string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	runsTotal.WithLabelValues(source, status).Inc()
	runDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordRowAccounting records the run's row conservation counts
func RecordRowAccounting(in, out int64, droppedByReason map[string]int64) {
	rowsIn.Add(float64(in))
	rowsOut.Add(float64(out))
	for reason, count := range droppedByReason {
		rowsDropped.WithLabelValues(reason).Add(float64(count))
	}
}

// RecordDatasetLoad records input load latency
func RecordDatasetLoad(source string, duration time.Duration) {
	datasetLoadDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordExport records rows written to the output file
func RecordExport(format string, rows int64) {
	exportRowsWritten.WithLabelValues(format).Add(float64(rows))
}

// UpdateDBPoolMetrics updates the database pool gauges
func UpdateDBPoolMetrics(active, idle, total int64) {
	dbPoolConnections.WithLabelValues("active").Set(float64(active))
	dbPoolConnections.WithLabelValues("idle").Set(float64(idle))
	dbPoolConnections.WithLabelValues("total").Set(float64(total))
}

// ShutdownMetricsServer stops the metrics listener gracefully
func ShutdownMetricsServer(srv *http.Server, logger *slog.Logger) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("metrics listener shutdown failed", "error", err)
	}
}
