package metrics

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Registry holds all domain-specific metrics for the application
type Registry struct {
	meter metric.Meter

	// Pipeline Metrics
	RunDuration        metric.Float64Histogram
	StageDuration      metric.Float64Histogram
	RowsInCounter      metric.Int64Counter
	RowsDroppedCounter metric.Int64Counter
	RowsOutCounter     metric.Int64Counter
	EntitiesPerRun     metric.Int64Histogram
	WarningCounter     metric.Int64Counter
	RunSuccessCounter  metric.Int64Counter
	RunFailureCounter  metric.Int64Counter
	RowsPerSecond      metric.Float64ObservableGauge

	// Dataset Metrics
	DatasetLoadDuration metric.Float64Histogram
	DatasetRowsRead     metric.Int64Counter
	ExportDuration      metric.Float64Histogram
	ExportRowsWritten   metric.Int64Counter

	// System Metrics
	DatabaseConnectionPool metric.Int64ObservableGauge

	// State for observable metrics
	mu            sync.RWMutex
	rowsProcessed int64
	lastRowCount  int64
	lastRowTime   time.Time
	dbPoolSize    int64
}

// NewRegistry creates a new metrics registry with all domain metrics
func NewRegistry(meterName string) (*Registry, error) {
	meter := otel.Meter(meterName)
	r := &Registry{
		meter:       meter,
		lastRowTime: time.Now(),
	}

	if err := r.initPipelineMetrics(); err != nil {
		return nil, err
	}

	if err := r.initDatasetMetrics(); err != nil {
		return nil, err
	}

	if err := r.initSystemMetrics(); err != nil {
		return nil, err
	}

	return r, nil
}

// initPipelineMetrics initializes feature pipeline metrics
func (r *Registry) initPipelineMetrics() error {
	var err error

	// End-to-end run duration histogram
	r.RunDuration, err = r.meter.Float64Histogram(
		"ffe.pipeline.run_duration",
		metric.WithDescription("End-to-end feature run duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 50, 100, 500, 1000, 5000, 30000),
	)
	if err != nil {
		return err
	}

	// Per-stage duration histogram
	r.StageDuration, err = r.meter.Float64Histogram(
		"ffe.pipeline.stage_duration",
		metric.WithDescription("Duration of a single pipeline stage in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000),
	)
	if err != nil {
		return err
	}

	// Row accounting counters
	r.RowsInCounter, err = r.meter.Int64Counter(
		"ffe.pipeline.rows_in_total",
		metric.WithDescription("Total input rows presented to the pipeline"),
	)
	if err != nil {
		return err
	}

	r.RowsDroppedCounter, err = r.meter.Int64Counter(
		"ffe.pipeline.rows_dropped_total",
		metric.WithDescription("Total input rows dropped during normalization"),
	)
	if err != nil {
		return err
	}

	r.RowsOutCounter, err = r.meter.Int64Counter(
		"ffe.pipeline.rows_out_total",
		metric.WithDescription("Total feature rows emitted"),
	)
	if err != nil {
		return err
	}

	// Entities per run
	r.EntitiesPerRun, err = r.meter.Int64Histogram(
		"ffe.pipeline.entities_per_run",
		metric.WithDescription("Number of distinct entities in a single run"),
		metric.WithExplicitBucketBoundaries(1, 10, 100, 1000, 10000, 100000),
	)
	if err != nil {
		return err
	}

	// Warning counter
	r.WarningCounter, err = r.meter.Int64Counter(
		"ffe.pipeline.warnings_total",
		metric.WithDescription("Total warnings emitted during feature runs"),
	)
	if err != nil {
		return err
	}

	// Run outcome counters
	r.RunSuccessCounter, err = r.meter.Int64Counter(
		"ffe.pipeline.run_success_total",
		metric.WithDescription("Total number of successful feature runs"),
	)
	if err != nil {
		return err
	}

	r.RunFailureCounter, err = r.meter.Int64Counter(
		"ffe.pipeline.run_failure_total",
		metric.WithDescription("Total number of failed feature runs"),
	)
	if err != nil {
		return err
	}

	// Rows per second gauge
	r.RowsPerSecond, err = r.meter.Float64ObservableGauge(
		"ffe.pipeline.throughput_per_second",
		metric.WithDescription("Current feature row throughput per second"),
		metric.WithFloat64Callback(func(ctx context.Context, o metric.Float64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()

			now := time.Now()
			elapsed := now.Sub(r.lastRowTime).Seconds()
			if elapsed > 0 {
				rate := float64(r.rowsProcessed-r.lastRowCount) / elapsed
				o.Observe(rate)
				r.lastRowCount = r.rowsProcessed
				r.lastRowTime = now
			}
			return nil
		}),
	)

	return err
}

// initDatasetMetrics initializes dataset load and export metrics
func (r *Registry) initDatasetMetrics() error {
	var err error

	// Dataset load duration
	r.DatasetLoadDuration, err = r.meter.Float64Histogram(
		"ffe.dataset.load_duration",
		metric.WithDescription("Dataset load duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 10, 50, 100, 500, 1000, 5000),
	)
	if err != nil {
		return err
	}

	// Rows read from source
	r.DatasetRowsRead, err = r.meter.Int64Counter(
		"ffe.dataset.rows_read_total",
		metric.WithDescription("Total rows read from dataset sources"),
	)
	if err != nil {
		return err
	}

	// Export duration
	r.ExportDuration, err = r.meter.Float64Histogram(
		"ffe.dataset.export_duration",
		metric.WithDescription("Feature export duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 10, 50, 100, 500, 1000, 5000),
	)
	if err != nil {
		return err
	}

	// Rows written to sink
	r.ExportRowsWritten, err = r.meter.Int64Counter(
		"ffe.dataset.rows_written_total",
		metric.WithDescription("Total feature rows written to export sinks"),
	)

	return err
}

// initSystemMetrics initializes system-level metrics
func (r *Registry) initSystemMetrics() error {
	var err error

	// Database connection pool
	r.DatabaseConnectionPool, err = r.meter.Int64ObservableGauge(
		"ffe.system.db_connection_pool_size",
		metric.WithDescription("Current database connection pool size"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			r.mu.RLock()
			defer r.mu.RUnlock()
			o.Observe(r.dbPoolSize)
			return nil
		}),
	)

	return err
}

// Helper methods for updating observable metric values

// SetDBPoolSize sets the database connection pool size
func (r *Registry) SetDBPoolSize(size int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dbPoolSize = size
}

// AddRowsProcessed adds to the processed row count backing the throughput gauge
func (r *Registry) AddRowsProcessed(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rowsProcessed += n
}

// Helper methods for recording metrics with common attribute patterns

// RecordRun records the outcome of a complete feature run
func (r *Registry) RecordRun(ctx context.Context, duration time.Duration, source string, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("source", source),
		attribute.Bool("success", success),
	}

	r.RunDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if success {
		r.RunSuccessCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	} else {
		r.RunFailureCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordStage records the duration of a single pipeline stage
func (r *Registry) RecordStage(ctx context.Context, stage string, duration time.Duration) {
	r.StageDuration.Record(ctx, float64(duration.Microseconds())/1000.0,
		metric.WithAttributes(attribute.String("stage", stage)))
}

// RecordRowAccounting records the row counts of a completed run
func (r *Registry) RecordRowAccounting(ctx context.Context, rowsIn, rowsDropped, rowsOut, entities int64) {
	r.RowsInCounter.Add(ctx, rowsIn)
	r.RowsDroppedCounter.Add(ctx, rowsDropped)
	r.RowsOutCounter.Add(ctx, rowsOut)
	r.EntitiesPerRun.Record(ctx, entities)
	r.AddRowsProcessed(rowsOut)
}

// RecordWarnings records warnings emitted during a run, grouped by code
func (r *Registry) RecordWarnings(ctx context.Context, code string, count int64) {
	if count == 0 {
		return
	}
	r.WarningCounter.Add(ctx, count, metric.WithAttributes(attribute.String("code", code)))
}

// RecordDatasetLoad records dataset source read metrics
func (r *Registry) RecordDatasetLoad(ctx context.Context, duration time.Duration, source string, rows int64) {
	attrs := metric.WithAttributes(attribute.String("source", source))
	r.DatasetLoadDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	r.DatasetRowsRead.Add(ctx, rows, attrs)
}

// RecordExport records feature export metrics
func (r *Registry) RecordExport(ctx context.Context, duration time.Duration, format string, rows int64) {
	attrs := metric.WithAttributes(attribute.String("format", format))
	r.ExportDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	r.ExportRowsWritten.Add(ctx, rows, attrs)
}
