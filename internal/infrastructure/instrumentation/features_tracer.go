package instrumentation

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/davidleathers/fraud-feature-engine/internal/domain/errors"
	"github.com/davidleathers/fraud-feature-engine/internal/domain/feature"
	"github.com/davidleathers/fraud-feature-engine/internal/infrastructure/dataset"
	"github.com/davidleathers/fraud-feature-engine/internal/infrastructure/telemetry"
	"github.com/davidleathers/fraud-feature-engine/internal/metrics"
	"github.com/davidleathers/fraud-feature-engine/internal/service/features"
)

// FeaturesTracedService wraps the feature engine with OpenTelemetry
// instrumentation. The engine itself stays free of telemetry concerns.
type FeaturesTracedService struct {
	service features.Service
	tracer  telemetry.TracerInterface
	metrics *metrics.Registry
}

// NewFeaturesTracedService creates a new instrumented feature engine
func NewFeaturesTracedService(service features.Service, tracer telemetry.TracerInterface, metrics *metrics.Registry) *FeaturesTracedService {
	return &FeaturesTracedService{
		service: service,
		tracer:  tracer,
		metrics: metrics,
	}
}

// ComputeFeatures instruments a complete feature run
func (s *FeaturesTracedService) ComputeFeatures(ctx context.Context, table *dataset.Table) (*feature.Table, error) {
	rowsIn := 0
	if table != nil {
		rowsIn = table.Len()
	}

	ctx, span := s.tracer.StartSpanWithAttributes(ctx, "features.ComputeFeatures", map[string]interface{}{
		"pipeline.rows_in": rowsIn,
		"span.kind":        "internal",
		"component":        "features",
	})
	defer span.End()

	startTime := time.Now()

	out, err := s.service.ComputeFeatures(ctx, table)

	elapsed := time.Since(startTime)

	if err != nil {
		s.tracer.RecordError(span, err, "Feature run failed")
		s.tracer.AddEvent(span, "run_failed", map[string]interface{}{
			"error.type": errorType(err),
		})

		s.metrics.RecordRun(ctx, elapsed, "table", false)
		return nil, err
	}

	s.metrics.RecordRun(ctx, elapsed, "table", true)
	s.metrics.RecordRowAccounting(ctx,
		int64(out.Summary.RowsIn),
		int64(out.Summary.RowsDropped),
		int64(out.Summary.RowsOut),
		int64(out.Summary.Entities),
	)
	for _, w := range out.Warnings {
		s.metrics.RecordWarnings(ctx, w.Code, 1)
	}

	s.tracer.SetAttributes(span, map[string]interface{}{
		"run.id":                out.RunID.String(),
		"pipeline.rows_out":     out.Summary.RowsOut,
		"pipeline.rows_dropped": out.Summary.RowsDropped,
		"pipeline.entities":     out.Summary.Entities,
		"pipeline.warnings":     len(out.Warnings),
	})
	s.tracer.AddEvent(span, "features_computed", map[string]interface{}{
		"run.id":            out.RunID.String(),
		"pipeline.rows_out": out.Summary.RowsOut,
		"run.duration_ms":   float64(elapsed.Milliseconds()),
	})

	return out, nil
}

// errorType categorizes errors for better observability
func errorType(err error) string {
	if err == nil {
		return ""
	}

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return string(appErr.Type)
	}
	return "unknown"
}
