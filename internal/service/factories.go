package service

import (
	"fmt"

	"github.com/davidleathers/fraud-feature-engine/internal/domain/values"
	"github.com/davidleathers/fraud-feature-engine/internal/infrastructure/config"
	"github.com/davidleathers/fraud-feature-engine/internal/infrastructure/instrumentation"
	"github.com/davidleathers/fraud-feature-engine/internal/infrastructure/telemetry"
	"github.com/davidleathers/fraud-feature-engine/internal/metrics"
	"github.com/davidleathers/fraud-feature-engine/internal/service/assembly"
	"github.com/davidleathers/fraud-feature-engine/internal/service/features"
	"github.com/davidleathers/fraud-feature-engine/internal/service/normalization"
	"github.com/davidleathers/fraud-feature-engine/internal/service/profiling"
	"github.com/davidleathers/fraud-feature-engine/internal/service/sequence"
	"github.com/davidleathers/fraud-feature-engine/internal/service/windowing"
)

// ServiceFactories builds pipeline services from loaded configuration
type ServiceFactories struct {
	cfg *config.Config
}

// NewServiceFactories creates a new service factory collection
func NewServiceFactories(cfg *config.Config) *ServiceFactories {
	return &ServiceFactories{cfg: cfg}
}

// EngineConfig translates the config section into pipeline settings,
// parsing the decimal thresholds.
func (f *ServiceFactories) EngineConfig() (features.Config, error) {
	threshold, err := values.NewAmountFromString(f.cfg.Engine.HighAmountThreshold)
	if err != nil {
		return features.Config{}, fmt.Errorf("high_amount_threshold: %w", err)
	}
	tolerance, err := values.NewAmountFromString(f.cfg.Engine.AmountTolerance)
	if err != nil {
		return features.Config{}, fmt.Errorf("amount_tolerance: %w", err)
	}

	out := features.DefaultConfig()
	out.Workers = f.cfg.Engine.Workers
	out.HighAmountThreshold = threshold
	out.AmountTolerance = tolerance
	out.EntropyEpsilon = f.cfg.Engine.EntropyEpsilon
	return out, nil
}

// CreateFeatureService wires all pipeline stages into a feature engine
func (f *ServiceFactories) CreateFeatureService() (features.Service, error) {
	cfg, err := f.EngineConfig()
	if err != nil {
		return nil, err
	}
	return NewFeatureService(cfg), nil
}

// CreateTracedFeatureService wraps the engine with tracing and metrics
func (f *ServiceFactories) CreateTracedFeatureService(tracer telemetry.TracerInterface, registry *metrics.Registry) (features.Service, error) {
	svc, err := f.CreateFeatureService()
	if err != nil {
		return nil, err
	}
	return instrumentation.NewFeaturesTracedService(svc, tracer, registry), nil
}

// NewFeatureService assembles the pipeline stages for the given settings.
// Stage thresholds derive from the engine config so all stages agree on
// what counts as high-value.
func NewFeatureService(cfg features.Config) features.Service {
	return features.NewService(
		cfg,
		normalization.NewService(),
		windowing.NewService(windowing.Config{
			HighAmountThreshold: cfg.HighAmountThreshold,
		}),
		sequence.NewService(sequence.Config{
			HighAmountThreshold: cfg.HighAmountThreshold,
			AmountTolerance:     cfg.AmountTolerance,
		}),
		profiling.NewService(profiling.Config{
			EntropyEpsilon: cfg.EntropyEpsilon,
		}),
		assembly.NewService(),
	)
}
