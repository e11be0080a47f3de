package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/fraud-feature-engine/internal/domain/values"
	"github.com/davidleathers/fraud-feature-engine/internal/infrastructure/config"
	"github.com/davidleathers/fraud-feature-engine/internal/service"
)

func engineSection(threshold, tolerance string) *config.Config {
	return &config.Config{
		Engine: config.EngineConfig{
			Workers:             4,
			HighAmountThreshold: threshold,
			AmountTolerance:     tolerance,
			EntropyEpsilon:      1e-9,
		},
	}
}

func TestServiceFactories_EngineConfig(t *testing.T) {
	factories := service.NewServiceFactories(engineSection("750.50", "2.5"))

	cfg, err := factories.EngineConfig()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Workers)
	assert.True(t, cfg.HighAmountThreshold.Equal(values.MustAmount("750.50")))
	assert.True(t, cfg.AmountTolerance.Equal(values.MustAmount("2.5")))
	assert.InDelta(t, 1e-9, cfg.EntropyEpsilon, 0)
}

func TestServiceFactories_EngineConfig_BadDecimals(t *testing.T) {
	tests := []struct {
		name      string
		threshold string
		tolerance string
		wantIn    string
	}{
		{
			name:      "bad threshold",
			threshold: "lots",
			tolerance: "5",
			wantIn:    "high_amount_threshold",
		},
		{
			name:      "bad tolerance",
			threshold: "500",
			tolerance: "a little",
			wantIn:    "amount_tolerance",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factories := service.NewServiceFactories(engineSection(tt.threshold, tt.tolerance))

			_, err := factories.EngineConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantIn)
		})
	}
}

func TestServiceFactories_CreateFeatureService(t *testing.T) {
	svc, err := service.NewServiceFactories(engineSection("500", "5")).CreateFeatureService()
	require.NoError(t, err)
	assert.NotNil(t, svc)

	_, err = service.NewServiceFactories(engineSection("", "5")).CreateFeatureService()
	require.Error(t, err)
}
