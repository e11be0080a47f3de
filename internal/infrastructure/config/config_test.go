package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/davidleathers/fraud-feature-engine/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 0, cfg.Engine.Workers)
	assert.Equal(t, "500", cfg.Engine.HighAmountThreshold)
	assert.Equal(t, "5", cfg.Engine.AmountTolerance)
	assert.InDelta(t, 1e-9, cfg.Engine.EntropyEpsilon, 1e-15)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.ConnMaxLifetime)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.InDelta(t, 1.0, cfg.Telemetry.SamplingRate, 1e-9)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("FFE_LOG_LEVEL", "debug")
	t.Setenv("FFE_ENGINE__WORKERS", "8")
	t.Setenv("FFE_ENGINE__HIGH_AMOUNT_THRESHOLD", "750")
	t.Setenv("FFE_TELEMETRY__SAMPLING_RATE", "0.25")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8, cfg.Engine.Workers)
	assert.Equal(t, "750", cfg.Engine.HighAmountThreshold)
	assert.InDelta(t, 0.25, cfg.Telemetry.SamplingRate, 1e-9)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad log level", "FFE_LOG_LEVEL", "verbose"},
		{"negative workers", "FFE_ENGINE__WORKERS", "-1"},
		{"sampling rate above one", "FFE_TELEMETRY__SAMPLING_RATE", "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}
