package features

import (
	"runtime"

	"github.com/davidleathers/fraud-feature-engine/internal/domain/values"
)

// Config carries the thresholds the pipeline stages share and the width of
// the per-entity worker fan-out.
type Config struct {
	// Workers bounds the number of entities processed concurrently.
	// Zero or negative means one worker per available CPU.
	Workers int

	// HighAmountThreshold separates high-value events (strictly greater).
	HighAmountThreshold values.Amount

	// AmountTolerance bounds "near-identical" consecutive amounts.
	AmountTolerance values.Amount

	// EntropyEpsilon is the smoothing constant inside the entropy log.
	EntropyEpsilon float64
}

// DefaultConfig returns the pinned production thresholds.
func DefaultConfig() Config {
	return Config{
		Workers:             runtime.GOMAXPROCS(0),
		HighAmountThreshold: values.MustAmount("500"),
		AmountTolerance:     values.MustAmount("5"),
		EntropyEpsilon:      1e-9,
	}
}

func (c Config) workerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}
