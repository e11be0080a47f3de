package features

import (
	"context"

	"github.com/davidleathers/fraud-feature-engine/internal/domain/feature"
	"github.com/davidleathers/fraud-feature-engine/internal/domain/transaction"
	"github.com/davidleathers/fraud-feature-engine/internal/infrastructure/dataset"
	"github.com/davidleathers/fraud-feature-engine/internal/service/normalization"
	"github.com/davidleathers/fraud-feature-engine/internal/service/profiling"
	"github.com/davidleathers/fraud-feature-engine/internal/service/sequence"
	"github.com/davidleathers/fraud-feature-engine/internal/service/windowing"
)

// Service defines the feature engine interface
type Service interface {
	// ComputeFeatures turns a raw transaction table into the model-ready
	// feature table: one record per surviving input row, every contract
	// column populated, canonical order
	ComputeFeatures(ctx context.Context, table *dataset.Table) (*feature.Table, error)
}

// Normalizer turns raw tabular input into canonically sorted entity histories
type Normalizer interface {
	// Normalize resolves columns, applies defaults, drops unusable rows,
	// and groups the survivors per entity
	Normalize(ctx context.Context, table *dataset.Table) (*normalization.Result, error)
}

// Aggregator computes the causal window statistics of one entity
type Aggregator interface {
	// Compute returns one windowed partial per event, in history order
	Compute(history *transaction.History) []windowing.Row
}

// Tracker runs the cumulative left-to-right scan of one entity
type Tracker interface {
	// Scan returns one scan partial per event, in history order
	Scan(history *transaction.History) []sequence.Row
}

// Profiler builds the categorical profile of one entity
type Profiler interface {
	// Build returns one profile partial per event, in history order. The
	// fan-out index must cover the whole batch the history came from
	Build(history *transaction.History, fanOut profiling.IPFanOut) []profiling.Row
}

// Assembler joins the stage partials into final feature records
type Assembler interface {
	// Assemble produces one record per event or fails on misaligned partials
	Assemble(history *transaction.History, windows []windowing.Row, scans []sequence.Row, profiles []profiling.Row) ([]*feature.Record, error)
}
