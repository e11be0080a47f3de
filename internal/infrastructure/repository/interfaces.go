package repository

import (
	"context"

	"github.com/davidleathers/fraud-feature-engine/internal/infrastructure/dataset"
)

// TransactionRepository defines the interface for raw transaction persistence
type TransactionRepository interface {
	// ListAll returns every stored transaction as a raw record table in
	// insertion order, with the canonical column header.
	ListAll(ctx context.Context) (*dataset.Table, error)

	// Count returns the number of stored transactions.
	Count(ctx context.Context) (int64, error)

	// InsertBatch stores the table's rows, mapping canonical columns onto
	// the transactions schema. Missing columns and blank cells land as NULL.
	InsertBatch(ctx context.Context, table *dataset.Table) (int64, error)
}
