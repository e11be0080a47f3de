package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/fraud-feature-engine/internal/domain/transaction"
)

// The repository header is what normalization sees; it must carry the
// required columns up front and every optional attribute exactly once.
func TestTransactionColumns_CoverCanonicalInput(t *testing.T) {
	require.GreaterOrEqual(t, len(transactionColumns), 3)
	assert.Equal(t, transaction.ColEntityID, transactionColumns[0])
	assert.Equal(t, transaction.ColDatetime, transactionColumns[1])
	assert.Equal(t, transaction.ColAmount, transactionColumns[2])

	optional := transactionColumns[3:]
	seen := make(map[string]bool, len(optional))
	for _, col := range optional {
		assert.False(t, seen[col], "duplicate column %q", col)
		seen[col] = true
		_, ok := transaction.AttributeDefaults[col]
		assert.True(t, ok, "column %q has no default", col)
	}
	assert.Len(t, optional, len(transaction.AttributeDefaults))
}
