package features_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/davidleathers/fraud-feature-engine/internal/domain/errors"
	"github.com/davidleathers/fraud-feature-engine/internal/domain/feature"
	"github.com/davidleathers/fraud-feature-engine/internal/domain/transaction"
	"github.com/davidleathers/fraud-feature-engine/internal/infrastructure/dataset"
	"github.com/davidleathers/fraud-feature-engine/internal/service/assembly"
	"github.com/davidleathers/fraud-feature-engine/internal/service/features"
	"github.com/davidleathers/fraud-feature-engine/internal/service/normalization"
	"github.com/davidleathers/fraud-feature-engine/internal/service/profiling"
	"github.com/davidleathers/fraud-feature-engine/internal/service/sequence"
	"github.com/davidleathers/fraud-feature-engine/internal/service/windowing"
)

func newEngine(workers int) features.Service {
	cfg := features.DefaultConfig()
	cfg.Workers = workers
	return features.NewService(cfg,
		normalization.NewService(),
		windowing.NewService(windowing.Config{HighAmountThreshold: cfg.HighAmountThreshold}),
		sequence.NewService(sequence.Config{
			HighAmountThreshold: cfg.HighAmountThreshold,
			AmountTolerance:     cfg.AmountTolerance,
		}),
		profiling.NewService(profiling.Config{EntropyEpsilon: cfg.EntropyEpsilon}),
		assembly.NewService(),
	)
}

func inputTable(columns []string, rows ...[]string) *dataset.Table {
	table := dataset.NewTable(columns)
	for _, row := range rows {
		table.AppendRow(row)
	}
	return table
}

type recordKey struct {
	entityID string
	row      int64
}

func recordsByKey(out *feature.Table) map[recordKey]*feature.Record {
	index := make(map[recordKey]*feature.Record, out.Len())
	for _, r := range out.Records {
		index[recordKey{r.EntityID, r.Row}] = r
	}
	return index
}

// causalFields picks the columns whose values may only depend on the
// entity's earlier events. Whole-history profile columns are excluded on
// purpose.
func causalFields(r *feature.Record) []float64 {
	return []float64{
		r.TxCount15m, r.TxCount24h, r.HighAmountCount24h, r.AmountSum24h,
		r.SpendRate24h, r.MinutesSincePrev,
		r.AmountMean3, r.AmountStd3, r.SameAmountCount3, r.DistinctCategories5,
		r.ChargebackCount, r.DeclinedCount, r.PINFailureCount, r.AVSMismatchCount,
		r.NewCategoryFlag, r.NewCityFlag, r.NewCardFlag, r.NewDeviceFlag, r.NewIPFlag,
		r.DeclinedThenApprovedFlag, r.RepeatCategoryCloseAmountFlag,
		r.LocationChangeFlag, r.HighValueGapMean,
	}
}

func TestService_ComputeFeatures_EscalatingAmounts(t *testing.T) {
	table := inputTable(
		[]string{"entity_id", "datetime", "amount"},
		[]string{"C1", "2025-03-10 12:00:00", "100"},
		[]string{"C1", "2025-03-10 12:02:00", "100"},
		[]string{"C1", "2025-03-10 12:04:00", "500"},
	)

	out, err := newEngine(1).ComputeFeatures(context.Background(), table)
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())

	records := out.Records
	assert.Equal(t, transaction.SentinelMinutes, records[0].MinutesSincePrev)
	assert.InDelta(t, 2.0, records[1].MinutesSincePrev, 1e-9)
	assert.InDelta(t, 233.33, records[2].AmountMean3, 0.01)
	assert.Greater(t, records[2].AmountStd3, 0.0)
	assert.Equal(t, 3.0, records[2].TxCount15m)
}

func TestService_ComputeFeatures_DeclineApprovePattern(t *testing.T) {
	table := inputTable(
		[]string{"entity_id", "datetime", "amount", "declined"},
		[]string{"C1", "2025-03-10 12:00:00", "50", "1"},
		[]string{"C1", "2025-03-10 12:05:00", "50", "0"},
	)

	out, err := newEngine(1).ComputeFeatures(context.Background(), table)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())

	assert.Equal(t, 0.0, out.Records[0].DeclinedThenApprovedFlag)
	assert.Equal(t, 1.0, out.Records[1].DeclinedThenApprovedFlag, "flag lands on the approved event")
	assert.Equal(t, 1.0, out.Records[0].DeclinedFlag)
	assert.Equal(t, 1.0, out.Records[1].DeclinedCount)
}

func TestService_ComputeFeatures_CategoryNovelty(t *testing.T) {
	table := inputTable(
		[]string{"entity_id", "datetime", "amount", "merchant_category"},
		[]string{"C1", "2025-03-10 12:00:00", "10", "grocery"},
		[]string{"C1", "2025-03-10 12:10:00", "20", "grocery"},
		[]string{"C1", "2025-03-10 12:20:00", "30", "fuel"},
	)

	out, err := newEngine(1).ComputeFeatures(context.Background(), table)
	require.NoError(t, err)
	require.Equal(t, 3, out.Len())

	assert.Equal(t, 1.0, out.Records[0].NewCategoryFlag)
	assert.Equal(t, 0.0, out.Records[1].NewCategoryFlag)
	assert.Equal(t, 1.0, out.Records[2].NewCategoryFlag)
}

func TestService_ComputeFeatures_AbsentIncidentColumn(t *testing.T) {
	table := inputTable(
		[]string{"entity_id", "datetime", "amount"},
		[]string{"C1", "2025-03-10 12:00:00", "10"},
		[]string{"C1", "2025-03-10 12:10:00", "20"},
	)

	out, err := newEngine(1).ComputeFeatures(context.Background(), table)
	require.NoError(t, err)

	for i, r := range out.Records {
		assert.Zero(t, r.ChargebackFlag, "position %d", i)
		assert.Zero(t, r.ChargebackCount, "position %d", i)
	}
}

func TestService_ComputeFeatures_SharedIPFanOut(t *testing.T) {
	table := inputTable(
		[]string{"entity_id", "datetime", "amount", "ip_address"},
		[]string{"C1", "2025-03-10 12:00:00", "10", "203.0.113.7"},
		[]string{"C2", "2025-03-10 12:01:00", "20", "203.0.113.7"},
	)

	out, err := newEngine(2).ComputeFeatures(context.Background(), table)
	require.NoError(t, err)
	require.Equal(t, 2, out.Len())

	for _, r := range out.Records {
		assert.Equal(t, 2.0, r.IPSharedEntities, "entity %s", r.EntityID)
	}
}

func TestService_ComputeFeatures_CanonicalOutputOrder(t *testing.T) {
	// Input arrives grouped by neither entity nor time, with a timestamp tie
	// inside C1.
	table := inputTable(
		[]string{"entity_id", "datetime", "amount"},
		[]string{"C2", "2025-03-10 12:30:00", "1"},
		[]string{"C1", "2025-03-10 12:10:00", "2"},
		[]string{"C2", "2025-03-10 12:00:00", "3"},
		[]string{"C1", "2025-03-10 12:10:00", "4"},
		[]string{"C1", "2025-03-10 11:00:00", "5"},
	)

	out, err := newEngine(2).ComputeFeatures(context.Background(), table)
	require.NoError(t, err)
	require.Equal(t, 5, out.Len())

	keys := make([]recordKey, out.Len())
	for i, r := range out.Records {
		keys[i] = recordKey{r.EntityID, r.Row}
	}
	expected := []recordKey{
		{"C1", 4}, {"C1", 1}, {"C1", 3},
		{"C2", 2}, {"C2", 0},
	}
	assert.Equal(t, expected, keys)

	sorted := sort.SliceIsSorted(out.Records, func(a, b int) bool {
		ra, rb := out.Records[a], out.Records[b]
		if ra.EntityID != rb.EntityID {
			return ra.EntityID < rb.EntityID
		}
		if !ra.Timestamp.Equal(rb.Timestamp) {
			return ra.Timestamp.Before(rb.Timestamp)
		}
		return ra.Row < rb.Row
	})
	assert.True(t, sorted)
}

func TestService_ComputeFeatures_RowAccounting(t *testing.T) {
	table := inputTable(
		[]string{"entity_id", "datetime", "amount"},
		[]string{"C1", "2025-03-10 12:00:00", "10"},
		[]string{"", "2025-03-10 12:01:00", "20"},
		[]string{"C1", "2025-03-10 12:02:00", "abc"},
		[]string{"C1", "garbage", "30"},
		[]string{"C2", "2025-03-10 12:03:00", "40"},
	)

	out, err := newEngine(1).ComputeFeatures(context.Background(), table)
	require.NoError(t, err)

	assert.Equal(t, 5, out.Summary.RowsIn)
	assert.Equal(t, 3, out.Summary.RowsDropped)
	assert.Equal(t, 2, out.Summary.RowsOut)
	assert.Equal(t, 2, out.Summary.Entities)
	assert.Equal(t, map[string]int{
		normalization.DropMissingEntity: 1,
		normalization.DropBadAmount:     1,
		normalization.DropBadTimestamp:  1,
	}, out.Summary.DropReasons)
	assert.Equal(t, out.Summary.RowsIn-out.Summary.RowsDropped, out.Summary.RowsOut)

	// Survivors keep their input ordinals.
	index := recordsByKey(out)
	assert.Contains(t, index, recordKey{"C1", 0})
	assert.Contains(t, index, recordKey{"C2", 4})
}

func TestService_ComputeFeatures_DefaultCompleteness(t *testing.T) {
	base := []string{"entity_id", "datetime", "amount"}
	rows := [][]string{
		{"C1", "2025-03-10 12:00:00", "100"},
		{"C1", "2025-03-10 12:30:00", "250"},
		{"C2", "2025-03-10 13:00:00", "19.99"},
	}

	minimal := inputTable(base, rows...)

	// The same table with every optional column present and filled with its
	// documented default.
	optional := make([]string, 0, len(transaction.AttributeDefaults))
	for col := range transaction.AttributeDefaults {
		optional = append(optional, col)
	}
	sort.Strings(optional)
	explicitColumns := append(append([]string{}, base...), optional...)
	explicitRows := make([][]string, len(rows))
	for i, row := range rows {
		full := append([]string{}, row...)
		for _, col := range optional {
			full = append(full, transaction.AttributeDefaults[col])
		}
		explicitRows[i] = full
	}
	explicit := inputTable(explicitColumns, explicitRows...)

	engine := newEngine(1)
	fromMinimal, err := engine.ComputeFeatures(context.Background(), minimal)
	require.NoError(t, err)
	fromExplicit, err := engine.ComputeFeatures(context.Background(), explicit)
	require.NoError(t, err)

	minX, minY := fromMinimal.Matrix()
	expX, expY := fromExplicit.Matrix()
	assert.Equal(t, expX, minX)
	assert.Equal(t, expY, minY)
}

func TestService_ComputeFeatures_CausalPrefixStable(t *testing.T) {
	columns := []string{"entity_id", "datetime", "amount", "merchant_category", "merchant_city", "declined"}
	c1Prefix := [][]string{
		{"C1", "2025-03-10 12:00:00", "100", "grocery", "austin", "0"},
		{"C1", "2025-03-10 12:03:00", "105", "grocery", "austin", "1"},
		{"C1", "2025-03-10 12:10:00", "700", "fuel", "dallas", "0"},
		{"C1", "2025-03-10 12:20:00", "650", "fuel", "dallas", "0"},
	}
	c1Suffix := [][]string{
		{"C1", "2025-03-10 13:00:00", "900", "travel", "waco", "0"},
		{"C1", "2025-03-10 14:00:00", "30", "grocery", "austin", "1"},
	}
	noise := [][]string{
		{"C2", "2025-03-10 12:01:00", "900", "fuel", "waco", "0"},
		{"C2", "2025-03-10 12:05:00", "40", "travel", "waco", "0"},
		{"C2", "2025-03-10 12:30:00", "41", "travel", "waco", "1"},
		{"C2", "2025-03-10 12:45:00", "42", "grocery", "waco", "0"},
	}

	// Interleave C1's prefix with the noise, then append C1's suffix last so
	// truncation does not disturb any surviving ordinal.
	var fullRows [][]string
	for i := range c1Prefix {
		fullRows = append(fullRows, c1Prefix[i], noise[i])
	}
	fullRows = append(fullRows, c1Suffix...)
	truncatedRows := fullRows[:len(fullRows)-len(c1Suffix)]

	engine := newEngine(3)
	full, err := engine.ComputeFeatures(context.Background(), inputTable(columns, fullRows...))
	require.NoError(t, err)
	truncated, err := engine.ComputeFeatures(context.Background(), inputTable(columns, truncatedRows...))
	require.NoError(t, err)

	fullIndex := recordsByKey(full)
	truncatedIndex := recordsByKey(truncated)

	prefixOrdinals := []int64{0, 2, 4, 6}
	for _, ordinal := range prefixOrdinals {
		key := recordKey{"C1", ordinal}
		fullRecord, ok := fullIndex[key]
		require.True(t, ok, "row %d missing from full run", ordinal)
		truncatedRecord, ok := truncatedIndex[key]
		require.True(t, ok, "row %d missing from truncated run", ordinal)
		assert.Equal(t, causalFields(truncatedRecord), causalFields(fullRecord), "row %d", ordinal)
	}
}

func TestService_ComputeFeatures_EntityIsolation(t *testing.T) {
	columns := []string{"entity_id", "datetime", "amount", "merchant_category", "ip_address"}
	c1Rows := [][]string{
		{"C1", "2025-03-10 12:00:00", "100", "grocery", "10.0.0.1"},
		{"C1", "2025-03-10 12:05:00", "600", "fuel", "10.0.0.1"},
		{"C1", "2025-03-10 12:40:00", "99.99", "grocery", "10.0.0.1"},
	}
	c2Rows := [][]string{
		{"C2", "2025-03-10 12:01:00", "700", "travel", "10.0.0.2"},
		{"C2", "2025-03-10 12:02:00", "701", "travel", "10.0.0.2"},
	}

	engine := newEngine(2)
	solo, err := engine.ComputeFeatures(context.Background(), inputTable(columns, c1Rows...))
	require.NoError(t, err)
	mixed, err := engine.ComputeFeatures(context.Background(), inputTable(columns, append(append([][]string{}, c1Rows...), c2Rows...)...))
	require.NoError(t, err)

	require.Equal(t, 3, solo.Len())
	mixedIndex := recordsByKey(mixed)
	for _, r := range solo.Records {
		counterpart, ok := mixedIndex[recordKey{r.EntityID, r.Row}]
		require.True(t, ok)
		assert.Equal(t, r.Vector(), counterpart.Vector(), "row %d", r.Row)
	}
}

func TestService_ComputeFeatures_Deterministic(t *testing.T) {
	columns := []string{"entity_id", "datetime", "amount", "merchant_category"}
	var rows [][]string
	for e := 0; e < 7; e++ {
		for i := 0; i < 9; i++ {
			rows = append(rows, []string{
				fmt.Sprintf("C%d", e),
				fmt.Sprintf("2025-03-10 12:%02d:00", i*5),
				fmt.Sprintf("%d.5%d", 20+i*e, i),
				[]string{"grocery", "fuel", "travel"}[i%3],
			})
		}
	}

	first, err := newEngine(4).ComputeFeatures(context.Background(), inputTable(columns, rows...))
	require.NoError(t, err)
	second, err := newEngine(4).ComputeFeatures(context.Background(), inputTable(columns, rows...))
	require.NoError(t, err)
	serial, err := newEngine(1).ComputeFeatures(context.Background(), inputTable(columns, rows...))
	require.NoError(t, err)

	firstX, firstY := first.Matrix()
	secondX, secondY := second.Matrix()
	serialX, serialY := serial.Matrix()

	assert.Equal(t, firstX, secondX)
	assert.Equal(t, firstY, secondY)
	assert.Equal(t, firstX, serialX, "worker count must not change results")
	assert.Equal(t, firstY, serialY)

	// Every run gets its own identity.
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestService_ComputeFeatures_StructuralErrors(t *testing.T) {
	tests := []struct {
		name     string
		table    *dataset.Table
		expected error
	}{
		{
			name:     "nil table",
			table:    nil,
			expected: domainerrors.ErrEmptyInput,
		},
		{
			name:     "no rows",
			table:    inputTable([]string{"entity_id", "amount"}),
			expected: domainerrors.ErrEmptyInput,
		},
		{
			name: "no entity column",
			table: inputTable([]string{"datetime", "amount"},
				[]string{"2025-03-10 12:00:00", "10"}),
			expected: domainerrors.ErrNoEntityColumn,
		},
		{
			name: "no amount column",
			table: inputTable([]string{"entity_id", "datetime"},
				[]string{"C1", "2025-03-10 12:00:00"}),
			expected: domainerrors.ErrNoAmountColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := newEngine(1).ComputeFeatures(context.Background(), tt.table)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, tt.expected)
			assert.True(t, domainerrors.IsType(err, domainerrors.ErrorTypeStructural))
		})
	}
}

func TestService_ComputeFeatures_AllRowsDropped(t *testing.T) {
	table := inputTable(
		[]string{"entity_id", "datetime", "amount"},
		[]string{"", "2025-03-10 12:00:00", "10"},
		[]string{"C1", "2025-03-10 12:01:00", "oops"},
	)

	out, err := newEngine(1).ComputeFeatures(context.Background(), table)
	require.NoError(t, err, "drops are never fatal to the batch")

	assert.Equal(t, 0, out.Len())
	assert.Equal(t, 2, out.Summary.RowsIn)
	assert.Equal(t, 2, out.Summary.RowsDropped)
	assert.Equal(t, 0, out.Summary.RowsOut)
	assert.Equal(t, 0, out.Summary.Entities)
}

func TestService_ComputeFeatures_Warnings(t *testing.T) {
	table := inputTable(
		[]string{"entity_id", "amount"},
		[]string{"C1", "10"},
		[]string{"C1", "20"},
	)

	out, err := newEngine(1).ComputeFeatures(context.Background(), table)
	require.NoError(t, err)

	codes := make([]string, len(out.Warnings))
	for i, w := range out.Warnings {
		codes[i] = w.Code
	}
	assert.Contains(t, codes, feature.WarnFallbackTimestamps)
	assert.Contains(t, codes, feature.WarnLabelDefaulted)

	// Both records carry the fixed fallback instant, ordered by ordinal.
	require.Equal(t, 2, out.Len())
	assert.True(t, out.Records[0].Timestamp.Equal(transaction.FallbackTimestamp))
	assert.Equal(t, int64(0), out.Records[0].Row)
	assert.Equal(t, int64(1), out.Records[1].Row)
}

func TestService_ComputeFeatures_SummaryClock(t *testing.T) {
	pinned := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	transaction.SetClock(&transaction.MockClock{CurrentTime: pinned})
	defer transaction.ResetClock()

	table := inputTable(
		[]string{"entity_id", "datetime", "amount"},
		[]string{"C1", "2025-03-10 12:00:00", "10"},
	)

	out, err := newEngine(1).ComputeFeatures(context.Background(), table)
	require.NoError(t, err)

	assert.True(t, out.Summary.StartedAt.Equal(pinned))
	assert.Equal(t, time.Duration(0), out.Summary.Duration)
}

func TestService_ComputeFeatures_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table := inputTable(
		[]string{"entity_id", "datetime", "amount"},
		[]string{"C1", "2025-03-10 12:00:00", "10"},
	)

	out, err := newEngine(1).ComputeFeatures(ctx, table)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestService_ComputeFeatures_LabelsSurviveToMatrix(t *testing.T) {
	table := inputTable(
		[]string{"entity_id", "datetime", "amount", "is_fraud"},
		[]string{"C1", "2025-03-10 12:00:00", "10", "0"},
		[]string{"C1", "2025-03-10 12:05:00", "900", "1"},
	)

	out, err := newEngine(1).ComputeFeatures(context.Background(), table)
	require.NoError(t, err)

	x, y := out.Matrix()
	require.Len(t, x, 2)
	assert.Equal(t, []float64{0, 1}, y)
	assert.Len(t, x[0], len(feature.Columns()))
}
