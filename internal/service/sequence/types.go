package sequence

import (
	"github.com/davidleathers/fraud-feature-engine/internal/domain/values"
)

// Config carries the thresholds the scan depends on.
type Config struct {
	// HighAmountThreshold separates high-value events (strictly greater).
	HighAmountThreshold values.Amount
	// AmountTolerance bounds "near-identical" consecutive amounts.
	AmountTolerance values.Amount
}

// Row is the stateful-scan partial result for one event position, joined by
// the assembler on (EntityID, Row).
type Row struct {
	EntityID string
	Row      int64

	ChargebackCount  float64
	DeclinedCount    float64
	PINFailureCount  float64
	AVSMismatchCount float64

	NewCategoryFlag float64
	NewCityFlag     float64
	NewCardFlag     float64
	NewDeviceFlag   float64
	NewIPFlag       float64

	DeclinedThenApprovedFlag      float64
	RepeatCategoryCloseAmountFlag float64
	LocationChangeFlag            float64
	HighValueGapMean              float64
}
