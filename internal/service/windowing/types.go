package windowing

import (
	"time"

	"github.com/davidleathers/fraud-feature-engine/internal/domain/values"
)

// Window bounds. Duration windows are left-open, right-closed: an event at
// exactly now-24h is outside the trailing day.
const (
	ShortWindow = 15 * time.Minute
	LongWindow  = 24 * time.Hour

	MeanWindow     = 3
	CategoryWindow = 5
)

// Config carries the thresholds duration windows depend on.
type Config struct {
	// HighAmountThreshold separates high-value events (strictly greater).
	HighAmountThreshold values.Amount
}

// Row is the windowed partial result for one event position, joined by the
// assembler on (EntityID, Row).
type Row struct {
	EntityID string
	Row      int64

	TxCount15m         float64
	TxCount24h         float64
	HighAmountCount24h float64
	AmountSum24h       float64
	SpendRate24h       float64
	MinutesSincePrev   float64

	AmountMean3         float64
	AmountStd3          float64
	SameAmountCount3    float64
	DistinctCategories5 float64

	HourOfDay float64
	DayOfWeek float64
	IsWeekend float64
	IsNight   float64
}
