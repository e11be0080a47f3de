package windowing

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/davidleathers/fraud-feature-engine/internal/domain/transaction"
)

// Service computes causal rolling statistics per entity: duration windows
// with a two-pointer scan, count windows over trailing positions, and the
// calendar context of each event. Every value for position i depends only on
// positions <= i.
type Service struct {
	cfg Config
}

// NewService creates a new window aggregation service
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// Compute returns one partial row per event of the history, in history order.
func (s *Service) Compute(history *transaction.History) []Row {
	events := history.Events
	rows := make([]Row, len(events))

	threshold := s.cfg.HighAmountThreshold
	startShort := 0
	startLong := 0
	sumLong := decimal.Zero
	highLong := 0

	for i, e := range events {
		sumLong = sumLong.Add(e.Amount.Decimal())
		if e.IsHighValue(threshold) {
			highLong++
		}

		// Evict events at or before the left bound. Ties at the current
		// timestamp always stay: they sit at positions <= i.
		cutShort := e.Timestamp.Add(-ShortWindow)
		for !events[startShort].Timestamp.After(cutShort) {
			startShort++
		}
		cutLong := e.Timestamp.Add(-LongWindow)
		for !events[startLong].Timestamp.After(cutLong) {
			evicted := events[startLong]
			sumLong = sumLong.Sub(evicted.Amount.Decimal())
			if evicted.IsHighValue(threshold) {
				highLong--
			}
			startLong++
		}

		row := Row{
			EntityID:           e.EntityID,
			Row:                e.Row,
			TxCount15m:         float64(i - startShort + 1),
			TxCount24h:         float64(i - startLong + 1),
			HighAmountCount24h: float64(highLong),
		}
		row.AmountSum24h, _ = sumLong.Float64()
		row.SpendRate24h = row.AmountSum24h / LongWindow.Hours()

		if i == 0 {
			row.MinutesSincePrev = transaction.SentinelMinutes
		} else {
			row.MinutesSincePrev = e.MinutesSince(events[i-1])
		}

		row.AmountMean3, row.AmountStd3 = trailingMeanStd(events, i, MeanWindow)
		row.SameAmountCount3 = trailingSameAmount(events, i, MeanWindow)
		row.DistinctCategories5 = trailingDistinctCategories(events, i, CategoryWindow)

		local := e.LocalTime()
		row.HourOfDay = float64(local.Hour())
		row.DayOfWeek = float64(local.Weekday())
		if local.Weekday() == 0 || local.Weekday() == 6 {
			row.IsWeekend = 1
		}
		if local.Hour() < 6 {
			row.IsNight = 1
		}

		rows[i] = row
	}
	return rows
}

// trailingMeanStd returns mean and sample standard deviation of amount over
// the trailing k positions ending at i. Std is 0 with fewer than 2 samples.
func trailingMeanStd(events []*transaction.Event, i, k int) (float64, float64) {
	lo := i - k + 1
	if lo < 0 {
		lo = 0
	}
	n := i - lo + 1

	sum := decimal.Zero
	for j := lo; j <= i; j++ {
		sum = sum.Add(events[j].Amount.Decimal())
	}
	mean, _ := sum.Div(decimal.NewFromInt(int64(n))).Float64()

	if n < 2 {
		return mean, 0
	}
	var squares float64
	for j := lo; j <= i; j++ {
		d := events[j].Amount.Float64() - mean
		squares += d * d
	}
	return mean, math.Sqrt(squares / float64(n-1))
}

// trailingSameAmount counts events among the trailing k positions whose
// amount equals the current amount exactly. Includes the current event, so
// the count is at least 1.
func trailingSameAmount(events []*transaction.Event, i, k int) float64 {
	lo := i - k + 1
	if lo < 0 {
		lo = 0
	}
	count := 0
	for j := lo; j <= i; j++ {
		if events[j].Amount.Equal(events[i].Amount) {
			count++
		}
	}
	return float64(count)
}

func trailingDistinctCategories(events []*transaction.Event, i, k int) float64 {
	lo := i - k + 1
	if lo < 0 {
		lo = 0
	}
	seen := make(map[string]struct{}, k)
	for j := lo; j <= i; j++ {
		seen[events[j].Category] = struct{}{}
	}
	return float64(len(seen))
}
