package assembly

import (
	"github.com/davidleathers/fraud-feature-engine/internal/domain/errors"
	"github.com/davidleathers/fraud-feature-engine/internal/domain/feature"
	"github.com/davidleathers/fraud-feature-engine/internal/domain/transaction"
	"github.com/davidleathers/fraud-feature-engine/internal/service/profiling"
	"github.com/davidleathers/fraud-feature-engine/internal/service/sequence"
	"github.com/davidleathers/fraud-feature-engine/internal/service/windowing"
)

// Service joins the windowed, scanned, and profiled partials back onto the
// event stream and emits the final records. The join is positional over the
// shared history order; (entity, row) keys are asserted, never assumed.
type Service struct{}

// NewService creates a new assembly service
func NewService() *Service {
	return &Service{}
}

// Assemble produces one record per event, every contract column populated.
func (s *Service) Assemble(
	history *transaction.History,
	windows []windowing.Row,
	scans []sequence.Row,
	profiles []profiling.Row,
) ([]*feature.Record, error) {
	n := len(history.Events)
	if len(windows) != n || len(scans) != n || len(profiles) != n {
		return nil, errors.NewInternalError("partial results do not align with the event stream").
			WithDetails(map[string]interface{}{
				"entity_id": history.EntityID,
				"events":    n,
				"windows":   len(windows),
				"scans":     len(scans),
				"profiles":  len(profiles),
			})
	}

	records := make([]*feature.Record, n)
	for i, e := range history.Events {
		w, sc, p := windows[i], scans[i], profiles[i]
		if w.EntityID != e.EntityID || w.Row != e.Row ||
			sc.EntityID != e.EntityID || sc.Row != e.Row ||
			p.EntityID != e.EntityID || p.Row != e.Row {
			return nil, errors.NewInternalError("partial result key mismatch").
				WithDetails(map[string]interface{}{
					"entity_id": e.EntityID,
					"row":       e.Row,
				})
		}

		r := &feature.Record{
			EntityID:  e.EntityID,
			Row:       e.Row,
			Timestamp: e.Timestamp,
			Label:     e.Label,

			Amount:             e.Amount.Float64(),
			Installments:       float64(e.Installments),
			HourOfDay:          w.HourOfDay,
			DayOfWeek:          w.DayOfWeek,
			IsWeekend:          w.IsWeekend,
			IsNight:            w.IsNight,
			CreditUtilization:  e.CreditUtilization(),
			AccountAgeDays:     e.AccountAgeDays(),
			OverAttemptFlag:    flag(e.OverAttempt()),
			DeclinedFlag:       flag(e.Declined),
			ChargebackFlag:     flag(e.Chargeback),
			CVVPresentFlag:     flag(e.CVVPresent),
			CardNotPresentFlag: flag(e.CardNotPresent),
			AVSMismatchFlag:    flag(e.AVSMismatch),
			PINFailedFlag:      flag(e.PINFailed),

			TxCount15m:         w.TxCount15m,
			TxCount24h:         w.TxCount24h,
			HighAmountCount24h: w.HighAmountCount24h,
			AmountSum24h:       w.AmountSum24h,
			SpendRate24h:       w.SpendRate24h,
			MinutesSincePrev:   w.MinutesSincePrev,

			AmountMean3:         w.AmountMean3,
			AmountStd3:          w.AmountStd3,
			SameAmountCount3:    w.SameAmountCount3,
			DistinctCategories5: w.DistinctCategories5,

			ChargebackCount:               sc.ChargebackCount,
			DeclinedCount:                 sc.DeclinedCount,
			PINFailureCount:               sc.PINFailureCount,
			AVSMismatchCount:              sc.AVSMismatchCount,
			NewCategoryFlag:               sc.NewCategoryFlag,
			NewCityFlag:                   sc.NewCityFlag,
			NewCardFlag:                   sc.NewCardFlag,
			NewDeviceFlag:                 sc.NewDeviceFlag,
			NewIPFlag:                     sc.NewIPFlag,
			DeclinedThenApprovedFlag:      sc.DeclinedThenApprovedFlag,
			RepeatCategoryCloseAmountFlag: sc.RepeatCategoryCloseAmountFlag,
			LocationChangeFlag:            sc.LocationChangeFlag,
			HighValueGapMean:              sc.HighValueGapMean,

			CityModeMismatchFlag:    p.CityModeMismatchFlag,
			PaymentModeMismatchFlag: p.PaymentModeMismatchFlag,
			ChannelModeMismatchFlag: p.ChannelModeMismatchFlag,
			CategoryOutsideTop3Flag: p.CategoryOutsideTop3Flag,
			CategoryEntropy5:        p.CategoryEntropy5,
			CitiesToday:             p.CitiesToday,
			DistinctCardsTotal:      p.DistinctCardsTotal,
			DistinctDevicesTotal:    p.DistinctDevicesTotal,
			IPSharedEntities:        p.IPSharedEntities,
			OnlineRatio:             p.OnlineRatio,
			CNPFreq:                 p.CNPFreq,
			RoundAmountFreq:         p.RoundAmountFreq,
			RoundAmountFlag:         p.RoundAmountFlag,
			Ends99Flag:              p.Ends99Flag,
		}
		records[i] = r
	}
	return records, nil
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
