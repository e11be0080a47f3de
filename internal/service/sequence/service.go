package sequence

import (
	"time"

	"github.com/davidleathers/fraud-feature-engine/internal/domain/transaction"
)

// Service runs the single left-to-right scan per entity that produces the
// features not expressible as fixed-size windows: cumulative counters,
// first-occurrence novelty flags, and consecutive-event patterns. Every value
// is a pure function of the ordered prefix.
type Service struct {
	cfg Config
}

// NewService creates a new state tracking service
func NewService(cfg Config) *Service {
	return &Service{cfg: cfg}
}

// scanState is the entity-local arena. It is created per history and
// discarded after the scan; nothing is shared between entities.
type scanState struct {
	chargebacks  int
	declines     int
	pinFailures  int
	avsMismatch  int
	categories   map[string]struct{}
	cities       map[string]struct{}
	cards        map[string]struct{}
	devices      map[string]struct{}
	ips          map[string]struct{}
	highValueAt  time.Time
	highValueN   int
	gapSumMin    float64
	gapCount     int
}

func newScanState() *scanState {
	return &scanState{
		categories: make(map[string]struct{}),
		cities:     make(map[string]struct{}),
		cards:      make(map[string]struct{}),
		devices:    make(map[string]struct{}),
		ips:        make(map[string]struct{}),
	}
}

// noveltyFlag reports first occurrence and records the value.
func (st *scanState) noveltyFlag(set map[string]struct{}, value string) float64 {
	if _, seen := set[value]; seen {
		return 0
	}
	set[value] = struct{}{}
	return 1
}

// Scan returns one partial row per event of the history, in history order.
func (s *Service) Scan(history *transaction.History) []Row {
	events := history.Events
	rows := make([]Row, len(events))
	st := newScanState()

	for i, e := range events {
		if e.Chargeback {
			st.chargebacks++
		}
		if e.Declined {
			st.declines++
		}
		if e.PINFailed {
			st.pinFailures++
		}
		if e.AVSMismatch {
			st.avsMismatch++
		}

		row := Row{
			EntityID:         e.EntityID,
			Row:              e.Row,
			ChargebackCount:  float64(st.chargebacks),
			DeclinedCount:    float64(st.declines),
			PINFailureCount:  float64(st.pinFailures),
			AVSMismatchCount: float64(st.avsMismatch),
			NewCategoryFlag:  st.noveltyFlag(st.categories, e.Category),
			NewCityFlag:      st.noveltyFlag(st.cities, e.Merchant.City),
			NewCardFlag:      st.noveltyFlag(st.cards, e.CardID),
			NewDeviceFlag:    st.noveltyFlag(st.devices, e.DeviceID),
			NewIPFlag:        st.noveltyFlag(st.ips, e.IPAddress),
		}

		if i > 0 {
			prev := events[i-1]
			if prev.Declined && !e.Declined {
				row.DeclinedThenApprovedFlag = 1
			}
			if e.Category == prev.Category && e.Amount.WithinTolerance(prev.Amount, s.cfg.AmountTolerance) {
				row.RepeatCategoryCloseAmountFlag = 1
			}
			if !e.SamePlace(prev) {
				row.LocationChangeFlag = 1
			}
		}

		if e.IsHighValue(s.cfg.HighAmountThreshold) {
			if st.highValueN > 0 {
				st.gapSumMin += e.Timestamp.Sub(st.highValueAt).Minutes()
				st.gapCount++
			}
			st.highValueAt = e.Timestamp
			st.highValueN++
		}

		if st.gapCount > 0 {
			row.HighValueGapMean = st.gapSumMin / float64(st.gapCount)
		} else {
			row.HighValueGapMean = transaction.SentinelMinutes
		}

		rows[i] = row
	}
	return rows
}
