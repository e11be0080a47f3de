package transaction

import (
	"time"

	"github.com/davidleathers/fraud-feature-engine/internal/domain/values"
)

// Event is one normalized transaction record. Events are immutable once
// normalization has produced them; every optional attribute is materialized,
// so downstream stages never check for absence.
type Event struct {
	// Row is the zero-based ordinal of the record in the raw input. It
	// survives sorting and is the join key (with EntityID) for assembled
	// feature rows, and the tie-breaker for identical timestamps.
	Row       int64         `json:"row"`
	EntityID  string        `json:"entity_id"`
	Timestamp time.Time     `json:"timestamp"`
	Amount    values.Amount `json:"amount"`

	Category      string   `json:"merchant_category"`
	Merchant      Location `json:"merchant_location"`
	PaymentMethod string   `json:"payment_method"`
	Channel       string   `json:"channel"`
	CardID        string   `json:"card_id"`
	DeviceID      string   `json:"device_id"`
	IPAddress     string   `json:"ip_address"`
	Installments  int      `json:"installments"`

	Declined       bool `json:"declined"`
	Chargeback     bool `json:"chargeback"`
	CVVPresent     bool `json:"cvv_present"`
	CardNotPresent bool `json:"card_not_present"`
	AVSMismatch    bool `json:"avs_mismatch"`
	PINFailed      bool `json:"pin_failed"`

	CreditLimit     values.Amount `json:"credit_limit"`
	AttemptedAmount values.Amount `json:"attempted_amount"`
	ShippingAddress string        `json:"shipping_address"`

	// AccountOpenDate is the zero time when the input had no open date.
	AccountOpenDate time.Time `json:"account_open_date"`

	// TZ is the resolved IANA zone for calendar features, never nil after
	// normalization (invalid or absent zones resolve to UTC).
	TZ *time.Location `json:"-"`

	Label int `json:"label"`
}

// Location is the merchant geography attached to an event.
type Location struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// NewEvent creates an event with every optional attribute set to its
// documented default. Callers overwrite attributes the input actually carried.
func NewEvent(entityID string, timestamp time.Time, amount values.Amount) *Event {
	return &Event{
		EntityID:  entityID,
		Timestamp: timestamp,
		Amount:    amount,
		Category:  DefaultUnknown,
		Merchant: Location{
			City:    DefaultUnknown,
			State:   DefaultUnknown,
			Country: DefaultUnknown,
		},
		PaymentMethod:   DefaultUnknown,
		Channel:         DefaultUnknown,
		CardID:          DefaultUnknown,
		DeviceID:        DefaultUnknown,
		IPAddress:       DefaultUnknown,
		Installments:    DefaultInstallments,
		CVVPresent:      true,
		CreditLimit:     values.ZeroAmount(),
		AttemptedAmount: values.ZeroAmount(),
		TZ:              time.UTC,
	}
}

// LocalTime returns the event timestamp in its resolved zone.
func (e *Event) LocalTime() time.Time {
	if e.TZ == nil {
		return e.Timestamp.In(time.UTC)
	}
	return e.Timestamp.In(e.TZ)
}

// IsHighValue reports whether the amount exceeds the given threshold.
func (e *Event) IsHighValue(threshold values.Amount) bool {
	return e.Amount.GreaterThan(threshold)
}

// AccountAgeDays returns the account age in days at the event's own
// timestamp. Zero when no open date is known or the open date is in the
// event's future.
func (e *Event) AccountAgeDays() float64 {
	if e.AccountOpenDate.IsZero() {
		return 0
	}
	days := e.Timestamp.Sub(e.AccountOpenDate).Hours() / 24
	if days < 0 {
		return 0
	}
	return days
}

// CreditUtilization returns amount divided by credit limit, 0 when the
// limit is absent or non-positive.
func (e *Event) CreditUtilization() float64 {
	if !e.CreditLimit.IsPositive() {
		return 0
	}
	return e.Amount.Float64() / e.CreditLimit.Float64()
}

// OverAttempt reports whether a larger amount was attempted than settled.
func (e *Event) OverAttempt() bool {
	return e.AttemptedAmount.GreaterThan(e.Amount)
}

// SamePlace reports whether both city and state match the other event's
// merchant location.
func (e *Event) SamePlace(other *Event) bool {
	return e.Merchant.City == other.Merchant.City && e.Merchant.State == other.Merchant.State
}

// MinutesSince returns the elapsed minutes from the other event to this one.
func (e *Event) MinutesSince(other *Event) float64 {
	return e.Timestamp.Sub(other.Timestamp).Minutes()
}
