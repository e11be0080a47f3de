package fixtures

import (
	"testing"
	"time"

	"github.com/davidleathers/fraud-feature-engine/internal/domain/transaction"
	"github.com/davidleathers/fraud-feature-engine/internal/domain/values"
)

// BaseTime is the fixed reference instant scenario helpers build around.
// Fixed so generated histories are identical across test runs.
var BaseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// EventBuilder builds test transaction events
type EventBuilder struct {
	t               *testing.T
	row             int64
	entityID        string
	timestamp       time.Time
	amount          string
	category        string
	city            string
	state           string
	country         string
	paymentMethod   string
	channel         string
	cardID          string
	deviceID        string
	ipAddress       string
	installments    int
	declined        bool
	chargeback      bool
	cvvPresent      bool
	cardNotPresent  bool
	avsMismatch     bool
	pinFailed       bool
	creditLimit     string
	attemptedAmount string
	accountOpenDate time.Time
	timezone        *time.Location
	label           int
}

// NewEventBuilder creates a new EventBuilder with defaults
func NewEventBuilder(t *testing.T) *EventBuilder {
	t.Helper()
	return &EventBuilder{
		t:               t,
		entityID:        "C1",
		timestamp:       BaseTime,
		amount:          "100",
		category:        transaction.DefaultUnknown,
		city:            transaction.DefaultUnknown,
		state:           transaction.DefaultUnknown,
		country:         transaction.DefaultUnknown,
		paymentMethod:   transaction.DefaultUnknown,
		channel:         transaction.DefaultUnknown,
		cardID:          transaction.DefaultUnknown,
		deviceID:        transaction.DefaultUnknown,
		ipAddress:       transaction.DefaultUnknown,
		installments:    transaction.DefaultInstallments,
		cvvPresent:      true,
		creditLimit:     "0",
		attemptedAmount: "0",
		timezone:        time.UTC,
	}
}

// WithRow sets the input ordinal
func (b *EventBuilder) WithRow(row int64) *EventBuilder {
	b.row = row
	return b
}

// WithEntity sets the entity identifier
func (b *EventBuilder) WithEntity(entityID string) *EventBuilder {
	b.entityID = entityID
	return b
}

// WithTimestamp sets the event timestamp
func (b *EventBuilder) WithTimestamp(ts time.Time) *EventBuilder {
	b.timestamp = ts
	return b
}

// WithAmount sets the amount from a decimal string
func (b *EventBuilder) WithAmount(amount string) *EventBuilder {
	b.amount = amount
	return b
}

// WithCategory sets the merchant category
func (b *EventBuilder) WithCategory(category string) *EventBuilder {
	b.category = category
	return b
}

// WithCity sets the merchant city
func (b *EventBuilder) WithCity(city string) *EventBuilder {
	b.city = city
	return b
}

// WithState sets the merchant state
func (b *EventBuilder) WithState(state string) *EventBuilder {
	b.state = state
	return b
}

// WithCountry sets the merchant country
func (b *EventBuilder) WithCountry(country string) *EventBuilder {
	b.country = country
	return b
}

// WithPaymentMethod sets the payment method
func (b *EventBuilder) WithPaymentMethod(method string) *EventBuilder {
	b.paymentMethod = method
	return b
}

// WithChannel sets the transaction channel
func (b *EventBuilder) WithChannel(channel string) *EventBuilder {
	b.channel = channel
	return b
}

// WithCard sets the card identifier
func (b *EventBuilder) WithCard(cardID string) *EventBuilder {
	b.cardID = cardID
	return b
}

// WithDevice sets the device identifier
func (b *EventBuilder) WithDevice(deviceID string) *EventBuilder {
	b.deviceID = deviceID
	return b
}

// WithIP sets the IP address
func (b *EventBuilder) WithIP(ip string) *EventBuilder {
	b.ipAddress = ip
	return b
}

// WithInstallments sets the installments count
func (b *EventBuilder) WithInstallments(n int) *EventBuilder {
	b.installments = n
	return b
}

// WithDeclined marks the event declined
func (b *EventBuilder) WithDeclined(declined bool) *EventBuilder {
	b.declined = declined
	return b
}

// WithChargeback marks the event charged back
func (b *EventBuilder) WithChargeback(chargeback bool) *EventBuilder {
	b.chargeback = chargeback
	return b
}

// WithCVVPresent sets the CVV-present flag
func (b *EventBuilder) WithCVVPresent(present bool) *EventBuilder {
	b.cvvPresent = present
	return b
}

// WithCardNotPresent sets the card-not-present flag
func (b *EventBuilder) WithCardNotPresent(cnp bool) *EventBuilder {
	b.cardNotPresent = cnp
	return b
}

// WithAVSMismatch sets the AVS-mismatch flag
func (b *EventBuilder) WithAVSMismatch(mismatch bool) *EventBuilder {
	b.avsMismatch = mismatch
	return b
}

// WithPINFailed sets the PIN-failed flag
func (b *EventBuilder) WithPINFailed(failed bool) *EventBuilder {
	b.pinFailed = failed
	return b
}

// WithCreditLimit sets the credit limit from a decimal string
func (b *EventBuilder) WithCreditLimit(limit string) *EventBuilder {
	b.creditLimit = limit
	return b
}

// WithAttemptedAmount sets the attempted amount from a decimal string
func (b *EventBuilder) WithAttemptedAmount(amount string) *EventBuilder {
	b.attemptedAmount = amount
	return b
}

// WithAccountOpenDate sets the account open date
func (b *EventBuilder) WithAccountOpenDate(open time.Time) *EventBuilder {
	b.accountOpenDate = open
	return b
}

// WithTimezone sets the resolved event zone
func (b *EventBuilder) WithTimezone(tz *time.Location) *EventBuilder {
	b.timezone = tz
	return b
}

// WithLabel sets the fraud label
func (b *EventBuilder) WithLabel(label int) *EventBuilder {
	b.label = label
	return b
}

// Build creates the Event
func (b *EventBuilder) Build() *transaction.Event {
	e := transaction.NewEvent(b.entityID, b.timestamp, values.MustAmount(b.amount))
	e.Row = b.row
	e.Category = b.category
	e.Merchant = transaction.Location{
		City:    b.city,
		State:   b.state,
		Country: b.country,
	}
	e.PaymentMethod = b.paymentMethod
	e.Channel = b.channel
	e.CardID = b.cardID
	e.DeviceID = b.deviceID
	e.IPAddress = b.ipAddress
	e.Installments = b.installments
	e.Declined = b.declined
	e.Chargeback = b.chargeback
	e.CVVPresent = b.cvvPresent
	e.CardNotPresent = b.cardNotPresent
	e.AVSMismatch = b.avsMismatch
	e.PINFailed = b.pinFailed
	e.CreditLimit = values.MustAmount(b.creditLimit)
	e.AttemptedAmount = values.MustAmount(b.attemptedAmount)
	e.AccountOpenDate = b.accountOpenDate
	e.TZ = b.timezone
	e.Label = b.label
	return e
}

// EventScenarios provides common transaction history scenarios
type EventScenarios struct {
	t *testing.T
}

// NewEventScenarios creates a new EventScenarios helper
func NewEventScenarios(t *testing.T) *EventScenarios {
	t.Helper()
	return &EventScenarios{t: t}
}

// Sequence builds a history of evenly spaced events for one entity with the
// given amounts. Rows are assigned sequentially from 0.
func (es *EventScenarios) Sequence(entityID string, gap time.Duration, amounts ...string) *transaction.History {
	events := make([]*transaction.Event, len(amounts))
	for i, amount := range amounts {
		events[i] = NewEventBuilder(es.t).
			WithEntity(entityID).
			WithRow(int64(i)).
			WithTimestamp(BaseTime.Add(time.Duration(i) * gap)).
			WithAmount(amount).
			Build()
	}
	return &transaction.History{EntityID: entityID, Events: events}
}

// DeclinedThenApproved builds the two-event decline/approve pattern.
func (es *EventScenarios) DeclinedThenApproved(entityID string) *transaction.History {
	declined := NewEventBuilder(es.t).
		WithEntity(entityID).
		WithRow(0).
		WithTimestamp(BaseTime).
		WithDeclined(true).
		Build()
	approved := NewEventBuilder(es.t).
		WithEntity(entityID).
		WithRow(1).
		WithTimestamp(BaseTime.Add(5 * time.Minute)).
		Build()
	return &transaction.History{EntityID: entityID, Events: []*transaction.Event{declined, approved}}
}

// SharedIPPair builds two single-event entities transacting from one address.
func (es *EventScenarios) SharedIPPair(ip string) []*transaction.History {
	first := NewEventBuilder(es.t).
		WithEntity("C1").
		WithRow(0).
		WithTimestamp(BaseTime).
		WithIP(ip).
		Build()
	second := NewEventBuilder(es.t).
		WithEntity("C2").
		WithRow(1).
		WithTimestamp(BaseTime.Add(time.Minute)).
		WithIP(ip).
		Build()
	return []*transaction.History{
		{EntityID: "C1", Events: []*transaction.Event{first}},
		{EntityID: "C2", Events: []*transaction.Event{second}},
	}
}
