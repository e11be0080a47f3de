package transaction_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davidleathers/fraud-feature-engine/internal/domain/transaction"
	"github.com/davidleathers/fraud-feature-engine/internal/domain/values"
	"github.com/davidleathers/fraud-feature-engine/internal/testutil/fixtures"
)

func TestNewEvent_MaterializesDefaults(t *testing.T) {
	ts := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	e := transaction.NewEvent("C1", ts, values.MustAmount("42.50"))

	assert.Equal(t, "C1", e.EntityID)
	assert.True(t, e.Timestamp.Equal(ts))
	assert.Equal(t, transaction.DefaultUnknown, e.Category)
	assert.Equal(t, transaction.DefaultUnknown, e.Merchant.City)
	assert.Equal(t, transaction.DefaultUnknown, e.Merchant.State)
	assert.Equal(t, transaction.DefaultUnknown, e.Merchant.Country)
	assert.Equal(t, transaction.DefaultUnknown, e.PaymentMethod)
	assert.Equal(t, transaction.DefaultUnknown, e.Channel)
	assert.Equal(t, transaction.DefaultUnknown, e.CardID)
	assert.Equal(t, transaction.DefaultUnknown, e.DeviceID)
	assert.Equal(t, transaction.DefaultUnknown, e.IPAddress)
	assert.Equal(t, transaction.DefaultInstallments, e.Installments)
	assert.False(t, e.Declined)
	assert.False(t, e.Chargeback)
	assert.True(t, e.CVVPresent)
	assert.False(t, e.CardNotPresent)
	assert.True(t, e.CreditLimit.IsZero())
	assert.True(t, e.AttemptedAmount.IsZero())
	assert.True(t, e.AccountOpenDate.IsZero())
	assert.Equal(t, time.UTC, e.TZ)
	assert.Equal(t, 0, e.Label)
}

func TestAttributeDefaults_CoversEveryOptionalColumn(t *testing.T) {
	optional := []string{
		transaction.ColCategory,
		transaction.ColCity,
		transaction.ColState,
		transaction.ColCountry,
		transaction.ColPaymentMethod,
		transaction.ColChannel,
		transaction.ColCardID,
		transaction.ColDeviceID,
		transaction.ColIPAddress,
		transaction.ColInstallments,
		transaction.ColDeclined,
		transaction.ColChargeback,
		transaction.ColCVVPresent,
		transaction.ColCardNotPresent,
		transaction.ColAVSMismatch,
		transaction.ColPINFailed,
		transaction.ColCreditLimit,
		transaction.ColAttemptedAmount,
		transaction.ColShippingAddress,
		transaction.ColAccountOpenDate,
		transaction.ColTimezone,
		transaction.ColLabel,
	}

	require.Len(t, transaction.AttributeDefaults, len(optional))
	for _, col := range optional {
		_, ok := transaction.AttributeDefaults[col]
		assert.True(t, ok, "no default registered for %s", col)
	}

	// Required columns must never appear: absence there drops the row.
	for _, col := range []string{transaction.ColEntityID, transaction.ColAmount, transaction.ColDatetime} {
		_, ok := transaction.AttributeDefaults[col]
		assert.False(t, ok, "required column %s must not have a default", col)
	}
}

func TestEvent_LocalTime(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name     string
		tz       *time.Location
		wantHour int
	}{
		{name: "utc", tz: time.UTC, wantHour: 12},
		{name: "new york winter", tz: ny, wantHour: 7},
		{name: "nil zone falls back to utc", tz: nil, wantHour: 12},
	}

	ts := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := transaction.NewEvent("C1", ts, values.MustAmount("10"))
			e.TZ = tt.tz
			assert.Equal(t, tt.wantHour, e.LocalTime().Hour())
		})
	}
}

func TestEvent_AccountAgeDays(t *testing.T) {
	ts := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		open time.Time
		want float64
	}{
		{name: "no open date", open: time.Time{}, want: 0},
		{name: "ten days old", open: ts.AddDate(0, 0, -10), want: 10},
		{name: "opened in the future", open: ts.AddDate(0, 0, 3), want: 0},
		{name: "opened same instant", open: ts, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := transaction.NewEvent("C1", ts, values.MustAmount("10"))
			e.AccountOpenDate = tt.open
			assert.InDelta(t, tt.want, e.AccountAgeDays(), 1e-9)
		})
	}
}

func TestEvent_CreditUtilization(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		limit  string
		want   float64
	}{
		{name: "half the limit", amount: "500", limit: "1000", want: 0.5},
		{name: "no limit known", amount: "500", limit: "0", want: 0},
		{name: "over limit", amount: "1500", limit: "1000", want: 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := fixtures.NewEventBuilder(t).
				WithAmount(tt.amount).
				WithCreditLimit(tt.limit).
				Build()
			assert.InDelta(t, tt.want, e.CreditUtilization(), 1e-9)
		})
	}
}

func TestEvent_IsHighValue(t *testing.T) {
	threshold := values.MustAmount("500")

	assert.False(t, fixtures.NewEventBuilder(t).WithAmount("500").Build().IsHighValue(threshold))
	assert.True(t, fixtures.NewEventBuilder(t).WithAmount("500.01").Build().IsHighValue(threshold))
	assert.False(t, fixtures.NewEventBuilder(t).WithAmount("100").Build().IsHighValue(threshold))
}

func TestEvent_OverAttempt(t *testing.T) {
	assert.True(t, fixtures.NewEventBuilder(t).WithAmount("100").WithAttemptedAmount("250").Build().OverAttempt())
	assert.False(t, fixtures.NewEventBuilder(t).WithAmount("100").WithAttemptedAmount("100").Build().OverAttempt())
	assert.False(t, fixtures.NewEventBuilder(t).WithAmount("100").Build().OverAttempt())
}
