package transaction

import "time"

// Canonical input column names. Aliases accepted during normalization map
// onto these.
const (
	ColEntityID        = "entity_id"
	ColAmount          = "amount"
	ColDatetime        = "datetime"
	ColDate            = "date"
	ColTime            = "time"
	ColCategory        = "merchant_category"
	ColCity            = "merchant_city"
	ColState           = "merchant_state"
	ColCountry         = "merchant_country"
	ColPaymentMethod   = "payment_method"
	ColChannel         = "channel"
	ColCardID          = "card_id"
	ColDeviceID        = "device_id"
	ColIPAddress       = "ip_address"
	ColInstallments    = "installments"
	ColDeclined        = "declined"
	ColChargeback      = "chargeback"
	ColCVVPresent      = "cvv_present"
	ColCardNotPresent  = "card_not_present"
	ColAVSMismatch     = "avs_mismatch"
	ColPINFailed       = "pin_failed"
	ColCreditLimit     = "credit_limit"
	ColAttemptedAmount = "attempted_amount"
	ColShippingAddress = "shipping_address"
	ColAccountOpenDate = "account_open_date"
	ColTimezone        = "timezone"
	ColLabel           = "label"
)

// Defaults for optional attributes. Applied uniformly during normalization,
// never inferred per entity.
const (
	DefaultUnknown      = "unknown"
	DefaultInstallments = 1
	DefaultTimezone     = "UTC"
)

// SentinelMinutes marks elapsed-time features with no defined predecessor
// (first event of an entity, or fewer than two high-value events).
const SentinelMinutes = 999999.0

// FallbackTimestamp is assigned to every record when the input carries no
// date or time information at all. Duration windows then collapse to
// "everything so far", ordered by input ordinal.
var FallbackTimestamp = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// AttributeDefaults maps every optional input column to the raw cell value
// substituted when the column is absent or the cell is blank. This table is
// the single source of defaults; normalization is its only consumer.
var AttributeDefaults = map[string]string{
	ColCategory:        DefaultUnknown,
	ColCity:            DefaultUnknown,
	ColState:           DefaultUnknown,
	ColCountry:         DefaultUnknown,
	ColPaymentMethod:   DefaultUnknown,
	ColChannel:         DefaultUnknown,
	ColCardID:          DefaultUnknown,
	ColDeviceID:        DefaultUnknown,
	ColIPAddress:       DefaultUnknown,
	ColInstallments:    "1",
	ColDeclined:        "0",
	ColChargeback:      "0",
	ColCVVPresent:      "1",
	ColCardNotPresent:  "0",
	ColAVSMismatch:     "0",
	ColPINFailed:       "0",
	ColCreditLimit:     "0",
	ColAttemptedAmount: "0",
	ColShippingAddress: "",
	ColAccountOpenDate: "",
	ColTimezone:        DefaultTimezone,
	ColLabel:           "0",
}
