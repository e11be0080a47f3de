package values

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount represents a transaction amount with exact decimal precision.
// Feature math that depends on equality or cent digits must never round-trip
// through float64; conversion happens only at the feature-vector boundary.
type Amount struct {
	value decimal.Decimal
}

var (
	hundred    = decimal.NewFromInt(100)
	ninetyNine = decimal.New(99, -2)
)

// NewAmount creates an Amount from a decimal value
func NewAmount(value decimal.Decimal) Amount {
	return Amount{value: value}
}

// NewAmountFromString parses a decimal amount string
func NewAmountFromString(s string) (Amount, error) {
	dec, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount: %w", err)
	}
	return Amount{value: dec}, nil
}

// NewAmountFromFloat creates an Amount from float64
// Note: Use with caution due to floating point precision issues
func NewAmountFromFloat(f float64) Amount {
	return Amount{value: decimal.NewFromFloat(f)}
}

// MustAmount parses a decimal amount string and panics on error (for constants/tests)
func MustAmount(s string) Amount {
	a, err := NewAmountFromString(s)
	if err != nil {
		panic(err)
	}
	return a
}

// ZeroAmount returns the zero amount
func ZeroAmount() Amount {
	return Amount{value: decimal.Zero}
}

// Decimal returns the underlying decimal value
func (a Amount) Decimal() decimal.Decimal {
	return a.value
}

// String returns the amount with two fixed decimal places
func (a Amount) String() string {
	return a.value.StringFixed(2)
}

// Float64 converts to float64 (feature-vector boundary only)
func (a Amount) Float64() float64 {
	f, _ := a.value.Float64()
	return f
}

// IsZero checks if the amount is zero
func (a Amount) IsZero() bool {
	return a.value.IsZero()
}

// IsPositive checks if the amount is positive
func (a Amount) IsPositive() bool {
	return a.value.IsPositive()
}

// IsNegative checks if the amount is negative
func (a Amount) IsNegative() bool {
	return a.value.IsNegative()
}

// Equal checks exact decimal equality
func (a Amount) Equal(other Amount) bool {
	return a.value.Equal(other.value)
}

// Cmp returns -1, 0, or 1 comparing with other
func (a Amount) Cmp(other Amount) int {
	return a.value.Cmp(other.value)
}

// GreaterThan reports a > other
func (a Amount) GreaterThan(other Amount) bool {
	return a.value.GreaterThan(other.value)
}

// Add returns a + other
func (a Amount) Add(other Amount) Amount {
	return Amount{value: a.value.Add(other.value)}
}

// Sub returns a - other
func (a Amount) Sub(other Amount) Amount {
	return Amount{value: a.value.Sub(other.value)}
}

// Abs returns the absolute value
func (a Amount) Abs() Amount {
	return Amount{value: a.value.Abs()}
}

// WithinTolerance reports |a - other| <= tolerance
func (a Amount) WithinTolerance(other, tolerance Amount) bool {
	return a.value.Sub(other.value).Abs().Cmp(tolerance.value) <= 0
}

// IsRoundValue reports whether amount x 100 is an exact multiple of 100,
// i.e. the amount has no cent digits
func (a Amount) IsRoundValue() bool {
	return a.value.Mul(hundred).Mod(hundred).IsZero()
}

// EndsNinetyNine reports whether the fractional part is exactly .99
func (a Amount) EndsNinetyNine() bool {
	return a.value.Abs().Mod(decimal.NewFromInt(1)).Equal(ninetyNine)
}

// JSON marshaling
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.value.String())
}

// JSON unmarshaling
func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	amount, err := NewAmountFromString(s)
	if err != nil {
		return err
	}
	*a = amount
	return nil
}

// Database scanning (implements sql.Scanner)
func (a *Amount) Scan(value interface{}) error {
	if value == nil {
		*a = Amount{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return a.scanFromString(string(v))
	case string:
		return a.scanFromString(v)
	case float64:
		*a = NewAmountFromFloat(v)
		return nil
	case int64:
		*a = Amount{value: decimal.NewFromInt(v)}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Amount", value)
	}
}

// Database value (implements driver.Valuer)
func (a Amount) Value() (driver.Value, error) {
	return a.value.String(), nil
}

func (a *Amount) scanFromString(s string) error {
	amount, err := NewAmountFromString(s)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}
	*a = amount
	return nil
}
