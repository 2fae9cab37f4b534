package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in reais. It wraps decimal.Decimal so arithmetic
// is exact, and marshals as a bare JSON number because the SOP API speaks
// numbers, not strings.
type Amount struct {
	decimal.Decimal
}

// NewAmount builds an Amount from a float form value.
func NewAmount(v float64) Amount {
	return Amount{decimal.NewFromFloat(v)}
}

// ParseAmount parses a user-entered amount. A comma decimal separator is
// accepted alongside the dot.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	return Amount{d}, nil
}

// MarshalJSON emits the value unquoted.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.String()), nil
}

func (a Amount) Validate() error {
	if !a.Decimal.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{a.Decimal.Add(b.Decimal)}
}

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount {
	return Amount{a.Decimal.Sub(b.Decimal)}
}

// Format renders the value for tables, e.g. "R$ 1200.50".
func (a Amount) Format() string {
	return "R$ " + a.Decimal.StringFixed(2)
}
