// Package money holds the fixed-point helpers shared by pricing code.
// All amounts are shopspring decimals; rounding happens only through Round.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fraction digits every final amount carries.
const Scale = 2

// Currency is appended to human-readable amounts.
const Currency = "EUR"

// MaxFractionDigits caps the precision of incoming amounts before rounding.
const MaxFractionDigits = 18

// maxIntegerDigits matches base_price NUMERIC(12, 2).
const maxIntegerDigits = 10

// MaxAmount is the largest amount base_price can hold.
var MaxAmount = decimal.New(999999999999, -Scale)

// Precise reports whether v has at most MaxFractionDigits fraction digits.
func Precise(v decimal.Decimal) bool {
	return v.IsZero() || v.Exponent() >= -MaxFractionDigits
}

// Bounded reports whether |v| <= MaxAmount. Only the exponent is inspected
// until the comparison is known to be cheap: Cmp rescales both operands.
func Bounded(v decimal.Decimal) bool {
	if v.IsZero() {
		return true
	}
	if v.Exponent() > maxIntegerDigits || !Precise(v) {
		return false
	}
	return v.Abs().Cmp(MaxAmount) <= 0
}

// Round rounds half up (away from zero) to Scale digits.
func Round(v decimal.Decimal) decimal.Decimal {
	return v.Round(Scale)
}

// Sum adds values without rounding.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Format renders v with exactly Scale fraction digits, e.g. "12.10".
func Format(v decimal.Decimal) string {
	return v.StringFixed(Scale)
}

// FormatPercent renders a percentage without trailing zeros, e.g. "21" or "2.5".
func FormatPercent(v decimal.Decimal) string {
	return v.String()
}

// Amount is a monetary value that serializes as a JSON number with Scale digits.
type Amount struct {
	decimal.Decimal
}

// NewAmount rounds v and wraps it.
func NewAmount(v decimal.Decimal) Amount {
	return Amount{Decimal: Round(v)}
}

// RequireAmount parses s and panics on malformed input; meant for fixtures.
func RequireAmount(s string) Amount {
	return NewAmount(decimal.RequireFromString(s))
}

// MarshalJSON emits an unquoted number, e.g. 12.10.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.StringFixed(Scale)), nil
}

// UnmarshalJSON accepts both quoted and bare numbers and rejects excessive precision.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	if !Precise(d) {
		return fmt.Errorf("amount has more than %d fraction digits", MaxFractionDigits)
	}
	a.Decimal = d
	return nil
}
