package database

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Limits on the precision of an amount. Larger values are rejected before
// any arithmetic runs against them.
const (
	maxDecimals = 18
	maxDigits   = 38
)

// Amount represents a quantity of coins. It is marshaled to JSON as a bare
// number and always in its shortest form, so hashes over transactions are
// stable no matter how the amount was written by the client.
type Amount struct {
	d decimal.Decimal
}

// NewAmount parses a decimal string into an amount.
func NewAmount(value string) (Amount, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, err
	}

	if err := checkRange(d); err != nil {
		return Amount{}, err
	}

	return Amount{d: d}, nil
}

// MustAmount parses a decimal string and panics on failure. It is meant for
// constants and tests.
func MustAmount(value string) Amount {
	return Amount{d: decimal.RequireFromString(value)}
}

// AmountFromDecimal converts a decimal value into an amount.
func AmountFromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// Decimal returns the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount {
	return Amount{d: a.d.Sub(b.d)}
}

// Mul returns the amount multiplied by n.
func (a Amount) Mul(n int64) Amount {
	return Amount{d: a.d.Mul(decimal.NewFromInt(n))}
}

// Cmp compares the two amounts and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

// Equal reports whether both amounts represent the same value.
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

// IsPositive reports whether the amount is greater than zero.
func (a Amount) IsPositive() bool {
	return a.d.IsPositive()
}

// IsNegative reports whether the amount is less than zero.
func (a Amount) IsNegative() bool {
	return a.d.IsNegative()
}

// Float64 returns the nearest float64 value for display purposes.
func (a Amount) Float64() float64 {
	return a.d.InexactFloat64()
}

// String implements the fmt.Stringer interface.
func (a Amount) String() string {
	return a.d.String()
}

// MarshalJSON implements the json.Marshaler interface.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.d.String()), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface. Both numbers
// and quoted numbers are accepted.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}

	if err := checkRange(d); err != nil {
		return err
	}

	a.d = d
	return nil
}

// checkRange rejects values with more decimal places or digits than an
// amount can carry.
func checkRange(d decimal.Decimal) error {
	exp := d.Exponent()
	if exp < -maxDecimals {
		return fmt.Errorf("%w: more than %d decimal places", ErrAmountRange, maxDecimals)
	}

	if exp > maxDigits {
		return fmt.Errorf("%w: more than %d digits", ErrAmountRange, maxDigits)
	}

	// 2^127 already has 39 digits.
	coef := d.Coefficient()
	if coef.BitLen() > 127 {
		return fmt.Errorf("%w: more than %d digits", ErrAmountRange, maxDigits)
	}

	digits := len(coef.Abs(coef).String())
	if exp > 0 {
		digits += int(exp)
	}

	if digits > maxDigits {
		return fmt.Errorf("%w: more than %d digits", ErrAmountRange, maxDigits)
	}

	return nil
}
