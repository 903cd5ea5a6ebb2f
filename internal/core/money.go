// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents so that sums never drift; decimal
// conversion happens only at the edges (parsing user input, rendering,
// PostgreSQL NUMERIC columns).
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Money struct {
	Cents int64
}

// MaxCents is the largest storable amount, 9999999999.99, the range of the
// NUMERIC(12,2) column. Keeping single amounts this small also keeps window
// totals far from int64 overflow.
const MaxCents int64 = 999_999_999_999

var maxCents = decimal.NewFromInt(MaxCents)

// ParseAmount converts a decimal string to Money with half-up rounding to cents.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted.
// Zero, negative, oversized and malformed values return ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> {1234}
//	ParseAmount("12,34")  -> {1234}
//	ParseAmount("12.345") -> {1235}
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// MoneyFromDecimal rounds d half-up to cents. The result must be positive and
// at most MaxCents.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Shift(2).Round(0)
	if !cents.IsPositive() || cents.GreaterThan(maxCents) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 || m.Cents > MaxCents {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Decimal returns the exact decimal value of m.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders m with exactly two decimal places, e.g. "12.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Float64 returns the value for display purposes only.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Float64() float64 {
	return float64(m.Cents) / 100.0
}

// Percent returns m as a percentage of total. ok is false when total is zero,
// which callers should treat as "no data".
func (m Money) Percent(total Money) (pct float64, ok bool) {
	if total.Cents == 0 {
		return 0, false
	}
	return float64(m.Cents) * 100 / float64(total.Cents), true
}
