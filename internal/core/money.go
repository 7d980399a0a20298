// Package core provides the ledger domain types and money handling.
//
// This file contains the fixed-point Money type and the functions used to
// parse monetary amounts from user or spreadsheet text.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a signed amount with exactly two fractional digits, stored in cents.
type Money struct {
	Cents int64
}

// Zero is the zero amount.
var Zero = Money{}

// Cents builds a Money from an amount expressed in cents.
func Cents(c int64) Money {
	return Money{Cents: c}
}

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds half up)
//	ParseDecimalToCents("12.344") -> 1234, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive values allowed
		return 0, ErrInvalidAmount
	}
	m, err := ParseMoney(s)
	if err != nil {
		return 0, err
	}
	if m.Cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return m.Cents, nil
}

// ParseMoney parses a signed decimal amount. Unlike ParseDecimalToCents it
// accepts zero and negative values, which are needed for adjustments.
func ParseMoney(s string) (Money, error) {
	s = normalizeDecimal(strings.TrimSpace(s))
	if s == "" || !isPlainDecimal(s) {
		return Money{}, ErrInvalidAmount
	}
	s = strings.TrimPrefix(s, "+")
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	} else if strings.HasPrefix(s, "-.") {
		s = "-0" + s[1:]
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return FromDecimal(d)
}

// FromDecimal rounds d half away from zero to two places and converts it to Money.
func FromDecimal(d decimal.Decimal) (Money, error) {
	cents := d.Round(2).Shift(2)
	if !cents.IsInteger() || cents.Abs().GreaterThan(maxCents) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

var maxCents = decimal.New(1<<62, 0)

// Decimal returns the amount as a decimal in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with exactly two fractional digits and no currency.
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) Add(n Money) Money { return Money{Cents: m.Cents + n.Cents} }
func (m Money) Sub(n Money) Money { return Money{Cents: m.Cents - n.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }
func (m Money) IsZero() bool      { return m.Cents == 0 }
func (m Money) IsPositive() bool  { return m.Cents > 0 }
func (m Money) IsNegative() bool  { return m.Cents < 0 }

// Cmp returns -1, 0 or +1 depending on whether m is less than, equal to or
// greater than n.
func (m Money) Cmp(n Money) int {
	switch {
	case m.Cents < n.Cents:
		return -1
	case m.Cents > n.Cents:
		return 1
	default:
		return 0
	}
}

// AddChecked returns m+n, or ErrOverflow when the sum does not fit in int64 cents.
func (m Money) AddChecked(n Money) (Money, error) {
	sum := m.Cents + n.Cents
	if (n.Cents > 0 && sum < m.Cents) || (n.Cents < 0 && sum > m.Cents) {
		return Money{}, ErrOverflow
	}
	return Money{Cents: sum}, nil
}

// SubChecked returns m-n, or ErrOverflow when the difference does not fit.
func (m Money) SubChecked(n Money) (Money, error) {
	diff := m.Cents - n.Cents
	if (n.Cents > 0 && diff > m.Cents) || (n.Cents < 0 && diff < m.Cents) {
		return Money{}, ErrOverflow
	}
	return Money{Cents: diff}, nil
}

// normalizeDecimal turns "1.234,56" and "1,234.56" into "1234.56" and "12,5"
// into "12.5". A lone comma is treated as the decimal separator.
func normalizeDecimal(s string) string {
	dot := strings.LastIndex(s, ".")
	comma := strings.LastIndex(s, ",")
	switch {
	case dot >= 0 && comma >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	case dot >= 0 && comma >= 0:
		return strings.ReplaceAll(s, ",", "")
	default:
		return strings.ReplaceAll(s, ",", ".")
	}
}

func isPlainDecimal(s string) bool {
	if s[0] == '-' || s[0] == '+' {
		s = s[1:]
	}
	if s == "" || s == "." {
		return false
	}
	dots := 0
	for _, r := range s {
		switch {
		case r == '.':
			dots++
		case r < '0' || r > '9':
			return false
		}
	}
	return dots <= 1
}
