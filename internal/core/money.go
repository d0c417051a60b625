// Package core holds the domain model of the earnings ledger: periods,
// report layouts, file classification, amounts and output rows.
//
// This file contains the parsing rules for revenue cells.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AmountFormat controls how tolerant revenue cell parsing is. Exports seen so
// far use a dot decimal separator and comma thousands separators.
type AmountFormat struct {
	// CurrencySymbols are stripped anywhere in the cell.
	CurrencySymbols string
	// ParenNegative reads "(12.50)" as -12.50.
	ParenNegative bool
	// AllowNegative rejects negative results with ErrNegativeAmount when false.
	AllowNegative bool
}

func DefaultAmountFormat() AmountFormat {
	return AmountFormat{
		CurrencySymbols: "$€£¥",
		ParenNegative:   true,
		AllowNegative:   true,
	}
}

// Parse converts a revenue cell into a decimal amount.
//
// Examples with the default format:
//
//	Parse("$1,234.50") -> 1234.5
//	Parse("(10.00)")   -> -10
//	Parse("USD 3.2")   -> ErrInvalidAmount
//	Parse("12,34")     -> ErrInvalidAmount
//	Parse("  ")        -> ErrBlankAmount
func (f AmountFormat) Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrBlankAmount
	}

	negative := false
	if f.ParenNegative && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' || strings.ContainsRune(f.CurrencySymbols, r) {
			return -1
		}
		return r
	}, s)

	switch {
	case strings.HasPrefix(s, "-"):
		negative = !negative
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	s, ok := stripThousands(s)
	if !ok || !isPlainDecimal(s) {
		return decimal.Zero, ErrInvalidAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if negative {
		d = d.Neg()
	}
	if d.IsNegative() && !f.AllowNegative {
		return decimal.Zero, ErrNegativeAmount
	}
	return d, nil
}

// isPlainDecimal accepts digits with at most one dot and at least one digit.
func isPlainDecimal(s string) bool {
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// stripThousands removes comma separators from the integer part. Commas must
// split it into a 1-3 digit lead and groups of exactly 3 digits, and may not
// appear in the fraction.
func stripThousands(s string) (string, bool) {
	if !strings.Contains(s, ",") {
		return s, true
	}
	intPart, frac, hasDot := strings.Cut(s, ".")
	if strings.Contains(frac, ",") {
		return "", false
	}
	groups := strings.Split(intPart, ",")
	if n := len(groups[0]); n < 1 || n > 3 {
		return "", false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", false
		}
	}
	out := strings.Join(groups, "")
	if hasDot {
		out += "." + frac
	}
	return out, true
}
