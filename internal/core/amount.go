// Package core provides the restaurant, record and amount types together
// with the pure ordering, grouping and merge helpers built on them.
//
// This file contains amount parsing. Amounts are decimals so that report
// totals never accumulate floating-point error.
package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a signed monetary value.
type Amount = decimal.Decimal

var (
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrIncompleteAmount marks a zero amount in an entry form. Zero is a
	// valid stored value but never a valid submission.
	ErrIncompleteAmount = errors.New("amount must not be zero")
)

// NewAmount returns an amount of whole units.
func NewAmount(units int64) Amount {
	return decimal.NewFromInt(units)
}

// ParseAmount parses a decimal string into an Amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and an
// optional leading sign. Thousands separators are not accepted.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-3")    -> -3, nil
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	if strings.Count(s, ",")+strings.Count(s, ".") > 1 {
		return Amount{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasSuffix(s, ".") || strings.HasPrefix(strings.TrimLeft(s, "+-"), ".") {
		return Amount{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	return d, nil
}

// Sum adds up amounts; the sum of nothing is zero.
func Sum(amounts []Amount) Amount {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// MustParseAmount is ParseAmount for literals; it panics on malformed input.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}
