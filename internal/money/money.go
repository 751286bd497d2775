// Package money holds the integer minor-unit arithmetic shared by the cost engine.
//
// Amounts are int64 cents and energy is int64 Wh. Every helper computes through
// shopspring/decimal and rounds to the nearest integer with halves away from
// zero (2.5 -> 3, -2.5 -> -3). No helper goes through float64.
package money

import (
	"github.com/shopspring/decimal"
)

// RoundDiv returns num/den rounded to the nearest integer.
// A zero denominator yields 0.
func RoundDiv(num, den int64) int64 {
	if den == 0 {
		return 0
	}
	return decimal.NewFromInt(num).Div(decimal.NewFromInt(den)).Round(0).IntPart()
}

// MulDivRound returns a*b/den rounded to the nearest integer.
func MulDivRound(a, b, den int64) int64 {
	if den == 0 {
		return 0
	}
	return decimal.NewFromInt(a).Mul(decimal.NewFromInt(b)).Div(decimal.NewFromInt(den)).Round(0).IntPart()
}

// LerpRound returns from + (to-from)*num/den rounded to the nearest integer.
// num/den is expected in [0, 1]; the result then stays within [from, to] for
// any int64 endpoints. A zero denominator yields from.
func LerpRound(from, to, num, den int64) int64 {
	if den == 0 {
		return from
	}
	start := decimal.NewFromInt(from)
	step := decimal.NewFromInt(to).Sub(start).Mul(decimal.NewFromInt(num)).Div(decimal.NewFromInt(den))
	return start.Add(step).Round(0).IntPart()
}

// FormatCents renders minor units as a major-unit string with two decimals.
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
