package util

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const minorUnitExp = 2

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// MinorToDecimal 最小貨幣單位 -> 主單位 (1050 -> 10.50)
func MinorToDecimal(minor int64) decimal.Decimal {
	return decimal.New(minor, -minorUnitExp)
}

// DecimalToMinor converts a major-unit amount to minor units.
// Amounts with more than two fractional digits, below zero or beyond int64 are rejected.
func DecimalToMinor(d decimal.Decimal) (int64, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("amount %s is negative", d.String())
	}
	shifted := d.Shift(minorUnitExp)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", d.String(), minorUnitExp)
	}
	if shifted.GreaterThan(maxMinor) {
		return 0, fmt.Errorf("amount %s is too large", d.String())
	}
	return shifted.IntPart(), nil
}

// FormatMinor renders minor units as a fixed two-decimal string.
func FormatMinor(minor int64) string {
	return MinorToDecimal(minor).StringFixed(minorUnitExp)
}
