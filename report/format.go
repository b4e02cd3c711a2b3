// Package report renders backtest results for people: console tables and an
// Excel workbook.
package report

import (
	"github.com/shopspring/decimal"
)

// Money formats x to cents, rounding half away from zero.
func Money(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(2)
}

// Price formats x with the instrument's digits.
func Price(x float64, digits int) string {
	return decimal.NewFromFloat(x).StringFixed(int32(digits))
}

func Percent(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(2) + "%"
}
