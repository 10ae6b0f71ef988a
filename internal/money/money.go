// Package money formats Rupiah amounts for display. Stored values are never
// rounded; rounding happens here and only here.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var Hundred = decimal.NewFromInt(100)

// Number renders v with Indonesian grouping, e.g. 80000 -> "80.000".
func Number(v decimal.Decimal) string {
	p := message.NewPrinter(language.Indonesian)
	return p.Sprintf("%v", number.Decimal(v.InexactFloat64(), number.MaxFractionDigits(2)))
}

// Format renders v as "Rp 80.000".
func Format(v decimal.Decimal) string {
	return "Rp " + Number(v)
}

// ClampPercent bounds a discount percentage to [0,100].
func ClampPercent(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	if v.GreaterThan(Hundred) {
		return Hundred
	}
	return v
}
