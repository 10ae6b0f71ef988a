package order

import "github.com/shopspring/decimal"

type LineTotals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	LineTotal      decimal.Decimal
}

type Aggregate struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// RecomputeLine derives subtotal, discount amount and total from the line's
// inputs. Nothing is rounded; Shift(-2) divides by 100 exactly.
func RecomputeLine(l LineItem) LineTotals {
	if l.Product == nil || l.Quantity <= 0 {
		return LineTotals{Subtotal: decimal.Zero, DiscountAmount: decimal.Zero, LineTotal: decimal.Zero}
	}
	subtotal := l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
	discount := subtotal.Mul(l.DiscountPercent).Shift(-2)
	return LineTotals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		LineTotal:      subtotal.Sub(discount),
	}
}

// RecomputeAggregate sums every line from scratch.
func RecomputeAggregate(lines []LineItem) Aggregate {
	agg := Aggregate{Subtotal: decimal.Zero, Discount: decimal.Zero, Total: decimal.Zero}
	for _, l := range lines {
		t := RecomputeLine(l)
		agg.Subtotal = agg.Subtotal.Add(t.Subtotal)
		agg.Discount = agg.Discount.Add(t.DiscountAmount)
		agg.Total = agg.Total.Add(t.LineTotal)
	}
	return agg
}
