package order

import (
	"fmt"

	"posales/backend/internal/domain"
)

// LowStockThreshold is the highest stock still classified as low.
const LowStockThreshold = 10

type QuantityCheck struct {
	Allowed  int
	Violated bool
}

// CheckQuantity bounds requested by available. Zero stock makes every
// positive request a violation.
func CheckQuantity(requested, available int) QuantityCheck {
	if available < 0 {
		available = 0
	}
	if requested > available {
		return QuantityCheck{Allowed: available, Violated: true}
	}
	return QuantityCheck{Allowed: requested}
}

// ClassifyStock maps a stock count to one of the domain.StockLevel values.
func ClassifyStock(stock int) string {
	switch {
	case stock <= 0:
		return domain.StockLevelOut
	case stock <= LowStockThreshold:
		return domain.StockLevelLow
	default:
		return domain.StockLevelNormal
	}
}

// QuantityEditable reports whether a quantity can be entered for stock.
func QuantityEditable(stock int) bool {
	return stock > 0
}

func ViolationMessage(requested, stock int) string {
	return fmt.Sprintf("QTY (%d) melebihi stok tersedia (%d). Silakan input ulang.", requested, stock)
}
