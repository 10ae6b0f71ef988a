package order

import (
	"errors"
	"fmt"
)

var (
	ErrLineNotFound      = errors.New("line not found")
	ErrNoSubmittableLine = errors.New("no line with a product and quantity")
	ErrStockExceeded     = errors.New("quantity exceeds stock")
)

// StockViolationError reports a line whose quantity no longer fits the stock
// it is checked against.
type StockViolationError struct {
	LineID    string
	Product   string
	Requested int
	Stock     int
}

func (e *StockViolationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Product, ViolationMessage(e.Requested, e.Stock))
}

func (e *StockViolationError) Unwrap() error {
	return ErrStockExceeded
}
