package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"posales/backend/internal/domain"
)

// LineItem is one product selection. Product is a snapshot taken at bind
// time, so its Price and Stock are the unit price and stock this line is
// validated against until it is rebound.
type LineItem struct {
	ID              uuid.UUID
	Product         *domain.Product
	Quantity        int
	DiscountPercent decimal.Decimal
}

func newLine() LineItem {
	return LineItem{ID: uuid.New(), DiscountPercent: decimal.Zero}
}

func (l LineItem) State() string {
	switch {
	case l.Product == nil:
		return domain.LineStateEmpty
	case l.Quantity > 0:
		return domain.LineStateQuantified
	default:
		return domain.LineStateBound
	}
}

// UnitPrice is zero for an unbound line.
func (l LineItem) UnitPrice() decimal.Decimal {
	if l.Product == nil {
		return decimal.Zero
	}
	return l.Product.Price
}

func (l LineItem) Stock() int {
	if l.Product == nil {
		return 0
	}
	return l.Product.Stock
}

func (l LineItem) ProductName() string {
	if l.Product == nil {
		return ""
	}
	return l.Product.Name
}

func (l LineItem) Totals() LineTotals {
	return RecomputeLine(l)
}

func (l LineItem) clone() LineItem {
	if l.Product != nil {
		p := *l.Product
		l.Product = &p
	}
	return l
}
