// Package order keeps the editable line items of a purchase order and the
// totals derived from them.
package order

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"posales/backend/internal/domain"
	"posales/backend/internal/money"
)

// Collection is the ordered set of lines of one order form. It always holds
// at least one line. The aggregate is recomputed from scratch after every
// mutation. A Collection is not safe for concurrent use.
type Collection struct {
	lines     []LineItem
	aggregate Aggregate
}

func NewCollection() *Collection {
	c := &Collection{lines: []LineItem{newLine()}}
	c.recompute()
	return c
}

func (c *Collection) AddLine() LineItem {
	line := newLine()
	c.lines = append(c.lines, line)
	c.recompute()
	return line
}

// RemoveLine drops the line. Removing the last remaining line leaves a single
// cleared line in its place.
func (c *Collection) RemoveLine(id uuid.UUID) error {
	idx := c.indexOf(id)
	if idx < 0 {
		return ErrLineNotFound
	}
	c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
	if len(c.lines) == 0 {
		c.lines = append(c.lines, newLine())
	}
	c.recompute()
	return nil
}

// Reset collapses the collection to its first line, cleared.
func (c *Collection) Reset() {
	first := c.lines[0].ID
	c.lines = []LineItem{{ID: first, DiscountPercent: decimal.Zero}}
	c.recompute()
}

func (c *Collection) Lines() []LineItem {
	out := make([]LineItem, len(c.lines))
	for i, l := range c.lines {
		out[i] = l.clone()
	}
	return out
}

func (c *Collection) Len() int {
	return len(c.lines)
}

func (c *Collection) Line(id uuid.UUID) (LineItem, error) {
	idx := c.indexOf(id)
	if idx < 0 {
		return LineItem{}, ErrLineNotFound
	}
	return c.lines[idx].clone(), nil
}

func (c *Collection) Aggregate() Aggregate {
	return c.aggregate
}

// BindProduct attaches a snapshot of p to the line, takes the product's
// default discount and resets the quantity.
func (c *Collection) BindProduct(id uuid.UUID, p domain.Product) (LineItem, error) {
	idx := c.indexOf(id)
	if idx < 0 {
		return LineItem{}, ErrLineNotFound
	}
	snapshot := p
	line := &c.lines[idx]
	line.Product = &snapshot
	line.DiscountPercent = money.ClampPercent(p.DefaultDiscountPercent)
	line.Quantity = 0
	c.recompute()
	return line.clone(), nil
}

type QuantityResult struct {
	Accepted int
	Violated bool
	Stock    int
}

// SetQuantity applies requested after bounding it by the bound product's
// stock. A request above stock is clamped and flagged, not refused. On an
// unbound line it does nothing.
func (c *Collection) SetQuantity(id uuid.UUID, requested int) (QuantityResult, error) {
	idx := c.indexOf(id)
	if idx < 0 {
		return QuantityResult{}, ErrLineNotFound
	}
	line := &c.lines[idx]
	if line.Product == nil {
		return QuantityResult{}, nil
	}

	result := QuantityResult{Stock: line.Product.Stock}
	if requested > 0 {
		check := CheckQuantity(requested, line.Product.Stock)
		result.Accepted = check.Allowed
		result.Violated = check.Violated
	}
	line.Quantity = result.Accepted
	c.recompute()
	return result, nil
}

func (c *Collection) SetDiscount(id uuid.UUID, percent decimal.Decimal) (LineItem, error) {
	idx := c.indexOf(id)
	if idx < 0 {
		return LineItem{}, ErrLineNotFound
	}
	line := &c.lines[idx]
	line.DiscountPercent = money.ClampPercent(percent)
	c.recompute()
	return line.clone(), nil
}

// StockLookup returns the current stock of a product by name.
type StockLookup func(name string) (int, bool)

// ValidateForSubmit returns the quantified lines in order. It fails with
// ErrNoSubmittableLine when there are none, and with a *StockViolationError
// when the lines of one product together exceed its bind-time stock or the
// stock reported by current. current may be nil.
func (c *Collection) ValidateForSubmit(current StockLookup) ([]LineItem, error) {
	submittable := make([]LineItem, 0, len(c.lines))
	ordered := make(map[string]int, len(c.lines))
	for _, l := range c.lines {
		if l.State() != domain.LineStateQuantified {
			continue
		}
		stock := l.Product.Stock
		if current != nil {
			if now, ok := current(l.Product.Name); ok && now < stock {
				stock = now
			}
		}
		ordered[l.Product.Name] += l.Quantity
		if total := ordered[l.Product.Name]; total > stock {
			return nil, &StockViolationError{
				LineID:    l.ID.String(),
				Product:   l.Product.Name,
				Requested: total,
				Stock:     stock,
			}
		}
		submittable = append(submittable, l.clone())
	}
	if len(submittable) == 0 {
		return nil, ErrNoSubmittableLine
	}
	return submittable, nil
}

func (c *Collection) indexOf(id uuid.UUID) int {
	for i := range c.lines {
		if c.lines[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *Collection) recompute() {
	c.aggregate = RecomputeAggregate(c.lines)
}
