package service

import (
	"fmt"
	"time"

	"posales/backend/internal/domain"
	"posales/backend/internal/money"
	"posales/backend/internal/order"
)

func (s *Service) view(sess *Session) domain.SessionView {
	lines := sess.lines.Lines()
	single := len(lines) == 1
	views := make([]domain.LineView, 0, len(lines))
	for _, l := range lines {
		views = append(views, lineView(l, single))
	}
	return domain.SessionView{
		SessionID:    sess.id,
		Header:       sess.header,
		Lines:        views,
		Aggregate:    aggregateView(sess.lines),
		CatalogSize:  sess.catalog.Len(),
		LoadError:    sess.loadError(),
		ColumnNotice: sess.columnNotice,
		ExpiresAt:    time.Unix(0, sess.expiresAt.Load()).UTC().Format(time.RFC3339),
	}
}

func lineView(l order.LineItem, onlyLine bool) domain.LineView {
	totals := l.Totals()
	v := domain.LineView{
		ID:                 l.ID.String(),
		State:              l.State(),
		Product:            l.ProductName(),
		UnitPrice:          l.UnitPrice(),
		UnitPriceText:      money.Format(l.UnitPrice()),
		Stock:              l.Stock(),
		Quantity:           l.Quantity,
		DiscountPercent:    l.DiscountPercent,
		Subtotal:           totals.Subtotal,
		DiscountAmount:     totals.DiscountAmount,
		LineTotal:          totals.LineTotal,
		LineTotalText:      money.Format(totals.LineTotal),
		RemoveButtonHidden: onlyLine,
	}
	if l.Product != nil {
		v.StockLevel = order.ClassifyStock(l.Stock())
		v.StockMessage = stockMessage(l.Stock())
		v.QuantityInput = order.QuantityEditable(l.Stock())
	}
	return v
}

func aggregateView(c *order.Collection) domain.AggregateView {
	agg := c.Aggregate()
	v := domain.AggregateView{
		Subtotal:     agg.Subtotal,
		Discount:     agg.Discount,
		Total:        agg.Total,
		SubtotalText: money.Format(agg.Subtotal),
		DiscountText: money.Format(agg.Discount),
		TotalText:    money.Format(agg.Total),
		Breakdown:    []domain.BreakdownItem{},
	}
	for _, l := range c.Lines() {
		if l.State() != domain.LineStateQuantified {
			continue
		}
		v.Breakdown = append(v.Breakdown, domain.BreakdownItem{
			Label: fmt.Sprintf("%s (%dx @ %s)", l.ProductName(), l.Quantity, money.Format(l.UnitPrice())),
			Value: money.Format(l.Totals().LineTotal),
		})
	}
	if len(v.Breakdown) > 0 {
		v.Breakdown = append(v.Breakdown,
			domain.BreakdownItem{Label: "Subtotal", Value: v.SubtotalText},
			domain.BreakdownItem{Label: "Total Diskon", Value: "- " + v.DiscountText},
			domain.BreakdownItem{Label: "GRAND TOTAL", Value: v.TotalText},
		)
	}
	return v
}

func catalogMatch(p domain.Product) domain.CatalogMatch {
	return domain.CatalogMatch{
		Name:          p.Name,
		Price:         p.Price,
		PriceText:     money.Format(p.Price),
		DiscountPct:   p.DefaultDiscountPercent,
		Stock:         p.Stock,
		StockLevel:    order.ClassifyStock(p.Stock),
		QuantityInput: order.QuantityEditable(p.Stock),
	}
}

func stockMessage(stock int) string {
	switch order.ClassifyStock(stock) {
	case domain.StockLevelOut:
		return "Stok Habis"
	case domain.StockLevelLow:
		return fmt.Sprintf("Stok Tersisa: %d unit", stock)
	default:
		return fmt.Sprintf("Stok Tersedia: %d unit", stock)
	}
}
