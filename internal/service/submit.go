package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"posales/backend/internal/cache"
	"posales/backend/internal/domain"
	"posales/backend/internal/money"
	"posales/backend/internal/order"
	"posales/backend/internal/provider"
)

// Submit validates the form against the current catalog and saves it. A
// failure at any step leaves the session exactly as it was. After a save the
// counter advances, the form is reset and the catalog is reloaded so stock
// reflects the order; a failed reload is only logged.
func (s *Service) Submit(ctx context.Context, id string) (domain.SubmitResponse, error) {
	sess, err := s.session(id)
	if err != nil {
		return domain.SubmitResponse{}, err
	}
	start := s.clock()

	sess.mu.Lock()
	defer sess.mu.Unlock()

	po, err := s.buildPurchaseOrder(sess)
	if err != nil {
		s.metrics.SubmitFailed.Inc()
		return domain.SubmitResponse{}, err
	}
	po.SubmittedAt = start.UTC()
	seq := s.nextSequence(ctx, sess, start)
	if number := provider.PONumber(s.opts.POPrefix, start, seq); number != po.Header.PONumber {
		log.Printf("[service] po number %s renumbered to %s session=%s", po.Header.PONumber, number, sess.id)
		po.Header.PONumber = number
	}

	pctx, cancel := s.providerContext(ctx)
	result, err := s.provider.SavePO(pctx, po)
	cancel()
	if err != nil {
		s.metrics.SubmitFailed.Inc()
		log.Printf("[service] WARN: save po failed session=%s po=%s: %v", sess.id, po.Header.PONumber, err)
		return domain.SubmitResponse{}, fmt.Errorf("save po %s: %w", po.Header.PONumber, err)
	}
	s.metrics.SubmitOK.Inc()
	s.metrics.SubmitLatencySec.Observe(s.clock().Sub(start).Seconds())

	poNumber := po.Header.PONumber
	if result.PONumber != "" {
		poNumber = result.PONumber
	}
	log.Printf("[service] po saved session=%s po=%s lines=%d total=%s", sess.id, poNumber, len(po.Lines), po.Total.String())

	event := domain.POSubmittedEvent{
		PONumber:    poNumber,
		Salesperson: po.Header.Salesperson,
		Outlet:      po.Header.Outlet,
		LineCount:   len(po.Lines),
		Total:       po.Total,
		SubmittedAt: po.SubmittedAt,
	}
	if err := s.events.PublishSubmitted(ctx, event); err != nil {
		log.Printf("[service] WARN: publish po.submitted failed po=%s: %v", poNumber, err)
	}

	sess.poCounter = seq + 1
	s.resetLocked(ctx, sess, s.clock())

	if err := s.cache.Delete(ctx, cache.CatalogKey); err != nil {
		log.Printf("[service] WARN: catalog cache invalidation failed: %v", err)
	}
	if err := s.reloadCatalog(ctx, sess); err != nil {
		log.Printf("[service] WARN: catalog reload after submit failed session=%s: %v", sess.id, err)
	}

	return domain.SubmitResponse{
		PONumber:    poNumber,
		LineCount:   len(po.Lines),
		Total:       money.Format(po.Total),
		Message:     fmt.Sprintf("PO berhasil disimpan dengan %d produk!", len(po.Lines)),
		NextSession: s.view(sess),
	}, nil
}

func (s *Service) buildPurchaseOrder(sess *Session) (domain.PurchaseOrder, error) {
	header, err := s.validateHeader(sess.header)
	if err != nil {
		return domain.PurchaseOrder{}, err
	}

	lines, err := sess.lines.ValidateForSubmit(sess.currentStock)
	if err != nil {
		var violation *order.StockViolationError
		switch {
		case errors.As(err, &violation):
			s.metrics.StockViolations.Inc()
			return domain.PurchaseOrder{}, &ValidationError{
				Field:   "lines",
				Message: fmt.Sprintf("QTY produk %q (%d) melebihi stok tersedia (%d)!", violation.Product, violation.Requested, violation.Stock),
				Err:     err,
			}
		case errors.Is(err, order.ErrNoSubmittableLine):
			return domain.PurchaseOrder{}, &ValidationError{Field: "lines", Message: "Minimal satu produk harus diisi!", Err: err}
		default:
			return domain.PurchaseOrder{}, err
		}
	}

	agg := order.RecomputeAggregate(lines)
	po := domain.PurchaseOrder{
		Header:        header,
		Lines:         make([]domain.PurchaseOrderLine, 0, len(lines)),
		Subtotal:      agg.Subtotal,
		DiscountTotal: agg.Discount,
		Total:         agg.Total,
	}
	for _, l := range lines {
		po.Lines = append(po.Lines, domain.PurchaseOrderLine{
			Product:         l.ProductName(),
			Qty:             l.Quantity,
			UnitPrice:       l.UnitPrice(),
			DiscountPercent: l.DiscountPercent,
			Total:           l.Totals().LineTotal,
		})
	}
	return po, nil
}

func providerMessage(err error) string {
	var rejected *provider.RejectedError
	switch {
	case errors.As(err, &rejected):
		return rejected.Message
	case errors.Is(err, provider.ErrInsufficientStock):
		return "stok tidak mencukupi"
	case errors.Is(err, provider.ErrUnavailable):
		return "server data tidak dapat dihubungi"
	default:
		return "terjadi kesalahan"
	}
}

// PublicMessage renders err for the person filling the form.
func PublicMessage(err error) string {
	return publicError(err)
}
