package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"posales/backend/internal/domain"
	"posales/backend/internal/order"
)

func (s *Service) Search(_ context.Context, id string, query string, limit int) (domain.SearchResponse, error) {
	sess, err := s.session(id)
	if err != nil {
		return domain.SearchResponse{}, err
	}
	if limit < 1 || limit > s.opts.SearchLimit {
		limit = s.opts.SearchLimit
	}
	s.metrics.Searches.Inc()

	products := sess.catalog.Search(query, limit)
	matches := make([]domain.CatalogMatch, 0, len(products))
	for _, p := range products {
		matches = append(matches, catalogMatch(p))
	}
	return domain.SearchResponse{Query: query, Matches: matches, Found: len(matches) > 0}, nil
}

func (s *Service) AddLine(_ context.Context, id string) (domain.LineUpdateResponse, error) {
	sess, err := s.session(id)
	if err != nil {
		return domain.LineUpdateResponse{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	line := sess.lines.AddLine()
	return domain.LineUpdateResponse{
		Line:      lineView(line, false),
		Aggregate: aggregateView(sess.lines),
	}, nil
}

// UpdateLine applies the product, then the quantity, then the discount of
// req. An unknown product leaves the line untouched.
func (s *Service) UpdateLine(_ context.Context, id string, lineID string, req domain.LineUpdateRequest) (domain.LineUpdateResponse, error) {
	sess, err := s.session(id)
	if err != nil {
		return domain.LineUpdateResponse{}, err
	}
	lid, err := uuid.Parse(lineID)
	if err != nil {
		return domain.LineUpdateResponse{}, order.ErrLineNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if _, err := sess.lines.Line(lid); err != nil {
		return domain.LineUpdateResponse{}, err
	}

	var resp domain.LineUpdateResponse
	if req.Product != nil {
		product, ok := sess.catalog.Lookup(strings.TrimSpace(*req.Product))
		if !ok {
			return domain.LineUpdateResponse{}, &ValidationError{Field: "product", Message: "Produk tidak ditemukan"}
		}
		if _, err := sess.lines.BindProduct(lid, product); err != nil {
			return domain.LineUpdateResponse{}, err
		}
	}
	if req.Quantity != nil {
		res, err := sess.lines.SetQuantity(lid, *req.Quantity)
		if err != nil {
			return domain.LineUpdateResponse{}, err
		}
		if res.Violated {
			resp.StockViolation = true
			resp.Message = order.ViolationMessage(*req.Quantity, res.Stock)
			s.metrics.StockViolations.Inc()
		}
	}
	if req.DiscountPercent != nil {
		if _, err := sess.lines.SetDiscount(lid, *req.DiscountPercent); err != nil {
			return domain.LineUpdateResponse{}, err
		}
	}

	line, err := sess.lines.Line(lid)
	if err != nil {
		return domain.LineUpdateResponse{}, err
	}
	resp.Line = lineView(line, sess.lines.Len() == 1)
	resp.Aggregate = aggregateView(sess.lines)
	return resp, nil
}

func (s *Service) RemoveLine(_ context.Context, id string, lineID string) (domain.SessionView, error) {
	sess, err := s.session(id)
	if err != nil {
		return domain.SessionView{}, err
	}
	lid, err := uuid.Parse(lineID)
	if err != nil {
		return domain.SessionView{}, order.ErrLineNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.lines.RemoveLine(lid); err != nil {
		return domain.SessionView{}, err
	}
	return s.view(sess), nil
}

// Reset clears the whole form: one empty line, blank header and a PO number
// that is still free.
func (s *Service) Reset(ctx context.Context, id string) (domain.SessionView, error) {
	sess, err := s.session(id)
	if err != nil {
		return domain.SessionView{}, err
	}
	now := s.clock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.resetLocked(ctx, sess, now)
	return s.view(sess), nil
}

func (s *Service) resetLocked(ctx context.Context, sess *Session, now time.Time) {
	sess.lines.Reset()
	sess.header = s.freshHeader(ctx, sess, now)
}
