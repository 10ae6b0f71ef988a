package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"posales/backend/internal/domain"
	"posales/backend/internal/provider"
)

func order(lines ...domain.PurchaseOrderLine) domain.PurchaseOrder {
	return domain.PurchaseOrder{
		Header: domain.POHeader{PONumber: "PO-20261019-0001"},
		Lines:  lines,
	}
}

func line(name string, qty int) domain.PurchaseOrderLine {
	return domain.PurchaseOrderLine{Product: name, Qty: qty, UnitPrice: decimal.NewFromInt(1000)}
}

func stockOf(t *testing.T, p *Provider, name string) int {
	t.Helper()
	table, err := p.GetProducts(context.Background())
	if err != nil {
		t.Fatalf("get products: %v", err)
	}
	for _, row := range table.Rows {
		if row[0] == name {
			return int(row[3].(float64))
		}
	}
	t.Fatalf("product %s not found", name)
	return 0
}

func TestSavePODecrementsStock(t *testing.T) {
	p := NewSeeded()
	res, err := p.SavePO(context.Background(), order(line("Kopi A", 5), line("Teh Celup", 1)))
	if err != nil {
		t.Fatalf("save po: %v", err)
	}
	if res.PONumber != "PO-20261019-0001" {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := stockOf(t, p, "Kopi A"); got != 3 {
		t.Fatalf("expected Kopi A stock 3, got %d", got)
	}
	if len(p.Orders()) != 1 {
		t.Fatalf("expected one saved order")
	}
}

func TestSavePOIsAllOrNothing(t *testing.T) {
	p := NewSeeded()
	_, err := p.SavePO(context.Background(), order(line("Kopi A", 5), line("Kopi A", 4)))
	if !errors.Is(err, provider.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if got := stockOf(t, p, "Kopi A"); got != 8 {
		t.Fatalf("expected stock untouched at 8, got %d", got)
	}
	if len(p.Orders()) != 0 {
		t.Fatalf("expected no saved order")
	}
}

func TestSavePOUnknownProductRejected(t *testing.T) {
	p := NewSeeded()
	_, err := p.SavePO(context.Background(), order(line("Produk Hilang", 1)))
	if !errors.Is(err, provider.ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestInjectedFailure(t *testing.T) {
	p := NewSeeded()
	p.Fail("getProduk", provider.ErrUnavailable)
	if _, err := p.GetProducts(context.Background()); !errors.Is(err, provider.ErrUnavailable) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	p.Fail("getProduk", nil)
	if _, err := p.GetProducts(context.Background()); err != nil {
		t.Fatalf("expected failure cleared, got %v", err)
	}
}

func TestNextPOSequenceFollowsSavedOrders(t *testing.T) {
	p := NewSeeded()
	day := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

	next, err := p.NextPOSequence(context.Background(), "PO", day)
	if err != nil || next != 1 {
		t.Fatalf("expected 1 on an empty day, got %d (%v)", next, err)
	}

	for _, number := range []string{"PO-20261019-0001", "PO-20261019-0004", "PO-20261018-0009", "SO-20261019-0007"} {
		po := order(line("Teh Celup", 1))
		po.Header.PONumber = number
		if _, err := p.SavePO(context.Background(), po); err != nil {
			t.Fatalf("save %s: %v", number, err)
		}
	}

	next, err = p.NextPOSequence(context.Background(), "PO", day)
	if err != nil || next != 5 {
		t.Fatalf("expected 5 after PO-20261019-0004, got %d (%v)", next, err)
	}
}

func TestSavePODuplicateNumberRejected(t *testing.T) {
	p := NewSeeded()
	if _, err := p.SavePO(context.Background(), order(line("Teh Celup", 1))); err != nil {
		t.Fatalf("first save: %v", err)
	}
	_, err := p.SavePO(context.Background(), order(line("Teh Celup", 1)))
	if !errors.Is(err, provider.ErrRejected) {
		t.Fatalf("expected ErrRejected for reused number, got %v", err)
	}
	if got := stockOf(t, p, "Teh Celup"); got != 34 {
		t.Fatalf("expected only the first order to take stock, got %d", got)
	}
}
