// Package memory is an in-process data provider seeded with sample data. It
// backs dev mode and the service tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"posales/backend/internal/domain"
	"posales/backend/internal/provider"
)

type Provider struct {
	mu       sync.RWMutex
	sales    []domain.Salesperson
	outlets  []domain.Outlet
	products []domain.Product
	orders   []domain.PurchaseOrder

	// failures injected by tests, keyed by action
	failures map[string]error
}

func New(sales []domain.Salesperson, outlets []domain.Outlet, products []domain.Product) *Provider {
	return &Provider{
		sales:    slices.Clone(sales),
		outlets:  slices.Clone(outlets),
		products: slices.Clone(products),
		failures: map[string]error{},
	}
}

func NewSeeded() *Provider {
	price := decimal.NewFromInt
	products := []domain.Product{
		{Name: "Kopi A", Price: price(10000), DefaultDiscountPercent: price(5), Stock: 8},
		{Name: "Kopi B", Price: price(12000), DefaultDiscountPercent: decimal.Zero, Stock: 3},
		{Name: "Mie Goreng Instan", Price: price(3500), DefaultDiscountPercent: decimal.Zero, Stock: 120},
		{Name: "Telur 10 Butir", Price: price(26500), DefaultDiscountPercent: price(2), Stock: 40},
		{Name: "Susu UHT 1L", Price: price(18900), DefaultDiscountPercent: decimal.Zero, Stock: 24},
		{Name: "Roti Tawar", Price: price(17800), DefaultDiscountPercent: decimal.Zero, Stock: 6},
		{Name: "Gula 1kg", Price: price(17400), DefaultDiscountPercent: price(3), Stock: 60},
		{Name: "Teh Celup", Price: price(9800), DefaultDiscountPercent: decimal.Zero, Stock: 35},
		{Name: "Air Mineral 600ml", Price: price(3900), DefaultDiscountPercent: decimal.Zero, Stock: 200},
		{Name: "Keripik Singkong", Price: price(12800), DefaultDiscountPercent: price(10), Stock: 0},
		{Name: "Sabun Mandi", Price: price(7400), DefaultDiscountPercent: decimal.Zero, Stock: 15},
	}
	sales := []domain.Salesperson{{Name: "Budi Santoso"}, {Name: "Sari Wulandari"}, {Name: "Agus Pratama"}}
	outlets := []domain.Outlet{
		{Name: "Toko Maju Jaya", Address: "Jl. Merdeka No. 12, Bandung", Phone: "081234567890"},
		{Name: "Warung Bu Sri", Address: "Jl. Kenanga No. 5, Cimahi", Phone: "085711223344"},
		{Name: "Minimarket Sejahtera", Address: "Jl. Asia Afrika No. 88, Bandung", Phone: "0227654321"},
	}
	return New(sales, outlets, products)
}

// Fail makes every later call of action ("getSales", "getOutlet",
// "getProduk", "savePO") return err. A nil err clears it.
func (p *Provider) Fail(action string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err == nil {
		delete(p.failures, action)
		return
	}
	p.failures[action] = err
}

func (p *Provider) GetSales(_ context.Context) ([]domain.Salesperson, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.failures["getSales"]; err != nil {
		return nil, err
	}
	return slices.Clone(p.sales), nil
}

func (p *Provider) GetOutlets(_ context.Context) ([]domain.Outlet, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.failures["getOutlet"]; err != nil {
		return nil, err
	}
	return slices.Clone(p.outlets), nil
}

// GetProducts renders the catalog as a sheet with the usual headers.
func (p *Provider) GetProducts(_ context.Context) (domain.CatalogTable, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if err := p.failures["getProduk"]; err != nil {
		return domain.CatalogTable{}, err
	}
	rows := make([][]any, 0, len(p.products))
	for _, product := range p.products {
		rows = append(rows, []any{
			product.Name,
			product.Price.InexactFloat64(),
			product.DefaultDiscountPercent.InexactFloat64(),
			float64(product.Stock),
		})
	}
	return domain.CatalogTable{
		Headers: []string{"Nama Produk", "Harga", "Diskon", "Stok"},
		Rows:    rows,
	}, nil
}

// SavePO records po and takes its quantities out of stock. Nothing changes
// when any line is short.
func (p *Provider) SavePO(_ context.Context, po domain.PurchaseOrder) (domain.SaveResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.failures["savePO"]; err != nil {
		return domain.SaveResult{}, err
	}
	if strings.TrimSpace(po.Header.PONumber) == "" || len(po.Lines) == 0 {
		return domain.SaveResult{}, &provider.RejectedError{Action: "savePO", Message: "Gagal menyimpan PO"}
	}

	for _, saved := range p.orders {
		if saved.Header.PONumber == po.Header.PONumber {
			return domain.SaveResult{}, &provider.RejectedError{Action: "savePO", Message: fmt.Sprintf("No. PO %s sudah dipakai", po.Header.PONumber)}
		}
	}

	remaining := make(map[int]int, len(po.Lines))
	for _, line := range po.Lines {
		idx := p.indexOf(line.Product)
		if idx < 0 {
			return domain.SaveResult{}, &provider.RejectedError{Action: "savePO", Message: fmt.Sprintf("Produk %s tidak ditemukan", line.Product)}
		}
		left, seen := remaining[idx]
		if !seen {
			left = p.products[idx].Stock
		}
		left -= line.Qty
		if line.Qty < 1 || left < 0 {
			return domain.SaveResult{}, fmt.Errorf("savePO %s: %w", line.Product, provider.ErrInsufficientStock)
		}
		remaining[idx] = left
	}
	for idx, left := range remaining {
		p.products[idx].Stock = left
	}

	saved := po
	saved.Lines = slices.Clone(po.Lines)
	p.orders = append(p.orders, saved)
	return domain.SaveResult{PONumber: po.Header.PONumber, Message: "PO tersimpan"}, nil
}

func (p *Provider) NextPOSequence(_ context.Context, prefix string, day time.Time) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	next := 1
	for _, saved := range p.orders {
		if seq, ok := provider.POSequence(saved.Header.PONumber, prefix, day); ok && seq >= next {
			next = seq + 1
		}
	}
	return next, nil
}

// Orders returns the saved purchase orders in submission order.
func (p *Provider) Orders() []domain.PurchaseOrder {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.orders)
}

// SetStock overwrites the stock of the named product.
func (p *Provider) SetStock(name string, stock int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.indexOf(name)
	if idx < 0 {
		return false
	}
	p.products[idx].Stock = stock
	return true
}

func (p *Provider) indexOf(name string) int {
	for i := range p.products {
		if p.products[i].Name == name {
			return i
		}
	}
	return -1
}
