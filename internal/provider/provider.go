// Package provider defines the data source behind the order form: the sales
// and outlet directories, the product catalog and order persistence.
package provider

import (
	"context"
	"errors"
	"fmt"

	"posales/backend/internal/domain"
)

var (
	ErrUnavailable       = errors.New("data provider unavailable")
	ErrRejected          = errors.New("data provider rejected the request")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type DataProvider interface {
	GetSales(ctx context.Context) ([]domain.Salesperson, error)
	GetOutlets(ctx context.Context) ([]domain.Outlet, error)
	// GetProducts returns the raw catalog sheet. Column resolution is left to
	// the caller.
	GetProducts(ctx context.Context) (domain.CatalogTable, error)
	SavePO(ctx context.Context, po domain.PurchaseOrder) (domain.SaveResult, error)
}

// RejectedError carries the message a provider returned with a refusal.
type RejectedError struct {
	Action  string
	Message string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

func (e *RejectedError) Unwrap() error {
	return ErrRejected
}

// DirectoryRows converts header-prefixed directory rows into values. The
// first row is the header; rows whose first cell is blank are skipped.
func DirectoryRows(rows [][]any) [][]string {
	if len(rows) <= 1 {
		return [][]string{}
	}
	out := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = cellText(cell)
		}
		if len(cells) == 0 || cells[0] == "" {
			continue
		}
		out = append(out, cells)
	}
	return out
}

func SalesFromRows(rows [][]any) []domain.Salesperson {
	table := DirectoryRows(rows)
	sales := make([]domain.Salesperson, 0, len(table))
	for _, row := range table {
		sales = append(sales, domain.Salesperson{Name: row[0]})
	}
	return sales
}

func OutletsFromRows(rows [][]any) []domain.Outlet {
	table := DirectoryRows(rows)
	outlets := make([]domain.Outlet, 0, len(table))
	for _, row := range table {
		outlets = append(outlets, domain.Outlet{
			Name:    row[0],
			Address: at(row, 1),
			Phone:   at(row, 2),
		})
	}
	return outlets
}

func at(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
