// Package catalog holds the searchable product catalog of one form session.
package catalog

import (
	"errors"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"posales/backend/internal/domain"
)

const DefaultSearchLimit = 100

var ErrEmptyTable = errors.New("product table has no header row")

// Index is replaced wholesale by Load and read by Search. Loads and searches
// may come from different goroutines.
type Index struct {
	mu           sync.RWMutex
	products     []domain.Product
	folded       []string
	defaultLimit int
}

func NewIndex(defaultLimit int) *Index {
	if defaultLimit < 1 {
		defaultLimit = DefaultSearchLimit
	}
	return &Index{defaultLimit: defaultLimit}
}

func (i *Index) Load(products []domain.Product) {
	fold := cases.Fold()
	loaded := make([]domain.Product, len(products))
	folded := make([]string, len(products))
	for idx, p := range products {
		loaded[idx] = p
		folded[idx] = fold.String(p.Name)
	}

	i.mu.Lock()
	i.products = loaded
	i.folded = folded
	i.mu.Unlock()
}

// LoadReport describes how a raw table was interpreted.
type LoadReport struct {
	Columns ColumnMap
	Loaded  int
	Skipped int
}

// LoadTable resolves the columns of table, parses its rows and replaces the
// catalog. On error the current catalog is left untouched.
func (i *Index) LoadTable(table domain.CatalogTable) (LoadReport, error) {
	if len(table.Headers) == 0 {
		return LoadReport{}, ErrEmptyTable
	}
	cols := ResolveColumns(table.Headers)
	products, skipped := ParseRows(table.Rows, cols)
	i.Load(products)
	return LoadReport{Columns: cols, Loaded: len(products), Skipped: skipped}, nil
}

// Search returns products whose name contains query, ignoring case, in
// catalog order. An empty query matches nothing. limit < 1 uses the index
// default.
func (i *Index) Search(query string, limit int) []domain.Product {
	if query == "" {
		return []domain.Product{}
	}
	if limit < 1 {
		limit = i.defaultLimit
	}
	needle := cases.Fold().String(query)

	i.mu.RLock()
	defer i.mu.RUnlock()

	matches := make([]domain.Product, 0, min(limit, 16))
	for idx, name := range i.folded {
		if !strings.Contains(name, needle) {
			continue
		}
		matches = append(matches, i.products[idx])
		if len(matches) == limit {
			break
		}
	}
	return matches
}

// Lookup returns the first product named exactly name.
func (i *Index) Lookup(name string) (domain.Product, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	for _, p := range i.products {
		if p.Name == name {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.products)
}
