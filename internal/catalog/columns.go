package catalog

import "strings"

// ColumnMap locates the product fields inside a catalog sheet. A negative
// index means the column is absent and the field reads as zero.
type ColumnMap struct {
	Name         int  `json:"name"`
	Price        int  `json:"price"`
	Discount     int  `json:"discount"`
	Stock        int  `json:"stock"`
	NameFallback bool `json:"name_fallback"`
}

// Header aliases in lookup order. The first alias present wins.
var (
	nameAliases     = []string{"NAMA PRODUK", "NAMA BARANG", "PRODUK"}
	priceAliases    = []string{"HARGA", "PRICE"}
	discountAliases = []string{"DISKON"}
	stockAliases    = []string{"STOK", "STOCK", "QTY"}
)

// ResolveColumns matches headers case-insensitively against the known
// aliases. When no name column is found it falls back to column 0 and sets
// NameFallback so the caller can warn.
func ResolveColumns(headers []string) ColumnMap {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = strings.ToUpper(strings.TrimSpace(h))
	}

	cols := ColumnMap{
		Name:     indexOfAny(normalized, nameAliases),
		Price:    indexOfAny(normalized, priceAliases),
		Discount: indexOfAny(normalized, discountAliases),
		Stock:    indexOfAny(normalized, stockAliases),
	}
	if cols.Name < 0 {
		cols.Name = 0
		cols.NameFallback = true
	}
	return cols
}

func indexOfAny(headers []string, aliases []string) int {
	for _, alias := range aliases {
		for i, h := range headers {
			if h == alias {
				return i
			}
		}
	}
	return -1
}
