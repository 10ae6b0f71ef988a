package catalog

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"posales/backend/internal/domain"
	"posales/backend/internal/money"
)

// ParseRows converts raw sheet rows into products using cols. Rows whose name
// cell is blank are skipped; the number skipped is returned.
func ParseRows(rows [][]any, cols ColumnMap) ([]domain.Product, int) {
	products := make([]domain.Product, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		name := strings.TrimSpace(cellString(cellAt(row, cols.Name)))
		if name == "" {
			skipped++
			continue
		}

		price := cellDecimal(cellAt(row, cols.Price))
		if price.IsNegative() {
			price = decimal.Zero
		}
		stock := cellInt(cellAt(row, cols.Stock))
		if stock < 0 {
			stock = 0
		}

		products = append(products, domain.Product{
			Name:                   name,
			Price:                  price,
			DefaultDiscountPercent: money.ClampPercent(cellDecimal(cellAt(row, cols.Discount))),
			Stock:                  stock,
		})
	}
	return products, skipped
}

func cellAt(row []any, idx int) any {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

func cellString(v any) string {
	switch typed := v.(type) {
	case nil:
		return ""
	case string:
		return typed
	case float64:
		return decimal.NewFromFloat(typed).String()
	case decimal.Decimal:
		return typed.String()
	default:
		return fmt.Sprint(typed)
	}
}

// cellDecimal reads a numeric cell. Strings are parsed from their leading
// numeric prefix ("12.5 kg" -> 12.5); anything unparsable is zero.
func cellDecimal(v any) decimal.Decimal {
	switch typed := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return typed
	case float64:
		if math.IsNaN(typed) || math.IsInf(typed, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(typed)
	case float32:
		return decimal.NewFromFloat32(typed)
	case int:
		return decimal.NewFromInt(int64(typed))
	case int32:
		return decimal.NewFromInt32(typed)
	case int64:
		return decimal.NewFromInt(typed)
	case string:
		prefix := numericPrefix(strings.TrimSpace(typed), true)
		if prefix == "" {
			return decimal.Zero
		}
		d, err := decimal.NewFromString(prefix)
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// cellInt truncates toward zero, so "8.7" and 8.7 both read as 8.
func cellInt(v any) int {
	if s, ok := v.(string); ok {
		prefix := numericPrefix(strings.TrimSpace(s), false)
		if prefix == "" {
			return 0
		}
		d, err := decimal.NewFromString(prefix)
		if err != nil {
			return 0
		}
		return int(d.IntPart())
	}
	return int(cellDecimal(v).IntPart())
}

func numericPrefix(s string, allowFraction bool) string {
	end := 0
	seenDigit := false
	seenDot := false
	for i, r := range s {
		switch {
		case i == 0 && r == '-':
		case r >= '0' && r <= '9':
			seenDigit = true
		case r == '.' && allowFraction && !seenDot:
			seenDot = true
		default:
			return trimPrefix(s[:end], seenDigit)
		}
		end = i + 1
	}
	return trimPrefix(s[:end], seenDigit)
}

func trimPrefix(s string, seenDigit bool) string {
	if !seenDigit {
		return ""
	}
	return strings.TrimSuffix(s, ".")
}
