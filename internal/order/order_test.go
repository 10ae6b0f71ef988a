package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posales/backend/internal/domain"
)

func kopiA() domain.Product {
	return domain.Product{
		Name:                   "Kopi A",
		Price:                  decimal.NewFromInt(10000),
		DefaultDiscountPercent: decimal.NewFromInt(5),
		Stock:                  8,
	}
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func assertDecimal(t *testing.T, want decimal.Decimal, got decimal.Decimal) {
	t.Helper()
	assert.Truef(t, want.Equal(got), "want %s, got %s", want, got)
}

func TestNewCollectionHasOneEmptyLine(t *testing.T) {
	c := NewCollection()
	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, domain.LineStateEmpty, lines[0].State())
	assert.NotEqual(t, uuid.Nil, lines[0].ID)
	assertDecimal(t, decimal.Zero, c.Aggregate().Total)
}

func TestKopiAClampedToStock(t *testing.T) {
	c := NewCollection()
	line := c.AddLine()

	bound, err := c.BindProduct(line.ID, kopiA())
	require.NoError(t, err)
	assertDecimal(t, dec(5), bound.DiscountPercent)
	assert.Equal(t, 0, bound.Quantity)
	assert.Equal(t, domain.LineStateBound, bound.State())

	res, err := c.SetQuantity(line.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, QuantityResult{Accepted: 8, Violated: true, Stock: 8}, res)

	got, err := c.Line(line.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Quantity)
	totals := got.Totals()
	assertDecimal(t, dec(80000), totals.Subtotal)
	assertDecimal(t, dec(4000), totals.DiscountAmount)
	assertDecimal(t, dec(76000), totals.LineTotal)
}

func TestAggregateSkipsUnboundLine(t *testing.T) {
	c := NewCollection()
	first := c.Lines()[0]
	c.AddLine()

	_, err := c.BindProduct(first.ID, kopiA())
	require.NoError(t, err)
	_, err = c.SetQuantity(first.ID, 8)
	require.NoError(t, err)

	agg := c.Aggregate()
	assertDecimal(t, dec(80000), agg.Subtotal)
	assertDecimal(t, dec(4000), agg.Discount)
	assertDecimal(t, dec(76000), agg.Total)
}

func TestSetQuantityZeroReturnsToBound(t *testing.T) {
	c := NewCollection()
	id := c.Lines()[0].ID
	_, err := c.BindProduct(id, kopiA())
	require.NoError(t, err)
	_, err = c.SetQuantity(id, 3)
	require.NoError(t, err)

	line, _ := c.Line(id)
	require.Equal(t, domain.LineStateQuantified, line.State())

	res, err := c.SetQuantity(id, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Accepted)
	assert.False(t, res.Violated)

	line, _ = c.Line(id)
	assert.Equal(t, domain.LineStateBound, line.State())
	assertDecimal(t, decimal.Zero, line.Totals().LineTotal)
	assertDecimal(t, decimal.Zero, c.Aggregate().Total)

	_, err = c.SetQuantity(id, -5)
	require.NoError(t, err)
	line, _ = c.Line(id)
	assert.Equal(t, 0, line.Quantity)
}

func TestSetQuantityOnUnboundLineIsNoop(t *testing.T) {
	c := NewCollection()
	id := c.Lines()[0].ID

	res, err := c.SetQuantity(id, 4)
	require.NoError(t, err)
	assert.Equal(t, QuantityResult{}, res)
	line, _ := c.Line(id)
	assert.Equal(t, 0, line.Quantity)
	assert.Equal(t, domain.LineStateEmpty, line.State())
}

func TestQuantityNeverExceedsStock(t *testing.T) {
	c := NewCollection()
	id := c.Lines()[0].ID
	_, err := c.BindProduct(id, kopiA())
	require.NoError(t, err)

	for _, requested := range []int{-1, 0, 1, 7, 8, 9, 100, 1 << 30} {
		_, err := c.SetQuantity(id, requested)
		require.NoError(t, err)
		line, _ := c.Line(id)
		assert.LessOrEqual(t, line.Quantity, line.Stock(), "requested %d", requested)
		assert.GreaterOrEqual(t, line.Quantity, 0)
	}
}

func TestRebindResetsQuantityAndDiscount(t *testing.T) {
	c := NewCollection()
	id := c.Lines()[0].ID
	_, _ = c.BindProduct(id, kopiA())
	_, _ = c.SetQuantity(id, 5)
	_, _ = c.SetDiscount(id, dec(20))

	teh := domain.Product{Name: "Teh", Price: dec(9800), DefaultDiscountPercent: dec(2), Stock: 30}
	line, err := c.BindProduct(id, teh)
	require.NoError(t, err)
	assert.Equal(t, "Teh", line.ProductName())
	assert.Equal(t, 0, line.Quantity)
	assertDecimal(t, dec(2), line.DiscountPercent)
	assert.Equal(t, domain.LineStateBound, line.State())
}

func TestSetDiscountClamps(t *testing.T) {
	c := NewCollection()
	id := c.Lines()[0].ID
	_, _ = c.BindProduct(id, kopiA())
	_, _ = c.SetQuantity(id, 2)

	line, err := c.SetDiscount(id, dec(150))
	require.NoError(t, err)
	assertDecimal(t, dec(100), line.DiscountPercent)
	assertDecimal(t, decimal.Zero, c.Aggregate().Total)

	line, err = c.SetDiscount(id, dec(-3))
	require.NoError(t, err)
	assertDecimal(t, decimal.Zero, line.DiscountPercent)
	assertDecimal(t, dec(20000), c.Aggregate().Total)
}

func TestLineTotalFormulaHoldsAfterMutations(t *testing.T) {
	c := NewCollection()
	id := c.Lines()[0].ID
	p := domain.Product{Name: "Gula 1kg", Price: decimal.RequireFromString("17399.5"), Stock: 50}
	_, _ = c.BindProduct(id, p)

	steps := []struct {
		qty      int
		discount string
	}{{3, "12.5"}, {7, "0"}, {50, "33.33"}, {1, "100"}, {11, "7.25"}}
	for _, s := range steps {
		_, _ = c.SetQuantity(id, s.qty)
		_, _ = c.SetDiscount(id, decimal.RequireFromString(s.discount))

		line, _ := c.Line(id)
		subtotal := line.UnitPrice().Mul(decimal.NewFromInt(int64(line.Quantity)))
		want := subtotal.Sub(subtotal.Mul(line.DiscountPercent).Div(dec(100)))
		assertDecimal(t, want, line.Totals().LineTotal)
		assertDecimal(t, want, c.Aggregate().Total)
	}
}

func TestRecomputeAggregateIsIdempotent(t *testing.T) {
	c := NewCollection()
	id := c.Lines()[0].ID
	_, _ = c.BindProduct(id, domain.Product{Name: "Minyak", Price: decimal.RequireFromString("14250.75"), Stock: 40})
	_, _ = c.SetQuantity(id, 13)
	_, _ = c.SetDiscount(id, decimal.RequireFromString("3.3"))
	second := c.AddLine()
	_, _ = c.BindProduct(second.ID, kopiA())
	_, _ = c.SetQuantity(second.ID, 8)

	lines := c.Lines()
	a := RecomputeAggregate(lines)
	b := RecomputeAggregate(lines)
	assert.Equal(t, a.Subtotal.String(), b.Subtotal.String())
	assert.Equal(t, a.Discount.String(), b.Discount.String())
	assert.Equal(t, a.Total.String(), b.Total.String())
	assertDecimal(t, a.Total, c.Aggregate().Total)
}

func TestRemoveOnlyLineLeavesEmptyLine(t *testing.T) {
	c := NewCollection()
	id := c.Lines()[0].ID
	_, _ = c.BindProduct(id, kopiA())
	_, _ = c.SetQuantity(id, 2)

	require.NoError(t, c.RemoveLine(id))
	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, domain.LineStateEmpty, lines[0].State())
	assert.NotEqual(t, id, lines[0].ID)
	assertDecimal(t, decimal.Zero, c.Aggregate().Total)
}

func TestRemoveLineKeepsOrder(t *testing.T) {
	c := NewCollection()
	a := c.Lines()[0]
	b := c.AddLine()
	d := c.AddLine()

	require.NoError(t, c.RemoveLine(b.ID))
	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, a.ID, lines[0].ID)
	assert.Equal(t, d.ID, lines[1].ID)

	assert.ErrorIs(t, c.RemoveLine(b.ID), ErrLineNotFound)
	_, err := c.SetQuantity(b.ID, 1)
	assert.ErrorIs(t, err, ErrLineNotFound)
}

func TestResetCollapsesToOneClearedLine(t *testing.T) {
	c := NewCollection()
	first := c.Lines()[0].ID
	_, _ = c.BindProduct(first, kopiA())
	_, _ = c.SetQuantity(first, 4)
	c.AddLine()
	c.AddLine()

	c.Reset()
	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, first, lines[0].ID)
	assert.Equal(t, domain.LineStateEmpty, lines[0].State())
	assertDecimal(t, decimal.Zero, c.Aggregate().Subtotal)
}

func TestLinesReturnsCopies(t *testing.T) {
	c := NewCollection()
	id := c.Lines()[0].ID
	_, _ = c.BindProduct(id, kopiA())

	lines := c.Lines()
	lines[0].Product.Stock = 999
	lines[0].Quantity = 999

	line, _ := c.Line(id)
	assert.Equal(t, 8, line.Stock())
	assert.Equal(t, 0, line.Quantity)
}

func TestValidateForSubmit(t *testing.T) {
	t.Run("no quantified line", func(t *testing.T) {
		c := NewCollection()
		_, _ = c.BindProduct(c.Lines()[0].ID, kopiA())
		_, err := c.ValidateForSubmit(nil)
		assert.ErrorIs(t, err, ErrNoSubmittableLine)
	})

	t.Run("skips empty and bound lines", func(t *testing.T) {
		c := NewCollection()
		first := c.Lines()[0].ID
		_, _ = c.BindProduct(first, kopiA())
		_, _ = c.SetQuantity(first, 2)
		c.AddLine()

		lines, err := c.ValidateForSubmit(nil)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, first, lines[0].ID)
	})

	t.Run("current stock dropped below quantity", func(t *testing.T) {
		c := NewCollection()
		first := c.Lines()[0].ID
		_, _ = c.BindProduct(first, kopiA())
		_, _ = c.SetQuantity(first, 6)

		_, err := c.ValidateForSubmit(func(name string) (int, bool) {
			return 4, name == "Kopi A"
		})
		require.ErrorIs(t, err, ErrStockExceeded)
		var violation *StockViolationError
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, "Kopi A", violation.Product)
		assert.Equal(t, 6, violation.Requested)
		assert.Equal(t, 4, violation.Stock)
		assert.Contains(t, err.Error(), "QTY (6) melebihi stok tersedia (4)")
	})

	t.Run("product missing from current catalog uses bind-time stock", func(t *testing.T) {
		c := NewCollection()
		first := c.Lines()[0].ID
		_, _ = c.BindProduct(first, kopiA())
		_, _ = c.SetQuantity(first, 6)

		lines, err := c.ValidateForSubmit(func(string) (int, bool) { return 0, false })
		require.NoError(t, err)
		assert.Len(t, lines, 1)
	})

	t.Run("lines of one product share its stock", func(t *testing.T) {
		c := NewCollection()
		first := c.Lines()[0].ID
		second := c.AddLine().ID
		_, _ = c.BindProduct(first, kopiA())
		_, _ = c.SetQuantity(first, 5)
		_, _ = c.BindProduct(second, kopiA())
		_, _ = c.SetQuantity(second, 4)

		_, err := c.ValidateForSubmit(nil)
		require.ErrorIs(t, err, ErrStockExceeded)
		var violation *StockViolationError
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, second.String(), violation.LineID)
		assert.Equal(t, 9, violation.Requested)
		assert.Equal(t, 8, violation.Stock)

		_, _ = c.SetQuantity(second, 3)
		lines, err := c.ValidateForSubmit(nil)
		require.NoError(t, err)
		assert.Len(t, lines, 2)
	})
}

func TestCheckQuantity(t *testing.T) {
	tests := []struct {
		requested, available int
		want                 QuantityCheck
	}{
		{5, 8, QuantityCheck{Allowed: 5}},
		{8, 8, QuantityCheck{Allowed: 8}},
		{20, 8, QuantityCheck{Allowed: 8, Violated: true}},
		{1, 0, QuantityCheck{Allowed: 0, Violated: true}},
		{0, 0, QuantityCheck{Allowed: 0}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CheckQuantity(tt.requested, tt.available), "%d of %d", tt.requested, tt.available)
	}
}

func TestClassifyStock(t *testing.T) {
	assert.Equal(t, domain.StockLevelOut, ClassifyStock(0))
	assert.Equal(t, domain.StockLevelLow, ClassifyStock(1))
	assert.Equal(t, domain.StockLevelLow, ClassifyStock(LowStockThreshold))
	assert.Equal(t, domain.StockLevelNormal, ClassifyStock(LowStockThreshold+1))
	assert.False(t, QuantityEditable(0))
	assert.True(t, QuantityEditable(3))
}
