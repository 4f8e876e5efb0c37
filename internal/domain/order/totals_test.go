package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func frozenItem(price string, qty int) LineItem {
	p := decimal.RequireFromString(price)
	return LineItem{
		Qty:       qty,
		UnitPrice: p,
		Subtotal:  p.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func TestComputeTotals(t *testing.T) {
	items := []LineItem{
		frozenItem("20.00", 2),
		frozenItem("16.00", 1),
	}

	got := ComputeTotals(items, decimal.Zero, DefaultTotalsPolicy())

	assert.True(t, decimal.NewFromInt(56).Equal(got.Subtotal), "subtotal %s", got.Subtotal)
	assert.True(t, got.Discount.IsZero())
	assert.True(t, got.Shipping.IsZero())
	assert.True(t, decimal.RequireFromString("61.99").Equal(got.Tax), "tax %s", got.Tax)
	assert.True(t, decimal.RequireFromString("117.99").Equal(got.Total), "total %s", got.Total)
	assert.Equal(t, "USD", got.Currency)
}

func TestComputeTotals_WithDiscount(t *testing.T) {
	items := []LineItem{frozenItem("80.00", 1)}

	got := ComputeTotals(items, decimal.NewFromInt(24), DefaultTotalsPolicy())

	// 80 - 24 + 0 + 61.99
	assert.True(t, decimal.RequireFromString("117.99").Equal(got.Total), "total %s", got.Total)
}

func TestComputeTotals_EmptyItems_NoTax(t *testing.T) {
	got := ComputeTotals(nil, decimal.Zero, DefaultTotalsPolicy())

	assert.True(t, got.Subtotal.IsZero())
	assert.True(t, got.Tax.IsZero(), "no tax on an empty subtotal")
	assert.True(t, got.Total.IsZero())
}

func TestComputeTotals_TotalFlooredAtZero(t *testing.T) {
	items := []LineItem{frozenItem("10.00", 1)}

	got := ComputeTotals(items, decimal.NewFromInt(999), DefaultTotalsPolicy())

	assert.True(t, got.Total.IsZero(), "total %s", got.Total)
	assert.True(t, decimal.NewFromInt(999).Equal(got.Discount), "discount is recorded as-is")
}

func TestComputeTotals_CustomPolicy(t *testing.T) {
	items := []LineItem{frozenItem("10.00", 1)}
	policy := TotalsPolicy{
		FlatTax:  decimal.NewFromInt(2),
		Shipping: decimal.NewFromInt(5),
		Currency: "EUR",
	}

	got := ComputeTotals(items, decimal.Zero, policy)

	assert.True(t, decimal.NewFromInt(17).Equal(got.Total), "total %s", got.Total)
	assert.Equal(t, "EUR", got.Currency)
}
