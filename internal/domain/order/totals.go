package order

import "github.com/shopspring/decimal"

// TotalsPolicy carries the pricing constants applied at checkout: a flat
// tax stand-in charged on any non-empty cart, free shipping, and the store
// currency.
type TotalsPolicy struct {
	FlatTax  decimal.Decimal
	Shipping decimal.Decimal
	Currency string
}

// DefaultTotalsPolicy returns the store defaults: $61.99 flat tax, free
// shipping, USD.
func DefaultTotalsPolicy() TotalsPolicy {
	return TotalsPolicy{
		FlatTax:  decimal.RequireFromString("61.99"),
		Shipping: decimal.Zero,
		Currency: "USD",
	}
}

// ComputeTotals produces the totals snapshot for a set of frozen line items
// and an already-computed discount. The grand total is floored at zero even
// if the discount somehow exceeds the subtotal, and tax is only charged on
// a positive subtotal.
func ComputeTotals(items []LineItem, discount decimal.Decimal, policy TotalsPolicy) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Subtotal)
	}

	tax := decimal.Zero
	if subtotal.IsPositive() {
		tax = policy.FlatTax
	}

	total := subtotal.Sub(discount).Add(policy.Shipping).Add(tax)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Shipping: policy.Shipping,
		Tax:      tax,
		Total:    total,
		Currency: policy.Currency,
	}
}
