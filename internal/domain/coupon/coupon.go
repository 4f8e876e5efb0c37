package coupon

import (
	"context"

	"github.com/shopspring/decimal"
)

// Type enumerates the supported discount strategies.
type Type string

const (
	// TypePercent applies a percentage discount to the eligible subtotal,
	// floored to whole currency units.
	TypePercent Type = "percent"
	// TypeFixed applies a fixed monetary discount capped at the eligible
	// subtotal.
	TypeFixed Type = "fixed"
)

// ParseType normalizes a stored discount type string. Legacy documents use
// "amount" interchangeably with "fixed"; everything else is treated as a
// percentage discount.
func ParseType(s string) Type {
	switch s {
	case "fixed", "amount":
		return TypeFixed
	default:
		return TypePercent
	}
}

// Reason classifies why a coupon evaluation did not produce a discount.
// Evaluation failures are ordinary business outcomes, not errors.
type Reason string

const (
	// ReasonEmpty means no code was supplied.
	ReasonEmpty Reason = "EMPTY"
	// ReasonNotFound means no published product advertises the code.
	ReasonNotFound Reason = "NOT_FOUND"
	// ReasonNoEligibleLines means the code exists but applies to none of
	// the lines actually in the cart.
	ReasonNoEligibleLines Reason = "NO_ELIGIBLE_LINES"
	// ReasonMinNotMet means the eligible subtotal is below the coupon's
	// minimum.
	ReasonMinNotMet Reason = "MIN_NOT_MET"
)

// Line is a cart line item as seen by the evaluator.
type Line struct {
	ProductID string
	Price     decimal.Decimal
	Qty       int
}

// Summary describes the applied coupon in an evaluation result.
type Summary struct {
	Code             string
	Type             Type
	Amount           decimal.Decimal
	Scope            string
	EligibleSubtotal decimal.Decimal
}

// Evaluation is the discriminated result of a coupon evaluation. Exactly one
// of OK or Reason is meaningful: OK carries a discount and a summary, a
// failure carries a reason and a zero discount.
type Evaluation struct {
	OK       bool
	Reason   Reason
	Discount decimal.Decimal
	Coupon   *Summary
}

// ProductCoupon is the coupon configuration of a single product advertising
// a code, as resolved by the catalog.
type ProductCoupon struct {
	ProductID   string
	Code        string
	Type        Type
	Amount      decimal.Decimal
	MinSubtotal decimal.Decimal
}

// Source resolves the products currently advertising a coupon code.
// Implementations must already filter out unpublished products, inactive
// coupons, and expired validity windows.
type Source interface {
	FindByCode(ctx context.Context, code string) ([]ProductCoupon, error)
}
