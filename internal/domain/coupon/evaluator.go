package coupon

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Evaluator decides whether a per-product coupon code applies to a cart and
// computes the discount. It is read-only over the catalog: evaluating a
// coupon never mutates anything.
type Evaluator struct {
	source Source
}

// NewEvaluator creates an Evaluator backed by the given coupon source.
func NewEvaluator(source Source) *Evaluator {
	return &Evaluator{source: source}
}

// Evaluate resolves the code against the catalog and computes the discount
// over the eligible cart lines. Business failures (unknown code, no eligible
// lines, minimum not met) come back as a non-OK Evaluation; the error return
// is reserved for system faults such as a failing catalog lookup.
//
// When several products share a code, the terms are read from the first
// resolved product. The source returns products in stable catalog order, so
// the policy is deterministic: oldest product wins.
func (e *Evaluator) Evaluate(ctx context.Context, code string, lines []Line) (Evaluation, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return failure(ReasonEmpty), nil
	}

	matched, err := e.source.FindByCode(ctx, code)
	if err != nil {
		return Evaluation{}, errors.Wrap(err, "resolve coupon products")
	}
	if len(matched) == 0 {
		return failure(ReasonNotFound), nil
	}

	eligible := make(map[string]struct{}, len(matched))
	for _, pc := range matched {
		eligible[pc.ProductID] = struct{}{}
	}

	eligibleSubtotal := decimal.Zero
	for _, line := range lines {
		if _, ok := eligible[line.ProductID]; !ok {
			continue
		}
		qty := line.Qty
		if qty < 1 {
			qty = 1
		}
		eligibleSubtotal = eligibleSubtotal.Add(line.Price.Mul(decimal.NewFromInt(int64(qty))))
	}
	if !eligibleSubtotal.IsPositive() {
		return failure(ReasonNoEligibleLines), nil
	}

	terms := matched[0]
	if eligibleSubtotal.LessThan(terms.MinSubtotal) {
		return failure(ReasonMinNotMet), nil
	}

	discount := computeDiscount(terms.Type, terms.Amount, eligibleSubtotal)

	return Evaluation{
		OK:       true,
		Discount: discount,
		Coupon: &Summary{
			Code:             code,
			Type:             terms.Type,
			Amount:           terms.Amount,
			Scope:            "per-product",
			EligibleSubtotal: eligibleSubtotal,
		},
	}, nil
}

// computeDiscount applies the coupon terms to an eligible subtotal.
// Fixed discounts are capped at the subtotal; percentage discounts are
// floored to whole currency units. The result is never negative and never
// exceeds the subtotal.
func computeDiscount(typ Type, amount, subtotal decimal.Decimal) decimal.Decimal {
	amount = decimal.Max(amount, decimal.Zero)

	var d decimal.Decimal
	switch typ {
	case TypeFixed:
		d = decimal.Min(amount, subtotal)
	default:
		d = subtotal.Mul(amount).Div(hundred).Floor()
	}

	return decimal.Max(d, decimal.Zero)
}

func failure(r Reason) Evaluation {
	return Evaluation{Reason: r, Discount: decimal.Zero}
}
