package coupon

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DemoRule is a single entry of the demo coupon table.
type DemoRule struct {
	Type   Type
	Amount decimal.Decimal
}

// Table is the flat coupon lookup used by the demo checkout path. Unlike the
// per-product Evaluator it carries no product scoping and no eligibility
// checks; it is injected configuration so deployments and tests can swap it.
// Keys are uppercase codes.
type Table map[string]DemoRule

// DefaultTable returns the built-in demo coupons: SAVE24 ($24 off) and
// OFF10 (10% off).
func DefaultTable() Table {
	return Table{
		"SAVE24": {Type: TypeFixed, Amount: decimal.NewFromInt(24)},
		"OFF10":  {Type: TypePercent, Amount: decimal.NewFromInt(10)},
	}
}

// ParseTable builds a Table from "CODE=type:amount" specs, e.g.
// "SAVE24=fixed:24". Used to load the table from configuration.
func ParseTable(specs []string) (Table, error) {
	t := make(Table, len(specs))
	for _, spec := range specs {
		code, rule, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, errors.Errorf("demo coupon %q: want CODE=type:amount", spec)
		}
		typ, amount, ok := strings.Cut(rule, ":")
		if !ok {
			return nil, errors.Errorf("demo coupon %q: want CODE=type:amount", spec)
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, errors.Wrapf(err, "demo coupon %q: amount", spec)
		}
		t[strings.ToUpper(strings.TrimSpace(code))] = DemoRule{
			Type:   ParseType(typ),
			Amount: value,
		}
	}
	return t, nil
}

// Apply looks up a code and computes the discount against the whole cart
// subtotal. It reports false when the code is unknown; an empty code is
// simply unknown here, there is no reason taxonomy on the demo path.
func (t Table) Apply(code string, subtotal decimal.Decimal) (decimal.Decimal, bool) {
	rule, ok := t[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return decimal.Zero, false
	}
	return computeDiscount(rule.Type, rule.Amount, subtotal), true
}
