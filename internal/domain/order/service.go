package order

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vintora/storefront-api/internal/domain/coupon"
)

// casAttempts bounds the re-read-and-retry loop around version-checked
// saves. Contention on a single order is admin clicks, not a hot path.
const casAttempts = 3

// CheckoutLine is one client-supplied cart line on the demo checkout path.
// Prices are taken as sent; this path exists for demonstration, not real
// payment capture.
type CheckoutLine struct {
	ProductID string
	Slug      string
	Title     string
	Image     string
	Qty       int
	UnitPrice float64
}

// CheckoutRequest is the input for the demo checkout.
type CheckoutRequest struct {
	UserID        string
	Customer      Customer
	Lines         []CheckoutLine
	CouponCode    string
	PaymentMethod string
	CardNumber    string
}

// Service implements checkout and every lifecycle operation over orders.
type Service struct {
	orders Repository
	demo   coupon.Table
	policy TotalsPolicy
	now    func() time.Time
}

// NewService creates an order Service. The demo coupon table and totals
// policy are injected so environments and tests can swap them.
func NewService(orders Repository, demo coupon.Table, policy TotalsPolicy) *Service {
	return &Service{
		orders: orders,
		demo:   demo,
		policy: policy,
		now:    time.Now,
	}
}

// Checkout creates an order from the demo checkout payload: freezes line
// subtotals, applies the demo coupon table, computes the totals snapshot,
// and persists the order at status pending, stage created.
//
// Lines with non-finite prices are skipped rather than rejected; quantities
// below one are floored to one. A cart with no usable lines is an error.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*Order, error) {
	items := make([]LineItem, 0, len(req.Lines))
	for _, line := range req.Lines {
		if math.IsNaN(line.UnitPrice) || math.IsInf(line.UnitPrice, 0) || line.UnitPrice < 0 {
			continue
		}
		qty := line.Qty
		if qty < 1 {
			qty = 1
		}
		price := decimal.NewFromFloat(line.UnitPrice)
		items = append(items, LineItem{
			ProductID: line.ProductID,
			Slug:      line.Slug,
			Title:     line.Title,
			Image:     line.Image,
			Qty:       qty,
			UnitPrice: price,
			Subtotal:  price.Mul(decimal.NewFromInt(int64(qty))),
		})
	}
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Subtotal)
	}

	discount := decimal.Zero
	appliedCode := ""
	if req.CouponCode != "" {
		if d, ok := s.demo.Apply(req.CouponCode, subtotal); ok {
			discount = d
			appliedCode = strings.ToUpper(strings.TrimSpace(req.CouponCode))
		}
	}

	now := s.now()
	o := &Order{
		ID:         uuid.New().String(),
		UserID:     req.UserID,
		Customer:   req.Customer,
		Items:      items,
		Totals:     ComputeTotals(items, discount, s.policy),
		Payment:    demoPayment(req.PaymentMethod, req.CardNumber),
		CouponCode: appliedCode,
		Status:     StatusPending,
		Stage:      StageCreated,
		Timeline: []TimelineEntry{
			{Code: string(StageCreated), Note: "Order placed", At: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}
	return o, nil
}

// Get returns a single order. Actors only see their own orders unless
// actorID is empty, which callers use for the admin surface.
func (s *Service) Get(ctx context.Context, id, actorID string) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actorID != "" && o.UserID != actorID {
		return nil, ErrForbidden
	}
	return o, nil
}

// ListByUser returns the orders owned by the given user.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.ListByUser(ctx, userID)
}

// List returns all orders, newest first. Admin surface only.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.orders.List(ctx)
}

// Cancel moves an order to cancelled on behalf of its owner.
func (s *Service) Cancel(ctx context.Context, id, actorID string) (*Order, error) {
	return s.transition(ctx, id, func(o *Order) (bool, error) {
		if o.UserID != actorID {
			return false, ErrForbidden
		}
		return ApplyStatus(o, StatusCancelled, "Order cancelled by customer", s.now()), nil
	})
}

// ConfirmDelivery marks an order delivered on behalf of its owner. Stage
// delivered implies status completed in the same write.
func (s *Service) ConfirmDelivery(ctx context.Context, id, actorID string) (*Order, error) {
	return s.transition(ctx, id, func(o *Order) (bool, error) {
		if o.UserID != actorID {
			return false, ErrForbidden
		}
		return ApplyStage(o, StageDelivered, "Delivery confirmed by customer", s.now()), nil
	})
}

// UpdateStatusLegacy is the old customer-facing status endpoint. It only
// ever accepted cancellation; any other status is rejected before touching
// the order.
func (s *Service) UpdateStatusLegacy(ctx context.Context, id, actorID string, status Status) (*Order, error) {
	if status != StatusCancelled {
		return nil, ErrUnsupportedStatus
	}
	return s.Cancel(ctx, id, actorID)
}

// SetStatus sets the order status directly. Admin surface; the caller has
// already checked permissions and validated the enum.
func (s *Service) SetStatus(ctx context.Context, id string, status Status) (*Order, error) {
	return s.transition(ctx, id, func(o *Order) (bool, error) {
		return ApplyStatus(o, status, "Status set to "+string(status), s.now()), nil
	})
}

// SetStage sets the fulfillment stage directly. Admin surface.
func (s *Service) SetStage(ctx context.Context, id string, stage Stage) (*Order, error) {
	return s.transition(ctx, id, func(o *Order) (bool, error) {
		return ApplyStage(o, stage, "Stage set to "+string(stage), s.now()), nil
	})
}

// transition runs a read-mutate-save cycle under optimistic locking: the
// save checks the version read, and a lost race re-reads and reapplies the
// mutation up to casAttempts times. A mutation reporting no change is
// returned as-is without a save.
func (s *Service) transition(ctx context.Context, id string, mutate func(*Order) (bool, error)) (*Order, error) {
	for range casAttempts {
		o, err := s.orders.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		changed, err := mutate(o)
		if err != nil {
			return nil, err
		}
		if !changed {
			return o, nil
		}

		o.UpdatedAt = s.now()
		err = s.orders.Update(ctx, o)
		if err == nil {
			return o, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, err
		}
	}
	return nil, ErrVersionConflict
}

// demoPayment derives display-only payment metadata. Only the brand and the
// last four digits of the card survive; the number itself is dropped.
func demoPayment(method, cardNumber string) Payment {
	if method == "" {
		method = "card"
	}
	p := Payment{
		Method: method,
		Status: "paid",
		TxnID:  "txn_" + uuid.New().String(),
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, cardNumber)
	if len(digits) >= 4 {
		p.Last4 = digits[len(digits)-4:]
	}
	switch {
	case strings.HasPrefix(digits, "4"):
		p.Brand = "visa"
	case strings.HasPrefix(digits, "5"):
		p.Brand = "mastercard"
	case strings.HasPrefix(digits, "3"):
		p.Brand = "amex"
	case digits != "":
		p.Brand = "card"
	}
	return p
}
