package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors surfaced by the order service.
var (
	// ErrNotFound is returned when an order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrForbidden is returned when an actor operates on an order they do
	// not own.
	ErrForbidden = errors.New("forbidden")
	// ErrEmptyItems is returned when a checkout carries no usable lines.
	ErrEmptyItems = errors.New("items required")
	// ErrUnsupportedStatus is returned by the legacy update path for any
	// status other than cancelled.
	ErrUnsupportedStatus = errors.New("unsupported status for this endpoint")
	// ErrVersionConflict is returned when an optimistic-lock save loses the
	// race and retries are exhausted.
	ErrVersionConflict = errors.New("order was modified concurrently")
)

// LineItem is a frozen order line. Subtotal equals Qty times UnitPrice at
// the time the order was created; later catalog price changes never touch
// past orders.
type LineItem struct {
	ProductID string          `json:"productId,omitempty"`
	Slug      string          `json:"slug"`
	Title     string          `json:"title"`
	Image     string          `json:"image,omitempty"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unitPriceBase"`
	Subtotal  decimal.Decimal `json:"subtotalBase"`
}

// Totals is the authoritative pricing snapshot written once at order
// creation and never recomputed.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotalBase"`
	Discount decimal.Decimal `json:"discountBase"`
	Shipping decimal.Decimal `json:"shippingBase"`
	Tax      decimal.Decimal `json:"taxBase"`
	Total    decimal.Decimal `json:"totalBase"`
	Currency string          `json:"currency"`
}

// Payment holds display metadata about how the order was paid. Never raw
// card data, only brand and last four digits.
type Payment struct {
	Method string `json:"method"`
	Status string `json:"status"`
	Brand  string `json:"brand,omitempty"`
	Last4  string `json:"last4,omitempty"`
	TxnID  string `json:"txnId,omitempty"`
}

// Customer is the contact snapshot captured at checkout.
type Customer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// TimelineEntry is one record of the append-only status audit trail.
type TimelineEntry struct {
	Code string    `json:"code"`
	Note string    `json:"note"`
	At   time.Time `json:"at"`
}

// Order is the central entity: frozen line items and totals plus the
// mutable status/stage pair and its timeline. Version backs optimistic
// locking on saves.
type Order struct {
	ID          string
	UserID      string
	Customer    Customer
	Items       []LineItem
	Totals      Totals
	Payment     Payment
	CouponCode  string
	Status      Status
	Stage       Stage
	Timeline    []TimelineEntry
	ShippedAt   *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
}

// Repository defines persistence operations for orders. Update must check
// the order's Version and return ErrVersionConflict when the stored row has
// moved on.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	List(ctx context.Context) ([]Order, error)
	Update(ctx context.Context, o *Order) error
}
