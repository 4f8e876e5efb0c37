package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID        string
	Slug      string
	Title     string
	Image     string
	Price     decimal.Decimal
	Published bool
	Coupon    *Coupon
	CreatedAt time.Time
}

// Coupon is the per-product promotion embedded on a catalog item. A product
// advertises at most one coupon code; several products may share a code and
// are then treated as one promotion.
type Coupon struct {
	Code        string
	Type        string
	Amount      decimal.Decimal
	MinSubtotal decimal.Decimal
	Active      bool
	ExpiresAt   *time.Time
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
