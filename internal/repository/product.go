package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/vintora/storefront-api/internal/domain/coupon"
	"github.com/vintora/storefront-api/internal/domain/product"
)

const (
	selectProductSQL = `SELECT id, slug, title, image, price, published,
		coupon_code, coupon_type, coupon_amount, coupon_min_subtotal,
		coupon_active, coupon_expires_at, created_at
		FROM products`

	listProductsSQL    = selectProductSQL + ` WHERE published = TRUE ORDER BY created_at DESC`
	getProductSlugSQL  = selectProductSQL + ` WHERE slug = $1`
	getProductsByIDSQL = selectProductSQL + ` WHERE id = ANY($1)`

	// Eligibility filtering happens here rather than in the evaluator:
	// only published products with an active, unexpired coupon can back a
	// code. created_at ordering makes the first-match terms deterministic.
	findByCouponCodeSQL = `SELECT id, coupon_code, coupon_type, coupon_amount, coupon_min_subtotal
		FROM products
		WHERE published = TRUE
		  AND coupon_active = TRUE
		  AND UPPER(coupon_code) = UPPER($1)
		  AND (coupon_expires_at IS NULL OR coupon_expires_at > now())
		ORDER BY created_at`
)

var (
	_ product.Repository = (*ProductRepository)(nil)
	_ coupon.Source      = (*ProductRepository)(nil)
)

// ProductRepository implements product.Repository and coupon.Source backed
// by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns all published products, newest first.
func (r *ProductRepository) List(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return out, nil
}

// GetBySlug fetches a single product by its slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductSlugSQL, slug)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", slug, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", slug, err)
	}
	return &p, nil
}

// GetByIDs fetches products by id in a single batch query.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return out, nil
}

// FindByCode resolves the products currently advertising a coupon code,
// pre-filtered to published products with active, unexpired coupons.
func (r *ProductRepository) FindByCode(ctx context.Context, code string) ([]coupon.ProductCoupon, error) {
	rows, err := r.pool.Query(ctx, findByCouponCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding products for coupon %q: %w", code, err)
	}
	out, err := pgx.CollectRows(rows, scanProductCoupon)
	if err != nil {
		return nil, fmt.Errorf("finding products for coupon %q: %w", code, err)
	}
	return out, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p             product.Product
		couponCode    *string
		couponType    *string
		couponAmount  *decimal.Decimal
		couponMin     decimal.Decimal
		couponActive  bool
		couponExpires *time.Time
	)
	err := row.Scan(
		&p.ID, &p.Slug, &p.Title, &p.Image, &p.Price, &p.Published,
		&couponCode, &couponType, &couponAmount, &couponMin,
		&couponActive, &couponExpires, &p.CreatedAt,
	)
	if err != nil {
		return product.Product{}, err
	}

	if couponCode != nil && *couponCode != "" {
		c := product.Coupon{
			Code:        *couponCode,
			MinSubtotal: couponMin,
			Active:      couponActive,
			ExpiresAt:   couponExpires,
		}
		if couponType != nil {
			c.Type = *couponType
		}
		if couponAmount != nil {
			c.Amount = *couponAmount
		}
		p.Coupon = &c
	}
	return p, nil
}

func scanProductCoupon(row pgx.CollectableRow) (coupon.ProductCoupon, error) {
	var (
		pc     coupon.ProductCoupon
		typ    *string
		amount *decimal.Decimal
	)
	err := row.Scan(&pc.ProductID, &pc.Code, &typ, &amount, &pc.MinSubtotal)
	if err != nil {
		return coupon.ProductCoupon{}, err
	}
	if typ != nil {
		pc.Type = coupon.ParseType(*typ)
	}
	if amount != nil {
		pc.Amount = *amount
	}
	return pc, nil
}
