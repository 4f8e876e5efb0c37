package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vintora/storefront-api/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders (
		id, user_id, customer, items, subtotal, discount, shipping, tax, total,
		currency, coupon_code, payment, status, stage, timeline, created_at,
		updated_at, version
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	selectOrderSQL = `SELECT id, user_id, customer, items, subtotal, discount,
		shipping, tax, total, currency, coupon_code, payment, status, stage,
		timeline, shipped_at, delivered_at, cancelled_at, created_at, updated_at,
		version
		FROM orders`

	getOrderSQL       = selectOrderSQL + ` WHERE id = $1`
	listOrdersByUser  = selectOrderSQL + ` WHERE user_id = $1 ORDER BY created_at DESC`
	listOrdersSQL     = selectOrderSQL + ` ORDER BY created_at DESC`
	updateOrderCASSQL = `UPDATE orders SET
		status = $3, stage = $4, timeline = $5, shipped_at = $6,
		delivered_at = $7, cancelled_at = $8, updated_at = $9,
		version = version + 1
		WHERE id = $1 AND version = $2`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
// Line items, payment metadata, and the status timeline live in JSONB
// columns; totals are NUMERIC columns so they stay queryable.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order at version 1.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	customer, items, payment, timeline, err := marshalOrderDocs(o)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, customer, items,
		o.Totals.Subtotal, o.Totals.Discount, o.Totals.Shipping, o.Totals.Tax,
		o.Totals.Total, o.Totals.Currency, o.CouponCode, payment,
		string(o.Status), string(o.Stage), timeline,
		o.CreatedAt, o.UpdatedAt, o.Version,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// Get fetches a single order by id.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	return &o, nil
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUser, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	out, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return out, nil
}

// List returns all orders, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	out, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return out, nil
}

// Update saves the mutable lifecycle fields under optimistic locking: the
// row is only written when its stored version still matches o.Version.
// A lost race surfaces as order.ErrVersionConflict; the caller re-reads and
// retries. Frozen fields (items, totals, payment) are deliberately not part
// of the update.
func (r *OrderRepository) Update(ctx context.Context, o *order.Order) error {
	timeline, err := json.Marshal(o.Timeline)
	if err != nil {
		return fmt.Errorf("marshaling timeline: %w", err)
	}

	tag, err := r.pool.Exec(ctx, updateOrderCASSQL,
		o.ID, o.Version,
		string(o.Status), string(o.Stage), timeline,
		o.ShippedAt, o.DeliveredAt, o.CancelledAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("updating order %q: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrVersionConflict
	}
	o.Version++
	return nil
}

func marshalOrderDocs(o *order.Order) (customer, items, payment, timeline []byte, err error) {
	if customer, err = json.Marshal(o.Customer); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshaling customer: %w", err)
	}
	if items, err = json.Marshal(o.Items); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshaling items: %w", err)
	}
	if payment, err = json.Marshal(o.Payment); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshaling payment: %w", err)
	}
	if timeline, err = json.Marshal(o.Timeline); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshaling timeline: %w", err)
	}
	return customer, items, payment, timeline, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o        order.Order
		status   string
		stage    string
		customer []byte
		items    []byte
		payment  []byte
		timeline []byte
	)
	err := row.Scan(
		&o.ID, &o.UserID, &customer, &items,
		&o.Totals.Subtotal, &o.Totals.Discount, &o.Totals.Shipping,
		&o.Totals.Tax, &o.Totals.Total, &o.Totals.Currency,
		&o.CouponCode, &payment, &status, &stage, &timeline,
		&o.ShippedAt, &o.DeliveredAt, &o.CancelledAt,
		&o.CreatedAt, &o.UpdatedAt, &o.Version,
	)
	if err != nil {
		return order.Order{}, err
	}

	o.Status = order.Status(status)
	o.Stage = order.Stage(stage)
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return order.Order{}, fmt.Errorf("unmarshaling customer: %w", err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return order.Order{}, fmt.Errorf("unmarshaling items: %w", err)
	}
	if err := json.Unmarshal(payment, &o.Payment); err != nil {
		return order.Order{}, fmt.Errorf("unmarshaling payment: %w", err)
	}
	if err := json.Unmarshal(timeline, &o.Timeline); err != nil {
		return order.Order{}, fmt.Errorf("unmarshaling timeline: %w", err)
	}
	return o, nil
}
