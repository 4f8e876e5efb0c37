package order

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vintora/storefront-api/internal/domain/coupon"
)

// --- Mock implementations ---

type mockOrderRepo struct {
	byID map[string]*Order

	createErr error
	getErr    error

	updateCalls int
	// updateErrs is consumed one per Update call; nil entries mean success.
	updateErrs []error
}

func newOrderRepo(orders ...*Order) *mockOrderRepo {
	byID := make(map[string]*Order, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
	}
	return &mockOrderRepo{byID: byID}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.byID[o.ID] = o
	return nil
}

func (m *mockOrderRepo) Get(_ context.Context, id string) (*Order, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	o, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Hand out a copy, as a real repository would.
	cp := *o
	cp.Timeline = append([]TimelineEntry(nil), o.Timeline...)
	return &cp, nil
}

func (m *mockOrderRepo) ListByUser(_ context.Context, userID string) ([]Order, error) {
	var out []Order
	for _, o := range m.byID {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) List(_ context.Context) ([]Order, error) {
	var out []Order
	for _, o := range m.byID {
		out = append(out, *o)
	}
	return out, nil
}

func (m *mockOrderRepo) Update(_ context.Context, o *Order) error {
	m.updateCalls++
	if m.updateCalls <= len(m.updateErrs) {
		if err := m.updateErrs[m.updateCalls-1]; err != nil {
			return err
		}
	}
	o.Version++
	m.byID[o.ID] = o
	return nil
}

// --- Helpers ---

func newTestService(repo Repository) *Service {
	svc := NewService(repo, coupon.DefaultTable(), DefaultTotalsPolicy())
	svc.now = func() time.Time { return t0 }
	return svc
}

func storedOrder(id, userID string) *Order {
	return &Order{
		ID:     id,
		UserID: userID,
		Status: StatusPending,
		Stage:  StageCreated,
		Timeline: []TimelineEntry{
			{Code: string(StageCreated), Note: "Order placed", At: t0.Add(-time.Hour)},
		},
		Version: 1,
	}
}

// --- Tests ---

func TestCheckout(t *testing.T) {
	repo := newOrderRepo()
	svc := newTestService(repo)

	o, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID: "u1",
		Lines: []CheckoutLine{
			{ProductID: "p1", Slug: "tote", Title: "Tote", Qty: 2, UnitPrice: 20},
			{ProductID: "p2", Slug: "mug", Title: "Mug", Qty: 1, UnitPrice: 16},
		},
		PaymentMethod: "card",
		CardNumber:    "4242 4242 4242 4242",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, StageCreated, o.Stage)
	assert.Equal(t, int64(1), o.Version)
	require.Len(t, o.Items, 2)
	assert.True(t, decimal.NewFromInt(40).Equal(o.Items[0].Subtotal), "line subtotals are frozen")
	assert.True(t, decimal.NewFromInt(56).Equal(o.Totals.Subtotal))
	assert.True(t, decimal.RequireFromString("117.99").Equal(o.Totals.Total), "total %s", o.Totals.Total)

	require.Len(t, o.Timeline, 1)
	assert.Equal(t, "created", o.Timeline[0].Code)

	assert.Equal(t, "visa", o.Payment.Brand)
	assert.Equal(t, "4242", o.Payment.Last4)
	assert.Equal(t, "paid", o.Payment.Status)

	assert.Contains(t, repo.byID, o.ID)
}

func TestCheckout_DemoCoupon(t *testing.T) {
	svc := newTestService(newOrderRepo())

	o, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:     "u1",
		Lines:      []CheckoutLine{{ProductID: "p1", Qty: 1, UnitPrice: 80}},
		CouponCode: "save24",
	})
	require.NoError(t, err)

	assert.Equal(t, "SAVE24", o.CouponCode)
	assert.True(t, decimal.NewFromInt(24).Equal(o.Totals.Discount))
	// 80 - 24 + 61.99
	assert.True(t, decimal.RequireFromString("117.99").Equal(o.Totals.Total), "total %s", o.Totals.Total)
}

func TestCheckout_UnknownCouponIgnored(t *testing.T) {
	svc := newTestService(newOrderRepo())

	o, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:     "u1",
		Lines:      []CheckoutLine{{ProductID: "p1", Qty: 1, UnitPrice: 80}},
		CouponCode: "BOGUS",
	})
	require.NoError(t, err)

	assert.Empty(t, o.CouponCode)
	assert.True(t, o.Totals.Discount.IsZero())
}

func TestCheckout_SkipsUnusableLines(t *testing.T) {
	svc := newTestService(newOrderRepo())

	o, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID: "u1",
		Lines: []CheckoutLine{
			{ProductID: "bad1", Qty: 1, UnitPrice: math.NaN()},
			{ProductID: "bad2", Qty: 1, UnitPrice: math.Inf(1)},
			{ProductID: "bad3", Qty: 1, UnitPrice: -5},
			{ProductID: "ok", Qty: 0, UnitPrice: 10},
		},
	})
	require.NoError(t, err)

	require.Len(t, o.Items, 1)
	assert.Equal(t, "ok", o.Items[0].ProductID)
	assert.Equal(t, 1, o.Items[0].Qty, "qty below one is floored to one")
}

func TestCheckout_EmptyItems(t *testing.T) {
	svc := newTestService(newOrderRepo())

	_, err := svc.Checkout(context.Background(), CheckoutRequest{UserID: "u1"})
	require.ErrorIs(t, err, ErrEmptyItems)

	_, err = svc.Checkout(context.Background(), CheckoutRequest{
		UserID: "u1",
		Lines:  []CheckoutLine{{ProductID: "p1", Qty: 1, UnitPrice: math.NaN()}},
	})
	require.ErrorIs(t, err, ErrEmptyItems, "all lines skipped is an empty cart")
}

func TestCheckout_CreateError(t *testing.T) {
	repo := newOrderRepo()
	repo.createErr = errors.New("db write failed")
	svc := newTestService(repo)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID: "u1",
		Lines:  []CheckoutLine{{ProductID: "p1", Qty: 1, UnitPrice: 10}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
}

func TestGet_Ownership(t *testing.T) {
	svc := newTestService(newOrderRepo(storedOrder("o1", "u1")))

	o, err := svc.Get(context.Background(), "o1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "o1", o.ID)

	_, err = svc.Get(context.Background(), "o1", "u2")
	require.ErrorIs(t, err, ErrForbidden)

	// Empty actor is the admin surface, sees everything.
	_, err = svc.Get(context.Background(), "o1", "")
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "missing", "u1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCancel(t *testing.T) {
	repo := newOrderRepo(storedOrder("o1", "u1"))
	svc := newTestService(repo)

	o, err := svc.Cancel(context.Background(), "o1", "u1")
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, o.Status)
	require.NotNil(t, o.CancelledAt)
	assert.Equal(t, int64(2), o.Version, "save bumps the version")
	assert.Equal(t, StatusCancelled, repo.byID["o1"].Status)
}

func TestCancel_Forbidden(t *testing.T) {
	repo := newOrderRepo(storedOrder("o1", "u1"))
	svc := newTestService(repo)

	_, err := svc.Cancel(context.Background(), "o1", "u2")
	require.ErrorIs(t, err, ErrForbidden)
	assert.Zero(t, repo.updateCalls, "nothing is saved")
}

func TestCancel_AlreadyCancelledIsNoOp(t *testing.T) {
	o := storedOrder("o1", "u1")
	o.Status = StatusCancelled
	repo := newOrderRepo(o)
	svc := newTestService(repo)

	got, err := svc.Cancel(context.Background(), "o1", "u1")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	assert.Zero(t, repo.updateCalls, "no-op transitions are not saved")
}

func TestConfirmDelivery(t *testing.T) {
	repo := newOrderRepo(storedOrder("o1", "u1"))
	svc := newTestService(repo)

	o, err := svc.ConfirmDelivery(context.Background(), "o1", "u1")
	require.NoError(t, err)

	assert.Equal(t, StageDelivered, o.Stage)
	assert.Equal(t, StatusCompleted, o.Status, "delivered implies completed")
	require.NotNil(t, o.DeliveredAt)
}

func TestUpdateStatusLegacy(t *testing.T) {
	repo := newOrderRepo(storedOrder("o1", "u1"))
	svc := newTestService(repo)

	_, err := svc.UpdateStatusLegacy(context.Background(), "o1", "u1", StatusCompleted)
	require.ErrorIs(t, err, ErrUnsupportedStatus)
	assert.Zero(t, repo.updateCalls)

	o, err := svc.UpdateStatusLegacy(context.Background(), "o1", "u1", StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, o.Status)
}

func TestSetStage_RetriesOnVersionConflict(t *testing.T) {
	repo := newOrderRepo(storedOrder("o1", "u1"))
	repo.updateErrs = []error{ErrVersionConflict, nil}
	svc := newTestService(repo)

	o, err := svc.SetStage(context.Background(), "o1", StageShipped)
	require.NoError(t, err)

	assert.Equal(t, StageShipped, o.Stage)
	assert.Equal(t, 2, repo.updateCalls, "lost race is retried")
}

func TestSetStage_ConflictRetriesExhausted(t *testing.T) {
	repo := newOrderRepo(storedOrder("o1", "u1"))
	repo.updateErrs = []error{ErrVersionConflict, ErrVersionConflict, ErrVersionConflict}
	svc := newTestService(repo)

	_, err := svc.SetStage(context.Background(), "o1", StageShipped)
	require.ErrorIs(t, err, ErrVersionConflict)
	assert.Equal(t, casAttempts, repo.updateCalls)
}

func TestSetStatus_AppendsNote(t *testing.T) {
	repo := newOrderRepo(storedOrder("o1", "u1"))
	svc := newTestService(repo)

	o, err := svc.SetStatus(context.Background(), "o1", StatusInProgress)
	require.NoError(t, err)

	require.Len(t, o.Timeline, 2)
	assert.Equal(t, "in progress", o.Timeline[1].Code)
	assert.Equal(t, "Status set to in progress", o.Timeline[1].Note)
}

func TestDemoPayment(t *testing.T) {
	p := demoPayment("", "4242-4242-4242-4242")
	assert.Equal(t, "card", p.Method)
	assert.Equal(t, "visa", p.Brand)
	assert.Equal(t, "4242", p.Last4)
	assert.NotEmpty(t, p.TxnID)

	p = demoPayment("card", "5500 0000 0000 0004")
	assert.Equal(t, "mastercard", p.Brand)

	p = demoPayment("card", "378282246310005")
	assert.Equal(t, "amex", p.Brand)

	p = demoPayment("card", "6011")
	assert.Equal(t, "card", p.Brand)

	p = demoPayment("card", "")
	assert.Empty(t, p.Brand)
	assert.Empty(t, p.Last4)
}
