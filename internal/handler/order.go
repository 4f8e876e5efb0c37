package handler

import (
	"net/http"

	"github.com/vintora/storefront-api/internal/domain/order"
)

type checkoutLine struct {
	ProductID string  `json:"productId"`
	Slug      string  `json:"slug"`
	Title     string  `json:"title"`
	Image     string  `json:"image"`
	Qty       int     `json:"qty"`
	Price     float64 `json:"priceBase"`
}

type checkoutRequest struct {
	Lines    []checkoutLine `json:"lines"`
	Customer struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"customer"`
	PaymentMethod string `json:"paymentMethod"`
	Card          struct {
		Number string `json:"number"`
	} `json:"card"`
	Coupon string `json:"coupon"`
}

// checkoutDemo creates an order from the simplified checkout payload.
func (h *Handler) checkoutDemo(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decodeBody(w, r, &req) {
		return
	}

	identity := IdentityFromContext(r.Context())

	lines := make([]order.CheckoutLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = order.CheckoutLine{
			ProductID: l.ProductID,
			Slug:      l.Slug,
			Title:     l.Title,
			Image:     l.Image,
			Qty:       l.Qty,
			UnitPrice: l.Price,
		}
	}

	o, err := h.orders.Checkout(r.Context(), order.CheckoutRequest{
		UserID: identity.UserID,
		Customer: order.Customer{
			Name:  req.Customer.Name,
			Email: req.Customer.Email,
		},
		Lines:         lines,
		CouponCode:    req.Coupon,
		PaymentMethod: req.PaymentMethod,
		CardNumber:    req.Card.Number,
	})
	if err != nil {
		respondOrderError(w, r, err)
		return
	}
	respondData(w, http.StatusCreated, toOrderDTO(o))
}

// listOrders returns the caller's own orders.
func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())

	orders, err := h.orders.ListByUser(r.Context(), identity.UserID)
	if err != nil {
		respondOrderError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toOrderDTOs(orders))
}

// getOrder returns one of the caller's orders.
func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	identity := IdentityFromContext(r.Context())

	o, err := h.orders.Get(r.Context(), id, identity.UserID)
	if err != nil {
		respondOrderError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toOrderDTO(o))
}

// cancelOrder cancels the caller's own order.
func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	identity := IdentityFromContext(r.Context())

	o, err := h.orders.Cancel(r.Context(), id, identity.UserID)
	if err != nil {
		respondOrderError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toOrderDTO(o))
}

// confirmDelivery marks the caller's own order as delivered.
func (h *Handler) confirmDelivery(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	identity := IdentityFromContext(r.Context())

	o, err := h.orders.ConfirmDelivery(r.Context(), id, identity.UserID)
	if err != nil {
		respondOrderError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toOrderDTO(o))
}

// updateOrderLegacy is the historical status endpoint kept for old clients.
// It only ever supported cancellation.
func (h *Handler) updateOrderLegacy(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unknown status")
		return
	}
	identity := IdentityFromContext(r.Context())

	o, err := h.orders.UpdateStatusLegacy(r.Context(), id, identity.UserID, status)
	if err != nil {
		respondOrderError(w, r, err)
		return
	}
	respondData(w, http.StatusOK, toOrderDTO(o))
}

// listProducts returns the published catalog.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondOrderError(w, r, err)
		return
	}
	out := make([]productDTO, len(products))
	for i, p := range products {
		out[i] = toProductDTO(p)
	}
	respondData(w, http.StatusOK, out)
}
