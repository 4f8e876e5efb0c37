// Package handler exposes the storefront order core over HTTP JSON.
// Success responses use the {ok:true, data} envelope; failures use
// {ok:false, message}. The coupon validator is the one exception: coupon
// rejection is a business outcome and travels as {ok:false, reason} with
// HTTP 200.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vintora/storefront-api/internal/domain/auth"
	"github.com/vintora/storefront-api/internal/domain/coupon"
	"github.com/vintora/storefront-api/internal/domain/order"
	"github.com/vintora/storefront-api/internal/domain/product"
)

// Handler carries the domain dependencies of every endpoint.
type Handler struct {
	products product.Repository
	orders   *order.Service
	coupons  *coupon.Evaluator
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(products product.Repository, orders *order.Service, coupons *coupon.Evaluator) *Handler {
	return &Handler{
		products: products,
		orders:   orders,
		coupons:  coupons,
	}
}

// Register mounts all routes on the router. Order routes require an
// authenticated identity; admin routes additionally require the
// orders:update scope.
func (h *Handler) Register(r *mux.Router, authn *Authenticator) {
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/products", h.listProducts).Methods(http.MethodGet)
	api.HandleFunc("/coupons/validate", h.validateCoupon).Methods(http.MethodPost)

	orders := api.PathPrefix("/orders").Subrouter()
	orders.Use(authn.Authenticate)
	orders.HandleFunc("", h.listOrders).Methods(http.MethodGet)
	orders.HandleFunc("/checkout-demo", h.checkoutDemo).Methods(http.MethodPost)
	orders.HandleFunc("/{id}", h.getOrder).Methods(http.MethodGet)
	orders.HandleFunc("/{id}", h.updateOrderLegacy).Methods(http.MethodPut)
	orders.HandleFunc("/{id}/cancel", h.cancelOrder).Methods(http.MethodPost)
	orders.HandleFunc("/{id}/confirm-delivery", h.confirmDelivery).Methods(http.MethodPost)
	orders.HandleFunc("/{id}/confirm", h.confirmDelivery).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin/orders").Subrouter()
	admin.Use(authn.Authenticate, RequireScope(auth.PermOrdersUpdate))
	admin.HandleFunc("", h.adminListOrders).Methods(http.MethodGet)
	admin.HandleFunc("/{id}/status", h.adminSetStatus).Methods(http.MethodPut)
	admin.HandleFunc("/{id}/stage", h.adminSetStage).Methods(http.MethodPut)
}

// envelope is the common JSON response wrapper.
type envelope struct {
	OK      bool   `json:"ok"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func respondData(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, envelope{OK: true, Data: data})
}

func respondError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, envelope{OK: false, Message: message})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody parses the request body into dst, answering 400 on malformed
// JSON. It reports whether decoding succeeded.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// orderID extracts and validates the {id} path variable, answering 400 on a
// malformed id. It reports whether the id is usable.
func orderID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := mux.Vars(r)["id"]
	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusBadRequest, "invalid order id")
		return "", false
	}
	return id, true
}

// respondOrderError maps domain errors to HTTP status codes. Unexpected
// errors are logged server-side and surface as a generic 500.
func respondOrderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrNotFound):
		respondError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, order.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, order.ErrEmptyItems):
		respondError(w, http.StatusBadRequest, "items required")
	case errors.Is(err, order.ErrUnsupportedStatus):
		respondError(w, http.StatusBadRequest, "only cancellation is supported here")
	case errors.Is(err, order.ErrVersionConflict):
		respondError(w, http.StatusConflict, "order was modified concurrently, retry")
	default:
		zctx.From(r.Context()).Error("order operation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
