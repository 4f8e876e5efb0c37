package handler

import (
	"math"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vintora/storefront-api/internal/domain/coupon"
)

type validateCouponRequest struct {
	Code  string `json:"code"`
	Lines []struct {
		ProductID string  `json:"productId"`
		Qty       int     `json:"qty"`
		Price     float64 `json:"priceBase"`
	} `json:"lines"`
}

// validateCouponResponse mirrors the evaluator's discriminated result on
// the wire. A rejected coupon is a 200 with ok:false and a reason, never an
// HTTP error: the storefront treats "invalid coupon" as a normal UI state.
type validateCouponResponse struct {
	OK       bool           `json:"ok"`
	Discount float64        `json:"discountBase"`
	Reason   string         `json:"reason,omitempty"`
	Coupon   *couponSummary `json:"coupon,omitempty"`
}

type couponSummary struct {
	Code             string  `json:"code"`
	Type             string  `json:"type"`
	Amount           float64 `json:"amount"`
	Scope            string  `json:"scope"`
	EligibleSubtotal float64 `json:"eligibleSubtotal"`
}

// validateCoupon evaluates a coupon code against the submitted cart lines.
func (h *Handler) validateCoupon(w http.ResponseWriter, r *http.Request) {
	var req validateCouponRequest
	if !decodeBody(w, r, &req) {
		return
	}

	lines := make([]coupon.Line, 0, len(req.Lines))
	for _, l := range req.Lines {
		if math.IsNaN(l.Price) || math.IsInf(l.Price, 0) {
			continue
		}
		lines = append(lines, coupon.Line{
			ProductID: l.ProductID,
			Price:     decimal.NewFromFloat(l.Price),
			Qty:       l.Qty,
		})
	}

	eval, err := h.coupons.Evaluate(r.Context(), req.Code, lines)
	if err != nil {
		zctx.From(r.Context()).Error("coupon evaluation failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := validateCouponResponse{
		OK:       eval.OK,
		Discount: eval.Discount.InexactFloat64(),
		Reason:   string(eval.Reason),
	}
	if eval.Coupon != nil {
		resp.Coupon = &couponSummary{
			Code:             eval.Coupon.Code,
			Type:             string(eval.Coupon.Type),
			Amount:           eval.Coupon.Amount.InexactFloat64(),
			Scope:            eval.Coupon.Scope,
			EligibleSubtotal: eval.Coupon.EligibleSubtotal.InexactFloat64(),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
