package handler

import (
	"time"

	"github.com/vintora/storefront-api/internal/domain/order"
	"github.com/vintora/storefront-api/internal/domain/product"
)

// Wire shapes. Monetary values travel as JSON numbers, matching what the
// storefront UI renders, so decimals are converted at this boundary only.

type lineItemDTO struct {
	ProductID string  `json:"productId,omitempty"`
	Slug      string  `json:"slug"`
	Title     string  `json:"title"`
	Image     string  `json:"image,omitempty"`
	Qty       int     `json:"qty"`
	UnitPrice float64 `json:"unitPriceBase"`
	Subtotal  float64 `json:"subtotalBase"`
}

type totalsDTO struct {
	Subtotal float64 `json:"subtotalBase"`
	Discount float64 `json:"discountBase"`
	Shipping float64 `json:"shippingBase"`
	Tax      float64 `json:"taxBase"`
	Total    float64 `json:"totalBase"`
	Currency string  `json:"currency"`
}

type timelineDTO struct {
	Code string    `json:"code"`
	Note string    `json:"note"`
	At   time.Time `json:"at"`
}

type orderDTO struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	Customer    order.Customer `json:"customer"`
	Items       []lineItemDTO  `json:"items"`
	Totals      totalsDTO      `json:"totals"`
	Payment     order.Payment  `json:"payment"`
	CouponCode  string         `json:"couponCode,omitempty"`
	Status      string         `json:"status"`
	Stage       string         `json:"stage"`
	Timeline    []timelineDTO  `json:"statusTimeline"`
	ShippedAt   *time.Time     `json:"shippedAt,omitempty"`
	DeliveredAt *time.Time     `json:"deliveredAt,omitempty"`
	CancelledAt *time.Time     `json:"cancelledAt,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func toOrderDTO(o *order.Order) orderDTO {
	items := make([]lineItemDTO, len(o.Items))
	for i, item := range o.Items {
		items[i] = lineItemDTO{
			ProductID: item.ProductID,
			Slug:      item.Slug,
			Title:     item.Title,
			Image:     item.Image,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice.InexactFloat64(),
			Subtotal:  item.Subtotal.InexactFloat64(),
		}
	}

	timeline := make([]timelineDTO, len(o.Timeline))
	for i, entry := range o.Timeline {
		timeline[i] = timelineDTO(entry)
	}

	return orderDTO{
		ID:       o.ID,
		UserID:   o.UserID,
		Customer: o.Customer,
		Items:    items,
		Totals: totalsDTO{
			Subtotal: o.Totals.Subtotal.InexactFloat64(),
			Discount: o.Totals.Discount.InexactFloat64(),
			Shipping: o.Totals.Shipping.InexactFloat64(),
			Tax:      o.Totals.Tax.InexactFloat64(),
			Total:    o.Totals.Total.InexactFloat64(),
			Currency: o.Totals.Currency,
		},
		Payment:     o.Payment,
		CouponCode:  o.CouponCode,
		Status:      string(o.Status),
		Stage:       string(o.Stage),
		Timeline:    timeline,
		ShippedAt:   o.ShippedAt,
		DeliveredAt: o.DeliveredAt,
		CancelledAt: o.CancelledAt,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func toOrderDTOs(orders []order.Order) []orderDTO {
	out := make([]orderDTO, len(orders))
	for i := range orders {
		out[i] = toOrderDTO(&orders[i])
	}
	return out
}

type productDTO struct {
	ID        string  `json:"id"`
	Slug      string  `json:"slug"`
	Title     string  `json:"title"`
	Image     string  `json:"image,omitempty"`
	Price     float64 `json:"priceBase"`
	HasCoupon bool    `json:"hasCoupon"`
}

func toProductDTO(p product.Product) productDTO {
	return productDTO{
		ID:        p.ID,
		Slug:      p.Slug,
		Title:     p.Title,
		Image:     p.Image,
		Price:     p.Price.InexactFloat64(),
		HasCoupon: p.Coupon != nil && p.Coupon.Active,
	}
}
