package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/storefront/internal/domain/cart"
)

// lineView is the JSON shape of one cart line.
type lineView struct {
	ItemID   string  `json:"item_id"`
	Slug     string  `json:"slug"`
	Title    string  `json:"title"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Total    float64 `json:"total"`
	Saved    float64 `json:"saved,omitempty"`
}

// cartView is the JSON shape of the priced cart summary.
type cartView struct {
	OrderID    string     `json:"order_id"`
	Lines      []lineView `json:"lines"`
	CouponCode string     `json:"coupon_code,omitempty"`
	Subtotal   float64    `json:"subtotal"`
	Discount   float64    `json:"discount"`
	Total      float64    `json:"total"`
}

func summaryToView(sum *cart.Summary) cartView {
	v := cartView{
		OrderID:  sum.Order.ID,
		Lines:    make([]lineView, len(sum.Lines)),
		Subtotal: sum.Subtotal.InexactFloat64(),
		Discount: sum.Discount.InexactFloat64(),
		Total:    sum.Total.InexactFloat64(),
	}
	if sum.Coupon != nil {
		v.CouponCode = sum.Coupon.Code
	}
	for i, lv := range sum.Lines {
		v.Lines[i] = lineView{
			ItemID:   lv.Item.ID,
			Slug:     lv.Item.Slug,
			Title:    lv.Item.Title,
			Quantity: lv.Line.Quantity,
			Price:    lv.Item.EffectivePrice().InexactFloat64(),
			Total:    lv.Total.InexactFloat64(),
			Saved:    lv.Saved.InexactFloat64(),
		}
	}
	return v
}

// CartSummary serves the authenticated user's open order with totals.
func (h *Handler) CartSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.carts.Summary(r.Context(), UserID(r.Context()))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, summaryToView(sum))
}

// AddToCart adds one unit of the item to the user's cart.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	res, err := h.carts.AddItem(r.Context(), UserID(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	msg := "item added to your cart"
	if res.Outcome == cart.OutcomeIncremented {
		msg = "item quantity was updated"
	}
	respond(w, http.StatusOK, struct {
		messageResponse
		Quantity int `json:"quantity"`
	}{messageResponse{Message: msg}, res.Line.Quantity})
}

// RemoveFromCart removes the item from the cart entirely.
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.RemoveItem(r.Context(), UserID(r.Context()), chi.URLParam(r, "slug")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, messageResponse{Message: "item removed from your cart"})
}

// DecrementFromCart lowers the item's quantity by one, removing it at zero.
func (h *Handler) DecrementFromCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.DecrementItem(r.Context(), UserID(r.Context()), chi.URLParam(r, "slug")); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, messageResponse{Message: "item quantity was updated"})
}

// ApplyCoupon attaches a coupon code to the user's open order.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.carts.ApplyCoupon(r.Context(), UserID(r.Context()), req.Code); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, messageResponse{Message: "coupon applied"})
}
