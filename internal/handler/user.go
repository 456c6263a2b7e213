package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/storefront/internal/domain/user"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	// Token is the session token, returned exactly once.
	Token string `json:"token"`
}

// Register creates a user account with its profile and first session token.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reg, err := h.users.Register(r.Context(), user.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respond(w, http.StatusCreated, registerResponse{
		UserID:   reg.User.ID,
		Username: reg.User.Username,
		Token:    reg.Token,
	})
}

type orderView struct {
	RefCode   string  `json:"ref_code"`
	OrderedAt string  `json:"ordered_at,omitempty"`
	Delivered bool    `json:"being_delivered"`
	Received  bool    `json:"received"`
	Refunds   refunds `json:"refunds"`
}

type refunds struct {
	Requested bool `json:"requested"`
	Granted   bool `json:"granted"`
}

// ListOrders serves the user's finalized orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListFinalized(r.Context(), UserID(r.Context()))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	views := make([]orderView, len(orders))
	for i, o := range orders {
		views[i] = orderView{
			RefCode:   o.RefCode,
			Delivered: o.BeingDelivered,
			Received:  o.Received,
			Refunds:   refunds{Requested: o.RefundRequested, Granted: o.RefundGranted},
		}
		if o.OrderedAt != nil {
			views[i].OrderedAt = o.OrderedAt.Format("2006-01-02T15:04:05Z07:00")
		}
	}
	respond(w, http.StatusOK, views)
}

// GetOrder serves one of the user's finalized orders with its priced lines.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.FindUserOrder(r.Context(), UserID(r.Context()), chi.URLParam(r, "refCode"))
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	sum, err := h.carts.PriceOrder(r.Context(), order)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, summaryToView(sum))
}
