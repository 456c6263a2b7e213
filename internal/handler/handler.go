// Package handler exposes the storefront over HTTP. Handlers decode requests,
// delegate to the domain services, and map domain errors onto the JSON error
// envelope.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/checkout"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/payment"
	"github.com/xenking/storefront/internal/domain/refund"
	"github.com/xenking/storefront/internal/domain/user"
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// PageSize is the default number of items per catalog page.
	PageSize int
	// ImageBaseURL is prepended to relative image paths in item responses.
	// When empty, image paths are returned as stored in the database.
	ImageBaseURL string
}

// Handler carries the domain services behind the HTTP surface.
type Handler struct {
	cfg      Config
	catalog  catalog.Repository
	carts    *cart.Service
	checkout *checkout.Service
	payments *payment.Service
	refunds  *refund.Service
	users    *user.Service
	orders   cart.OrderRepository
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	catalogRepo catalog.Repository,
	carts *cart.Service,
	checkoutSvc *checkout.Service,
	payments *payment.Service,
	refunds *refund.Service,
	users *user.Service,
	orders cart.OrderRepository,
) *Handler {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}
	return &Handler{
		cfg:      cfg,
		catalog:  catalogRepo,
		carts:    carts,
		checkout: checkoutSvc,
		payments: payments,
		refunds:  refunds,
		users:    users,
		orders:   orders,
	}
}

// Routes mounts all API routes. authn guards the routes that need an
// authenticated user.
func (h *Handler) Routes(authn func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/users", h.Register)
	r.Get("/products", h.ListItems)
	r.Get("/products/{slug}", h.GetItem)
	r.Get("/categories", h.ListCategories)

	r.Group(func(r chi.Router) {
		r.Use(authn)

		r.Get("/cart", h.CartSummary)
		r.Post("/cart/{slug}", h.AddToCart)
		r.Post("/cart/{slug}/decrement", h.DecrementFromCart)
		r.Delete("/cart/{slug}", h.RemoveFromCart)

		r.Post("/checkout", h.Checkout)
		r.Post("/checkout/coupon", h.ApplyCoupon)
		r.Post("/payment", h.CapturePayment)
		r.Post("/refunds", h.RequestRefund)

		r.Get("/orders", h.ListOrders)
		r.Get("/orders/{refCode}", h.GetOrder)
	})

	return r
}

// errorResponse is the JSON error envelope shared by every endpoint.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// messageResponse wraps a user-facing notice for mutation endpoints.
type messageResponse struct {
	Message string `json:"message"`
}

func respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, errorResponse{Code: status, Message: message})
}

// respondDomainError maps domain errors onto HTTP statuses and user messages.
// Anything unclassified is logged and comes back as a 500.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, cart.ErrOrderNotFound),
		errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
		return

	case errors.Is(err, cart.ErrNoActiveOrder),
		errors.Is(err, cart.ErrNotInCart),
		errors.Is(err, user.ErrUsernameTaken):
		respondError(w, http.StatusConflict, err.Error())
		return

	case errors.Is(err, checkout.ErrWalletUnsupported),
		errors.Is(err, payment.ErrNoBillingAddress):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var cvErr *checkout.ValidationError
	if errors.As(err, &cvErr) {
		respondError(w, http.StatusBadRequest, cvErr.Message)
		return
	}
	var uvErr *user.ValidationError
	if errors.As(err, &uvErr) {
		respondError(w, http.StatusBadRequest, uvErr.Message)
		return
	}
	var gwErr *payment.GatewayError
	if errors.As(err, &gwErr) {
		zctx.From(r.Context()).Warn("Gateway charge failed",
			zap.String("kind", string(gwErr.Kind)),
			zap.String("message", gwErr.Message),
		)
		respondError(w, http.StatusPaymentRequired, gwErr.UserMessage())
		return
	}

	zctx.From(r.Context()).Error("Unhandled error", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal error")
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(err, "decode request body")
	}
	return nil
}
