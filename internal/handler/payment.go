package handler

import (
	"net/http"
	"time"
)

type paymentRequest struct {
	// Token is the opaque payment-method token from the client-side widget.
	Token string `json:"token"`
}

type receiptView struct {
	RefCode string    `json:"ref_code"`
	Total   float64   `json:"total"`
	PaidAt  time.Time `json:"paid_at"`
}

// CapturePayment charges the open order and freezes it on success.
func (h *Handler) CapturePayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Token == "" {
		respondError(w, http.StatusBadRequest, "payment token is required")
		return
	}

	receipt, err := h.payments.Capture(r.Context(), UserID(r.Context()), req.Token)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respond(w, http.StatusOK, receiptView{
		RefCode: receipt.RefCode,
		Total:   receipt.Total.InexactFloat64(),
		PaidAt:  receipt.Payment.CreatedAt,
	})
}
