package handler

import (
	"net/http"
	"strings"
)

type refundRequest struct {
	RefCode string `json:"ref_code"`
	Reason  string `json:"reason"`
	Email   string `json:"email"`
}

// RequestRefund records a refund request against a finalized order.
func (h *Handler) RequestRefund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.RefCode) == "" || strings.TrimSpace(req.Email) == "" {
		respondError(w, http.StatusBadRequest, "ref_code and email are required")
		return
	}

	if _, err := h.refunds.Request(r.Context(), req.RefCode, req.Reason, req.Email); err != nil {
		respondDomainError(w, r, err)
		return
	}
	respond(w, http.StatusOK, messageResponse{Message: "your refund request was received"})
}
