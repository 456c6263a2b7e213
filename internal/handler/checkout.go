package handler

import (
	"net/http"

	"github.com/xenking/storefront/internal/domain/checkout"
)

// addressForm mirrors checkout.AddressForm on the wire.
type addressForm struct {
	Street         string `json:"street"`
	Apartment      string `json:"apartment"`
	Country        string `json:"country"`
	Zip            string `json:"zip"`
	UseDefault     bool   `json:"use_default"`
	SaveDefault    bool   `json:"save_default"`
	SameAsShipping bool   `json:"same_as_shipping"`
}

type checkoutRequest struct {
	Shipping      addressForm `json:"shipping"`
	Billing       addressForm `json:"billing"`
	PaymentOption string      `json:"payment_option"`
}

type addressView struct {
	Street    string `json:"street"`
	Apartment string `json:"apartment,omitempty"`
	Country   string `json:"country"`
	Zip       string `json:"zip"`
}

type checkoutResponse struct {
	OrderID       string      `json:"order_id"`
	Shipping      addressView `json:"shipping"`
	Billing       addressView `json:"billing"`
	PaymentOption string      `json:"payment_option"`
}

// Checkout resolves shipping and billing addresses for the open order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.checkout.Submit(r.Context(), UserID(r.Context()), checkout.Form{
		Shipping: checkout.AddressForm{
			Street:      req.Shipping.Street,
			Apartment:   req.Shipping.Apartment,
			Country:     req.Shipping.Country,
			Zip:         req.Shipping.Zip,
			UseDefault:  req.Shipping.UseDefault,
			SaveDefault: req.Shipping.SaveDefault,
		},
		Billing: checkout.AddressForm{
			Street:         req.Billing.Street,
			Apartment:      req.Billing.Apartment,
			Country:        req.Billing.Country,
			Zip:            req.Billing.Zip,
			UseDefault:     req.Billing.UseDefault,
			SaveDefault:    req.Billing.SaveDefault,
			SameAsShipping: req.Billing.SameAsShipping,
		},
		PaymentOption: checkout.PaymentOption(req.PaymentOption),
	})
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	respond(w, http.StatusOK, checkoutResponse{
		OrderID: res.Order.ID,
		Shipping: addressView{
			Street:    res.Shipping.Street,
			Apartment: res.Shipping.Apartment,
			Country:   res.Shipping.Country,
			Zip:       res.Shipping.Zip,
		},
		Billing: addressView{
			Street:    res.Billing.Street,
			Apartment: res.Billing.Apartment,
			Country:   res.Billing.Country,
			Zip:       res.Billing.Zip,
		},
		PaymentOption: string(res.PaymentOption),
	})
}
