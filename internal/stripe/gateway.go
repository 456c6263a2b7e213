// Package stripe adapts the Stripe charges API to the payment.Gateway
// interface so domain code and tests never touch the SDK directly.
package stripe

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/xenking/storefront/internal/domain/payment"
)

var _ payment.Gateway = (*Gateway)(nil)

// Gateway submits charges to Stripe. The underlying call is synchronous with
// the SDK's default timeout; no retry and no idempotency key are used, so a
// duplicate submission can produce two charges.
type Gateway struct {
	sc *client.API
}

// NewGateway creates a Gateway authenticated with the given secret key.
func NewGateway(secretKey string) *Gateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &Gateway{sc: sc}
}

// Charge submits a single charge and classifies any failure into the
// payment error taxonomy.
func (g *Gateway) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	params := &stripe.ChargeParams{
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(req.Currency),
		Description: stripe.String(req.Description),
	}
	params.Context = ctx
	if err := params.SetSource(req.Token); err != nil {
		return nil, &payment.GatewayError{
			Kind:    payment.KindInvalidRequest,
			Message: err.Error(),
		}
	}

	ch, err := g.sc.Charges.New(params)
	if err != nil {
		return nil, classify(err)
	}

	return &payment.ChargeResult{ChargeID: ch.ID}, nil
}

// classify maps SDK errors onto the domain taxonomy. Anything that is not a
// structured Stripe error is treated as a connectivity failure.
func classify(err error) error {
	var sErr *stripe.Error
	if !errors.As(err, &sErr) {
		return &payment.GatewayError{
			Kind:    payment.KindConnection,
			Message: err.Error(),
		}
	}

	kind := payment.KindGateway
	switch {
	case sErr.HTTPStatusCode == http.StatusUnauthorized:
		kind = payment.KindAuthFailed
	case sErr.HTTPStatusCode == http.StatusTooManyRequests:
		kind = payment.KindRateLimited
	case sErr.Type == stripe.ErrorTypeCard:
		kind = payment.KindCardDeclined
	case sErr.Type == stripe.ErrorTypeInvalidRequest:
		kind = payment.KindInvalidRequest
	}

	return &payment.GatewayError{Kind: kind, Message: sErr.Msg}
}
