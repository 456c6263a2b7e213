package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNoBillingAddress is returned when capture is attempted before checkout
// attached a billing address to the open order.
var ErrNoBillingAddress = errors.New("order has no billing address")

// Payment records a successful gateway charge. Rows are immutable once created.
type Payment struct {
	ID        string
	ChargeID  string
	UserID    string
	Amount    decimal.Decimal
	CreatedAt time.Time
}

// Repository defines persistence operations for payments.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
}

// ErrorKind classifies gateway failures the way the provider reports them.
type ErrorKind string

const (
	KindCardDeclined   ErrorKind = "card_declined"
	KindRateLimited    ErrorKind = "rate_limited"
	KindInvalidRequest ErrorKind = "invalid_request"
	KindAuthFailed     ErrorKind = "auth_failed"
	KindConnection     ErrorKind = "connection"
	KindGateway        ErrorKind = "gateway"
)

// GatewayError is a classified failure reported by the payment gateway.
// Every kind is terminal for the request: no retry is attempted and the
// order is left untouched.
type GatewayError struct {
	Kind    ErrorKind
	Message string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway: %s: %s", e.Kind, e.Message)
}

// UserMessage returns the notice shown to the customer for this failure.
func (e *GatewayError) UserMessage() string {
	switch e.Kind {
	case KindCardDeclined:
		return "Your card was declined"
	case KindRateLimited:
		return "Too many requests, please try again shortly"
	case KindInvalidRequest:
		return "Invalid payment request"
	case KindAuthFailed:
		return "Payment could not be authenticated"
	case KindConnection:
		return "Network error, please check your connection"
	default:
		return "Something went wrong, you were not charged"
	}
}

// ChargeRequest is the input to a gateway charge. Amount is in minor units
// (cents). Token is the opaque payment-method token minted by the client-side
// payment widget.
type ChargeRequest struct {
	Token       string
	Amount      int64
	Currency    string
	Description string
}

// ChargeResult reports a successful charge.
type ChargeResult struct {
	ChargeID string
}

// Gateway submits charges to the external card processor. The call blocks for
// the duration of the network exchange; callers get no cancellation beyond
// ctx and no idempotency protection against duplicate submissions.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}
