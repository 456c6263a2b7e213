package payment

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
)

var minorUnits = decimal.NewFromInt(100)

// Receipt reports a completed capture.
type Receipt struct {
	Payment *Payment
	RefCode string
	Total   decimal.Decimal
}

// Service captures payment for a user's open order and freezes it.
type Service struct {
	carts    *cart.Service
	orders   cart.OrderRepository
	lines    cart.LineRepository
	payments Repository
	gateway  Gateway
	currency string

	newRefCode func() string
	now        func() time.Time
}

// NewService creates a payment Service. Currency is the ISO code submitted
// with every charge, e.g. "usd".
func NewService(
	carts *cart.Service,
	orders cart.OrderRepository,
	lines cart.LineRepository,
	payments Repository,
	gateway Gateway,
	currency string,
) *Service {
	return &Service{
		carts:      carts,
		orders:     orders,
		lines:      lines,
		payments:   payments,
		gateway:    gateway,
		currency:   currency,
		newRefCode: NewRefCode,
		now:        time.Now,
	}
}

// Capture charges the gateway for the open order's total and, on success,
// freezes the order: a payment row is created, every line and the order are
// marked ordered, the payment is attached, and a fresh reference code is
// assigned. Any gateway failure leaves the order exactly as it was.
func (s *Service) Capture(ctx context.Context, userID, token string) (*Receipt, error) {
	order, err := s.orders.FindOpen(ctx, userID)
	if err != nil {
		return nil, err
	}
	if order.BillingAddressID == "" {
		return nil, ErrNoBillingAddress
	}

	sum, err := s.carts.PriceOrder(ctx, order)
	if err != nil {
		return nil, errors.Wrap(err, "price order")
	}

	amount := sum.Total.Mul(minorUnits).Round(0).IntPart()

	res, err := s.gateway.Charge(ctx, ChargeRequest{
		Token:       token,
		Amount:      amount,
		Currency:    s.currency,
		Description: "Storefront order for user " + userID,
	})
	if err != nil {
		return nil, err
	}

	p := &Payment{
		ID:        uuid.New().String(),
		ChargeID:  res.ChargeID,
		UserID:    userID,
		Amount:    sum.Total,
		CreatedAt: s.now(),
	}
	if err := s.payments.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create payment")
	}

	lineIDs := make([]string, len(sum.Lines))
	for i, lv := range sum.Lines {
		lineIDs[i] = lv.Line.ID
	}
	if err := s.lines.MarkOrdered(ctx, lineIDs); err != nil {
		return nil, errors.Wrap(err, "mark lines ordered")
	}

	refCode := s.newRefCode()
	if err := s.orders.Finalize(ctx, cart.FinalizeParams{
		OrderID:   order.ID,
		PaymentID: p.ID,
		RefCode:   refCode,
		OrderedAt: s.now(),
	}); err != nil {
		return nil, errors.Wrap(err, "finalize order")
	}

	return &Receipt{Payment: p, RefCode: refCode, Total: sum.Total}, nil
}
