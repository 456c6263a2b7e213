package refund

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/storefront/internal/domain/cart"
)

// Refund is a customer's refund request against a finalized order. Accepted
// stays false until an operator grants the refund.
type Refund struct {
	ID       string
	OrderRef string
	Reason   string
	Email    string
	Accepted bool
}

// Repository defines persistence operations for refund requests.
type Repository interface {
	Create(ctx context.Context, r *Refund) error
	SetAccepted(ctx context.Context, orderRef string) error
}

// Service registers and grants refund requests.
type Service struct {
	orders  cart.OrderRepository
	refunds Repository
}

// NewService creates a refund Service.
func NewService(orders cart.OrderRepository, refunds Repository) *Service {
	return &Service{orders: orders, refunds: refunds}
}

// Request looks up an order by its reference code and records a refund
// request against it. The lookup is global, not scoped to the requesting
// user. When no order matches, nothing is recorded and
// cart.ErrOrderNotFound is returned.
func (s *Service) Request(ctx context.Context, refCode, reason, email string) (*Refund, error) {
	order, err := s.orders.FindByRefCode(ctx, refCode)
	if err != nil {
		return nil, err
	}

	if err := s.orders.SetRefundRequested(ctx, order.ID); err != nil {
		return nil, errors.Wrap(err, "flag order")
	}

	r := &Refund{
		ID:       uuid.New().String(),
		OrderRef: refCode,
		Reason:   reason,
		Email:    email,
	}
	if err := s.refunds.Create(ctx, r); err != nil {
		return nil, errors.Wrap(err, "create refund")
	}
	return r, nil
}

// Grant marks a requested refund as accepted and flips the order's
// refund-granted flag. Operator action; there is no further state machine.
func (s *Service) Grant(ctx context.Context, refCode string) error {
	order, err := s.orders.FindByRefCode(ctx, refCode)
	if err != nil {
		return err
	}

	if err := s.refunds.SetAccepted(ctx, refCode); err != nil {
		return errors.Wrap(err, "accept refund")
	}
	return s.orders.SetRefundGranted(ctx, order.ID)
}
