package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/coupon"
)

// AddOutcome discriminates what AddItem actually did.
type AddOutcome int

const (
	// OutcomeAdded means the item was attached to an existing open order.
	OutcomeAdded AddOutcome = iota
	// OutcomeIncremented means the item was already in the cart and its
	// quantity went up by one.
	OutcomeIncremented
	// OutcomeOrderCreated means no open order existed, so a new one was
	// created with this item as its first line.
	OutcomeOrderCreated
)

// AddResult is returned by AddItem.
type AddResult struct {
	Line    *Line
	Outcome AddOutcome
}

// LineView pairs a cart line with its item and computed totals.
type LineView struct {
	Line  Line
	Item  catalog.Item
	Total decimal.Decimal
	Saved decimal.Decimal
}

// Summary is the priced view of a user's open order.
type Summary struct {
	Order    *Order
	Lines    []LineView
	Coupon   *coupon.Coupon
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	// Total is Subtotal minus Discount. It is not floored at zero: a coupon
	// larger than the subtotal produces a negative total.
	Total decimal.Decimal
}

// Service implements cart mutation and pricing on top of the repositories.
type Service struct {
	catalog catalog.Repository
	lines   LineRepository
	orders  OrderRepository
	coupons coupon.Repository
	now     func() time.Time
}

// NewService creates a cart Service.
func NewService(
	catalogRepo catalog.Repository,
	lines LineRepository,
	orders OrderRepository,
	coupons coupon.Repository,
) *Service {
	return &Service{
		catalog: catalogRepo,
		lines:   lines,
		orders:  orders,
		coupons: coupons,
		now:     time.Now,
	}
}

// AddItem puts one unit of the item identified by slug into the user's cart.
// It finds or creates the unresolved line for (user, item) and the user's
// open order; a repeat add increments the existing line's quantity instead of
// attaching a second line.
func (s *Service) AddItem(ctx context.Context, userID, slug string) (*AddResult, error) {
	item, err := s.catalog.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	line, err := s.lines.FindOpen(ctx, userID, item.ID)
	switch {
	case err == nil:
	case errors.Is(err, ErrLineNotFound):
		line = &Line{
			ID:       uuid.New().String(),
			UserID:   userID,
			ItemID:   item.ID,
			Quantity: 1,
		}
		if err := s.lines.Create(ctx, line); err != nil {
			return nil, errors.Wrap(err, "create line")
		}
	default:
		return nil, errors.Wrap(err, "find line")
	}

	order, err := s.orders.FindOpen(ctx, userID)
	switch {
	case err == nil:
		contains, err := s.orders.ContainsItem(ctx, order.ID, item.ID)
		if err != nil {
			return nil, errors.Wrap(err, "check cart contents")
		}
		if contains {
			line.Quantity++
			if err := s.lines.UpdateQuantity(ctx, line.ID, line.Quantity); err != nil {
				return nil, errors.Wrap(err, "update quantity")
			}
			return &AddResult{Line: line, Outcome: OutcomeIncremented}, nil
		}
		if err := s.orders.AttachLine(ctx, order.ID, line.ID); err != nil {
			return nil, errors.Wrap(err, "attach line")
		}
		return &AddResult{Line: line, Outcome: OutcomeAdded}, nil

	case errors.Is(err, ErrNoActiveOrder):
		order = &Order{
			ID:        uuid.New().String(),
			UserID:    userID,
			StartedAt: s.now(),
		}
		if err := s.orders.Create(ctx, order); err != nil {
			return nil, errors.Wrap(err, "create order")
		}
		if err := s.orders.AttachLine(ctx, order.ID, line.ID); err != nil {
			return nil, errors.Wrap(err, "attach line")
		}
		return &AddResult{Line: line, Outcome: OutcomeOrderCreated}, nil

	default:
		return nil, errors.Wrap(err, "find open order")
	}
}

// RemoveItem detaches and deletes the line for the item, regardless of its
// quantity. Returns ErrNoActiveOrder when the user has no open order and
// ErrNotInCart when the open order does not contain the item.
func (s *Service) RemoveItem(ctx context.Context, userID, slug string) error {
	item, err := s.catalog.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}

	order, err := s.orders.FindOpen(ctx, userID)
	if err != nil {
		return err
	}

	contains, err := s.orders.ContainsItem(ctx, order.ID, item.ID)
	if err != nil {
		return errors.Wrap(err, "check cart contents")
	}
	if !contains {
		return ErrNotInCart
	}

	line, err := s.lines.FindOpen(ctx, userID, item.ID)
	if err != nil {
		return errors.Wrap(err, "find line")
	}
	if err := s.orders.DetachLine(ctx, order.ID, line.ID); err != nil {
		return errors.Wrap(err, "detach line")
	}
	if err := s.lines.Delete(ctx, line.ID); err != nil {
		return errors.Wrap(err, "delete line")
	}
	return nil
}

// DecrementItem lowers the line's quantity by one, removing the line entirely
// when the quantity would drop below one.
func (s *Service) DecrementItem(ctx context.Context, userID, slug string) error {
	item, err := s.catalog.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}

	order, err := s.orders.FindOpen(ctx, userID)
	if err != nil {
		return err
	}

	contains, err := s.orders.ContainsItem(ctx, order.ID, item.ID)
	if err != nil {
		return errors.Wrap(err, "check cart contents")
	}
	if !contains {
		return ErrNotInCart
	}

	line, err := s.lines.FindOpen(ctx, userID, item.ID)
	if err != nil {
		return errors.Wrap(err, "find line")
	}

	if line.Quantity > 1 {
		return s.lines.UpdateQuantity(ctx, line.ID, line.Quantity-1)
	}

	if err := s.orders.DetachLine(ctx, order.ID, line.ID); err != nil {
		return errors.Wrap(err, "detach line")
	}
	return s.lines.Delete(ctx, line.ID)
}

// ApplyCoupon looks up a coupon by code and attaches it to the user's open
// order. The order is left unchanged when the code is unknown.
func (s *Service) ApplyCoupon(ctx context.Context, userID, code string) error {
	order, err := s.orders.FindOpen(ctx, userID)
	if err != nil {
		return err
	}

	c, err := s.coupons.FindByCode(ctx, code)
	if err != nil {
		return err
	}

	return s.orders.SetCoupon(ctx, order.ID, c.ID)
}

// Summary prices the user's open order: per-line totals at the effective unit
// price, the subtotal, the coupon discount when attached, and the resulting
// total.
func (s *Service) Summary(ctx context.Context, userID string) (*Summary, error) {
	order, err := s.orders.FindOpen(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.priceOrder(ctx, order)
}

// PriceOrder computes the Summary for an arbitrary order, open or finalized.
func (s *Service) PriceOrder(ctx context.Context, order *Order) (*Summary, error) {
	return s.priceOrder(ctx, order)
}

func (s *Service) priceOrder(ctx context.Context, order *Order) (*Summary, error) {
	lines, err := s.orders.Lines(ctx, order.ID)
	if err != nil {
		return nil, errors.Wrap(err, "load lines")
	}

	sum := &Summary{Order: order, Lines: make([]LineView, 0, len(lines))}
	for _, line := range lines {
		item, err := s.catalog.GetByID(ctx, line.ItemID)
		if err != nil {
			return nil, errors.Wrapf(err, "load item %s", line.ItemID)
		}

		qty := decimal.NewFromInt(int64(line.Quantity))
		view := LineView{
			Line:  line,
			Item:  *item,
			Total: item.EffectivePrice().Mul(qty),
			Saved: item.AmountSaved().Mul(qty),
		}
		sum.Lines = append(sum.Lines, view)
		sum.Subtotal = sum.Subtotal.Add(view.Total)
	}

	if order.CouponID != "" {
		c, err := s.coupons.GetByID(ctx, order.CouponID)
		if err != nil {
			return nil, errors.Wrap(err, "load coupon")
		}
		sum.Coupon = c
		sum.Discount = c.Amount
	}

	// No floor at zero: an oversized coupon drives the total negative.
	sum.Total = sum.Subtotal.Sub(sum.Discount)
	return sum, nil
}
