package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for cart operations.
var (
	// ErrNoActiveOrder is returned when a user has no open order to mutate.
	ErrNoActiveOrder = errors.New("no active order")
	// ErrNotInCart is returned when the item is not part of the open order.
	ErrNotInCart = errors.New("item not in cart")
	// ErrLineNotFound is returned by LineRepository when no unresolved line
	// exists for a (user, item) pair.
	ErrLineNotFound = errors.New("order line not found")
	// ErrOrderNotFound is returned when no order matches a reference code.
	ErrOrderNotFound = errors.New("order not found")
)

// Line is a single cart entry tying a user to an item with a quantity.
// A line with Ordered=false is unresolved: it belongs to the user's active
// cart. Finalizing an order flips Ordered on every attached line.
type Line struct {
	ID       string
	UserID   string
	ItemID   string
	Quantity int
	Ordered  bool
}

// Order is the user's cart while Ordered=false and a frozen, priced order
// afterwards. Reference fields hold row IDs and stay empty until the
// corresponding checkout or payment step fills them in.
type Order struct {
	ID                string
	UserID            string
	RefCode           string
	StartedAt         time.Time
	OrderedAt         *time.Time
	Ordered           bool
	ShippingAddressID string
	BillingAddressID  string
	PaymentID         string
	CouponID          string
	BeingDelivered    bool
	Received          bool
	RefundRequested   bool
	RefundGranted     bool
}

// LineRepository defines persistence operations for order lines.
type LineRepository interface {
	// FindOpen returns the unresolved line for (user, item), or ErrLineNotFound.
	FindOpen(ctx context.Context, userID, itemID string) (*Line, error)
	Create(ctx context.Context, line *Line) error
	UpdateQuantity(ctx context.Context, lineID string, quantity int) error
	Delete(ctx context.Context, lineID string) error
	// MarkOrdered flips the ordered flag on all given lines.
	MarkOrdered(ctx context.Context, lineIDs []string) error
}

// FinalizeParams carries everything a successful payment writes to the order.
type FinalizeParams struct {
	OrderID   string
	PaymentID string
	RefCode   string
	OrderedAt time.Time
}

// OrderRepository defines persistence operations for orders and their
// line attachments.
type OrderRepository interface {
	// FindOpen returns the user's open order, or ErrNoActiveOrder.
	FindOpen(ctx context.Context, userID string) (*Order, error)
	// FindByRefCode looks up a finalized order globally, or ErrOrderNotFound.
	FindByRefCode(ctx context.Context, refCode string) (*Order, error)
	// FindUserOrder looks up a finalized order scoped to one user.
	FindUserOrder(ctx context.Context, userID, refCode string) (*Order, error)
	// ListFinalized returns the user's finalized orders, newest first.
	ListFinalized(ctx context.Context, userID string) ([]Order, error)
	Create(ctx context.Context, order *Order) error
	AttachLine(ctx context.Context, orderID, lineID string) error
	DetachLine(ctx context.Context, orderID, lineID string) error
	// ContainsItem reports whether a line for the item is attached to the order.
	ContainsItem(ctx context.Context, orderID, itemID string) (bool, error)
	// Lines returns all lines attached to the order.
	Lines(ctx context.Context, orderID string) ([]Line, error)
	SetAddresses(ctx context.Context, orderID, shippingID, billingID string) error
	SetCoupon(ctx context.Context, orderID, couponID string) error
	Finalize(ctx context.Context, params FinalizeParams) error
	SetRefundRequested(ctx context.Context, orderID string) error
	SetRefundGranted(ctx context.Context, orderID string) error
}
