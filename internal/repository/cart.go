package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/cart"
)

const (
	lineColumns = `id, user_id, item_id, quantity, ordered`

	findOpenLineSQL = `SELECT ` + lineColumns + ` FROM order_lines
		WHERE user_id = $1 AND item_id = $2 AND NOT ordered`

	createLineSQL = `INSERT INTO order_lines (id, user_id, item_id, quantity, ordered)
		VALUES ($1, $2, $3, $4, $5)`

	updateLineQuantitySQL = `UPDATE order_lines SET quantity = $2 WHERE id = $1`

	deleteLineSQL = `DELETE FROM order_lines WHERE id = $1`

	markLinesOrderedSQL = `UPDATE order_lines SET ordered = TRUE WHERE id = ANY($1)`
)

var _ cart.LineRepository = (*LineRepository)(nil)

// LineRepository implements cart.LineRepository backed by PostgreSQL.
type LineRepository struct {
	pool *pgxpool.Pool
}

// NewLineRepository returns a LineRepository that uses the given pool.
func NewLineRepository(pool *pgxpool.Pool) *LineRepository {
	return &LineRepository{pool: pool}
}

// FindOpen returns the unresolved line for (user, item).
func (r *LineRepository) FindOpen(ctx context.Context, userID, itemID string) (*cart.Line, error) {
	rows, err := r.pool.Query(ctx, findOpenLineSQL, userID, itemID)
	if err != nil {
		return nil, fmt.Errorf("finding open line: %w", err)
	}

	line, err := pgx.CollectExactlyOneRow(rows, scanLine)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrLineNotFound
		}
		return nil, fmt.Errorf("finding open line: %w", err)
	}
	return &line, nil
}

// Create persists a new line.
func (r *LineRepository) Create(ctx context.Context, line *cart.Line) error {
	_, err := r.pool.Exec(ctx, createLineSQL,
		line.ID, line.UserID, line.ItemID, line.Quantity, line.Ordered,
	)
	if err != nil {
		return fmt.Errorf("creating line %q: %w", line.ID, err)
	}
	return nil
}

// UpdateQuantity sets the line's quantity.
func (r *LineRepository) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	_, err := r.pool.Exec(ctx, updateLineQuantitySQL, lineID, quantity)
	if err != nil {
		return fmt.Errorf("updating quantity of line %q: %w", lineID, err)
	}
	return nil
}

// Delete removes the line.
func (r *LineRepository) Delete(ctx context.Context, lineID string) error {
	_, err := r.pool.Exec(ctx, deleteLineSQL, lineID)
	if err != nil {
		return fmt.Errorf("deleting line %q: %w", lineID, err)
	}
	return nil
}

// MarkOrdered flips the ordered flag on all given lines.
func (r *LineRepository) MarkOrdered(ctx context.Context, lineIDs []string) error {
	_, err := r.pool.Exec(ctx, markLinesOrderedSQL, lineIDs)
	if err != nil {
		return fmt.Errorf("marking lines ordered: %w", err)
	}
	return nil
}

func scanLine(row pgx.CollectableRow) (cart.Line, error) {
	var l cart.Line
	err := row.Scan(&l.ID, &l.UserID, &l.ItemID, &l.Quantity, &l.Ordered)
	return l, err
}

const (
	orderColumns = `id, user_id, COALESCE(ref_code, ''), started_at, ordered_at, ordered,
		COALESCE(shipping_address_id, ''), COALESCE(billing_address_id, ''),
		COALESCE(payment_id, ''), COALESCE(coupon_id, ''),
		being_delivered, received, refund_requested, refund_granted`

	findOpenOrderSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 AND NOT ordered`

	findOrderByRefCodeSQL = `SELECT ` + orderColumns + ` FROM orders WHERE ref_code = $1`

	findUserOrderSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 AND ref_code = $2 AND ordered`

	listFinalizedOrdersSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 AND ordered ORDER BY ordered_at DESC`

	createOrderSQL = `INSERT INTO orders (id, user_id, started_at, ordered)
		VALUES ($1, $2, $3, FALSE)`

	attachLineSQL = `INSERT INTO order_order_lines (order_id, line_id) VALUES ($1, $2)`

	detachLineSQL = `DELETE FROM order_order_lines WHERE order_id = $1 AND line_id = $2`

	containsItemSQL = `SELECT EXISTS (
		SELECT 1 FROM order_order_lines ool
		JOIN order_lines l ON l.id = ool.line_id
		WHERE ool.order_id = $1 AND l.item_id = $2)`

	orderLinesSQL = `SELECT l.id, l.user_id, l.item_id, l.quantity, l.ordered
		FROM order_lines l
		JOIN order_order_lines ool ON ool.line_id = l.id
		WHERE ool.order_id = $1`

	setOrderAddressesSQL = `UPDATE orders
		SET shipping_address_id = $2, billing_address_id = $3 WHERE id = $1`

	setOrderCouponSQL = `UPDATE orders SET coupon_id = $2 WHERE id = $1`

	finalizeOrderSQL = `UPDATE orders
		SET ordered = TRUE, ordered_at = $2, payment_id = $3, ref_code = $4
		WHERE id = $1`

	setRefundRequestedSQL = `UPDATE orders SET refund_requested = TRUE WHERE id = $1`

	setRefundGrantedSQL = `UPDATE orders SET refund_granted = TRUE WHERE id = $1`
)

var _ cart.OrderRepository = (*OrderRepository)(nil)

// OrderRepository implements cart.OrderRepository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// FindOpen returns the user's open order, or cart.ErrNoActiveOrder.
func (r *OrderRepository) FindOpen(ctx context.Context, userID string) (*cart.Order, error) {
	return r.getOrder(ctx, findOpenOrderSQL, cart.ErrNoActiveOrder, userID)
}

// FindByRefCode looks up an order by reference code across all users.
func (r *OrderRepository) FindByRefCode(ctx context.Context, refCode string) (*cart.Order, error) {
	return r.getOrder(ctx, findOrderByRefCodeSQL, cart.ErrOrderNotFound, refCode)
}

// FindUserOrder looks up one of the user's finalized orders by reference code.
func (r *OrderRepository) FindUserOrder(ctx context.Context, userID, refCode string) (*cart.Order, error) {
	return r.getOrder(ctx, findUserOrderSQL, cart.ErrOrderNotFound, userID, refCode)
}

func (r *OrderRepository) getOrder(ctx context.Context, sql string, notFound error, args ...any) (*cart.Order, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound
		}
		return nil, fmt.Errorf("getting order: %w", err)
	}
	return &o, nil
}

// ListFinalized returns the user's finalized orders, newest first.
func (r *OrderRepository) ListFinalized(ctx context.Context, userID string) ([]cart.Order, error) {
	rows, err := r.pool.Query(ctx, listFinalizedOrdersSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders for user %q: %w", userID, err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Create persists a new open order.
func (r *OrderRepository) Create(ctx context.Context, o *cart.Order) error {
	_, err := r.pool.Exec(ctx, createOrderSQL, o.ID, o.UserID, o.StartedAt)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// AttachLine links a line to the order.
func (r *OrderRepository) AttachLine(ctx context.Context, orderID, lineID string) error {
	_, err := r.pool.Exec(ctx, attachLineSQL, orderID, lineID)
	if err != nil {
		return fmt.Errorf("attaching line %q to order %q: %w", lineID, orderID, err)
	}
	return nil
}

// DetachLine unlinks a line from the order.
func (r *OrderRepository) DetachLine(ctx context.Context, orderID, lineID string) error {
	_, err := r.pool.Exec(ctx, detachLineSQL, orderID, lineID)
	if err != nil {
		return fmt.Errorf("detaching line %q from order %q: %w", lineID, orderID, err)
	}
	return nil
}

// ContainsItem reports whether a line for the item is attached to the order.
func (r *OrderRepository) ContainsItem(ctx context.Context, orderID, itemID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, containsItemSQL, orderID, itemID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking order %q for item %q: %w", orderID, itemID, err)
	}
	return exists, nil
}

// Lines returns all lines attached to the order.
func (r *OrderRepository) Lines(ctx context.Context, orderID string) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, orderLinesSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing lines of order %q: %w", orderID, err)
	}
	return pgx.CollectRows(rows, scanLine)
}

// SetAddresses stores the resolved shipping and billing address references.
func (r *OrderRepository) SetAddresses(ctx context.Context, orderID, shippingID, billingID string) error {
	_, err := r.pool.Exec(ctx, setOrderAddressesSQL, orderID, shippingID, billingID)
	if err != nil {
		return fmt.Errorf("setting addresses on order %q: %w", orderID, err)
	}
	return nil
}

// SetCoupon attaches a coupon to the order.
func (r *OrderRepository) SetCoupon(ctx context.Context, orderID, couponID string) error {
	_, err := r.pool.Exec(ctx, setOrderCouponSQL, orderID, couponID)
	if err != nil {
		return fmt.Errorf("setting coupon on order %q: %w", orderID, err)
	}
	return nil
}

// Finalize freezes the order after a successful charge.
func (r *OrderRepository) Finalize(ctx context.Context, params cart.FinalizeParams) error {
	_, err := r.pool.Exec(ctx, finalizeOrderSQL,
		params.OrderID, params.OrderedAt, params.PaymentID, params.RefCode,
	)
	if err != nil {
		return fmt.Errorf("finalizing order %q: %w", params.OrderID, err)
	}
	return nil
}

// SetRefundRequested flips the order's refund-requested flag.
func (r *OrderRepository) SetRefundRequested(ctx context.Context, orderID string) error {
	_, err := r.pool.Exec(ctx, setRefundRequestedSQL, orderID)
	if err != nil {
		return fmt.Errorf("flagging refund request on order %q: %w", orderID, err)
	}
	return nil
}

// SetRefundGranted flips the order's refund-granted flag.
func (r *OrderRepository) SetRefundGranted(ctx context.Context, orderID string) error {
	_, err := r.pool.Exec(ctx, setRefundGrantedSQL, orderID)
	if err != nil {
		return fmt.Errorf("flagging refund grant on order %q: %w", orderID, err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (cart.Order, error) {
	var (
		o         cart.Order
		orderedAt *time.Time
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.RefCode, &o.StartedAt, &orderedAt, &o.Ordered,
		&o.ShippingAddressID, &o.BillingAddressID, &o.PaymentID, &o.CouponID,
		&o.BeingDelivered, &o.Received, &o.RefundRequested, &o.RefundGranted,
	)
	o.OrderedAt = orderedAt
	return o, err
}
