package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/refund"
)

const (
	createRefundSQL = `INSERT INTO refunds (id, order_ref, reason, email, accepted)
		VALUES ($1, $2, $3, $4, $5)`

	setRefundAcceptedSQL = `UPDATE refunds SET accepted = TRUE WHERE order_ref = $1`
)

var _ refund.Repository = (*RefundRepository)(nil)

// RefundRepository implements refund.Repository backed by PostgreSQL.
type RefundRepository struct {
	pool *pgxpool.Pool
}

// NewRefundRepository returns a RefundRepository that uses the given pool.
func NewRefundRepository(pool *pgxpool.Pool) *RefundRepository {
	return &RefundRepository{pool: pool}
}

// Create persists a new refund request.
func (r *RefundRepository) Create(ctx context.Context, rf *refund.Refund) error {
	_, err := r.pool.Exec(ctx, createRefundSQL,
		rf.ID, rf.OrderRef, rf.Reason, rf.Email, rf.Accepted,
	)
	if err != nil {
		return fmt.Errorf("creating refund %q: %w", rf.ID, err)
	}
	return nil
}

// SetAccepted marks every refund request for the order reference accepted.
func (r *RefundRepository) SetAccepted(ctx context.Context, orderRef string) error {
	_, err := r.pool.Exec(ctx, setRefundAcceptedSQL, orderRef)
	if err != nil {
		return fmt.Errorf("accepting refunds for order %q: %w", orderRef, err)
	}
	return nil
}
