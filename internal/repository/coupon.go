package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT id, code, amount FROM coupons WHERE UPPER(code) = UPPER($1)`

	getCouponByIDSQL = `SELECT id, code, amount FROM coupons WHERE id = $1`

	upsertCouponSQL = `INSERT INTO coupons (id, code, amount) VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET amount = EXCLUDED.amount`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its code, case-insensitive.
// Returns coupon.ErrNotFound when no coupon matches.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	return r.getCoupon(ctx, getCouponByCodeSQL, code)
}

// GetByID returns a single coupon by its identifier.
func (r *CouponRepository) GetByID(ctx context.Context, id string) (*coupon.Coupon, error) {
	return r.getCoupon(ctx, getCouponByIDSQL, id)
}

func (r *CouponRepository) getCoupon(ctx context.Context, sql, arg string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("getting coupon %q: %w", arg, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("getting coupon %q: %w", arg, err)
	}
	return &c, nil
}

// Upsert inserts a coupon or refreshes the amount of an existing code.
// Used by the seed and ingest commands.
func (r *CouponRepository) Upsert(ctx context.Context, c *coupon.Coupon) error {
	_, err := r.pool.Exec(ctx, upsertCouponSQL, c.ID, c.Code, c.Amount)
	if err != nil {
		return fmt.Errorf("upserting coupon %q: %w", c.Code, err)
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c      coupon.Coupon
		amount decimal.Decimal
	)
	err := row.Scan(&c.ID, &c.Code, &amount)
	c.Amount = amount
	return c, err
}
