package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no coupon matches a submitted code.
var ErrNotFound = errors.New("coupon not found")

// Coupon is a flat-amount discount code. The amount is subtracted from the
// order total as-is: nothing prevents it from driving the total negative,
// and nothing limits how often a code can be redeemed.
type Coupon struct {
	ID     string
	Code   string
	Amount decimal.Decimal
}

// Repository provides lookup of coupons.
type Repository interface {
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	GetByID(ctx context.Context, id string) (*Coupon, error)
}
