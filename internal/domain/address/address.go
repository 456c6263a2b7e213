package address

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNoDefault is returned when a user has no default address for a role.
var ErrNoDefault = errors.New("no default address")

// Role distinguishes shipping from billing addresses.
type Role string

const (
	RoleShipping Role = "shipping"
	RoleBilling  Role = "billing"
)

// Address is a user's shipping or billing address. Default marks the
// automatic choice for its role; setting a new default does not unmark the
// previous one, so the most recently flagged row wins on lookup.
type Address struct {
	ID        string
	UserID    string
	Street    string
	Apartment string
	Country   string
	Zip       string
	Role      Role
	Default   bool
}

// Repository defines persistence operations for addresses.
type Repository interface {
	Create(ctx context.Context, a *Address) error
	// DefaultFor returns the user's default address for the role, or ErrNoDefault.
	DefaultFor(ctx context.Context, userID string, role Role) (*Address, error)
	GetByID(ctx context.Context, id string) (*Address, error)
}
