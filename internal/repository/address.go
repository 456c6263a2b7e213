package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/address"
)

const (
	createAddressSQL = `INSERT INTO addresses (id, user_id, street, apartment, country, zip, role, is_default)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	// Multiple defaults can coexist since old ones are never unmarked; the
	// most recently created row wins.
	defaultAddressSQL = `SELECT id, user_id, street, apartment, country, zip, role, is_default
		FROM addresses WHERE user_id = $1 AND role = $2 AND is_default
		ORDER BY created_at DESC, id DESC LIMIT 1`

	getAddressSQL = `SELECT id, user_id, street, apartment, country, zip, role, is_default
		FROM addresses WHERE id = $1`
)

var _ address.Repository = (*AddressRepository)(nil)

// AddressRepository implements address.Repository backed by PostgreSQL.
type AddressRepository struct {
	pool *pgxpool.Pool
}

// NewAddressRepository returns an AddressRepository that uses the given pool.
func NewAddressRepository(pool *pgxpool.Pool) *AddressRepository {
	return &AddressRepository{pool: pool}
}

// Create persists a new address.
func (r *AddressRepository) Create(ctx context.Context, a *address.Address) error {
	_, err := r.pool.Exec(ctx, createAddressSQL,
		a.ID, a.UserID, a.Street, a.Apartment, a.Country, a.Zip, string(a.Role), a.Default,
	)
	if err != nil {
		return fmt.Errorf("creating address %q: %w", a.ID, err)
	}
	return nil
}

// DefaultFor returns the user's default address for the role.
func (r *AddressRepository) DefaultFor(ctx context.Context, userID string, role address.Role) (*address.Address, error) {
	rows, err := r.pool.Query(ctx, defaultAddressSQL, userID, string(role))
	if err != nil {
		return nil, fmt.Errorf("finding default %s address: %w", role, err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, address.ErrNoDefault
		}
		return nil, fmt.Errorf("finding default %s address: %w", role, err)
	}
	return &a, nil
}

// GetByID returns a single address.
func (r *AddressRepository) GetByID(ctx context.Context, id string) (*address.Address, error) {
	rows, err := r.pool.Query(ctx, getAddressSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting address %q: %w", id, err)
	}

	a, err := pgx.CollectExactlyOneRow(rows, scanAddress)
	if err != nil {
		return nil, fmt.Errorf("getting address %q: %w", id, err)
	}
	return &a, nil
}

func scanAddress(row pgx.CollectableRow) (address.Address, error) {
	var (
		a    address.Address
		role string
	)
	err := row.Scan(&a.ID, &a.UserID, &a.Street, &a.Apartment, &a.Country, &a.Zip, &role, &a.Default)
	a.Role = address.Role(role)
	return a, err
}
