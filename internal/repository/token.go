package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/auth"
)

const (
	getTokenByHashSQL = `SELECT id, user_id, token_hash, name, active
		FROM session_tokens WHERE token_hash = $1 AND active`

	createTokenSQL = `INSERT INTO session_tokens (id, user_id, token_hash, name, active)
		VALUES ($1, $2, $3, $4, $5)`
)

var _ auth.Repository = (*TokenRepository)(nil)

// TokenRepository provides session token lookups backed by PostgreSQL.
type TokenRepository struct {
	pool *pgxpool.Pool
}

// NewTokenRepository returns a TokenRepository that uses the given pool.
func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

// FindByHash looks up an active session token by its HMAC-SHA256 hash.
func (r *TokenRepository) FindByHash(ctx context.Context, hash string) (*auth.TokenInfo, error) {
	var t auth.TokenInfo
	err := r.pool.QueryRow(ctx, getTokenByHashSQL, hash).Scan(
		&t.ID, &t.UserID, &t.TokenHash, &t.Name, &t.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrTokenNotFound
		}
		return nil, fmt.Errorf("finding session token by hash: %w", err)
	}
	return &t, nil
}

// Create persists a new session token.
func (r *TokenRepository) Create(ctx context.Context, t *auth.TokenInfo) error {
	_, err := r.pool.Exec(ctx, createTokenSQL,
		t.ID, t.UserID, t.TokenHash, t.Name, t.Active,
	)
	if err != nil {
		return fmt.Errorf("creating session token %q: %w", t.ID, err)
	}
	return nil
}
