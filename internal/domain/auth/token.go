package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"github.com/go-faster/errors"
)

// ErrTokenNotFound is returned when no active session token matches a hash.
var ErrTokenNotFound = errors.New("session token not found")

// TokenInfo is a stored session token. Only the HMAC-SHA256 hash of the raw
// token is persisted; the raw value is shown to the client once at creation.
type TokenInfo struct {
	ID        string
	UserID    string
	TokenHash string
	Name      string
	Active    bool
}

// Repository provides lookup and creation of session tokens by hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*TokenInfo, error)
	Create(ctx context.Context, t *TokenInfo) error
}

// NewToken returns a fresh 32-byte random token, hex encoded.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "read random")
	}
	return hex.EncodeToString(buf), nil
}

// HashToken computes the hex HMAC-SHA256 of a raw token under the server
// pepper. Tokens are stored and looked up by this hash so a leaked database
// does not leak usable credentials.
func HashToken(pepper []byte, token string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
