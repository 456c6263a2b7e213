package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/xenking/storefront/internal/domain/auth"
)

// userIDKey is the context key under which the authenticated user ID is stored.
type userIDKey struct{}

// UserID extracts the authenticated user ID from the context. It returns an
// empty string on unauthenticated requests.
func UserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Authenticator validates bearer session tokens against their HMAC-SHA256
// hashes at rest and injects the resolved user ID into the request context.
type Authenticator struct {
	tokens auth.Repository
	pepper []byte
}

// NewAuthenticator creates an Authenticator with the given token repository
// and HMAC pepper.
func NewAuthenticator(tokens auth.Repository, pepper []byte) *Authenticator {
	return &Authenticator{tokens: tokens, pepper: pepper}
}

// Middleware rejects requests without a valid bearer token.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		hash := auth.HashToken(a.pepper, raw)
		info, err := a.tokens.FindByHash(r.Context(), hash)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid session token")
			return
		}

		// Constant-time comparison guards against timing side-channels even
		// though the lookup already succeeded; the stored hash could differ
		// from what we computed if the repository returns a stale row.
		if subtle.ConstantTimeCompare([]byte(hash), []byte(info.TokenHash)) != 1 {
			respondError(w, http.StatusUnauthorized, "invalid session token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey{}, info.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}
