package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/storefront/internal/domain/auth"
)

// Sentinel errors for user registration.
var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrNotFound      = errors.New("user not found")
)

// User is a registered customer account.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile carries per-user commerce state. It is created explicitly during
// registration rather than by a persistence-layer side effect.
type Profile struct {
	UserID             string
	StripeCustomerID   string
	OneClickPurchasing bool
}

// Repository defines persistence operations for users and profiles.
type Repository interface {
	// Create inserts a user, returning ErrUsernameTaken on a username conflict.
	Create(ctx context.Context, u *User) error
	CreateProfile(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id string) (*User, error)
}

// ValidationError carries a user-facing message about a rejected registration.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RegisterRequest is the input to Register.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
}

// Registration is the output of a successful Register call. Token is the raw
// session token, returned exactly once.
type Registration struct {
	User  *User
	Token string
}

// Service implements the user registration workflow.
type Service struct {
	users  Repository
	tokens auth.Repository
	pepper []byte
	now    func() time.Time
}

// NewService creates a user Service. pepper is the HMAC key under which
// session tokens are hashed at rest.
func NewService(users Repository, tokens auth.Repository, pepper []byte) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		pepper: pepper,
		now:    time.Now,
	}
}

// Register creates the user with a bcrypt password hash, then the profile,
// then mints a session token. Profile construction is an explicit step of the
// workflow so nothing depends on storage-layer hooks.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Registration, error) {
	if strings.TrimSpace(req.Username) == "" {
		return nil, &ValidationError{Message: "username is required"}
	}
	if len(req.Password) < 8 {
		return nil, &ValidationError{Message: "password must be at least 8 characters"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	if err := s.users.CreateProfile(ctx, &Profile{UserID: u.ID}); err != nil {
		return nil, errors.Wrap(err, "create profile")
	}

	token, err := auth.NewToken()
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Create(ctx, &auth.TokenInfo{
		ID:        uuid.New().String(),
		UserID:    u.ID,
		TokenHash: auth.HashToken(s.pepper, token),
		Name:      "registration",
		Active:    true,
	}); err != nil {
		return nil, errors.Wrap(err, "create session token")
	}

	return &Registration{User: u, Token: token}, nil
}
