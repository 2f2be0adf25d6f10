package ports

import (
	"context"

	"github.com/bookmarket/identity/internal/core/domain"
)

// RegisterInput is the registration payload as received from the client.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// AuthResult is a freshly issued session.
type AuthResult struct {
	Token    string
	Identity *domain.Identity
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}

// PasswordHasher derives and checks one-way password hashes.
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	// Verify reports a mismatch as (false, nil); errors are internal faults only.
	Verify(ctx context.Context, plaintext, hash string) (bool, error)
}

// TokenCodec issues and verifies signed session tokens.
type TokenCodec interface {
	Issue(identity *domain.Identity) (string, error)
	// Verify fails with domain.ErrTokenExpired, domain.ErrTokenMalformed or
	// domain.ErrTokenInvalidSignature.
	Verify(token string) (*domain.Claims, error)
}
