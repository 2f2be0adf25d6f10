package ports

import (
	"context"
	"time"

	"github.com/bookmarket/identity/internal/core/domain"
)

// IdentityUpdate lists the fields to change on an identity. Nil fields are
// left as stored.
type IdentityUpdate struct {
	Name         *string
	Phone        *string
	Address      *domain.Address
	PasswordHash *string
	UpdatedAt    time.Time
}

// IdentityListFilter pages through identities, newest first.
type IdentityListFilter struct {
	Page  int // 1-based
	Limit int
}

// IdentityFinder resolves an identity by id. Results never carry the password hash.
type IdentityFinder interface {
	FindByID(ctx context.Context, id string) (*domain.Identity, error)
}

// IdentityRepository persists identities. Implementations must enforce email
// uniqueness in the storage layer and return domain.ErrDuplicateEmail when a
// write would violate it.
type IdentityRepository interface {
	IdentityFinder
	Create(ctx context.Context, identity *domain.Identity) (*domain.Identity, error)
	// FindByEmail returns the identity including its password hash.
	FindByEmail(ctx context.Context, email string) (*domain.Identity, error)
	Update(ctx context.Context, id string, update IdentityUpdate) (*domain.Identity, error)
	List(ctx context.Context, filter IdentityListFilter) ([]*domain.Identity, int64, error)
}

// HealthChecker is implemented by stores that can report connectivity.
type HealthChecker interface {
	Name() string
	Ping(ctx context.Context) error
}
