package ports

import (
	"context"

	"github.com/bookmarket/identity/internal/core/domain"
)

// ProfileUpdateInput carries the profile fields a caller wants to change.
// Nil means "leave as is".
type ProfileUpdateInput struct {
	Name     *string
	Phone    *string
	Address  *domain.Address
	Password *string
}

// ListIdentitiesInput pages through accounts.
type ListIdentitiesInput struct {
	Page  int
	Limit int
}

// ListIdentitiesResult is a single page of accounts.
type ListIdentitiesResult struct {
	Items      []*domain.Identity
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

type IdentityService interface {
	Get(ctx context.Context, id string) (*domain.Identity, error)
	UpdateProfile(ctx context.Context, id string, input ProfileUpdateInput) (*domain.Identity, error)
	List(ctx context.Context, input ListIdentitiesInput) (*ListIdentitiesResult, error)
}
