package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bookmarket/identity/internal/core/domain"
	"github.com/bookmarket/identity/internal/core/ports"
	"github.com/bookmarket/identity/internal/pkg/validation"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type profileRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=3,max=50"`
	Phone    *string `json:"phone" validate:"omitempty,number,min=10,max=15"`
	Password *string `json:"password" validate:"omitempty,min=6,maxbytes=72"`
}

// IdentityService reads and edits accounts after authentication.
type IdentityService struct {
	repo     ports.IdentityRepository
	hasher   ports.PasswordHasher
	validate *validation.Validator
	logger   zerolog.Logger
	now      func() time.Time
}

func NewIdentityService(repo ports.IdentityRepository, hasher ports.PasswordHasher, logger zerolog.Logger) *IdentityService {
	return &IdentityService{
		repo:     repo,
		hasher:   hasher,
		validate: validation.New(),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *IdentityService) Get(ctx context.Context, id string) (*domain.Identity, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateProfile applies the supplied fields. The password is re-hashed only
// when a new one is given.
func (s *IdentityService) UpdateProfile(ctx context.Context, id string, input ports.ProfileUpdateInput) (*domain.Identity, error) {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		input.Name = &name
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		input.Phone = &phone
	}
	if input.Password != nil && *input.Password == "" {
		return nil, domain.NewValidationError("password must be at least 6 characters")
	}
	if input.Name != nil && *input.Name == "" {
		return nil, domain.NewValidationError("name must be at least 3 characters")
	}

	if err := s.validate.Struct(profileRequest{Name: input.Name, Phone: input.Phone, Password: input.Password}); err != nil {
		return nil, err
	}

	update := ports.IdentityUpdate{
		Name:      input.Name,
		Phone:     input.Phone,
		Address:   input.Address,
		UpdatedAt: s.now(),
	}
	if input.Password != nil {
		hash, err := s.hasher.Hash(ctx, *input.Password)
		if err != nil {
			return nil, err
		}
		update.PasswordHash = &hash
	}

	updated, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("identity_id", id).Bool("password_changed", update.PasswordHash != nil).Msg("profile updated")
	return updated.Sanitized(), nil
}

// List pages through accounts, newest first.
func (s *IdentityService) List(ctx context.Context, input ports.ListIdentitiesInput) (*ports.ListIdentitiesResult, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	items, total, err := s.repo.List(ctx, ports.IdentityListFilter{Page: page, Limit: limit})
	if err != nil {
		return nil, err
	}
	for i, item := range items {
		items[i] = item.Sanitized()
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &ports.ListIdentitiesResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}, nil
}
