// Package memory holds an in-process identity store used for local runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/bookmarket/identity/internal/core/domain"
	"github.com/bookmarket/identity/internal/core/ports"
)

type IdentityRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.Identity
	byEmail map[string]string
}

func NewIdentityRepository() *IdentityRepository {
	return &IdentityRepository{
		byID:    make(map[string]*domain.Identity),
		byEmail: make(map[string]string),
	}
}

func clone(i *domain.Identity) *domain.Identity {
	out := *i
	if i.Address != nil {
		addr := *i.Address
		out.Address = &addr
	}
	return &out
}

// Create stores identity. The email check and the insert happen under one
// lock, so concurrent writers for the same email cannot both succeed.
func (r *IdentityRepository) Create(_ context.Context, identity *domain.Identity) (*domain.Identity, error) {
	email := domain.NormalizeEmail(identity.Email)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[email]; exists {
		return nil, domain.ErrDuplicateEmail
	}
	stored := clone(identity)
	stored.ID = uuid.NewString()
	stored.Email = email
	r.byID[stored.ID] = stored
	r.byEmail[email] = stored.ID
	return clone(stored), nil
}

func (r *IdentityRepository) FindByEmail(_ context.Context, email string) (*domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return clone(r.byID[id]), nil
}

func (r *IdentityRepository) FindByID(_ context.Context, id string) (*domain.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	return stored.Sanitized(), nil
}

func (r *IdentityRepository) Update(_ context.Context, id string, update ports.IdentityUpdate) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrIdentityNotFound
	}
	if update.Name != nil {
		stored.Name = *update.Name
	}
	if update.Phone != nil {
		stored.Phone = *update.Phone
	}
	if update.Address != nil {
		addr := *update.Address
		stored.Address = &addr
	}
	if update.PasswordHash != nil {
		stored.PasswordHash = *update.PasswordHash
	}
	stored.UpdatedAt = update.UpdatedAt
	return stored.Sanitized(), nil
}

func (r *IdentityRepository) List(_ context.Context, filter ports.IdentityListFilter) ([]*domain.Identity, int64, error) {
	r.mu.RLock()
	all := make([]*domain.Identity, 0, len(r.byID))
	for _, stored := range r.byID {
		all = append(all, stored.Sanitized())
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := int64(len(all))
	skip := (filter.Page - 1) * filter.Limit
	if skip < 0 {
		skip = 0
	}
	if skip >= len(all) {
		return []*domain.Identity{}, total, nil
	}
	end := len(all)
	if filter.Limit > 0 && skip+filter.Limit < end {
		end = skip + filter.Limit
	}
	return all[skip:end], total, nil
}

func (r *IdentityRepository) Name() string { return "memory" }

func (r *IdentityRepository) Ping(context.Context) error { return nil }
