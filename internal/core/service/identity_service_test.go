package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bookmarket/identity/internal/core/domain"
	"github.com/bookmarket/identity/internal/core/ports"
	"github.com/bookmarket/identity/internal/infrastructure/db/memory"
)

func strPtr(s string) *string { return &s }

func storedHash(t *testing.T, repo *memory.IdentityRepository, email string) string {
	t.Helper()
	stored, err := repo.FindByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("find %s: %v", email, err)
	}
	return stored.PasswordHash
}

func seedIdentity(t *testing.T, repo *memory.IdentityRepository, email string) *domain.Identity {
	t.Helper()
	created, err := repo.Create(context.Background(), &domain.Identity{
		Name: "Alice", Email: email, PasswordHash: "hashed:secret1", Role: domain.RoleBuyer,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return created
}

func TestIdentityService_UpdateProfile_NoRehashWithoutPassword(t *testing.T) {
	repo := memory.NewIdentityRepository()
	hasher := &stubHasher{}
	svc := NewIdentityService(repo, hasher, zerolog.Nop())
	me := seedIdentity(t, repo, "a@x.com")

	updated, err := svc.UpdateProfile(context.Background(), me.ID, ports.ProfileUpdateInput{
		Name:    strPtr("Alice Smith"),
		Phone:   strPtr("5551234567"),
		Address: &domain.Address{City: "Austin", Country: "US"},
	})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if updated.Name != "Alice Smith" || updated.Phone != "5551234567" || updated.Address.City != "Austin" {
		t.Fatalf("unexpected identity: %+v", updated)
	}
	if hasher.hashes.Load() != 0 {
		t.Fatalf("password re-hashed on unrelated update")
	}
	if storedHash(t, repo, "a@x.com") != "hashed:secret1" {
		t.Fatalf("stored hash changed")
	}
}

func TestIdentityService_UpdateProfile_PasswordHashedOnce(t *testing.T) {
	repo := memory.NewIdentityRepository()
	hasher := &stubHasher{}
	svc := NewIdentityService(repo, hasher, zerolog.Nop())
	me := seedIdentity(t, repo, "a@x.com")

	updated, err := svc.UpdateProfile(context.Background(), me.ID, ports.ProfileUpdateInput{Password: strPtr("newpass1")})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if updated.PasswordHash != "" {
		t.Fatalf("hash leaked")
	}
	if hasher.hashes.Load() != 1 {
		t.Fatalf("expected exactly one hash, got %d", hasher.hashes.Load())
	}
	if storedHash(t, repo, "a@x.com") != "hashed:newpass1" {
		t.Fatalf("stored hash not updated")
	}
}

func TestIdentityService_UpdateProfile_Validation(t *testing.T) {
	repo := memory.NewIdentityRepository()
	svc := NewIdentityService(repo, &stubHasher{}, zerolog.Nop())
	me := seedIdentity(t, repo, "a@x.com")

	cases := map[string]ports.ProfileUpdateInput{
		"short name":     {Name: strPtr("Al")},
		"blank name":     {Name: strPtr("   ")},
		"letters phone":  {Phone: strPtr("555-123-4567")},
		"short phone":    {Phone: strPtr("12345")},
		"signed phone":   {Phone: strPtr("+12345678901")},
		"decimal phone":  {Phone: strPtr("-123456789.5")},
		"short password": {Password: strPtr("123")},
		"long password":  {Password: strPtr(strings.Repeat("é", 40))},
		"empty password": {Password: strPtr("")},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.UpdateProfile(context.Background(), me.ID, in); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestIdentityService_UpdateProfile_Missing(t *testing.T) {
	svc := NewIdentityService(memory.NewIdentityRepository(), &stubHasher{}, zerolog.Nop())
	_, err := svc.UpdateProfile(context.Background(), "nope", ports.ProfileUpdateInput{Name: strPtr("Alice")})
	if !errors.Is(err, domain.ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestIdentityService_List_Paging(t *testing.T) {
	repo := memory.NewIdentityRepository()
	svc := NewIdentityService(repo, &stubHasher{}, zerolog.Nop())
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		seedIdentity(t, repo, email)
	}

	res, err := svc.List(context.Background(), ports.ListIdentitiesInput{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if res.Total != 3 || res.TotalPages != 2 || len(res.Items) != 1 || res.Page != 2 {
		t.Fatalf("unexpected page: %+v", res)
	}

	res, _ = svc.List(context.Background(), ports.ListIdentitiesInput{Limit: 1000})
	if res.Limit != maxPageLimit || res.Page != 1 {
		t.Fatalf("limits not clamped: %+v", res)
	}
	res, _ = svc.List(context.Background(), ports.ListIdentitiesInput{})
	if res.Limit != defaultPageLimit {
		t.Fatalf("default limit not applied: %+v", res)
	}
}
