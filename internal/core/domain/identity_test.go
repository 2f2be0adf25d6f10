package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseRole(t *testing.T) {
	cases := map[string]struct {
		want  Role
		valid bool
	}{
		"buyer":    {RoleBuyer, true},
		" Seller ": {RoleSeller, true},
		"admin":    {RoleAdmin, true},
		"customer": {Role("customer"), false},
		"":         {Role(""), false},
	}
	for in, tc := range cases {
		got, ok := ParseRole(in)
		if got != tc.want || ok != tc.valid {
			t.Fatalf("ParseRole(%q) = %q,%v; want %q,%v", in, got, ok, tc.want, tc.valid)
		}
	}
}

func TestRole_ClientSettable(t *testing.T) {
	if !RoleBuyer.ClientSettable() || !RoleSeller.ClientSettable() {
		t.Fatalf("buyer and seller must be client settable")
	}
	if RoleAdmin.ClientSettable() {
		t.Fatalf("admin must not be client settable")
	}
}

func TestIdentity_JSONNeverContainsHash(t *testing.T) {
	id := &Identity{ID: "1", Name: "Alice", Email: "a@x.com", PasswordHash: "$2a$10$secret", Role: RoleSeller}
	raw, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "secret") || strings.Contains(string(raw), "password") {
		t.Fatalf("hash leaked: %s", raw)
	}
}

func TestIdentity_Sanitized(t *testing.T) {
	id := &Identity{ID: "1", PasswordHash: "h", Address: &Address{City: "Lisbon"}}
	clean := id.Sanitized()
	if clean.PasswordHash != "" {
		t.Fatalf("expected empty hash")
	}
	clean.Address.City = "Porto"
	if id.Address.City != "Lisbon" {
		t.Fatalf("sanitized copy shares address with original")
	}
	if id.PasswordHash != "h" {
		t.Fatalf("original mutated")
	}
}

func TestErrors_Matching(t *testing.T) {
	if !errors.Is(NewValidationError("name is required"), ErrValidation) {
		t.Fatalf("validation error should match ErrValidation")
	}
	err := Unauthorized(ReasonExpired)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("unauthorized error should match ErrUnauthenticated")
	}
	var ue *UnauthorizedError
	if !errors.As(err, &ue) || ue.Reason != ReasonExpired {
		t.Fatalf("expected reason %q, got %+v", ReasonExpired, ue)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Fatalf("got %q", got)
	}
}
