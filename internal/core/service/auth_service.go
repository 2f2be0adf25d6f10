package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bookmarket/identity/internal/core/domain"
	"github.com/bookmarket/identity/internal/core/ports"
	"github.com/bookmarket/identity/internal/pkg/metrics"
	"github.com/bookmarket/identity/internal/pkg/validation"
)

// decoyPassword is hashed once and verified against on unknown emails so the
// two login failure paths cost about the same.
const decoyPassword = "decoy-password-for-unknown-accounts"

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
}

// AuthService implements registration and login.
type AuthService struct {
	repo        ports.IdentityRepository
	hasher      ports.PasswordHasher
	tokens      ports.TokenCodec
	validate    *validation.Validator
	defaultRole domain.Role
	logger      zerolog.Logger
	now         func() time.Time

	decoyOnce sync.Once
	decoyHash string
}

// NewAuthService wires the service. defaultRole is applied to registrations
// that ask for a missing or non client-settable role; anything other than a
// client-settable role falls back to buyer.
func NewAuthService(
	repo ports.IdentityRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenCodec,
	defaultRole domain.Role,
	logger zerolog.Logger,
) *AuthService {
	if !defaultRole.ClientSettable() {
		defaultRole = domain.RoleBuyer
	}
	return &AuthService{
		repo:        repo,
		hasher:      hasher,
		tokens:      tokens,
		validate:    validation.New(),
		defaultRole: defaultRole,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// normalizeRole maps the requested role onto the client-settable set.
// Unknown, missing and privileged roles become the default role.
func (s *AuthService) normalizeRole(requested string) domain.Role {
	role, ok := domain.ParseRole(requested)
	if !ok || !role.ClientSettable() {
		return s.defaultRole
	}
	return role
}

func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*ports.AuthResult, error) {
	req := registerRequest{
		Name:     strings.TrimSpace(input.Name),
		Email:    domain.NormalizeEmail(input.Email),
		Password: input.Password,
	}
	if err := s.validate.Struct(req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	role := s.normalizeRole(input.Role)
	if input.Role != "" && string(role) != strings.ToLower(strings.TrimSpace(input.Role)) {
		s.logger.Info().Str("requested_role", input.Role).Str("role", string(role)).Msg("registration role normalized")
	}

	// Fast path only; the storage constraint decides under concurrency.
	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrIdentityNotFound) {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	now := s.now()
	created, err := s.repo.Create(ctx, &domain.Identity{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			metrics.RegistrationsTotal.WithLabelValues("duplicate").Inc()
			return nil, domain.ErrDuplicateEmail
		}
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Msg("failed to create identity")
		return nil, err
	}

	token, err := s.tokens.Issue(created)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("issue token: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	s.logger.Info().Str("identity_id", created.ID).Str("role", string(created.Role)).Msg("identity registered")
	return &ports.AuthResult{Token: token, Identity: created.Sanitized()}, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		return nil, domain.NewValidationError("please provide email and password")
	}

	identity, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			s.burnDecoy(ctx, password)
			metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
			return nil, domain.ErrInvalidCredentials
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	ok, err := s.hasher.Verify(ctx, password, identity.PasswordHash)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Str("identity_id", identity.ID).Msg("password verify failed")
		return nil, err
	}
	if !ok {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(identity)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("issue token: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return &ports.AuthResult{Token: token, Identity: identity.Sanitized()}, nil
}

func (s *AuthService) burnDecoy(ctx context.Context, password string) {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash(ctx, decoyPassword)
		if err == nil {
			s.decoyHash = hash
		}
	})
	if s.decoyHash != "" {
		_, _ = s.hasher.Verify(ctx, password, s.decoyHash)
	}
}
