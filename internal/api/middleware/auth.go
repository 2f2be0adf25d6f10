package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/bookmarket/identity/internal/core/domain"
	"github.com/bookmarket/identity/internal/core/ports"
	"github.com/bookmarket/identity/internal/pkg/metrics"
)

const identityKey = "identity"

type ctxKey struct{}

// Authenticate verifies the bearer token and resolves it to a stored
// identity. On success the hash-stripped identity is attached to both the
// echo context and the request context. Nothing is attached on failure.
func Authenticate(codec ports.TokenCodec, finder ports.IdentityFinder, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				metrics.AuthorizationsTotal.WithLabelValues("no_token").Inc()
				return domain.Unauthorized(domain.ReasonNoToken)
			}

			claims, err := codec.Verify(token)
			if err != nil {
				if errors.Is(err, domain.ErrTokenExpired) {
					metrics.AuthorizationsTotal.WithLabelValues("expired").Inc()
					return domain.Unauthorized(domain.ReasonExpired)
				}
				metrics.AuthorizationsTotal.WithLabelValues("invalid").Inc()
				log.Debug().Err(err).Str("path", c.Path()).Msg("rejected token")
				return domain.Unauthorized(domain.ReasonInvalid)
			}

			identity, err := finder.FindByID(c.Request().Context(), claims.SubjectID)
			if err != nil {
				if errors.Is(err, domain.ErrIdentityNotFound) {
					metrics.AuthorizationsTotal.WithLabelValues("user_not_found").Inc()
					return domain.Unauthorized(domain.ReasonIdentityGone)
				}
				return err
			}

			identity = identity.Sanitized()
			c.Set(identityKey, identity)
			c.SetRequest(c.Request().WithContext(WithIdentity(c.Request().Context(), identity)))
			return next(c)
		}
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// CurrentIdentity returns the identity attached by Authenticate, or nil.
func CurrentIdentity(c echo.Context) *domain.Identity {
	identity, _ := c.Get(identityKey).(*domain.Identity)
	return identity
}

// WithIdentity stores identity in ctx.
func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, identity)
}

// IdentityFromContext returns the identity stored by WithIdentity, or nil.
func IdentityFromContext(ctx context.Context) *domain.Identity {
	identity, _ := ctx.Value(ctxKey{}).(*domain.Identity)
	return identity
}
