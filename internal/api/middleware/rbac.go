package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/bookmarket/identity/internal/core/domain"
	"github.com/bookmarket/identity/internal/pkg/metrics"
)

// RBAC enforces role-based access control. It must run after Authenticate
// but does not rely on it: a request with no attached identity is rejected
// as unauthenticated rather than forbidden.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity := CurrentIdentity(c)
			if identity == nil {
				return domain.ErrUnauthenticated
			}
			if _, ok := allowed[identity.Role]; !ok {
				metrics.AuthorizationsTotal.WithLabelValues("forbidden").Inc()
				return domain.ErrForbidden
			}
			metrics.AuthorizationsTotal.WithLabelValues("allowed").Inc()
			return next(c)
		}
	}
}
