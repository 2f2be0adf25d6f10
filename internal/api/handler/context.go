package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/bookmarket/identity/internal/api/middleware"
	"github.com/bookmarket/identity/internal/core/domain"
)

// ctxIdentity returns the identity attached by the Authenticate middleware.
// A handler reached without it was mounted outside the gate; reject with 401.
func ctxIdentity(c echo.Context) (*domain.Identity, error) {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		return nil, domain.ErrUnauthenticated
	}
	return identity, nil
}
