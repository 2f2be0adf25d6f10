package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bookmarket/identity/internal/core/ports"
)

type IdentityHandler struct {
	identityService ports.IdentityService
}

func NewIdentityHandler(identityService ports.IdentityService) *IdentityHandler {
	return &IdentityHandler{identityService: identityService}
}

// GetMe returns the caller's profile.
//
// @Summary      Current profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  profileEnvelope
// @Failure      401  {object}  errorResponse
// @Router       /users/me [get]
func (h *IdentityHandler) GetMe(c echo.Context) error {
	me, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	identity, err := h.identityService.Get(c.Request().Context(), me.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profileEnvelope{Success: true, User: toProfileResponse(identity)})
}

// UpdateMe changes the caller's profile. Omitted fields are left as stored.
//
// @Summary      Update current profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateProfileRequest  true  "Fields to change"
// @Success      200   {object}  profileEnvelope
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /users/me [patch]
func (h *IdentityHandler) UpdateMe(c echo.Context) error {
	me, err := ctxIdentity(c)
	if err != nil {
		return err
	}

	var req updateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body").SetInternal(err)
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	updated, err := h.identityService.UpdateProfile(c.Request().Context(), me.ID, toProfileUpdateInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profileEnvelope{Success: true, User: toProfileResponse(updated)})
}

// SellerDashboard is the seller-only landing surface.
//
// @Summary      Seller dashboard
// @Tags         seller
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dashboardResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /seller/dashboard [get]
func (h *IdentityHandler) SellerDashboard(c echo.Context) error {
	me, err := ctxIdentity(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dashboardResponse{
		Success: true,
		Message: "welcome to the seller dashboard",
		User:    toUserSummary(me),
	})
}

// ListIdentities pages through every account.
//
// @Summary      List accounts
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page number (1-based)"
// @Param        limit  query     int  false  "Page size (max 100)"
// @Success      200    {object}  listIdentitiesResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Router       /admin/identities [get]
func (h *IdentityHandler) ListIdentities(c echo.Context) error {
	var q listIdentitiesQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters").SetInternal(err)
	}
	if err := c.Validate(&q); err != nil {
		return err
	}

	res, err := h.identityService.List(c.Request().Context(), ports.ListIdentitiesInput{Page: q.Page, Limit: q.Limit})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(res))
}
