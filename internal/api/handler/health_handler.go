package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bookmarket/identity/internal/core/ports"
)

const readinessTimeout = 2 * time.Second

type HealthHandler struct {
	checkers []ports.HealthChecker
}

func NewHealthHandler(checkers ...ports.HealthChecker) *HealthHandler {
	return &HealthHandler{checkers: checkers}
}

type healthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Liveness reports that the process is up.
//
// @Summary  Liveness probe
// @Tags     health
// @Produce  json
// @Success  200  {object}  healthResponse
// @Router   /health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}

// Readiness pings every store and reports 503 when any is down.
//
// @Summary  Readiness probe
// @Tags     health
// @Produce  json
// @Success  200  {object}  healthResponse
// @Failure  503  {object}  healthResponse
// @Router   /health/ready [get]
func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Dependencies: make(map[string]string, len(h.checkers))}
	code := http.StatusOK
	for _, checker := range h.checkers {
		if err := checker.Ping(ctx); err != nil {
			resp.Dependencies[checker.Name()] = "down"
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Dependencies[checker.Name()] = "up"
	}
	return c.JSON(code, resp)
}
