package handler

import (
	"cnpjapi/cmd/internal/contract"
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type HealthService interface {
	Check(ctx context.Context) (*contract.HealthResponse, error)
	Unhealthy() *contract.HealthResponse
	CheckProvider(ctx context.Context) *contract.ProviderHealthResponse
}

type DefaultHealthRoute struct {
	HealthService HealthService
}

func NewHealthRoute(healthService HealthService) *DefaultHealthRoute {
	return &DefaultHealthRoute{HealthService: healthService}
}

func (h *DefaultHealthRoute) Status(c echo.Context) error {
	resp, err := h.HealthService.Check(c.Request().Context())
	if err != nil {
		log.Errorf("health check failed: %v", err)
		return c.JSON(http.StatusServiceUnavailable, h.HealthService.Unhealthy())
	}
	return c.JSON(http.StatusOK, resp)
}

// Liveness is used by the container healthcheck.
func (h *DefaultHealthRoute) Liveness(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *DefaultHealthRoute) Provider(c echo.Context) error {
	return c.JSON(http.StatusOK, h.HealthService.CheckProvider(c.Request().Context()))
}
