package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RegisterHealth serves the database ping on /health and /api/v1/health.
func RegisterHealth(e *echo.Echo, db Pinger) {
	handler := func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		status, database := "healthy", "up"
		if db == nil || db.PingContext(ctx) != nil {
			status, database = "degraded", "down"
		}
		return c.JSON(http.StatusOK, HealthResponse{Status: status, Database: database})
	}
	e.GET("/health", handler)
	e.GET("/api/v1/health", handler)
}
