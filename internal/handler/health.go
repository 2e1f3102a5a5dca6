package handler // declare the package name; contains HTTP handlers

import (
	"context"
	"database/sql"
	"net/http" // net/http provides status codes and response helpers
	"time"

	"github.com/labstack/echo/v4" // echo is the web framework used for this project
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/retentionai/internal/database"
)

// Health is a simple liveness endpoint used by load balancers and
// monitoring systems to verify that the process is serving.  It returns
// a plain text "ok" message with an HTTP 200 status code.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// HealthHandler reports the state of the service's dependencies.  Redis is
// optional and only listed when a client is configured.
type HealthHandler struct {
	DB      *sql.DB
	Redis   *redis.Client
	Version string
	Now     func() time.Time
}

// Status always answers 200; status is "degraded" when any component is down.
func (h *HealthHandler) Status(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	components := map[string]bool{"database": database.Ping(ctx, h.DB)}
	if h.Redis != nil {
		components["redis"] = h.Redis.Ping(ctx).Err() == nil
	}
	status := "healthy"
	for _, up := range components {
		if !up {
			status = "degraded"
		}
	}
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":     status,
		"timestamp":  now().UTC().Format(time.RFC3339),
		"version":    h.Version,
		"components": components,
	})
}
