package middleware // middleware provides shared request processing for handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/retentionai/internal/session"
)

// RequireRole returns a middleware that lets the request through only when
// the identity attached by the session gate holds one of roles. It must run
// after session.Gate.Require, so the identity is already authenticated here;
// anything else is answered with 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	// Build a set of allowed roles for constant-time lookups.
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := session.IdentityFrom(c)
			if !id.Authenticated || !allowed[id.Role] {
				return c.JSON(http.StatusForbidden, map[string]any{
					"success": false,
					"message": "You do not have permission to perform this action",
				})
			}
			return next(c)
		}
	}
}
