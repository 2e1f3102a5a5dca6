package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/retentionai/internal/handler"    // handlers that implement each endpoint
	"github.com/iliyamo/retentionai/internal/middleware" // rate limiting and role enforcement
	"github.com/iliyamo/retentionai/internal/model"
	"github.com/iliyamo/retentionai/internal/session"
)

// RegisterRoutes registers the unauthenticated probes.  /healthz is a bare
// liveness check for load balancers, /api/health reports dependency state.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", handler.Health)
	e.GET("/api/health", h.Status)
}

// RegisterAuth installs the session gate on every request and registers the
// login, signup and logout routes.  limiter guards the two endpoints that
// accept credentials.
func RegisterAuth(e *echo.Echo, gate *session.Gate, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	// Resolve the identity once per request so handlers and later
	// middleware read it from the context.
	e.Use(gate.Attach())

	e.GET("/", a.Index)
	e.GET("/login", a.LoginPage)
	e.POST("/login", a.Login, limiter)
	e.POST("/signup", a.Signup, limiter)
	e.GET("/logout", a.Logout)

	// Pages that need a signed-in user.  Anonymous requests are sent to
	// the login page before the handler runs.
	e.GET("/dashboard", a.Dashboard, gate.Require())
}

// RegisterAccount registers the profile endpoints for any signed-in user and
// the account administration endpoints, which additionally need the Admin
// role.
func RegisterAccount(e *echo.Echo, gate *session.Gate, p *handler.ProfileHandler, acc *handler.AccountHandler) {
	api := e.Group("/api", gate.Require())
	api.GET("/user/profile", p.Get)
	api.PUT("/user/profile", p.Update)

	admin := api.Group("/users", middleware.RequireRole(model.RoleAdmin))
	admin.GET("/:id", acc.Get)
	admin.PATCH("/:id/active", acc.SetActive)
}
