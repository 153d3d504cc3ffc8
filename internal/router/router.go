// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/task-list-service/internal/auth"       // role constants for the coarse role gate
	"github.com/iliyamo/task-list-service/internal/handler"    // handlers that implement the endpoint logic
	"github.com/iliyamo/task-list-service/internal/middleware" // JWT authentication and role enforcement
)

// RegisterRoutes registers routes that carry no authentication at all.
// Currently that is only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth mounts the credential/token lifecycle under /v1/auth.  None
// of these routes sit behind the JWT gate: register and login establish a
// session, refresh and logout authenticate with the refresh token carried
// in the body.  The extras slice lets the caller attach the rate limiter —
// register and login are the bcrypt-heavy, brute-forceable endpoints.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, extras ...echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	for _, mw := range extras {
		if mw != nil {
			g.Use(mw)
		}
	}
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh mints a new access token only; the presented refresh token
	// is not rotated and stays valid.
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
}

// RegisterItems mounts the task-list API under /v1/items.  Every route runs
// the authentication gate first, then the coarse role check; per-item
// ownership is decided inside the handlers via the authorization policy.
// Extras typically carry the rate limiter and the per-user response cache
// (which must come after JWTAuth, hence the ordering here).
func RegisterItems(e *echo.Echo, h *handler.ItemHandler, jwtSecret string, extras ...echo.MiddlewareFunc) {
	g := e.Group("/v1/items")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole(auth.RoleUser, auth.RoleAdmin))
	for _, mw := range extras {
		if mw != nil {
			g.Use(mw)
		}
	}

	g.POST("", h.Create)
	g.GET("", h.List)
	// Static segment must be registered alongside the :id routes; echo
	// prefers the static match, so /items/reorder never hits Get.
	g.PATCH("/reorder", h.Reorder)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.PATCH("/:id/complete", h.ToggleComplete)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/subtasks", h.AddSubtask)
	g.PATCH("/:id/subtasks/:sid", h.ToggleSubtask)
}
