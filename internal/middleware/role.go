package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireRole returns a middleware that enforces that the authenticated
// identity carries one of the given roles.  It runs after JWTAuth and reads
// the typed identity from the context; a missing identity or an unknown role
// aborts the request with 403.  Note this is a coarse gate only — per-item
// ownership decisions are made by auth.CanAccess in the handlers, not here.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    // Build a set of allowed roles for constant‑time lookups.
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            ident, ok := IdentityFrom(c)
            if !ok || !allowed[ident.Role] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
