package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http" // HTTP status codes for responses
    "strings"  // string utilities for prefix checking and trimming

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/task-list-service/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and stores the resulting identity in the request context.  This is the
// authentication gate: it is the only place a raw token is inspected, and
// the only thing it publishes downstream is the typed auth.Identity value.
// It never touches durable storage — verification is purely cryptographic.
//
// The three failure modes are reported distinctly so clients can tell a
// missing header from a malformed one, but all of them map to 401 and none
// of them leak verification detail:
//   - no Authorization header at all
//   - header present but not "Bearer <token>"
//   - token present but the signature is invalid or the token has expired
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            header := c.Request().Header.Get("Authorization")
            if header == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization header"})
            }
            if !strings.HasPrefix(header, "Bearer ") {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "malformed authorization header"})
            }
            raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
            if raw == "" {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "malformed authorization header"})
            }

            ident, err := utils.ParseAccessToken(secret, raw)
            if err != nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
            }

            // Publish the verified identity for handlers and later middleware.
            SetIdentity(c, ident)
            return next(c)
        }
    }
}
