package middleware

// identity.go defines how the verified identity travels through the request
// context.  JWTAuth stores exactly one value under identityKey; everything
// else (handlers, rate-limit keys, cache keys) reads it back through the
// helpers here.  No other identity source exists downstream of the gate.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/task-list-service/internal/auth"
)

// identityKey is the context key under which JWTAuth stores auth.Identity.
const identityKey = "identity"

// SetIdentity publishes the verified identity into the request context.
// JWTAuth is its only production caller; handler tests use it to simulate
// an authenticated request.
func SetIdentity(c echo.Context, ident auth.Identity) {
    c.Set(identityKey, ident)
}

// IdentityFrom returns the identity stored by JWTAuth, if any.  The second
// return value is false on routes that run before (or without) the gate.
func IdentityFrom(c echo.Context) (auth.Identity, bool) {
    ident, ok := c.Get(identityKey).(auth.Identity)
    return ident, ok
}

// currentUserID renders the authenticated user id for rate-limit and cache
// key segments.  Unauthenticated requests share the "anon" bucket.
func currentUserID(c echo.Context) string {
    if ident, ok := IdentityFrom(c); ok {
        return strconv.FormatUint(ident.SubjectID, 10)
    }
    return "anon"
}
