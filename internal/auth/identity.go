// Package auth holds the request-scoped identity produced by the
// authentication gate and the single authorization decision applied to owned
// resources.  Handlers never read raw token claims; they work exclusively
// with the Identity value stored in the request context by the JWT
// middleware.
package auth

import "strings"

// Role values stored on user records and embedded in access tokens.  An
// admin may operate on any user's items; a plain user only on their own.
const (
    RoleUser  = "user"
    RoleAdmin = "admin"
)

// Identity is the verified result of authenticating an access token.  It is
// built exactly once per request by the authentication gate and is never
// persisted.
type Identity struct {
    SubjectID uint64 // id of the authenticated user (the token's sub claim)
    Role      string // role claim; RoleUser or RoleAdmin
}

// IsAdmin reports whether the identity carries the admin role.
func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

// NormalizeRole coerces arbitrary client input to a known role.  Anything
// other than an exact (case-insensitive) "admin" becomes RoleUser, so a
// malformed registration payload can never mint an unexpected role.
func NormalizeRole(raw string) string {
    if strings.EqualFold(strings.TrimSpace(raw), RoleAdmin) {
        return RoleAdmin
    }
    return RoleUser
}
