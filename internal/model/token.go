package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table.  Each refresh
// token belongs to a user; one user may hold several live tokens at once
// (one per device/session).  The plain token is never stored, only its
// keyed HMAC-SHA256 digest.  Rows are not proactively purged: an expired or
// revoked row simply fails validation on lookup.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – hex HMAC-SHA256 digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null while still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
