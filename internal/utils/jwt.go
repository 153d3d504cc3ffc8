package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/hmac"   // keyed hashing for refresh tokens at rest
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA‑256 underlying the refresh-token HMAC
    "encoding/hex"  // hex encoding and decoding functions
    "errors"        // sentinel errors for token parsing
    "time"          // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens

    "github.com/iliyamo/task-list-service/internal/auth"
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.  Access tokens are short‑lived, self-verifying
// and never stored server-side; the signature plus the embedded exp claim
// are their only source of truth.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long‑lived opaque token used to obtain new
// access tokens.  The Raw field contains the random string returned to the
// client.  In the database only an HMAC digest of the raw string is stored.
type RefreshToken struct {
    Raw string    // raw token string returned to the client
    Exp time.Time // UTC expiration time
}

// ErrInvalidToken is returned by ParseAccessToken for any token that cannot
// be accepted: bad signature, expired, wrong algorithm or missing claims.
// Callers are not told which; the distinction is never surfaced to clients.
var ErrInvalidToken = errors.New("invalid or expired token")

// NewAccessToken builds and signs an HS256 JWT for a user.  It takes the
// signing secret, the user ID, the user's role, and a TTL in minutes.  The
// JWT carries exactly the canonical claim set: subject (sub, decimal user
// id), role, expiration (exp) and issued at (iat).  Nothing else is ever
// read back out of the token.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
    exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
    claims := jwt.MapClaims{
        "sub":  userID,
        "role": role,
        "exp":  exp.Unix(),
        "iat":  time.Now().UTC().Unix(),
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies the signature and expiry of a raw access token
// and returns the identity it proves.  This is the only place in the
// codebase that touches raw claims; the authentication gate and the tests
// both go through it, so there is exactly one canonical reading of "sub".
func ParseAccessToken(secret, raw string) (auth.Identity, error) {
    tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
        // Reject tokens signed with anything but HMAC.
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid {
        return auth.Identity{}, ErrInvalidToken
    }
    claims, ok := tok.Claims.(jwt.MapClaims)
    if !ok {
        return auth.Identity{}, ErrInvalidToken
    }
    // Numeric JSON values decode as float64.
    sub, ok := claims["sub"].(float64)
    if !ok || sub <= 0 {
        return auth.Identity{}, ErrInvalidToken
    }
    role, ok := claims["role"].(string)
    if !ok || role == "" {
        return auth.Identity{}, ErrInvalidToken
    }
    return auth.Identity{SubjectID: uint64(sub), Role: role}, nil
}

// NewRefreshToken returns a cryptographically secure random token (raw) and
// its expiration time.  Refresh tokens live longer than access tokens and
// are exchanged for new access tokens without re-presenting credentials.
// The ttlDays parameter controls how many days the refresh token is valid.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    raw, err := randomHex(48) // 48 bytes -> 96 hex chars
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: raw,
        Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }, nil
}

// HashRefreshRaw returns the hex HMAC-SHA256 digest of a raw refresh token
// keyed with the refresh secret.  Only the digest is stored, so neither a
// stolen database row nor a database without the second secret is enough to
// refresh a session.
func HashRefreshRaw(secret, raw string) string {
    mac := hmac.New(sha256.New, []byte(secret))
    mac.Write([]byte(raw))
    return hex.EncodeToString(mac.Sum(nil))
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
