package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/task-list-service/internal/auth"
)

const testSecret = "unit-test-secret"

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, auth.RoleAdmin, 15)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)
	assert.WithinDuration(t, time.Now().UTC().Add(15*time.Minute), tok.Exp, 5*time.Second)

	ident, err := ParseAccessToken(testSecret, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), ident.SubjectID)
	assert.Equal(t, auth.RoleAdmin, ident.Role)
}

func TestAccessTokenWrongSecretRejected(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, auth.RoleUser, 15)
	require.NoError(t, err)

	_, err = ParseAccessToken("a-different-secret", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenExpiryBoundary(t *testing.T) {
	// A token whose TTL has already elapsed must fail verification: the
	// embedded exp claim is the only validity authority.
	expired, err := NewAccessToken(testSecret, 42, auth.RoleUser, -1)
	require.NoError(t, err)
	_, err = ParseAccessToken(testSecret, expired.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// An unexpired one keeps verifying.
	live, err := NewAccessToken(testSecret, 42, auth.RoleUser, 60)
	require.NoError(t, err)
	_, err = ParseAccessToken(testSecret, live.Token)
	assert.NoError(t, err)
}

func TestParseAccessTokenGarbage(t *testing.T) {
	for _, raw := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := ParseAccessToken(testSecret, raw)
		assert.ErrorIs(t, err, ErrInvalidToken, "raw=%q", raw)
	}
}

func TestNewRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(30)
	require.NoError(t, err)
	b, err := NewRefreshToken(30)
	require.NoError(t, err)

	assert.Len(t, a.Raw, 96) // 48 random bytes, hex encoded
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.WithinDuration(t, time.Now().UTC().Add(30*24*time.Hour), a.Exp, 5*time.Second)
}

func TestHashRefreshRaw(t *testing.T) {
	h1 := HashRefreshRaw("refresh-key", "some-token")
	h2 := HashRefreshRaw("refresh-key", "some-token")
	assert.Equal(t, h1, h2, "digest must be deterministic")
	assert.Len(t, h1, 64) // hex SHA-256

	// A different key yields a different digest: without the second secret
	// the stored column is useless to an attacker.
	assert.NotEqual(t, h1, HashRefreshRaw("other-key", "some-token"))
	assert.NotEqual(t, h1, HashRefreshRaw("refresh-key", "other-token"))
}
