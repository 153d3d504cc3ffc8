package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/task-list-service/internal/auth"
	"github.com/iliyamo/task-list-service/internal/config"
)

func cacheCtx(userID uint64, pattern, target string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath(pattern)
	SetIdentity(c, auth.Identity{SubjectID: userID, Role: auth.RoleUser})
	return c
}

func TestCacheKeyDistinguishesConcreteURLs(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache"}

	// Two item ids share the same route pattern but must never share a key.
	k1 := cacheKeyFrom(cfg, cacheCtx(1, "/v1/items/:id", "/v1/items/1"))
	k2 := cacheKeyFrom(cfg, cacheCtx(1, "/v1/items/:id", "/v1/items/2"))
	assert.NotEqual(t, k1, k2)

	// The same URL keys identically across requests.
	again := cacheKeyFrom(cfg, cacheCtx(1, "/v1/items/:id", "/v1/items/1"))
	assert.Equal(t, k1, again)
}

func TestCacheKeyDistinguishesUsers(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache"}

	mine := cacheKeyFrom(cfg, cacheCtx(1, "/v1/items", "/v1/items"))
	theirs := cacheKeyFrom(cfg, cacheCtx(2, "/v1/items", "/v1/items"))
	assert.NotEqual(t, mine, theirs)

	// Each user's keys live under their own namespace so bust-on-write can
	// target them without touching anyone else's entries.
	assert.True(t, strings.HasPrefix(mine, "cache:u1:"))
	assert.True(t, strings.HasPrefix(theirs, "cache:u2:"))
	assert.True(t, strings.HasPrefix(mine, strings.TrimSuffix(userCachePattern(cfg, cacheCtx(1, "/v1/items", "/v1/items")), "*")))
}

func TestCacheKeyDistinguishesQueries(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cache"}

	plain := cacheKeyFrom(cfg, cacheCtx(1, "/v1/items", "/v1/items"))
	sorted := cacheKeyFrom(cfg, cacheCtx(1, "/v1/items", "/v1/items?sort=priority"))
	filtered := cacheKeyFrom(cfg, cacheCtx(1, "/v1/items", "/v1/items?status=pending"))
	assert.NotEqual(t, plain, sorted)
	assert.NotEqual(t, plain, filtered)
	assert.NotEqual(t, sorted, filtered)

	same := cacheKeyFrom(cfg, cacheCtx(1, "/v1/items", "/v1/items?sort=priority"))
	assert.Equal(t, sorted, same)
}

func TestCaptureWriterStopsBufferingPastLimit(t *testing.T) {
	cw := &captureWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK, limit: 8}

	n, err := cw.Write([]byte("0123456789"))
	assert.NoError(t, err)
	assert.Equal(t, 10, n)

	// The client got the full body, but nothing over the limit is buffered
	// for caching and the recorded size disqualifies the response.
	assert.Equal(t, int64(10), cw.size)
	assert.Zero(t, cw.buf.Len())
}

func TestEncodeDecodePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": []string{"application/json"}}
	body := []byte(`{"id":1}`)

	payload, err := encodePayload(http.StatusOK, hdr, body)
	assert.NoError(t, err)

	status, gotHdr, gotBody, ok := decodePayload(payload)
	assert.True(t, ok)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", gotHdr.Get("Content-Type"))
	assert.Equal(t, body, gotBody)

	// Garbage is rejected rather than replayed.
	_, _, _, ok = decodePayload([]byte("short"))
	assert.False(t, ok)
}
