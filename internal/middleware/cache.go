package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/task-list-service/internal/config"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
    cw.status = code
    cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
    cw.size += int64(len(b))
    // Stop buffering past the limit; an oversized response is simply not
    // cached rather than cached truncated.
    if cw.limit <= 0 || cw.size <= cw.limit {
        cw.buf.Write(b)
    }
    return cw.ResponseWriter.Write(b)
}

// cacheKeyFrom builds the per-user cache key.  Item responses are private,
// so the authenticated user id is always part of the key; the concrete URL
// path and query are hashed so different item ids and filter/sort
// permutations cache independently.  The request path must be used here,
// not the echo route pattern: /v1/items/1 and /v1/items/2 both match
// /v1/items/:id and would collide on the pattern.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    tail := r.Method + ":" + r.URL.Path + ":" + r.URL.RawQuery
    sum := sha1.Sum([]byte(tail))
    return fmt.Sprintf("%s:u%s:%x", cfg.Prefix, currentUserID(c), sum[:])
}

// userCachePattern matches every cached entry belonging to one user.
func userCachePattern(cfg config.CacheConfig, c echo.Context) string {
    return fmt.Sprintf("%s:u%s:*", cfg.Prefix, currentUserID(c))
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    total := 4 + 4 + len(hdrJSON) + len(body)
    out := make([]byte, total)
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:8+len(hdrJSON)], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if 8+hlen > len(bs) || hlen < 0 {
        return 0, nil, nil, false
    }
    var hdr http.Header
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
            return 0, nil, nil, false
        }
    } else {
        hdr = make(http.Header)
    }
    body = bs[8+hlen:]
    return status, hdr, body, true
}

// NewRedisCache caches successful GET responses per user and invalidates the
// user's whole cache namespace after any successful write on the same group.
// Headers + body are stored together so clients see identical formatting on
// a hit.  Mount it after JWTAuth so the user id segment is available.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return func(c echo.Context) error { return next(c) } }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 30 * time.Second
    }
    maxBody := int64(cfg.MaxBodyBytes)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if c.Request().Method != http.MethodGet {
                // Write path: run the handler, then drop the user's cached
                // reads so the next listing reflects the mutation.
                if err := next(c); err != nil {
                    return err
                }
                if c.Response().Status < http.StatusBadRequest {
                    bustUserCache(cfg, rdb, c)
                }
                return nil
            }

            ctx := c.Request().Context()
            key := cacheKeyFrom(cfg, c)

            // Try get from Redis
            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil && len(bs) >= 8 {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    for k, vals := range hdr {
                        // X-Cache is set below; Content-Length is Echo's job.
                        if strings.EqualFold(k, "Content-Length") {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    if len(body) > 0 {
                        _, _ = c.Response().Write(body)
                    }
                    return nil
                }
            }

            // Miss: capture
            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
            c.Response().Writer = cw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }

            if cw.status == http.StatusOK && (maxBody <= 0 || cw.size <= maxBody) {
                hdr := make(http.Header, len(c.Response().Header()))
                for k, vals := range c.Response().Header() {
                    vv := make([]string, len(vals))
                    copy(vv, vals)
                    hdr[k] = vv
                }
                if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
                    _ = rdb.SetEx(context.Background(), key, payload, ttl).Err()
                }
            }
            return nil
        }
    }
}

// bustUserCache deletes every cached response for the requesting user.  The
// write has already been committed; failures here only mean a stale read for
// at most one TTL, so errors are ignored.  Invalidation is keyed by the
// requester: when an admin mutates another user's item, that owner's cached
// reads can stay stale for up to one TTL.  The middleware never sees the
// item's owner, and at the 30s default TTL that window is acceptable.
func bustUserCache(cfg config.CacheConfig, rdb *redis.Client, c echo.Context) {
    ctx := context.Background()
    var cursor uint64
    pattern := userCachePattern(cfg, c)
    for {
        keys, next, err := rdb.Scan(ctx, cursor, pattern, 64).Result()
        if err != nil {
            return
        }
        if len(keys) > 0 {
            _ = rdb.Del(ctx, keys...).Err()
        }
        if next == 0 {
            return
        }
        cursor = next
    }
}
