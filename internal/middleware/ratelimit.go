package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/task-list-service/internal/config"
)

// tokenBucketScript implements the refill-and-take step atomically in Redis.
// Bucket state is a hash of {tokens, refilled_ms}; the script returns
// {allowed, tokens_left, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
	local key       = KEYS[1]
	local now_ms    = tonumber(ARGV[1])
	local capacity  = tonumber(ARGV[2])
	local refill_n  = tonumber(ARGV[3])
	local period_ms = tonumber(ARGV[4])
	local ttl_s     = tonumber(ARGV[5])

	local state   = redis.call('HMGET', key, 'tokens', 'refilled_ms')
	local tokens  = tonumber(state[1])
	local refills = tonumber(state[2])
	if tokens == nil or refills == nil then
		tokens  = capacity
		refills = now_ms
	end

	if period_ms > 0 and refill_n > 0 then
		local cycles = math.floor(math.max(0, now_ms - refills) / period_ms)
		if cycles > 0 then
			tokens  = math.min(capacity, tokens + cycles * refill_n)
			refills = refills + cycles * period_ms
		end
	end

	local allowed = 0
	local retry_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		retry_ms = math.max(0, period_ms - (now_ms - refills))
	end

	redis.call('HMSET', key, 'tokens', tokens, 'refilled_ms', refills)
	redis.call('EXPIRE', key, ttl_s)
	return { allowed, tokens, retry_ms }
`)

// NewTokenBucket returns a Redis-backed token bucket limiter.  It sits in
// front of the auth group (register/login are bcrypt-heavy and
// brute-forceable) and the items API.  With rate limiting disabled or Redis
// missing it becomes a pass-through, and a Redis error at request time also
// lets the request through: the limiter protects the service, it must not
// become the outage.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error { return next(c) }
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)

			res, err := tokenBucketScript.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
			).Int64Slice()
			if err != nil || len(res) != 3 {
				if cfg.Debug {
					c.Logger().Warnf("ratelimit: script failed for %s: %v", key, err)
				}
				return next(c)
			}
			allowed, remaining, retryMs := res[0] == 1, res[1], res[2]

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}

			if !allowed {
				secs := int(math.Ceil(float64(retryMs) / 1000))
				h.Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "rate limit exceeded",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

// rateKey assembles the bucket key per the configured strategy.  Identity is
// part of the key only on routes behind the JWT gate; elsewhere the user
// dimension degrades to "anon" and the IP carries the weight.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := currentUserID(c)
	route := c.Request().Method + " " + c.Path()

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "user":
		parts = append(parts, "user", uid)
	case "route":
		parts = append(parts, "route", route)
	case "ip_user":
		parts = append(parts, "ip", ip, "user", uid)
	case "ip_route":
		parts = append(parts, "ip", ip, "route", route)
	case "user_route":
		parts = append(parts, "user", uid, "route", route)
	default: // ip_user_route
		parts = append(parts, "ip", ip, "user", uid, "route", route)
	}
	return strings.Join(parts, ":")
}
