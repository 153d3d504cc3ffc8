package config

import "time"

// CacheConfig defines settings for the item-list response cache middleware.
// When Enabled is false or no Redis client is configured, caching is disabled.
// Entries are always scoped per authenticated user because every cached route
// returns caller-private data; TTL bounds staleness between the write-path
// invalidation calls.  Prefix namespaces keys and MaxBodyBytes caps the size
// of responses worth caching.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* environment variables, with defaults.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
