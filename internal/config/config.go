// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
)

// Config carries the settings the server cannot run without.  Two separate
// secrets are deliberate: JWTSecret signs the short-lived access tokens,
// RefreshSecret keys the HMAC under which refresh tokens sit in the
// database.  Compromise of one does not expose the other.
type Config struct {
	Env            string // dev / test / prod
	Port           string // HTTP listen port
	DBUser         string
	DBPass         string // may be empty for local setups
	DBHost         string
	DBPort         string
	DBName         string
	JWTSecret      string // access-token signing key
	RefreshSecret  string // refresh-token HMAC key
	AccessTTLMin   int    // access token lifetime, minutes
	RefreshTTLDays int    // refresh token lifetime, days
	BcryptCost     int    // cost factor for password hashing
}

// Load reads the environment.  Every required variable is enforced by must;
// a missing one is a configuration error and the process exits immediately
// rather than limping along half-configured.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		RefreshSecret:  must("REFRESH_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
	}
}

// must returns the value of a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is must with an integer conversion.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
