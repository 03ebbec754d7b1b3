// Package config loads application configuration from environment
// variables.
package config

import (
    "log"
    "os"
)

// Config holds the core runtime settings. Redis and cache/rate-limit
// settings are read separately (redis.go, cache.go, ratelimit.go)
// because they are optional and the service degrades gracefully
// without them.
type Config struct {
    Env       string
    Port      string
    DBUser    string
    DBPass    string
    DBHost    string // empty selects the in-memory store
    DBPort    string
    DBName    string
    JWTSecret string // secret used to verify bearer tokens
}

// Load reads configuration from the environment. The DB_* variables are
// only required when DB_HOST is set; without it the service runs on the
// in-memory store, which is intended for development only.
func Load() Config {
    cfg := Config{
        Env:       must("APP_ENV"),
        Port:      must("APP_PORT"),
        DBHost:    os.Getenv("DB_HOST"),
        DBPass:    os.Getenv("DB_PASS"),
        JWTSecret: must("JWT_SECRET"),
    }
    if cfg.DBHost != "" {
        cfg.DBUser = must("DB_USER")
        cfg.DBPort = must("DB_PORT")
        cfg.DBName = must("DB_NAME")
    }
    return cfg
}

// must exits with a fatal log message when a required variable is unset
// or empty.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}
