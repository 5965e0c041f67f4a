// Package config loads process configuration from the environment so main
// stays lean.
package config

import (
	"os"
	"time"
)

// Server captures everything cmd/server needs to wire the process.
type Server struct {
	// Addr is the HTTP listen address.
	Addr string
	// DatabaseURL selects the registry backend: a Postgres DSN, or empty for
	// the in-memory store.
	DatabaseURL string
	// HandlerTimeout bounds every command and query against the registry.
	HandlerTimeout time.Duration
	// SendTimeout bounds a single broadcast write to one hub client.
	SendTimeout time.Duration
}

// FromEnv builds a Server config from environment variables with defaults
// suitable for local development.
func FromEnv() Server {
	return Server{
		Addr:           envOr("VISITFLOW_ADDR", ":8080"),
		DatabaseURL:    os.Getenv("VISITFLOW_DB_URL"),
		HandlerTimeout: envDuration("VISITFLOW_HANDLER_TIMEOUT", 5*time.Second),
		SendTimeout:    envDuration("VISITFLOW_SEND_TIMEOUT", 2*time.Second),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
