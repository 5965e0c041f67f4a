package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 5*time.Second, cfg.HandlerTimeout)
	assert.Equal(t, 2*time.Second, cfg.SendTimeout)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("VISITFLOW_ADDR", ":9090")
	t.Setenv("VISITFLOW_DB_URL", "postgres://localhost/visitflow")
	t.Setenv("VISITFLOW_HANDLER_TIMEOUT", "10s")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "postgres://localhost/visitflow", cfg.DatabaseURL)
	assert.Equal(t, 10*time.Second, cfg.HandlerTimeout)
}

func TestFromEnvIgnoresMalformedDuration(t *testing.T) {
	t.Setenv("VISITFLOW_SEND_TIMEOUT", "soon")

	assert.Equal(t, 2*time.Second, FromEnv().SendTimeout)
}
