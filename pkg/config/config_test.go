package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "storefront", cfg.ServiceName)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "memory", cfg.Session.Backend)
	assert.Equal(t, "session_id", cfg.Session.Cookie)
	assert.Equal(t, 5*time.Second, cfg.Checkout.Timeout)
	assert.Equal(t, "orders.placed", cfg.Kafka.Topic)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("STOREFRONT_STORE_BACKEND", "postgres")
	t.Setenv("STOREFRONT_DATABASE_DSN", "postgres://shop@localhost/shop")
	t.Setenv("STOREFRONT_CHECKOUT_TIMEOUT", "2s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Store.Backend)
	assert.Equal(t, "postgres://shop@localhost/shop", cfg.Database.DSN)
	assert.Equal(t, 2*time.Second, cfg.Checkout.Timeout)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	content := "session:\n  backend: redis\nredis:\n  addr: localhost:6379\nsmtp:\n  host: mail.local\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.Session.Backend)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "mail.local", cfg.SMTP.Host)
	assert.Equal(t, 587, cfg.SMTP.Port)
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := &Config{
		Store:    StoreConfig{Backend: "postgres"},
		Session:  SessionConfig{Backend: "redis"},
		Checkout: CheckoutConfig{Timeout: 0},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service_name")
	assert.Contains(t, err.Error(), "database.dsn")
	assert.Contains(t, err.Error(), "redis.addr")
	assert.Contains(t, err.Error(), "checkout.timeout")
}
