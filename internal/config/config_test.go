package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "memory", cfg.CacheBackend)
	assert.Equal(t, "/login", cfg.LoginURL)
	assert.Equal(t, 10, cfg.RecentViewsLimit)
	assert.False(t, cfg.KafkaEnabled())
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()

	require.Error(t, err)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STOREFRONT_HTTP_PORT", "70000")

	_, err := Load()

	require.Error(t, err)
}

func TestLoad_InvalidCacheBackend(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("CACHE_BACKEND", "memcached")

	_, err := Load()

	require.Error(t, err)
}

func TestLoad_AllowedOrigins(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("ALLOWED_ORIGINS", "https://shop.example.com,https://admin.example.com")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORSOrigins())
}

func TestLoad_AllowedOriginsDefaultEmpty(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Empty(t, cfg.CORSOrigins())
}

func TestLoad_KafkaBrokers(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092,broker-2:9092")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
}
