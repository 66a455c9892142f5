package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.App.Addr)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "memory", cfg.Storage.CartBackend)
	assert.Equal(t, 3*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
	assert.True(t, cfg.Identity.TrustHeaders)
	assert.False(t, cfg.UsesRedis())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("CART_BACKEND", "redis")
	t.Setenv("CATALOG_BASE_URL", "http://catalog.local/")
	t.Setenv("CATALOG_TIMEOUT", "750ms")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Backend)
	assert.Equal(t, "http://catalog.local", cfg.Catalog.BaseURL)
	assert.Equal(t, 750*time.Millisecond, cfg.Catalog.Timeout)
	assert.Equal(t, "k1:9092,k2:9092", cfg.Kafka.Brokers)
	assert.True(t, cfg.UsesRedis())
}

func TestLoadRejectsInvalidBackends(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"storage", map[string]string{"STORAGE_BACKEND": "mongo"}},
		{"cart", map[string]string{"CART_BACKEND": "disk"}},
		{"pg cart without pg storage", map[string]string{"CART_BACKEND": "postgres"}},
		{"idempotency", map[string]string{"IDEMPOTENCY_BACKEND": "etcd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := load(viper.New())
			assert.Error(t, err)
		})
	}
}
