package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, StoreMemory, cfg.CartStore)
	assert.Equal(t, StoreMemory, cfg.OrderStore)
	assert.Equal(t, "USD", cfg.DefaultCurrency)
	assert.Equal(t, 168, cfg.CartTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.CartTTLDuration())
	assert.Equal(t, 200*time.Millisecond, cfg.SlowQueryThreshold())
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Empty(t, cfg.PprofAllowedCIDRs)
}

func TestLoad_CustomStores(t *testing.T) {
	t.Setenv("CART_STORE", "redis")
	t.Setenv("ORDER_STORE", "postgres")
	t.Setenv("REDIS_HOST", "redis.prod")
	t.Setenv("POSTGRES_DB", "orders")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, StoreRedis, cfg.CartStore)
	assert.Equal(t, StorePostgres, cfg.OrderStore)
	assert.Equal(t, "redis.prod", cfg.RedisHost)
	assert.Equal(t, "orders", cfg.PostgresDB)
}

func TestLoad_KafkaBrokersList(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"port zero", "CARTQL_HTTP_PORT", "0", "invalid HTTP port"},
		{"port too high", "CARTQL_HTTP_PORT", "70000", "invalid HTTP port"},
		{"unknown cart store", "CART_STORE", "mongo", "CART_STORE"},
		{"unknown order store", "ORDER_STORE", "redis", "ORDER_STORE"},
		{"non positive ttl", "CART_TTL_HOURS", "0", "CART_TTL_HOURS"},
		{"unknown currency", "DEFAULT_CURRENCY", "XYZ", "DEFAULT_CURRENCY"},
		{"relative webhook", "ORDER_WEBHOOK_URL", "/hooks", "ORDER_WEBHOOK_URL"},
		{"webhook scheme", "ORDER_WEBHOOK_URL", "ftp://hooks.example.com", "ORDER_WEBHOOK_URL"},
		{"breaker ratio", "CB_FAILURE_RATIO", "1.5", "CB_FAILURE_RATIO"},
		{"negative rps", "RATE_LIMIT_RPS", "-1", "RATE_LIMIT_RPS"},
		{"zero burst", "RATE_LIMIT_BURST", "0", "RATE_LIMIT_BURST"},
		{"sample rate", "OTEL_SAMPLE_RATE", "2.0", "OTEL_SAMPLE_RATE must be between 0.0 and 1.0"},
		{"min conns", "DB_MIN_CONNS", "50", "DB_MIN_CONNS"},
		{"bad type", "CARTQL_HTTP_PORT", "abc", "parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_RateLimitDisabledAllowsZeroBurst(t *testing.T) {
	t.Setenv("RATE_LIMIT_RPS", "0")
	t.Setenv("RATE_LIMIT_BURST", "0")

	_, err := Load()

	assert.NoError(t, err)
}

func TestLoad_WebhookURL(t *testing.T) {
	t.Setenv("ORDER_WEBHOOK_URL", "https://hooks.example.com/orders")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "https://hooks.example.com/orders", cfg.OrderWebhookURL)
}
