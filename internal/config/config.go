package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/utafrali/cartql/internal/money"
	pkgconfig "github.com/utafrali/cartql/pkg/config"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds all configuration for the cartql service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CARTQL_HTTP_PORT" envDefault:"8080"`

	// Storage backends
	CartStore  string `env:"CART_STORE" envDefault:"memory"`
	OrderStore string `env:"ORDER_STORE" envDefault:"memory"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`

	// Cart TTL in hours (default: 7 days). Only applies to the redis store.
	CartTTL int `env:"CART_TTL_HOURS" envDefault:"168"`

	// PostgreSQL
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"cartql"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"cartql"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"cartql"`
	PostgresSSLMode  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	DBMaxConns        int32         `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns        int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	LogSlowQueryMS    int           `env:"LOG_SLOW_QUERY_MS" envDefault:"200"`

	// Kafka
	KafkaEnabled           bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers           []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	PaymentConsumerEnabled bool     `env:"PAYMENT_CONSUMER_ENABLED" envDefault:"false"`
	PaymentConsumerGroup   string   `env:"PAYMENT_CONSUMER_GROUP" envDefault:"cartql-payments"`

	// Order webhook
	OrderWebhookURL   string        `env:"ORDER_WEBHOOK_URL" envDefault:""`
	WebhookTimeout    time.Duration `env:"ORDER_WEBHOOK_TIMEOUT" envDefault:"10s"`
	WebhookMaxRetries int           `env:"ORDER_WEBHOOK_MAX_RETRIES" envDefault:"3"`

	// Circuit breaker guarding the webhook
	CBMaxRequests  uint32        `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     time.Duration `env:"CB_INTERVAL" envDefault:"60s"`
	CBTimeout      time.Duration `env:"CB_TIMEOUT" envDefault:"30s"`
	CBFailureRatio float64       `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32        `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Carts created without an explicit currency use this code.
	DefaultCurrency string `env:"DEFAULT_CURRENCY" envDefault:"USD"`

	// Per-IP rate limiting. RPS 0 disables it.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"100"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	PprofAllowedCIDRs  []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELInsecure   bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
	ServiceVersion string  `env:"SERVICE_VERSION" envDefault:"dev"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load cartql config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CartTTLDuration returns the cart expiry as a duration.
func (c *Config) CartTTLDuration() time.Duration {
	return time.Duration(c.CartTTL) * time.Hour
}

// SlowQueryThreshold returns the slow query log threshold. Zero disables it.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.LogSlowQueryMS) * time.Millisecond
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.CartStore {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("CART_STORE must be %q or %q, got %q", StoreMemory, StoreRedis, c.CartStore)
	}
	switch c.OrderStore {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("ORDER_STORE must be %q or %q, got %q", StoreMemory, StorePostgres, c.OrderStore)
	}
	if c.CartTTL < 1 {
		return fmt.Errorf("CART_TTL_HOURS must be positive, got %d", c.CartTTL)
	}
	if !money.IsSupported(c.DefaultCurrency) {
		return fmt.Errorf("DEFAULT_CURRENCY %q is not a supported currency code", c.DefaultCurrency)
	}
	if (c.KafkaEnabled || c.PaymentConsumerEnabled) && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when Kafka is enabled")
	}
	if c.OrderWebhookURL != "" {
		u, err := url.Parse(c.OrderWebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("ORDER_WEBHOOK_URL must be an absolute http(s) URL, got %q", c.OrderWebhookURL)
		}
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0.0, 1.0], got %v", c.CBFailureRatio)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative, got %v", c.RateLimitRPS)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be positive when rate limiting is enabled")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.OTELSampleRate)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
