package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/utafrali/cartql/internal/config"
	"github.com/utafrali/cartql/internal/event"
	"github.com/utafrali/cartql/internal/handler/graphql"
	handler "github.com/utafrali/cartql/internal/handler/http"
	"github.com/utafrali/cartql/internal/money"
	"github.com/utafrali/cartql/internal/notify"
	"github.com/utafrali/cartql/internal/repository"
	"github.com/utafrali/cartql/internal/repository/memory"
	pgrepo "github.com/utafrali/cartql/internal/repository/postgres"
	redisrepo "github.com/utafrali/cartql/internal/repository/redis"
	"github.com/utafrali/cartql/internal/service"
	"github.com/utafrali/cartql/migrations"
	"github.com/utafrali/cartql/pkg/database"
	"github.com/utafrali/cartql/pkg/health"
	"github.com/utafrali/cartql/pkg/httpclient"
	pkgkafka "github.com/utafrali/cartql/pkg/kafka"
	"github.com/utafrali/cartql/pkg/middleware"
	"github.com/utafrali/cartql/pkg/tracing"
)

const serviceName = "cartql"

// processedEventTTL bounds how long consumed payment event IDs are remembered.
const processedEventTTL = 24 * time.Hour

// App wires together all dependencies and runs the cartql service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	rdb        *redis.Client
	pool       *pgxpool.Pool
	producer   *pkgkafka.Producer
	dlq        *pkgkafka.DLQProducer
	consumer   *pkgkafka.Consumer
	handler    http.Handler
	httpServer *http.Server

	cancelRouter   context.CancelFunc
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
// Resources opened before a failure are released.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: cfg.ServiceVersion,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		Insecure:       cfg.OTELInsecure,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)

	healthHandler := health.NewHandler()

	carts, err := a.cartRepository(ctx, healthHandler)
	if err != nil {
		return nil, err
	}
	orders, err := a.orderRepository(ctx, healthHandler)
	if err != nil {
		return nil, err
	}

	// Events go to Kafka when enabled; otherwise they are dropped.
	var publisher event.Publisher = event.NoopPublisher{}
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewProducer(a.producer, logger)
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	defaultCurrency := money.MustLookup(cfg.DefaultCurrency)
	cartService := service.NewCartService(carts, publisher, defaultCurrency, logger)
	checkoutService := service.NewCheckoutService(carts, orders, publisher, a.notifier(), logger)
	orderService := service.NewOrderService(orders, publisher, logger)

	if cfg.PaymentConsumerEnabled {
		a.consumer = a.paymentConsumer(orderService)
	}

	schema, err := graphql.NewSchema(graphql.NewResolver(cartService, checkoutService, orderService, logger), logger)
	if err != nil {
		return nil, fmt.Errorf("parse graphql schema: %w", err)
	}

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	cors.Environment = cfg.Environment

	routerCtx, cancelRouter := context.WithCancel(context.Background())
	a.cancelRouter = cancelRouter
	a.handler = handler.NewRouter(routerCtx, handler.RouterConfig{
		Carts:          cartService,
		Checkout:       checkoutService,
		Orders:         orderService,
		GraphQL:        graphql.NewHandler(schema, logger),
		Health:         healthHandler,
		Logger:         logger,
		CORS:           cors,
		PprofCIDRs:     cfg.PprofAllowedCIDRs,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return a, nil
}

func (a *App) cartRepository(ctx context.Context, hh *health.Handler) (repository.CartRepository, error) {
	if a.cfg.CartStore != config.StoreRedis {
		a.logger.Info("using in-memory cart store")
		return memory.NewCartRepository(), nil
	}

	redisCfg := database.DefaultRedisConfig()
	redisCfg.Host = a.cfg.RedisHost
	redisCfg.Port = a.cfg.RedisPort
	redisCfg.Password = a.cfg.RedisPassword
	redisCfg.DB = a.cfg.RedisDB
	redisCfg.PoolSize = a.cfg.RedisPoolSize

	rdb, err := database.NewRedisClient(ctx, redisCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.rdb = rdb
	database.RegisterRedisPoolMetrics(rdb, serviceName)
	hh.RegisterCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	a.logger.Info("connected to Redis",
		slog.String("addr", redisCfg.Addr()),
		slog.Int("db", redisCfg.DB),
	)

	return redisrepo.NewCartRepository(rdb, a.cfg.CartTTLDuration()), nil
}

func (a *App) orderRepository(ctx context.Context, hh *health.Handler) (repository.OrderRepository, error) {
	if a.cfg.OrderStore != config.StorePostgres {
		a.logger.Info("using in-memory order store")
		return memory.NewOrderRepository(), nil
	}

	pgCfg := database.PostgresConfig{
		Host:            a.cfg.PostgresHost,
		Port:            a.cfg.PostgresPort,
		User:            a.cfg.PostgresUser,
		Password:        a.cfg.PostgresPassword,
		DBName:          a.cfg.PostgresDB,
		SSLMode:         a.cfg.PostgresSSLMode,
		MaxConns:        a.cfg.DBMaxConns,
		MinConns:        a.cfg.DBMinConns,
		MaxConnLifetime: a.cfg.DBMaxConnLifetime,
		MaxConnIdleTime: a.cfg.DBMaxConnIdleTime,
	}
	pool, err := database.NewPostgresPool(ctx, &pgCfg, a.logger)
	if err != nil {
		return nil, err
	}
	a.pool = pool
	a.logger.Info("connected to PostgreSQL",
		slog.String("host", pgCfg.Host),
		slog.String("database", pgCfg.DBName),
	)

	if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	database.RegisterPoolMetrics(pool, serviceName)
	hh.RegisterCritical("postgres", pool.Ping)

	return pgrepo.NewOrderRepository(pool), nil
}

// notifier returns the webhook notifier, guarded by retries and a circuit
// breaker, or a no-op when no webhook URL is configured.
func (a *App) notifier() notify.Notifier {
	if a.cfg.OrderWebhookURL == "" {
		return notify.NoopNotifier{}
	}

	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = a.cfg.WebhookTimeout
	clientCfg.MaxRetries = a.cfg.WebhookMaxRetries

	cbCfg := httpclient.DefaultCircuitBreakerConfig("order-webhook")
	cbCfg.MaxRequests = a.cfg.CBMaxRequests
	cbCfg.Interval = a.cfg.CBInterval
	cbCfg.Timeout = a.cfg.CBTimeout
	cbCfg.FailureRatio = a.cfg.CBFailureRatio
	cbCfg.MinRequests = a.cfg.CBMinRequests

	client := httpclient.NewCircuitBreakerClient(httpclient.New(clientCfg), cbCfg, a.logger)
	a.logger.Info("order webhook enabled")
	return notify.NewWebhookNotifier(a.cfg.OrderWebhookURL, client, a.logger)
}

// paymentConsumer builds the payment.completed consumer. Processed event IDs
// are shared through Redis when the cart store uses it.
func (a *App) paymentConsumer(orders *service.OrderService) *pkgkafka.Consumer {
	var store pkgkafka.IdempotencyStore = pkgkafka.NewMemoryIdempotencyStore(processedEventTTL)
	if a.rdb != nil {
		store = pkgkafka.NewRedisIdempotencyStore(a.rdb, processedEventTTL)
	}

	payments := event.NewPaymentConsumer(orders, a.logger)
	a.dlq = pkgkafka.NewDLQProducer(a.cfg.KafkaBrokers, a.logger)

	return pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
		Brokers:  a.cfg.KafkaBrokers,
		GroupID:  a.cfg.PaymentConsumerGroup,
		Topic:    event.TopicPaymentCompleted,
		MinBytes: 1,
		MaxBytes: 10e6,
	}, pkgkafka.IdempotentHandler(store, payments.HandlePaymentCompleted, a.logger), a.logger).WithDLQ(a.dlq)
}

// Handler returns the HTTP handler serving the API.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run starts the HTTP server and, when enabled, the payment consumer. It
// blocks until ctx is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.consumer != nil {
		g.Go(func() error {
			return a.consumer.Start(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutdown signal received")
		return a.Shutdown()
	})

	return g.Wait()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}
	a.close()

	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(shutdownCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}

	a.logger.Info("application shutdown complete")
	return nil
}

// close releases every client the app opened.
func (a *App) close() {
	if a.cancelRouter != nil {
		a.cancelRouter()
	}
	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("kafka dlq close error", slog.String("error", err.Error()))
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
}
