// Command seed fills a running cartql instance with sample carts and orders
// through its REST API.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	pkgconfig "github.com/utafrali/cartql/pkg/config"
	"github.com/utafrali/cartql/pkg/httpclient"
	"github.com/utafrali/cartql/pkg/logger"
)

type config struct {
	APIURL        string        `env:"SEED_API_URL" envDefault:"http://localhost:8080"`
	Carts         int           `env:"SEED_CARTS" envDefault:"50"`
	CheckoutRatio float64       `env:"SEED_CHECKOUT_RATIO" envDefault:"0.4"`
	PaidRatio     float64       `env:"SEED_PAID_RATIO" envDefault:"0.5"`
	Concurrency   int           `env:"SEED_CONCURRENCY" envDefault:"8"`
	RandSeed      uint64        `env:"SEED_RAND_SEED" envDefault:"42"`
	Timeout       time.Duration `env:"SEED_TIMEOUT" envDefault:"2m"`
	LogLevel      string        `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	var cfg config
	if err := pkgconfig.Load(&cfg); err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New("cartql-seed", cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx, cancelTimeout := context.WithTimeout(ctx, cfg.Timeout)
	defer cancelTimeout()

	clientCfg := httpclient.DefaultConfig()
	clientCfg.UserAgent = "cartql-seed"
	s := newSeeder(cfg, httpclient.New(clientCfg), log)

	stats, err := s.Run(ctx)
	if err != nil {
		log.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("seeding complete",
		slog.Int("carts", stats.Carts),
		slog.Int("items", stats.Items),
		slog.Int("orders", stats.Orders),
		slog.Int("paid", stats.Paid),
	)
}
