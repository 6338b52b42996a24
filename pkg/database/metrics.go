package database

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

type statMetric[S any] struct {
	desc  *prometheus.Desc
	kind  prometheus.ValueType
	value func(S) float64
}

func newStatMetric[S any](name, help string, kind prometheus.ValueType, value func(S) float64) statMetric[S] {
	return statMetric[S]{
		desc:  prometheus.NewDesc(name, help, []string{"service"}, nil),
		kind:  kind,
		value: value,
	}
}

// PoolStatsCollector exports pgxpool statistics as Prometheus metrics.
type PoolStatsCollector struct {
	pool    *pgxpool.Pool
	service string
	metrics []statMetric[*pgxpool.Stat]
}

// NewPoolStatsCollector creates a collector for pool. Describe works with a
// nil pool; Collect does not.
func NewPoolStatsCollector(pool *pgxpool.Pool, service string) *PoolStatsCollector {
	g, c := prometheus.GaugeValue, prometheus.CounterValue
	return &PoolStatsCollector{
		pool:    pool,
		service: service,
		metrics: []statMetric[*pgxpool.Stat]{
			newStatMetric("db_pool_acquired_connections", "Number of currently acquired connections", g,
				func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }),
			newStatMetric("db_pool_idle_connections", "Number of currently idle connections", g,
				func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }),
			newStatMetric("db_pool_total_connections", "Total number of connections in the pool", g,
				func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }),
			newStatMetric("db_pool_max_connections", "Maximum number of connections allowed", g,
				func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) }),
			newStatMetric("db_pool_acquire_count_total", "Total number of connection acquires", c,
				func(s *pgxpool.Stat) float64 { return float64(s.AcquireCount()) }),
			newStatMetric("db_pool_acquire_duration_seconds_total", "Total time spent acquiring connections", c,
				func(s *pgxpool.Stat) float64 { return s.AcquireDuration().Seconds() }),
			newStatMetric("db_pool_empty_acquire_count_total", "Acquires that had to wait for a connection", c,
				func(s *pgxpool.Stat) float64 { return float64(s.EmptyAcquireCount()) }),
			newStatMetric("db_pool_canceled_acquire_count_total", "Acquires canceled by their context", c,
				func(s *pgxpool.Stat) float64 { return float64(s.CanceledAcquireCount()) }),
		},
	}
}

// Describe implements prometheus.Collector.
func (c *PoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

// Collect implements prometheus.Collector.
func (c *PoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stat := c.pool.Stat()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.kind, m.value(stat), c.service)
	}
}

// RedisPoolStatsCollector exports go-redis connection pool statistics.
type RedisPoolStatsCollector struct {
	client  redis.UniversalClient
	service string
	metrics []statMetric[*redis.PoolStats]
}

// NewRedisPoolStatsCollector creates a collector for client.
func NewRedisPoolStatsCollector(client redis.UniversalClient, service string) *RedisPoolStatsCollector {
	g, c := prometheus.GaugeValue, prometheus.CounterValue
	return &RedisPoolStatsCollector{
		client:  client,
		service: service,
		metrics: []statMetric[*redis.PoolStats]{
			newStatMetric("redis_pool_hits_total", "Free connections found in the pool", c,
				func(s *redis.PoolStats) float64 { return float64(s.Hits) }),
			newStatMetric("redis_pool_misses_total", "Free connections not found in the pool", c,
				func(s *redis.PoolStats) float64 { return float64(s.Misses) }),
			newStatMetric("redis_pool_timeouts_total", "Waits for a connection that timed out", c,
				func(s *redis.PoolStats) float64 { return float64(s.Timeouts) }),
			newStatMetric("redis_pool_total_connections", "Total connections in the pool", g,
				func(s *redis.PoolStats) float64 { return float64(s.TotalConns) }),
			newStatMetric("redis_pool_idle_connections", "Idle connections in the pool", g,
				func(s *redis.PoolStats) float64 { return float64(s.IdleConns) }),
		},
	}
}

// Describe implements prometheus.Collector.
func (c *RedisPoolStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.metrics {
		ch <- m.desc
	}
}

// Collect implements prometheus.Collector.
func (c *RedisPoolStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stat := c.client.PoolStats()
	for _, m := range c.metrics {
		ch <- prometheus.MustNewConstMetric(m.desc, m.kind, m.value(stat), c.service)
	}
}

// RegisterPoolMetrics registers the pgxpool collector with the default registry.
func RegisterPoolMetrics(pool *pgxpool.Pool, service string) {
	prometheus.MustRegister(NewPoolStatsCollector(pool, service))
}

// RegisterRedisPoolMetrics registers the go-redis collector with the default registry.
func RegisterRedisPoolMetrics(client redis.UniversalClient, service string) {
	prometheus.MustRegister(NewRedisPoolStatsCollector(client, service))
}
