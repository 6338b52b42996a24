package service

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// maxSaveRetries is how many times a mutation is retried after losing an
// optimistic version check before it fails with Conflict.
const maxSaveRetries = 3

var (
	cartMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cartql_cart_mutations_total",
			Help: "Cart mutations by operation and result.",
		},
		[]string{"operation", "result"},
	)
	cartConflictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cartql_cart_version_conflicts_total",
			Help: "Optimistic version conflicts hit while saving carts.",
		},
		[]string{"operation"},
	)
	checkoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cartql_checkouts_total",
			Help: "Checkout attempts by result.",
		},
		[]string{"result"},
	)
	orderStatusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cartql_order_status_transitions_total",
			Help: "Order status transitions by target status.",
		},
		[]string{"status"},
	)
)

// Option configures a service.
type Option func(*options)

type options struct {
	now func() time.Time
}

func defaultOptions() options {
	return options{now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

const lockStripes = 256

// stripedLock serializes work per key within the process using a fixed set
// of mutexes.
type stripedLock struct {
	stripes [lockStripes]sync.Mutex
}

func (l *stripedLock) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	m := &l.stripes[h.Sum32()%lockStripes]
	m.Lock()
	return m.Unlock
}
