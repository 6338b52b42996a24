package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/cartql/internal/domain"
	"github.com/utafrali/cartql/pkg/database"
	apperrors "github.com/utafrali/cartql/pkg/errors"
)

const keyPrefix = "cart:"

// saveIfVersionScript writes ARGV[2] to KEYS[1] only when the stored cart's
// version equals ARGV[1] (0 meaning the key must be absent). ARGV[3] is the
// TTL in milliseconds, 0 for none.
var saveIfVersionScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
local expected = tonumber(ARGV[1])
if cur then
  local stored = cjson.decode(cur)
  if tonumber(stored['version']) ~= expected then
    return 0
  end
elseif expected ~= 0 then
  return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
  redis.call('SET', KEYS[1], ARGV[2], 'PX', ttl)
else
  redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// CartRepository implements repository.CartRepository using Redis. Carts
// are stored as JSON under cart:{id} and expire after ttl of inactivity.
type CartRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewCartRepository creates a new Redis-backed cart repository.
func NewCartRepository(client redis.UniversalClient, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
	}
}

func key(id string) string { return keyPrefix + id }

// Get retrieves a cart by id from Redis.
func (r *CartRepository) Get(ctx context.Context, id string) (_ *domain.Cart, err error) {
	ctx, end := database.TraceOperation(ctx, database.SystemRedis, "GetCart", "GET cart:{id}")
	defer func() { end(err) }()

	data, err := r.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart", id)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}

	return &cart, nil
}

// SaveIfVersion atomically replaces the stored cart when its version matches
// expectedVersion. Every successful save refreshes the TTL.
func (r *CartRepository) SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int64) (_ bool, err error) {
	ctx, end := database.TraceOperation(ctx, database.SystemRedis, "SaveCart", "EVALSHA save_if_version cart:{id}")
	defer func() { end(err) }()

	next := *cart
	next.Version = expectedVersion + 1
	data, err := json.Marshal(&next)
	if err != nil {
		return false, fmt.Errorf("marshal cart: %w", err)
	}

	res, err := saveIfVersionScript.Run(ctx, r.client,
		[]string{key(cart.ID)},
		expectedVersion, data, r.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("redis save cart: %w", err)
	}
	if res != 1 {
		return false, nil
	}

	cart.Version = next.Version
	return true, nil
}

// Delete removes a cart from Redis by id.
func (r *CartRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceOperation(ctx, database.SystemRedis, "DeleteCart", "DEL cart:{id}")
	defer func() { end(err) }()

	n, err := r.client.Del(ctx, key(id)).Result()
	if err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("cart", id)
	}

	return nil
}
