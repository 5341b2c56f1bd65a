package storage

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/mlozan/sales-ops/internal/core/domain"
)

const stockKeyPrefix = "stock:"

// Atomic check-and-decrement. Returns -1 when the key is unknown, 1 on
// success and 0 when stock cannot cover the quantity.
var reserveScript = redis.NewScript(`
local key = KEYS[1]
local quantity = tonumber(ARGV[1])

local current = redis.call('GET', key)
if not current then
	return -1
end

current = tonumber(current)
if current >= quantity then
	redis.call('DECRBY', key, quantity)
	return 1
end

return 0
`)

// RedisLedger keeps stock counters in Redis for the hot path. Counters are
// seeded from the catalog at boot via SyncStock; the Lua script makes each
// reservation a single atomic step on the Redis side.
type RedisLedger struct {
	client *redis.Client
}

func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

func (l *RedisLedger) CheckAvailability(ctx context.Context, productID string, quantity int) (int, error) {
	stock, err := l.client.Get(ctx, stockKeyPrefix+productID).Int()
	if err == redis.Nil {
		return 0, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("read stock: %w", err)
	}
	if stock < quantity {
		return quantity - stock, nil
	}
	return 0, nil
}

func (l *RedisLedger) Reserve(ctx context.Context, productID string, quantity int) error {
	result, err := reserveScript.Run(ctx, l.client, []string{stockKeyPrefix + productID}, quantity).Int()
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}
	switch result {
	case 1:
		return nil
	case -1:
		return fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	default:
		return fmt.Errorf("product %s: %w", productID, domain.ErrInsufficientStock)
	}
}

func (l *RedisLedger) Release(ctx context.Context, productID string, quantity int) error {
	return l.client.IncrBy(ctx, stockKeyPrefix+productID, int64(quantity)).Err()
}

// SyncStock overwrites the counters with the catalog's current stock. Called
// once at startup before the ledger takes any traffic.
func (l *RedisLedger) SyncStock(ctx context.Context, products []domain.Product) error {
	for _, p := range products {
		if err := l.client.Set(ctx, stockKeyPrefix+p.ID, p.Stock, 0).Err(); err != nil {
			return fmt.Errorf("seed stock for %s: %w", p.ID, err)
		}
	}
	return nil
}
