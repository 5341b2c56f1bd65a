package storage

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/mlozan/sales-ops/internal/core/domain"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return client
}

func seedStock(t *testing.T, ledger *RedisLedger, productID string, stock int) {
	t.Helper()
	err := ledger.SyncStock(context.Background(), []domain.Product{{ID: productID, Stock: stock}})
	if err != nil {
		t.Fatalf("seed stock: %v", err)
	}
}

func TestRedisLedger_Reserve(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	ledger := NewRedisLedger(client)

	client.Del(ctx, "stock:test-item")
	seedStock(t, ledger, "test-item", 10)

	if err := ledger.Reserve(ctx, "test-item", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stock, _ := client.Get(ctx, "stock:test-item").Int()
	if stock != 7 {
		t.Errorf("expected stock 7, got %d", stock)
	}
}

func TestRedisLedger_ReserveInsufficient(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	ledger := NewRedisLedger(client)

	client.Del(ctx, "stock:test-item")
	seedStock(t, ledger, "test-item", 5)

	err := ledger.Reserve(ctx, "test-item", 10)
	if !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	// Stock unchanged.
	stock, _ := client.Get(ctx, "stock:test-item").Int()
	if stock != 5 {
		t.Errorf("expected stock 5, got %d", stock)
	}
}

func TestRedisLedger_ReserveUnknownProduct(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	ledger := NewRedisLedger(client)

	client.Del(ctx, "stock:nonexistent")

	if err := ledger.Reserve(ctx, "nonexistent", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := ledger.CheckAvailability(ctx, "nonexistent", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound from availability check, got %v", err)
	}
}

func TestRedisLedger_CheckAvailability(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	ledger := NewRedisLedger(client)

	client.Del(ctx, "stock:test-item")
	seedStock(t, ledger, "test-item", 4)

	shortfall, err := ledger.CheckAvailability(ctx, "test-item", 4)
	if err != nil || shortfall != 0 {
		t.Errorf("expected no shortfall, got %d (err %v)", shortfall, err)
	}

	shortfall, err = ledger.CheckAvailability(ctx, "test-item", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if shortfall != 3 {
		t.Errorf("expected shortfall 3, got %d", shortfall)
	}
}

func TestRedisLedger_Release(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	ledger := NewRedisLedger(client)

	client.Del(ctx, "stock:test-item")
	seedStock(t, ledger, "test-item", 5)

	if err := ledger.Release(ctx, "test-item", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stock, _ := client.Get(ctx, "stock:test-item").Int()
	if stock != 8 {
		t.Errorf("expected stock 8, got %d", stock)
	}
}

func TestRedisLedger_ConcurrentReserve(t *testing.T) {
	client := getRedisClient(t)
	defer client.Close()

	ctx := context.Background()
	ledger := NewRedisLedger(client)

	initialStock := 20
	totalRequests := 50

	client.Del(ctx, "stock:concurrent-test")
	seedStock(t, ledger, "concurrent-test", initialStock)

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := ledger.Reserve(ctx, "concurrent-test", 1)
			if err == nil {
				successCount.Add(1)
				return
			}
			if !errors.Is(err, domain.ErrInsufficientStock) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()

	if successCount.Load() != int32(initialStock) {
		t.Errorf("expected %d successes, got %d", initialStock, successCount.Load())
	}

	stock, _ := client.Get(ctx, "stock:concurrent-test").Int()
	if stock != 0 {
		t.Errorf("expected stock 0, got %d", stock)
	}
}
