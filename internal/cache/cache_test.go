package cache_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"rice-mill/internal/cache"
)

type summary struct {
	Revenue string `json:"revenue"`
	Count   int    `json:"count"`
}

func TestCache_DisabledAlwaysLoads(t *testing.T) {
	ctx := context.Background()
	c := cache.New(nil, "test", time.Minute)
	if c.Enabled() {
		t.Fatal("Expected a nil client to disable the cache")
	}

	calls := 0
	load := func(context.Context) (summary, error) {
		calls++
		return summary{Revenue: "100.00", Count: calls}, nil
	}
	for range 2 {
		got, cacheErr, err := cache.GetOrLoad(ctx, c, "dashboard", load)
		if err != nil || cacheErr != nil {
			t.Fatalf("GetOrLoad: err=%v cacheErr=%v", err, cacheErr)
		}
		if got.Revenue != "100.00" {
			t.Errorf("Expected revenue 100.00, got %s", got.Revenue)
		}
	}
	if calls != 2 {
		t.Errorf("Expected loader to run twice without a cache, got %d", calls)
	}
	if err := c.InvalidateAll(ctx); err != nil {
		t.Errorf("InvalidateAll on disabled cache: %v", err)
	}
}

func TestCache_LoadErrorIsReturned(t *testing.T) {
	c := cache.New(nil, "test", time.Minute)
	boom := errors.New("boom")
	_, _, err := cache.GetOrLoad(context.Background(), c, "k", func(context.Context) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Expected loader error, got %v", err)
	}
}

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	_ = godotenv.Load("../../.env")
	addr := os.Getenv("TEST_REDIS_ADDRESS")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDRESS not set, skipping Redis integration test")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not reachable at %s: %v", addr, err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestCache_RedisHitAndInvalidate(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()
	prefix := "rice-mill-test-" + time.Now().Format("150405.000000")
	c := cache.New(client, prefix, time.Minute)

	calls := 0
	load := func(context.Context) (summary, error) {
		calls++
		return summary{Revenue: "250.50", Count: calls}, nil
	}

	first, _, err := cache.GetOrLoad(ctx, c, "pl", load)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	second, cacheErr, err := cache.GetOrLoad(ctx, c, "pl", load)
	if err != nil || cacheErr != nil {
		t.Fatalf("second load: err=%v cacheErr=%v", err, cacheErr)
	}
	if calls != 1 {
		t.Errorf("Expected one loader call, got %d", calls)
	}
	if second != first {
		t.Errorf("Expected cached %+v, got %+v", first, second)
	}

	if err := c.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll: %v", err)
	}
	third, _, _ := cache.GetOrLoad(ctx, c, "pl", load)
	if calls != 2 || third.Count != 2 {
		t.Errorf("Expected reload after invalidation, calls=%d count=%d", calls, third.Count)
	}
	_ = c.InvalidateAll(ctx)
}
