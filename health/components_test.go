package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/productsearch/aggregate"
	"github.com/jonwraymond/productsearch/cache"
	"github.com/jonwraymond/productsearch/catalog"
)

func TestStoreChecker(t *testing.T) {
	store, err := cache.NewMemoryStore(cache.WithPolicy(cache.Policy{TTL: time.Hour, StaleAfter: time.Minute}))
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Set(ctx, "door", aggregate.Result{Query: "door"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	store.Get(ctx, "door")
	store.Get(ctx, "hinge")

	result := NewStoreChecker(store).Check(ctx)
	if result.Status != StatusHealthy {
		t.Fatalf("Status = %v, want healthy", result.Status)
	}
	if result.Details["keys"] != 1 || result.Details["hits"] != int64(1) || result.Details["misses"] != int64(1) {
		t.Errorf("Details = %v", result.Details)
	}
	if result.Details["ttl"] != "1h0m0s" {
		t.Errorf("ttl = %v", result.Details["ttl"])
	}
}

func TestRedisChecker_Unreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewRedisChecker(client)
	if c.Name() != "redis" {
		t.Errorf("Name() = %q", c.Name())
	}
	result := c.Check(context.Background())
	if result.Status != StatusUnhealthy || !errors.Is(result.Error, ErrCheckFailed) {
		t.Errorf("result = %+v, want unhealthy ErrCheckFailed", result)
	}
}

func TestRegistryChecker(t *testing.T) {
	empty, err := catalog.NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	if got := NewRegistryChecker(empty).Check(context.Background()).Status; got != StatusUnhealthy {
		t.Errorf("empty registry status = %v, want unhealthy", got)
	}

	noop := func(context.Context, string) (catalog.Data, error) { return catalog.Data{}, nil }
	reg, err := catalog.NewRegistry(
		catalog.NewProviderFunc("sdepot", "SDEPOT", noop),
		catalog.NewProviderFunc("silmar", "Silmar Electronics", noop),
	)
	if err != nil {
		t.Fatal(err)
	}
	result := NewRegistryChecker(reg).Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Status = %v, want healthy", result.Status)
	}
	keys, _ := result.Details["providers"].([]string)
	if len(keys) != 2 || keys[0] != "sdepot" {
		t.Errorf("providers = %v", result.Details["providers"])
	}
}
