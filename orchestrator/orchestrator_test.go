package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/productsearch/catalog"
)

func products(n int, site string) []catalog.Product {
	out := make([]catalog.Product, n)
	for i := range out {
		out[i] = catalog.NewProduct(catalog.ProductFields{Name: "item", Site: site})
	}
	return out
}

func succeeding(key, name string, n int, delay time.Duration) catalog.Provider {
	return catalog.NewProviderFunc(key, name, func(ctx context.Context, query string) (catalog.Data, error) {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return catalog.Data{}, ctx.Err()
		}
		return catalog.Data{URL: "https://" + key + ".example/?q=" + query, Products: products(n, name), ProductCount: n}, nil
	})
}

func failing(key, name, msg string) catalog.Provider {
	return catalog.NewProviderFunc(key, name, func(context.Context, string) (catalog.Data, error) {
		return catalog.Data{}, errors.New(msg)
	})
}

func newOrchestrator(t *testing.T, providers []catalog.Provider, opts ...Option) *Orchestrator {
	t.Helper()
	reg, err := catalog.NewRegistry(providers...)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	o, err := New(reg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o
}

func TestNew_NilRegistry(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNilRegistry) {
		t.Errorf("New(nil) error = %v, want ErrNilRegistry", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	o := newOrchestrator(t, nil)
	if o.Timeout() != 600*time.Second {
		t.Errorf("Timeout() = %v, want 600s", o.Timeout())
	}
}

// TestRun_PartialFailure verifies one success and one timeout yield a partial aggregate.
func TestRun_PartialFailure(t *testing.T) {
	hang := catalog.NewProviderFunc("slow", "Slow Site", func(ctx context.Context, _ string) (catalog.Data, error) {
		<-ctx.Done()
		return catalog.Data{}, ctx.Err()
	})
	o := newOrchestrator(t, []catalog.Provider{
		succeeding("fast", "Fast Site", 3, 0),
		hang,
	}, WithTimeout(20*time.Millisecond))

	res, err := o.Run(context.Background(), "door")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(res.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(res.Results))
	}
	if !res.Results[0].Success || res.Results[0].ProductCount != 3 {
		t.Errorf("Results[0] = %+v, want success with 3 products", res.Results[0])
	}
	if res.Results[1].Success {
		t.Fatalf("Results[1] = %+v, want failure", res.Results[1])
	}
	if !strings.HasPrefix(res.Results[1].Error, "timeout") {
		t.Errorf("Results[1].Error = %q, want timeout message", res.Results[1].Error)
	}
	if res.Results[1].Site != "Slow Site" {
		t.Errorf("Results[1].Site = %q", res.Results[1].Site)
	}
	if res.TotalProducts != 3 {
		t.Errorf("TotalProducts = %d, want 3", res.TotalProducts)
	}
	if res.Query != "door" {
		t.Errorf("Query = %q", res.Query)
	}
}

// TestRun_RegistrationOrder verifies results follow registration order, not completion order.
func TestRun_RegistrationOrder(t *testing.T) {
	o := newOrchestrator(t, []catalog.Provider{
		succeeding("a", "A", 1, 40*time.Millisecond),
		succeeding("b", "B", 2, 0),
		failing("c", "C", "navigation failed"),
		succeeding("d", "D", 4, 20*time.Millisecond),
	})

	res, err := o.Run(context.Background(), "lock")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []string{"A", "B", "C", "D"}
	for i, name := range want {
		if res.Results[i].Site != name {
			t.Errorf("Results[%d].Site = %q, want %q", i, res.Results[i].Site, name)
		}
	}
	if res.TotalProducts != 7 {
		t.Errorf("TotalProducts = %d, want 7", res.TotalProducts)
	}
	if res.Results[2].Error != "navigation failed" {
		t.Errorf("provider error message = %q, want it kept verbatim", res.Results[2].Error)
	}
}

// TestRun_Concurrent verifies providers run in parallel.
func TestRun_Concurrent(t *testing.T) {
	var providers []catalog.Provider
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		providers = append(providers, succeeding(k, strings.ToUpper(k), 1, 50*time.Millisecond))
	}
	o := newOrchestrator(t, providers)

	start := time.Now()
	if _, err := o.Run(context.Background(), "q"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Errorf("Run() took %v, providers did not run concurrently", elapsed)
	}
}

func TestRun_AllFail(t *testing.T) {
	o := newOrchestrator(t, []catalog.Provider{
		failing("a", "A", "boom"),
		failing("b", "B", ""),
	})

	res, err := o.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Failed() != 2 || res.TotalProducts != 0 {
		t.Errorf("Failed() = %d, TotalProducts = %d", res.Failed(), res.TotalProducts)
	}
	if res.Results[1].Error != "unknown error" {
		t.Errorf("empty message = %q, want 'unknown error'", res.Results[1].Error)
	}
}

func TestRun_NoProviders(t *testing.T) {
	o := newOrchestrator(t, nil)

	res, err := o.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(res.Results) != 0 || res.TotalProducts != 0 {
		t.Errorf("Run() = %+v, want empty aggregate", res)
	}
}

func TestRun_StampsClock(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	o := newOrchestrator(t, []catalog.Provider{succeeding("a", "A", 1, 0)}, WithClock(func() time.Time { return fixed }))

	res, _ := o.Run(context.Background(), "q")
	if !res.GeneratedAt.Equal(fixed) {
		t.Errorf("GeneratedAt = %v, want %v", res.GeneratedAt, fixed)
	}
	if res.ServedFromCache {
		t.Error("fresh run must not be marked cached")
	}
}

// TestFetch_PanicIsolated verifies a panicking provider becomes a failure outcome.
func TestFetch_PanicIsolated(t *testing.T) {
	p := catalog.NewProviderFunc("p", "Panicky", func(context.Context, string) (catalog.Data, error) {
		panic("selector missing")
	})
	o := newOrchestrator(t, []catalog.Provider{p, succeeding("ok", "OK", 2, 0)})

	res, err := o.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Results[0].Success || !strings.Contains(res.Results[0].Error, "selector missing") {
		t.Errorf("Results[0] = %+v", res.Results[0])
	}
	if !res.Results[1].Success {
		t.Errorf("Results[1] = %+v, want success", res.Results[1])
	}
}

// TestFetch_TimeoutCancelsProvider verifies the provider sees cancellation on timeout.
func TestFetch_TimeoutCancelsProvider(t *testing.T) {
	cancelled := make(chan struct{})
	p := catalog.NewProviderFunc("p", "P", func(ctx context.Context, _ string) (catalog.Data, error) {
		<-ctx.Done()
		close(cancelled)
		return catalog.Data{}, ctx.Err()
	})
	o := newOrchestrator(t, []catalog.Provider{p}, WithTimeout(10*time.Millisecond))

	out := o.Fetch(context.Background(), p, "q")
	if out.Success {
		t.Fatal("expected failure outcome")
	}

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("provider context was not cancelled")
	}
}

// TestFetch_AbandonsStubbornProvider verifies a provider ignoring cancellation does not hold up the run.
func TestFetch_AbandonsStubbornProvider(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	p := catalog.NewProviderFunc("p", "Stubborn", func(context.Context, string) (catalog.Data, error) {
		<-release
		return catalog.Data{Products: products(1, "Stubborn")}, nil
	})
	o := newOrchestrator(t, []catalog.Provider{p}, WithTimeout(10*time.Millisecond))

	start := time.Now()
	res, _ := o.Run(context.Background(), "q")
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Run() waited for a provider past its timeout")
	}
	if res.Results[0].Success {
		t.Error("late result must be discarded")
	}
}

func TestRun_CallerCancellation(t *testing.T) {
	o := newOrchestrator(t, []catalog.Provider{succeeding("a", "A", 1, time.Second)})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	res, err := o.Run(ctx, "q")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Results[0].Success {
		t.Error("cancelled provider should fail")
	}
}

// TestWithMaxConcurrent verifies the bulkhead caps in-flight provider calls.
func TestWithMaxConcurrent(t *testing.T) {
	var active, peak atomic.Int32
	var mu sync.Mutex
	mk := func(key string) catalog.Provider {
		return catalog.NewProviderFunc(key, key, func(ctx context.Context, _ string) (catalog.Data, error) {
			n := active.Add(1)
			mu.Lock()
			if n > peak.Load() {
				peak.Store(n)
			}
			mu.Unlock()
			time.Sleep(20 * time.Millisecond)
			active.Add(-1)
			return catalog.Data{}, nil
		})
	}
	o := newOrchestrator(t, []catalog.Provider{mk("a"), mk("b"), mk("c"), mk("d")}, WithMaxConcurrent(2))

	res, err := o.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Failed() != 0 {
		t.Errorf("Failed() = %d, want 0", res.Failed())
	}
	if p := peak.Load(); p > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", p)
	}
}

func TestRunProviders_Subset(t *testing.T) {
	a := succeeding("a", "A", 1, 0)
	b := succeeding("b", "B", 2, 0)
	o := newOrchestrator(t, []catalog.Provider{a, b})

	res, err := o.RunProviders(context.Background(), "q", []catalog.Provider{b})
	if err != nil {
		t.Fatalf("RunProviders() error = %v", err)
	}
	if len(res.Results) != 1 || res.Results[0].Site != "B" {
		t.Errorf("Results = %+v", res.Results)
	}
}
