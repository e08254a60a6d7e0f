package cache

import (
	"sync"
	"time"

	"github.com/jonwraymond/productsearch/aggregate"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testPolicy() Policy {
	return Policy{TTL: 2 * time.Hour, StaleAfter: time.Hour}
}

func result(query string, total int) aggregate.Result {
	return aggregate.Result{
		Query:         query,
		Results:       []aggregate.Outcome{},
		TotalProducts: total,
	}
}
