package cache

import (
	"time"

	"github.com/jonwraymond/productsearch/observe"
)

type storeOptions struct {
	policy Policy
	now    func() time.Time
	logger observe.Logger
	keyer  Keyer
}

func defaultStoreOptions() storeOptions {
	return storeOptions{
		policy: DefaultPolicy(),
		now:    time.Now,
		logger: observe.NopLogger(),
	}
}

// Option configures a store.
type Option func(*storeOptions)

// WithPolicy sets the freshness policy.
func WithPolicy(p Policy) Option {
	return func(o *storeOptions) {
		o.policy = p
	}
}

// WithClock sets the time source used for stamping and ageing entries.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger used for backend faults.
func WithLogger(l observe.Logger) Option {
	return func(o *storeOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithKeyer sets the keyer used by RedisStore.
func WithKeyer(k Keyer) Option {
	return func(o *storeOptions) {
		o.keyer = k
	}
}

func applyOptions(opts []Option) (storeOptions, error) {
	o := defaultStoreOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.policy.Validate(); err != nil {
		return o, err
	}
	return o, nil
}
