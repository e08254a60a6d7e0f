package stream

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/productsearch/aggregate"
	"github.com/jonwraymond/productsearch/catalog"
	"github.com/jonwraymond/productsearch/observe"
)

// Fetcher runs one provider and returns its settled outcome.
type Fetcher interface {
	Fetch(ctx context.Context, p catalog.Provider, query string) aggregate.Outcome
}

// Dispatcher opens streaming sessions over a fixed provider set.
type Dispatcher struct {
	fetcher       Fetcher
	providers     []catalog.Provider
	cancelOnClose bool
	now           func() time.Time
	logger        observe.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCancelOnClose controls whether closing a session cancels its
// in-flight provider calls. When false, calls run to completion and their
// results are dropped. Default true.
func WithCancelOnClose(cancel bool) Option {
	return func(d *Dispatcher) {
		d.cancelOnClose = cancel
	}
}

// WithClock sets the time source for start events.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher creates a dispatcher streaming the given providers.
func NewDispatcher(fetcher Fetcher, providers []catalog.Provider, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		fetcher:       fetcher,
		providers:     append([]catalog.Provider(nil), providers...),
		cancelOnClose: true,
		now:           time.Now,
		logger:        observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Providers returns the streamed provider set.
func (d *Dispatcher) Providers() []catalog.Provider {
	return append([]catalog.Provider(nil), d.providers...)
}

// Open starts a session for query. The start event is already buffered
// when Open returns.
func (d *Dispatcher) Open(ctx context.Context, query string) *Session {
	var fetchCtx context.Context
	var cancel context.CancelFunc
	if d.cancelOnClose {
		fetchCtx, cancel = context.WithCancel(ctx)
	} else {
		// Calls outlive the consumer; they still end at their own timeout.
		fetchCtx, cancel = context.WithCancel(context.WithoutCancel(ctx))
	}

	s := &Session{
		ID:      uuid.NewString(),
		Query:   query,
		events:  make(chan Event, len(d.providers)+1),
		done:    make(chan struct{}),
		settled: make(chan struct{}),
	}
	if d.cancelOnClose {
		s.cancel = cancel
	}
	s.logger = d.logger.With(observe.Field{Key: "session_id", Value: s.ID})

	s.events <- Event{Kind: KindStart, Payload: StartPayload{Query: query, Timestamp: d.now()}}

	var wg sync.WaitGroup
	for _, p := range d.providers {
		wg.Add(1)
		go func(p catalog.Provider) {
			defer wg.Done()
			outcome := d.fetcher.Fetch(fetchCtx, p, query)
			s.emit(fetchCtx, Event{Kind: KindProviderResult, ProviderKey: p.Key(), Payload: outcome})
		}(p)
	}

	go func() {
		wg.Wait()
		close(s.settled)
		cancel()
	}()

	return s
}

// Session is one streaming delivery.
//
// Contract:
// - Events is never closed; select on Done or Settled to stop draining.
// - Close is safe to call more than once and from any goroutine.
type Session struct {
	ID    string
	Query string

	events    chan Event
	done      chan struct{}
	settled   chan struct{}
	closeOnce sync.Once
	cancel    context.CancelFunc // nil when calls outlive the session
	logger    observe.Logger
}

// Events returns the event channel.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Done is closed when the session is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Settled is closed once every provider has emitted its event.
func (s *Session) Settled() <-chan struct{} {
	return s.settled
}

// Close ends the session. Outcomes that settle afterwards are dropped.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.cancel != nil {
			s.cancel()
		}
	})
}

func (s *Session) emit(ctx context.Context, ev Event) {
	select {
	case <-s.done:
		s.logger.Debug(ctx, "dropping outcome for closed session", observe.Field{Key: "provider.key", Value: ev.ProviderKey})
	default:
		// Buffer holds every event, so this never blocks.
		s.events <- ev
	}
}
