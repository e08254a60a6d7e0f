package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/jonwraymond/productsearch/catalog"
	"github.com/jonwraymond/productsearch/observe"
	"github.com/jonwraymond/productsearch/resilience"
)

const (
	// DefaultUserAgent is sent by every tab unless configured otherwise.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/90.0.4430.212 Safari/537.36"

	defaultNavTimeout = 60 * time.Second
	defaultMaxTabs    = 8
	viewportWidth     = 1280
	viewportHeight    = 800
)

// BrowserConfig configures the shared Chrome allocator.
type BrowserConfig struct {
	// RemoteURL connects to a running Chrome instead of launching one.
	RemoteURL string
	// ExecPath overrides the Chrome binary.
	ExecPath  string
	Headless  bool
	NoSandbox bool
	UserAgent string
	// NavTimeout bounds each navigation when the site sets none.
	NavTimeout time.Duration
	// MaxTabs bounds concurrently open tabs. Further fetches queue until a
	// tab closes or their context ends.
	MaxTabs int
}

// Browser owns the Chrome allocator shared by all providers.
type Browser struct {
	config      BrowserConfig
	logger      observe.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabs        *resilience.Bulkhead

	closeOnce sync.Once
}

// NewBrowser creates the allocator. Chrome itself starts with the first tab.
func NewBrowser(config BrowserConfig, logger observe.Logger) *Browser {
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.NavTimeout <= 0 {
		config.NavTimeout = defaultNavTimeout
	}
	if config.MaxTabs <= 0 {
		config.MaxTabs = defaultMaxTabs
	}
	if logger == nil {
		logger = observe.NopLogger()
	}

	b := &Browser{
		config: config,
		logger: logger,
		tabs:   resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: config.MaxTabs, MaxWait: -1}),
	}

	if config.RemoteURL != "" {
		b.allocCtx, b.allocCancel = chromedp.NewRemoteAllocator(context.Background(), config.RemoteURL)
		return b
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.UserAgent(config.UserAgent),
		chromedp.WindowSize(viewportWidth, viewportHeight),
	)
	if config.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(config.ExecPath))
	}
	b.allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return b
}

// Close shuts down Chrome and every open tab. Idempotent.
func (b *Browser) Close() error {
	b.closeOnce.Do(b.allocCancel)
	return nil
}

// Provider returns a catalog provider for site.
func (b *Browser) Provider(site Site) (*BrowserProvider, error) {
	if err := site.Validate(); err != nil {
		return nil, err
	}
	script, err := site.extractionScript()
	if err != nil {
		return nil, err
	}
	return &BrowserProvider{
		site:    site,
		script:  script,
		browser: b,
		logger:  b.logger.WithProvider(observe.ProviderMeta{Key: site.Key, Name: site.Name}),
	}, nil
}

// Register adds a provider for each site to reg, in order.
func (b *Browser) Register(reg *catalog.Registry, sites ...Site) error {
	for _, site := range sites {
		p, err := b.Provider(site)
		if err != nil {
			return err
		}
		if err := reg.Register(p); err != nil {
			return err
		}
	}
	return nil
}

// BrowserProvider scrapes one Site.
type BrowserProvider struct {
	site    Site
	script  string
	browser *Browser
	logger  observe.Logger
}

// Name returns the site display name.
func (p *BrowserProvider) Name() string { return p.site.Name }

// Key returns the site key.
func (p *BrowserProvider) Key() string { return p.site.Key }

// Site returns the definition this provider scrapes.
func (p *BrowserProvider) Site() Site { return p.site }

// Fetch opens a tab, reads every configured page and closes the tab. A
// failure on the first page fails the fetch; a later page failure keeps the
// products already read.
func (p *BrowserProvider) Fetch(ctx context.Context, query string) (catalog.Data, error) {
	if err := p.browser.allocCtx.Err(); err != nil {
		return catalog.Data{}, ErrClosed
	}
	if s := p.browser.tabs.Stats(); s.InUse >= s.Capacity {
		p.logger.Debug(ctx, "waiting for a browser tab",
			observe.Field{Key: "tabs_in_use", Value: s.InUse},
			observe.Field{Key: "tabs_waiting", Value: s.Waiting},
		)
	}
	if err := p.browser.tabs.Acquire(ctx); err != nil {
		return catalog.Data{}, err
	}
	defer p.browser.tabs.Release()

	tabCtx, cancel := chromedp.NewContext(p.browser.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			p.logger.Debug(ctx, fmt.Sprintf(format, args...))
		}),
	)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	// The first Run starts the tab and must not carry a step deadline.
	if err := chromedp.Run(tabCtx, chromedp.EmulateViewport(viewportWidth, viewportHeight)); err != nil {
		return catalog.Data{}, p.failure(ctx, "open tab", err)
	}

	var (
		cards    []card
		firstURL string
	)
	for page := 1; page <= p.site.pages(); page++ {
		url := p.site.BuildURL(query, page)
		if page == 1 {
			firstURL = url
		}
		pageCards, more, err := p.scrapePage(tabCtx, url, query)
		if err != nil {
			if page == 1 {
				return catalog.Data{}, p.failure(ctx, "scrape", err)
			}
			p.logger.Warn(ctx, "page failed, keeping earlier pages",
				observe.Field{Key: "page", Value: page},
				observe.Field{Key: "error", Value: err.Error()},
			)
			break
		}
		cards = append(cards, pageCards...)
		if !more {
			break
		}
	}

	products := p.site.toProducts(cards)
	p.logger.Debug(ctx, "scrape finished", observe.Field{Key: "products", Value: len(products)})
	return catalog.Data{URL: firstURL, Products: products, ProductCount: len(products)}, nil
}

func (p *BrowserProvider) failure(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return fmt.Errorf("%s %s: %w", p.site.Name, op, err)
}

// scrapePage loads one result page and returns its cards and whether a
// further page should be read.
func (p *BrowserProvider) scrapePage(ctx context.Context, url, query string) ([]card, bool, error) {
	s := p.site

	navTimeout := s.NavTimeout
	if navTimeout <= 0 {
		navTimeout = p.browser.config.NavTimeout
	}
	if err := step(ctx, navTimeout, chromedp.Navigate(url)); err != nil {
		return nil, false, fmt.Errorf("navigate: %w", err)
	}

	if f := s.Form; f != nil {
		if err := step(ctx, f.Timeout,
			chromedp.WaitVisible(f.Open, chromedp.ByQuery),
			chromedp.Click(f.Open, chromedp.ByQuery),
			chromedp.WaitVisible(f.Input, chromedp.ByQuery),
			chromedp.SendKeys(f.Input, query, chromedp.ByQuery),
		); err != nil {
			return nil, false, fmt.Errorf("search form: %w", err)
		}
	}

	if s.WaitSelector != "" {
		wait := chromedp.WaitReady(s.WaitSelector, chromedp.ByQuery)
		if s.WaitVisible {
			wait = chromedp.WaitVisible(s.WaitSelector, chromedp.ByQuery)
		}
		if err := step(ctx, s.WaitTimeout, wait); err != nil {
			return nil, false, fmt.Errorf("wait for results: %w", err)
		}
	}
	if s.Settle > 0 {
		if err := chromedp.Run(ctx, chromedp.Sleep(s.Settle)); err != nil {
			return nil, false, err
		}
	}

	if err := p.loadMore(ctx); err != nil {
		return nil, false, err
	}
	if err := p.scroll(ctx); err != nil {
		return nil, false, err
	}

	var cards []card
	if err := chromedp.Run(ctx, chromedp.Evaluate(p.script, &cards)); err != nil {
		return nil, false, fmt.Errorf("extract: %w", err)
	}

	more, err := p.hasNext(ctx)
	if err != nil {
		return cards, false, nil
	}
	return cards, more, nil
}

func (p *BrowserProvider) loadMore(ctx context.Context) error {
	lm := p.site.LoadMore
	if lm == nil {
		return nil
	}
	script := clickButtonByText(lm.ButtonText)
	for range lm.MaxClicks {
		var clicked bool
		if err := chromedp.Run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
			return fmt.Errorf("load more: %w", err)
		}
		if !clicked {
			return nil
		}
		if err := chromedp.Run(ctx, chromedp.Sleep(lm.Pause)); err != nil {
			return err
		}
	}
	return nil
}

func (p *BrowserProvider) scroll(ctx context.Context) error {
	sc := p.site.Scroll
	if sc == nil {
		return nil
	}
	count := countCards(p.site.CardSelector)
	var before, after, idle int
	if err := chromedp.Run(ctx, chromedp.Evaluate(count, &before)); err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	for before < sc.MaxCards && idle < sc.MaxIdle {
		if err := chromedp.Run(ctx,
			chromedp.Evaluate(scrollToBottom, nil),
			chromedp.Sleep(sc.Pause),
			chromedp.Evaluate(count, &after),
		); err != nil {
			return fmt.Errorf("scroll: %w", err)
		}
		if after <= before {
			idle++
		} else {
			idle = 0
		}
		before = after
	}
	return nil
}

func (p *BrowserProvider) hasNext(ctx context.Context) (bool, error) {
	s := p.site
	switch {
	case s.pages() <= 1:
		return false, nil
	case s.NextSelector != "":
		var ok bool
		err := chromedp.Run(ctx, chromedp.Evaluate(selectorExists(s.NextSelector), &ok))
		return ok, err
	case s.LastSelector != "":
		var last bool
		err := chromedp.Run(ctx, chromedp.Evaluate(selectorExists(s.LastSelector), &last))
		return !last, err
	default:
		return true, nil
	}
}

// step runs actions under an optional deadline.
func step(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	err := chromedp.Run(ctx, actions...)
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("no response within %s", timeout)
	}
	return err
}

var _ catalog.Provider = (*BrowserProvider)(nil)
