package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonwraymond/productsearch/aggregate"
	"github.com/jonwraymond/productsearch/auth"
	"github.com/jonwraymond/productsearch/cache"
	"github.com/jonwraymond/productsearch/health"
	"github.com/jonwraymond/productsearch/observe"
	"github.com/jonwraymond/productsearch/stream"
)

// Searcher is the service behind the routes.
type Searcher interface {
	Search(ctx context.Context, query string) (aggregate.Result, error)
	CacheInfo(ctx context.Context) cache.Stats
	Stream(ctx context.Context, query string) (*stream.Session, error)
}

// Config configures the HTTP layer.
type Config struct {
	Addr string

	// RequestTimeout bounds /search. Zero disables the bound.
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	CORSAllowOrigins []string
	TrustedProxies   []string

	// CloseWhenSettled ends every stream once all providers have reported.
	// Clients may also ask for it with ?close_when_settled=true.
	CloseWhenSettled bool

	// ServiceName names the tracing middleware; empty disables it.
	ServiceName string
}

// Deps are the collaborators the routes call.
type Deps struct {
	Search        Searcher
	Health        *health.Aggregator
	Authenticator auth.Authenticator
	Logger        observe.Logger
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// Server is the HTTP front end.
type Server struct {
	cfg    Config
	search Searcher
	logger observe.Logger
	engine *gin.Engine
}

// New builds the router.
func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Search == nil {
		return nil, errors.New("server: search service is required")
	}
	if deps.Logger == nil {
		deps.Logger = observe.NopLogger()
	}
	if deps.Health == nil {
		deps.Health = health.NewAggregator()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}

	s := &Server{cfg: cfg, search: deps.Search, logger: deps.Logger}

	engine := gin.New()
	if len(cfg.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			return nil, fmt.Errorf("server: trusted proxies: %w", err)
		}
	}

	// Order: request id, recovery, logging, tracing, CORS.
	engine.Use(RequestID())
	engine.Use(Recovery(deps.Logger))
	engine.Use(RequestLogger(deps.Logger))
	if cfg.ServiceName != "" {
		engine.Use(Tracing(cfg.ServiceName))
	}
	engine.Use(CORS(cfg.CORSAllowOrigins))

	health.RegisterRoutes(engine, deps.Health)
	if deps.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	api := engine.Group("/", auth.Middleware(deps.Authenticator, deps.Logger))
	api.GET("/search", s.handleSearch)
	api.GET("/search-stream", s.handleStream)
	api.GET("/cache-info", s.handleCacheInfo)

	s.engine = engine
	return s, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on cfg.Addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "server starting", observe.Field{Key: "addr", Value: ln.Addr().String()})
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		// Streams stay open until their clients leave; cut them.
		_ = srv.Close()
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
