// Package config loads service configuration from file, environment and defaults.
package config

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonwraymond/productsearch/cache"
	"github.com/jonwraymond/productsearch/observe"
	"github.com/jonwraymond/productsearch/secret"
)

// EnvPrefix prefixes environment overrides, e.g. PRODUCTSEARCH_CACHE_TTL.
const EnvPrefix = "PRODUCTSEARCH"

// Cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendTiered = "tiered"
)

// Auth modes.
const (
	AuthNone   = "none"
	AuthAPIKey = "apikey"
	AuthJWT    = "jwt"
)

// Config holds all service configuration.
type Config struct {
	Server    ServerConfig
	Search    SearchConfig
	Stream    StreamConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Scraper   ScraperConfig
	Auth      AuthConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr             string
	RequestTimeout   time.Duration
	ShutdownTimeout  time.Duration
	CORSAllowOrigins []string
	TrustedProxies   []string
}

// SearchConfig holds orchestration settings.
type SearchConfig struct {
	ProviderTimeout time.Duration
	MaxConcurrent   int
	RefreshTimeout  time.Duration
	// Providers lists enabled provider keys in order; empty enables all.
	Providers []string
}

// StreamConfig holds streaming settings.
type StreamConfig struct {
	Providers        []string
	CancelOnClose    bool
	CloseWhenSettled bool
}

// CacheConfig holds cache settings.
type CacheConfig struct {
	Backend     string
	TTL         time.Duration
	StaleAfter  time.Duration
	CheckPeriod time.Duration
	KeyPrefix   string
}

// Policy returns the cache freshness policy.
func (c CacheConfig) Policy() cache.Policy {
	return cache.Policy{TTL: c.TTL, StaleAfter: c.StaleAfter, CheckPeriod: c.CheckPeriod}
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ScraperConfig holds browser settings.
type ScraperConfig struct {
	Headless    bool
	ExecPath    string
	UserAgent   string
	NavTimeout  time.Duration
	MaxBrowsers int
	// NoSandbox is needed when Chrome runs as root in a container.
	NoSandbox bool
	// RemoteURL attaches to a running Chrome's DevTools endpoint instead of
	// launching one.
	RemoteURL string
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	Mode        string
	APIKeys     []string
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// TelemetryConfig holds tracing and metrics settings.
type TelemetryConfig struct {
	ServiceName     string
	TracingEnabled  bool
	TracingExporter string
	SamplePct       float64
	MetricsEnabled  bool
	MetricsExporter string
}

// Observe converts the logging and telemetry settings for observe.NewObserver.
func (c *Config) Observe(version string) observe.Config {
	return observe.Config{
		ServiceName: c.Telemetry.ServiceName,
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Telemetry.TracingEnabled,
			Exporter:  c.Telemetry.TracingExporter,
			SamplePct: c.Telemetry.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Telemetry.MetricsEnabled,
			Exporter: c.Telemetry.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.Log.Level,
			Format:  c.Log.Format,
		},
	}
}

// Load reads configuration.
//
// Priority (highest to lowest):
// 1. Environment variables with PRODUCTSEARCH_ prefix (e.g., PRODUCTSEARCH_CACHE_TTL)
// 2. The config file at path, or productsearch.yaml in . or /etc/productsearch
// 3. Built-in defaults
//
// Secret-bearing values are resolved through secret.DefaultRegistry.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("productsearch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/productsearch")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Addr:             v.GetString("server.addr"),
			RequestTimeout:   v.GetDuration("server.request_timeout"),
			ShutdownTimeout:  v.GetDuration("server.shutdown_timeout"),
			CORSAllowOrigins: stringList(v, "server.cors_allow_origins"),
			TrustedProxies:   stringList(v, "server.trusted_proxies"),
		},
		Search: SearchConfig{
			ProviderTimeout: v.GetDuration("search.provider_timeout"),
			MaxConcurrent:   v.GetInt("search.max_concurrent"),
			RefreshTimeout:  v.GetDuration("search.refresh_timeout"),
			Providers:       stringList(v, "search.providers"),
		},
		Stream: StreamConfig{
			Providers:        stringList(v, "stream.providers"),
			CancelOnClose:    v.GetBool("stream.cancel_on_close"),
			CloseWhenSettled: v.GetBool("stream.close_when_settled"),
		},
		Cache: CacheConfig{
			Backend:     v.GetString("cache.backend"),
			TTL:         v.GetDuration("cache.ttl"),
			StaleAfter:  v.GetDuration("cache.stale_after"),
			CheckPeriod: v.GetDuration("cache.check_period"),
			KeyPrefix:   v.GetString("cache.key_prefix"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Scraper: ScraperConfig{
			Headless:    v.GetBool("scraper.headless"),
			ExecPath:    v.GetString("scraper.exec_path"),
			UserAgent:   v.GetString("scraper.user_agent"),
			NavTimeout:  v.GetDuration("scraper.nav_timeout"),
			MaxBrowsers: v.GetInt("scraper.max_browsers"),
			NoSandbox:   v.GetBool("scraper.no_sandbox"),
			RemoteURL:   v.GetString("scraper.remote_url"),
		},
		Auth: AuthConfig{
			Mode:        v.GetString("auth.mode"),
			APIKeys:     stringList(v, "auth.api_keys"),
			JWTSecret:   v.GetString("auth.jwt_secret"),
			JWTIssuer:   v.GetString("auth.jwt_issuer"),
			JWTAudience: v.GetString("auth.jwt_audience"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Telemetry: TelemetryConfig{
			ServiceName:     v.GetString("telemetry.service_name"),
			TracingEnabled:  v.GetBool("telemetry.tracing_enabled"),
			TracingExporter: v.GetString("telemetry.tracing_exporter"),
			SamplePct:       v.GetFloat64("telemetry.sample_pct"),
			MetricsEnabled:  v.GetBool("telemetry.metrics_enabled"),
			MetricsExporter: v.GetString("telemetry.metrics_exporter"),
		},
	}

	applyDefaults(cfg)

	resolver, err := secret.NewResolverFromRegistry(secret.DefaultRegistry, nil)
	if err != nil {
		return nil, err
	}
	if err := cfg.resolveSecrets(context.Background(), resolver); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers defaults that cannot be told apart from an unset
// zero value after loading.
func setDefaults(v *viper.Viper) {
	v.SetDefault("stream.cancel_on_close", true)
	v.SetDefault("scraper.headless", true)
	v.SetDefault("telemetry.sample_pct", 1.0)
}

// applyDefaults sets default values for any empty config fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":3000"
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 1200 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	if len(cfg.Server.CORSAllowOrigins) == 0 {
		cfg.Server.CORSAllowOrigins = []string{"*"}
	}
	if cfg.Search.ProviderTimeout == 0 {
		cfg.Search.ProviderTimeout = 600 * time.Second
	}
	if len(cfg.Stream.Providers) == 0 {
		cfg.Stream.Providers = []string{"doorControls", "sdepot", "silmar", "adiGlobal"}
	}
	defaults := cache.DefaultPolicy()
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = BackendMemory
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = defaults.TTL
	}
	if cfg.Cache.StaleAfter == 0 {
		cfg.Cache.StaleAfter = defaults.StaleAfter
	}
	if cfg.Cache.CheckPeriod == 0 {
		cfg.Cache.CheckPeriod = defaults.CheckPeriod
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = cache.DefaultKeyPrefix
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Scraper.NavTimeout == 0 {
		cfg.Scraper.NavTimeout = 60 * time.Second
	}
	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = AuthNone
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "productsearch"
	}
	if cfg.Telemetry.TracingExporter == "" {
		cfg.Telemetry.TracingExporter = "none"
	}
	if cfg.Telemetry.MetricsExporter == "" {
		cfg.Telemetry.MetricsExporter = "none"
	}
}

func (c *Config) resolveSecrets(ctx context.Context, r *secret.Resolver) error {
	err := r.ResolveAll(ctx,
		secret.Target{Name: "redis.password", Value: &c.Redis.Password},
		secret.Target{Name: "auth.jwt_secret", Value: &c.Auth.JWTSecret},
	)
	if err != nil {
		return err
	}
	if c.Auth.APIKeys, err = r.ResolveSlice(ctx, c.Auth.APIKeys); err != nil {
		return fmt.Errorf("auth.api_keys: %w", err)
	}
	return nil
}

// validate performs validation on the configuration.
func (c *Config) validate() error {
	if c.Search.ProviderTimeout < 0 {
		return fmt.Errorf("search.provider_timeout cannot be negative")
	}
	if c.Search.MaxConcurrent < 0 {
		return fmt.Errorf("search.max_concurrent cannot be negative")
	}
	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("server.request_timeout cannot be negative")
	}
	if err := c.Cache.Policy().Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if !slices.Contains([]string{BackendMemory, BackendRedis, BackendTiered}, c.Cache.Backend) {
		return fmt.Errorf("cache.backend must be one of memory, redis, tiered; got %q", c.Cache.Backend)
	}
	switch c.Auth.Mode {
	case AuthNone:
	case AuthAPIKey:
		if len(c.Auth.APIKeys) == 0 {
			return fmt.Errorf("auth.api_keys is required when auth.mode=apikey")
		}
	case AuthJWT:
		if len(c.Auth.JWTSecret) < 32 {
			return fmt.Errorf("auth.jwt_secret must be at least 32 characters when auth.mode=jwt")
		}
	default:
		return fmt.Errorf("auth.mode must be one of none, apikey, jwt; got %q", c.Auth.Mode)
	}
	oc := c.Observe("")
	return oc.Validate()
}

// stringList reads a list that may be given as a YAML list or as a comma or
// space separated string (environment variables).
func stringList(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
