package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "productsearch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("loads default values when nothing is set", func(t *testing.T) {
		t.Chdir(t.TempDir())

		cfg, err := Load("")
		require.NoError(t, err)

		assert.Equal(t, ":3000", cfg.Server.Addr)
		assert.Equal(t, 1200*time.Second, cfg.Server.RequestTimeout)
		assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowOrigins)
		assert.Equal(t, 600*time.Second, cfg.Search.ProviderTimeout)
		assert.Equal(t, []string{"doorControls", "sdepot", "silmar", "adiGlobal"}, cfg.Stream.Providers)
		assert.True(t, cfg.Stream.CancelOnClose)
		assert.Equal(t, BackendMemory, cfg.Cache.Backend)
		assert.Equal(t, 2*time.Hour, cfg.Cache.TTL)
		assert.Equal(t, time.Hour, cfg.Cache.StaleAfter)
		assert.Equal(t, time.Hour, cfg.Cache.CheckPeriod)
		assert.True(t, cfg.Scraper.Headless)
		assert.Equal(t, AuthNone, cfg.Auth.Mode)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "productsearch", cfg.Telemetry.ServiceName)
	})

	t.Run("reads file values", func(t *testing.T) {
		path := writeConfig(t, `
server:
  addr: ":8080"
cache:
  backend: tiered
  ttl: 30m
  stale_after: 10m
search:
  providers: [sdepot, silmar]
stream:
  cancel_on_close: false
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.Server.Addr)
		assert.Equal(t, BackendTiered, cfg.Cache.Backend)
		assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
		assert.Equal(t, 10*time.Minute, cfg.Cache.StaleAfter)
		assert.Equal(t, []string{"sdepot", "silmar"}, cfg.Search.Providers)
		assert.False(t, cfg.Stream.CancelOnClose)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := writeConfig(t, "server:\n  addr: \":8080\"\n")
		t.Setenv("PRODUCTSEARCH_SERVER_ADDR", ":9090")
		t.Setenv("PRODUCTSEARCH_SEARCH_PROVIDER_TIMEOUT", "45s")
		t.Setenv("PRODUCTSEARCH_STREAM_PROVIDERS", "wesco,seclock")

		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, ":9090", cfg.Server.Addr)
		assert.Equal(t, 45*time.Second, cfg.Search.ProviderTimeout)
		assert.Equal(t, []string{"wesco", "seclock"}, cfg.Stream.Providers)
	})

	t.Run("resolves secret references", func(t *testing.T) {
		t.Setenv("PRODUCTSEARCH_TEST_REDIS_PW", "hunter2")
		keyFile := filepath.Join(t.TempDir(), "key")
		require.NoError(t, os.WriteFile(keyFile, []byte("key-one\n"), 0o600))

		path := writeConfig(t, `
redis:
  password: secretref:env:PRODUCTSEARCH_TEST_REDIS_PW
auth:
  mode: apikey
  api_keys:
    - secretref:file:`+keyFile+`
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "hunter2", cfg.Redis.Password)
		assert.Equal(t, []string{"key-one"}, cfg.Auth.APIKeys)
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"stale after not below ttl", "cache:\n  ttl: 1h\n  stale_after: 1h\n"},
		{"unknown backend", "cache:\n  backend: memcached\n"},
		{"apikey without keys", "auth:\n  mode: apikey\n"},
		{"short jwt secret", "auth:\n  mode: jwt\n  jwt_secret: short\n"},
		{"unknown auth mode", "auth:\n  mode: basic\n"},
		{"bad log level", "log:\n  level: verbose\n"},
		{"negative concurrency", "search:\n  max_concurrent: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestObserve(t *testing.T) {
	cfg := &Config{
		Log:       LogConfig{Level: "debug", Format: "console"},
		Telemetry: TelemetryConfig{ServiceName: "svc", MetricsEnabled: true, MetricsExporter: "prometheus"},
	}
	oc := cfg.Observe("1.2.3")

	assert.Equal(t, "svc", oc.ServiceName)
	assert.Equal(t, "1.2.3", oc.Version)
	assert.True(t, oc.Logging.Enabled)
	assert.Equal(t, "debug", oc.Logging.Level)
	assert.Equal(t, "prometheus", oc.Metrics.Exporter)
	assert.NoError(t, oc.Validate())
}
