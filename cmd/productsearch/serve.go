package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/productsearch/auth"
	"github.com/jonwraymond/productsearch/config"
	"github.com/jonwraymond/productsearch/observe"
	"github.com/jonwraymond/productsearch/observe/exporters"
	"github.com/jonwraymond/productsearch/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.addr")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) (err error) {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		if cerr := a.Close(shutdownCtx); cerr != nil {
			a.logger.Error(shutdownCtx, "shutdown failed", observe.Field{Key: "error", Value: cerr.Error()})
		}
	}()

	authn, err := auth.New(auth.Settings{
		Mode:        cfg.Auth.Mode,
		APIKeys:     cfg.Auth.APIKeys,
		JWTSecret:   cfg.Auth.JWTSecret,
		JWTIssuer:   cfg.Auth.JWTIssuer,
		JWTAudience: cfg.Auth.JWTAudience,
	})
	if err != nil {
		return err
	}

	var metrics http.Handler
	if cfg.Telemetry.MetricsEnabled && cfg.Telemetry.MetricsExporter == "prometheus" {
		metrics = exporters.PrometheusHandler()
	}

	serviceName := ""
	if cfg.Telemetry.TracingEnabled {
		serviceName = cfg.Telemetry.ServiceName
	}

	gin.SetMode(gin.ReleaseMode)
	srv, err := server.New(server.Config{
		Addr:             cfg.Server.Addr,
		RequestTimeout:   cfg.Server.RequestTimeout,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
		CORSAllowOrigins: cfg.Server.CORSAllowOrigins,
		TrustedProxies:   cfg.Server.TrustedProxies,
		CloseWhenSettled: cfg.Stream.CloseWhenSettled,
		ServiceName:      serviceName,
	}, server.Deps{
		Search:        a.service,
		Health:        a.health,
		Authenticator: authn,
		Logger:        a.logger,
		Metrics:       metrics,
	})
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
