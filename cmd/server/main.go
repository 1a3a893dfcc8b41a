package main

import (
	"context"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/d1mk9/aiproxy/configs"
	"github.com/d1mk9/aiproxy/internal/api"
	"github.com/d1mk9/aiproxy/internal/bot"
	"github.com/d1mk9/aiproxy/internal/endpoints"
	"github.com/d1mk9/aiproxy/internal/transport"
)

func main() {
	cfg, err := configs.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configs.SetupLogging(cfg); err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	gin.SetMode(cfg.GinMode())

	log.WithFields(log.Fields{
		"addr":          cfg.Addr(),
		"backend":       cfg.Backend,
		"query_timeout": cfg.QueryTimeout.String(),
		"rate_limit":    cfg.RateLimitPerMin,
	}).Info("Starting the AI proxy service...")

	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		fx.Provide(
			api.NewQuerier,
			bot.NewNotifier,
			newRouter,
			newServer,
		),
		fx.Invoke(register),
	)
	if err := app.Err(); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	app.Run()
}

func newRouter(cfg *configs.Config, q api.Querier, n *bot.Notifier) *endpoints.Router {
	return endpoints.NewRouter(q, n, endpoints.Options{QueryTimeout: cfg.QueryTimeout})
}

func newServer(cfg *configs.Config, router *endpoints.Router) *transport.Server {
	return transport.NewServer(router, transport.ServerOptions{
		Addr:            cfg.Addr(),
		ShutdownTimeout: cfg.ShutdownTimeout,
		MaxBodyBytes:    cfg.MaxBodyBytes,
		RateLimitPerMin: cfg.RateLimitPerMin,
		MetricsEnabled:  cfg.MetricsEnabled,
	})
}

func register(lc fx.Lifecycle, srv *transport.Server, n *bot.Notifier) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return srv.Start()
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down")
			return multierr.Combine(srv.Stop(ctx), n.Close(ctx))
		},
	})
}
