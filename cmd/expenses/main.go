package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/auth"
	"expenses/internal/cache"
	"expenses/internal/cli"
	apphttp "expenses/internal/http"
	applog "expenses/internal/log"
	"expenses/internal/services"
	"expenses/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	boot := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(boot)
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	logger.Info("Starting expenses server", cli.SlogAttrs(cfg)...)

	repo := cli.InitRepository(context.Background(), logger, cfg)

	var (
		rt       *cache.ReadThrough
		lru      *cache.LRUCache[any]
		cacheMgr *cache.Manager
	)
	if cfg.CacheEnabled() {
		lru = cache.NewLRUCache[any](cfg.CacheSize, cfg.CacheTTL)
		rt = cache.NewReadThrough(lru)
		cacheMgr = cache.NewManager()
		cacheMgr.Register(lru)
		cacheMgr.StartCleanup(cfg.CacheTTL)
	}

	var (
		publisher   services.Publisher
		amqpClient  *amqp.Client
		amqpLogger  = logger.WithComponent(applog.ComponentAMQP)
		subscribeFn func(context.Context)
	)
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, "")
		if err != nil {
			amqpLogger.Error("Failed to connect to AMQP, change events disabled", "error", err)
		} else {
			amqpClient = client
			publisher = client
		}
	}

	svc := services.NewExpenseService(repo.Repository, rt, publisher, logger)

	if amqpClient != nil && rt != nil {
		subscribeFn = func(ctx context.Context) {
			if err := amqpClient.Subscribe(ctx, worker.EvictionHandler(svc)); err != nil && !errors.Is(err, context.Canceled) {
				amqpLogger.Error("Cache eviction subscription stopped", "error", err)
			}
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Service:            svc,
		Auth:               auth.NewResolver(cfg.AuthJWTSecret, cfg.AuthIssuer),
		Logger:             logger,
		Readiness:          repo.Repository,
		Cache:              lru,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if cacheMgr != nil {
			cacheMgr.Stop()
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				amqpLogger.Warn("AMQP close error", "error", err)
			}
		}
		if err := repo.Cleanup(); err != nil {
			logger.Error("Storage close error", "error", err)
		}
	})

	if subscribeFn != nil {
		go subscribeFn(ctx)
	}

	logger.Info("Listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "addr", srv.Addr)
		os.Exit(1)
	}

	select {
	case <-done:
	case <-time.After(cfg.ShutdownTimeout + time.Second):
		logger.Warn("Shutdown did not finish in time")
	}
	logger.Info("Server stopped")
}
