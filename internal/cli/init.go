// Package cli holds the start-up steps shared by the binaries under cmd/.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expenses/internal/backend"
	"expenses/internal/config"
	applog "expenses/internal/log"

	"github.com/joho/godotenv"
)

// SetupLogger builds the process logger and installs it as the slog default.
// An unparsable level falls back to info.
func SetupLogger(level, format string) *applog.Logger {
	lvl, err := applog.ParseLevel(level)
	cfg := applog.DefaultConfig()
	cfg.Level = lvl
	cfg.Format = format

	logger := applog.New(cfg)
	applog.SetDefault(logger)
	if err != nil {
		logger.Warn("Falling back to info log level", "error", err)
	}
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration or exits the process.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldOperation, applog.OpValidate, "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitRepository opens the configured storage backend or exits the process.
func InitRepository(ctx context.Context, logger *applog.Logger, cfg *config.Config) *backend.Result {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "backend", bcfg.Type)
		os.Exit(1)
	}
	return res
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs after cancellation with at most timeout to finish; done is closed
// when it returns.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		<-ctx.Done()
		stop()
		logger = logger.With(applog.FieldOperation, applog.OpShutdown)
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}

// SlogAttrs is a small helper for binaries that log config at start-up
// without leaking secrets.
func SlogAttrs(cfg *config.Config) []any {
	return []any{
		slog.String(applog.FieldOperation, applog.OpStartup),
		slog.String("port", cfg.Port),
		slog.String("backend", cfg.DataBackend),
		slog.Bool("amqp_enabled", cfg.AMQPURL != ""),
		slog.Bool("cache_enabled", cfg.CacheEnabled()),
		slog.Int("rate_limit_per_minute", cfg.RateLimitPerMinute),
	}
}
