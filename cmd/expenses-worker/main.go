package main

import (
	"context"
	"errors"
	"os"

	"expenses/internal/amqp"
	"expenses/internal/cli"
	"expenses/internal/config"
	applog "expenses/internal/log"
	"expenses/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	boot := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	cfg := cli.LoadAndValidateConfig(boot)
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat).WithComponent(applog.ComponentWorker)

	if err := cfg.RequireAMQP(); err != nil {
		logger.Error("Worker configuration invalid", "error", err)
		os.Exit(1)
	}
	if cfg.DataBackend == config.BackendMemory {
		logger.Warn("Memory backend is process-local; recorded activity is not visible to the server")
	}

	logger.Info("Starting expenses-worker", cli.SlogAttrs(cfg)...)

	repo := cli.InitRepository(context.Background(), logger, cfg)

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	activity := worker.NewActivityWorker(repo.Repository)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(context.Context) {
		if err := client.Close(); err != nil {
			logger.Warn("AMQP close error", "error", err)
		}
		if err := repo.Cleanup(); err != nil {
			logger.Error("Storage close error", "error", err)
		}
	})

	logger.Info("Consuming change events", "queue", cfg.AMQPQueue, "exchange", cfg.AMQPExchange)
	if err := client.Consume(ctx, activity.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	<-done
	logger.Info("Worker stopped")
}
