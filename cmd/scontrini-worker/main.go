package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"scontrini/internal/cli"
	applog "scontrini/internal/log"
	"scontrini/internal/services"
	"scontrini/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentWorker)
	logger.Info("Starting scontrini-worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result := cli.OpenBackend(ctx, logger, cfg)
	defer result.Close()

	mirror, err := cli.OpenMirror(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize record mirror", applog.FieldError, err)
		os.Exit(1)
	}

	var events worker.EventSource
	amqpClient, err := cli.OpenAMQP(logger, cfg)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, relying on periodic resync", applog.FieldError, err)
	} else if amqpClient != nil {
		defer amqpClient.Close()
		events = amqpClient
	}

	records := services.NewRecordService(result.Backend, nil, cli.Slog(logger, applog.ComponentRecords))
	mirrorSync := services.NewMirrorSync(records, mirror, services.MirrorSyncConfig{
		ResyncInterval: cfg.SyncInterval,
	}, logger.Slog())

	if err := worker.NewSyncWorker(events, mirrorSync, logger.Slog()).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
