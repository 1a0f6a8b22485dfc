package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"scontrini/internal/cache"
	"scontrini/internal/cli"
	apphttp "scontrini/internal/http"
	applog "scontrini/internal/log"
	"scontrini/internal/mutation"
	"scontrini/internal/report"
	"scontrini/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap(applog.ComponentApp)
	logger.Info("Starting scontrini server")

	ctx := context.Background()
	result := cli.OpenBackend(ctx, logger, cfg)
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Backend close error", applog.FieldError, err)
		}
	}()

	// A typed nil client must not reach RecordService as a Publisher.
	var publisher services.Publisher
	amqpClient, err := cli.OpenAMQP(logger, cfg)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, record events disabled", applog.FieldError, err)
	} else if amqpClient != nil {
		defer amqpClient.Close()
		publisher = amqpClient
	}

	restaurants := services.NewRestaurantService(result.Backend, cli.Slog(logger, applog.ComponentStorage))
	records := services.NewRecordService(result.Backend, publisher, cli.Slog(logger, applog.ComponentRecords))

	qc := cache.NewQueryClient(cache.QueryClientConfig{
		MaxEntries: cfg.CacheMaxEntries,
		TTL:        cfg.CacheTTL,
		Logger:     logger.Slog(),
	})
	cacheManager := cache.NewManager(cli.Slog(logger, applog.ComponentCache))
	cacheManager.Register(qc)
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	coordinator := mutation.NewCoordinator(qc,
		mutation.LogNotifier{Logger: cli.Slog(logger, applog.ComponentMutation)},
		logger.Slog())

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Queries:       services.NewQueries(qc, restaurants, records),
		Mutations:     services.NewMutations(coordinator, restaurants, records),
		Formatter:     report.NewFormatter(cfg.ReportLocale),
		DefaultUserID: cfg.DefaultUserID,
		Backend:       result.Backend,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", applog.FieldError, err)
		os.Exit(1)
	}

	_, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		qc.Wait()
	})

	logger.Info("Starting HTTP server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
