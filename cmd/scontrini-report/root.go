package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scontrini/internal/backend"
	"scontrini/internal/cache"
	"scontrini/internal/cli"
	"scontrini/internal/config"
	applog "scontrini/internal/log"
	"scontrini/internal/mutation"
	"scontrini/internal/report"
	"scontrini/internal/services"
)

var (
	flagUser     string
	flagLocale   string
	flagLogLevel string
	flagEvents   bool
)

var rootCmd = &cobra.Command{
	Use:          "scontrini-report",
	Short:        "Restaurant receipts from the terminal",
	Long:         "List restaurants and records, print receipts and export them to a spreadsheet.",
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "User id (default: DEFAULT_USER_ID)")
	rootCmd.PersistentFlags().StringVarP(&flagLocale, "locale", "l", "", "Report locale (default: REPORT_LOCALE)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level written to stderr")
	rootCmd.PersistentFlags().BoolVar(&flagEvents, "publish-events", false, "Publish record events to AMQP_URL after writes")

	rootCmd.AddCommand(restaurantsCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(printCmd)
	rootCmd.AddCommand(addCmd)
}

// app is the wiring shared by every command: the configured backend behind
// the same query cache and mutation coordinator the server uses.
type app struct {
	cfg       *config.Config
	logger    *applog.Logger
	backend   *backend.BackendResult
	cache     *cache.QueryClient
	queries   *services.Queries
	mutations *services.Mutations
	formatter report.Formatter
	userID    string
	closers   []func() error
}

// openApp loads the configuration and opens the backend. Logs go to
// stderr so that stdout carries only the report.
func openApp(ctx context.Context) (*app, error) {
	cli.LoadEnvFile()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration: %w", err)
	}

	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(flagLogLevel),
		Format:    cfg.LogFormat,
		Component: applog.ComponentReport,
		Output:    os.Stderr,
	})

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(cli.Slog(logger, applog.ComponentBackend)).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		backend: res,
		userID:  cfg.DefaultUserID,
	}
	if flagUser != "" {
		a.userID = flagUser
	}
	locale := cfg.ReportLocale
	if flagLocale != "" {
		locale = flagLocale
	}
	a.formatter = report.NewFormatter(locale)

	var publisher services.Publisher
	if flagEvents {
		client, err := cli.OpenAMQP(logger, cfg)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, record events disabled", applog.FieldError, err)
		} else if client != nil {
			a.closers = append(a.closers, client.Close)
			publisher = client
		}
	}

	restaurants := services.NewRestaurantService(res.Backend, cli.Slog(logger, applog.ComponentStorage))
	records := services.NewRecordService(res.Backend, publisher, cli.Slog(logger, applog.ComponentRecords))
	a.cache = cache.NewQueryClient(cache.QueryClientConfig{
		MaxEntries: cfg.CacheMaxEntries,
		TTL:        cfg.CacheTTL,
		Logger:     logger.Slog(),
	})
	coordinator := mutation.NewCoordinator(a.cache,
		mutation.LogNotifier{Logger: cli.Slog(logger, applog.ComponentMutation)},
		logger.Slog())
	a.queries = services.NewQueries(a.cache, restaurants, records)
	a.mutations = services.NewMutations(coordinator, restaurants, records)
	return a, nil
}

// Close waits for background refetches before closing the backend.
func (a *app) Close() {
	a.cache.Wait()
	for _, c := range a.closers {
		_ = c()
	}
	if err := a.backend.Close(); err != nil {
		a.logger.Error("Backend close error", applog.FieldError, err)
	}
}

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
