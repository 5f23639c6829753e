package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dev-digest/internal/infra/adapter/persistence/postgres"
	"dev-digest/internal/infra/db"
	"dev-digest/internal/infra/mailer"
	"dev-digest/internal/infra/scheduler"
	"dev-digest/internal/infra/source"
	"dev-digest/internal/observability/logging"
	"dev-digest/internal/observability/tracing"
	"dev-digest/internal/resilience/circuitbreaker"
	"dev-digest/internal/resilience/retry"
	"dev-digest/internal/usecase/deliver"
	"dev-digest/internal/usecase/digest"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing := tracing.Init()
	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	schedMetrics := scheduler.NewMetrics()
	schedConfig := scheduler.LoadConfigFromEnv(logger, schedMetrics)
	logger.Info("scheduler configuration loaded",
		slog.String("cron_schedule", schedConfig.CronSchedule),
		slog.String("timezone", schedConfig.Timezone),
		slog.Int("max_concurrent", schedConfig.MaxConcurrent),
		slog.Duration("batch_timeout", schedConfig.BatchTimeout),
		slog.Int("health_port", schedConfig.HealthPort))

	recipientRepo := postgres.NewRecipientRepo(database)
	historyRepo := postgres.NewHistoryRepo(database)

	breakers := circuitbreaker.NewRegistry(nil)
	aggregator, err := digest.NewAggregator(
		buildAdapters(logger), breakers, retry.SourceFetchConfig())
	if err != nil {
		logger.Error("failed to build aggregator", slog.Any("error", err))
		os.Exit(1)
	}

	composer := deliver.NewPlainTextComposer(settingsURL())
	svc := digest.NewService(recipientRepo, historyRepo, aggregator, composer, buildChannel(logger))

	sched := scheduler.New(schedConfig, svc, recipientRepo, historyRepo, breakers, schedMetrics)
	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	defer sched.Stop()

	startMetricsServer(ctx, logger)
	go publishPoolStats(ctx, database)

	healthAddr := fmt.Sprintf(":%d", schedConfig.HealthPort)
	healthServer := scheduler.NewHealthServer(healthAddr, logger, sched)
	go func() {
		if err := healthServer.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.Error("health server failed", slog.Any("error", err))
		}
	}()
	healthServer.SetReady(true)

	logger.Info("worker started",
		slog.String("schedule", schedConfig.CronSchedule),
		slog.String("timezone", schedConfig.Timezone))

	<-ctx.Done()
	logger.Info("shutdown signal received")
}

// initDatabase opens the connection pool and applies the schema.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("migrations failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("migrations applied")
	return database
}

// buildAdapters wires the four source adapters behind one shared HTTP
// client and response cache. SOURCES_CONFIG points to an optional YAML
// file overriding the defaults.
func buildAdapters(logger *slog.Logger) []digest.SourceAdapter {
	cfg, err := source.LoadConfig(os.Getenv("SOURCES_CONFIG"))
	if err != nil {
		logger.Error("invalid source configuration", slog.Any("error", err))
		os.Exit(1)
	}

	client := source.NewClient(cfg.RequestTimeout, 5)
	cache := source.NewItemCache(cfg.CacheTTL)

	return []digest.SourceAdapter{
		source.NewIssuesAdapter(client, cache, cfg),
		source.NewPullsAdapter(client, cache, cfg),
		source.NewTrendingAdapter(client, cache, cfg),
		source.NewArticleAdapter(cache, cfg),
	}
}

// buildChannel selects the delivery channel. EMAIL_ENABLED=false swaps in
// the no-op mailer so the pipeline can run without an SMTP relay.
func buildChannel(logger *slog.Logger) digest.DeliveryChannel {
	if os.Getenv("EMAIL_ENABLED") == "false" {
		logger.Info("email delivery disabled, using noop mailer")
		return mailer.NewNoopMailer()
	}

	cfg := mailer.LoadSMTPConfig()
	logger.Info("smtp mailer initialized",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("from", cfg.From))
	return mailer.NewSMTPMailer(cfg)
}

// settingsURL builds the unsubscribe link target from APP_URL. An empty
// value omits the footer line entirely.
func settingsURL() string {
	base := os.Getenv("APP_URL")
	if base == "" {
		return ""
	}
	return base + "/settings"
}

// publishPoolStats copies the connection pool gauges into Prometheus on a
// fixed interval until the context is cancelled.
func publishPoolStats(ctx context.Context, database *sql.DB) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			db.PublishPoolStats(database)
		}
	}
}
