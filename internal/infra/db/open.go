// Package db opens and migrates the PostgreSQL store backing the digest
// pipeline.
package db

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"dev-digest/internal/observability/metrics"
	"dev-digest/internal/pkg/config"
)

// ConnectionConfig holds database connection pool configuration.
type ConnectionConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultConnectionConfig returns the default connection pool configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 1 * time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// Open creates and configures a new database connection pool. It reads
// DATABASE_URL from the environment and applies pool settings, then verifies
// the connection. Startup without a reachable database is fatal.
func Open() *sql.DB {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatal(err)
	}

	cfg := loadConnectionConfig()
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	slog.Info("database connection pool configured",
		slog.Int("max_open_conns", cfg.MaxOpenConns),
		slog.Int("max_idle_conns", cfg.MaxIdleConns),
		slog.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
		slog.Duration("conn_max_idle_time", cfg.ConnMaxIdleTime))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping database: %v", err)
	}

	slog.Info("database connection established")
	return db
}

// loadConnectionConfig reads pool settings from environment variables with
// fail-open fallback to defaults for malformed values.
func loadConnectionConfig() ConnectionConfig {
	cfg := DefaultConnectionConfig()

	result := config.LoadEnvInt("DB_MAX_OPEN_CONNS", cfg.MaxOpenConns, config.ValidatePositiveInt)
	cfg.MaxOpenConns = result.Value.(int)

	result = config.LoadEnvInt("DB_MAX_IDLE_CONNS", cfg.MaxIdleConns, config.ValidatePositiveInt)
	cfg.MaxIdleConns = result.Value.(int)

	result = config.LoadEnvDuration("DB_CONN_MAX_LIFETIME", cfg.ConnMaxLifetime, config.ValidatePositiveDuration)
	cfg.ConnMaxLifetime = result.Value.(time.Duration)

	result = config.LoadEnvDuration("DB_CONN_MAX_IDLE_TIME", cfg.ConnMaxIdleTime, config.ValidatePositiveDuration)
	cfg.ConnMaxIdleTime = result.Value.(time.Duration)

	return cfg
}

// PublishPoolStats copies the pool gauges into Prometheus. Call periodically
// from the worker's background loop.
func PublishPoolStats(db *sql.DB) {
	stats := db.Stats()
	metrics.DBConnectionsActive.Set(float64(stats.InUse))
	metrics.DBConnectionsIdle.Set(float64(stats.Idle))
}
