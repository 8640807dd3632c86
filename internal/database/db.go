// Package database persists the execution journal: every webhook-triggered
// buy and its bracket outcome. The journal is optional; with no database
// configured every operation is a no-op.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Config holds PostgreSQL connection settings.
type Config struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// DB wraps the PostgreSQL connection pool.
type DB struct {
	Pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDB creates a new database connection pool and ensures the schema.
func NewDB(ctx context.Context, cfg Config, logger zerolog.Logger) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	db := &DB{Pool: pool, logger: logger.With().Str("component", "database").Logger()}
	if err := db.ensureSchema(connectCtx); err != nil {
		pool.Close()
		return nil, err
	}

	db.logger.Info().Str("database", cfg.Database).Msg("connected to PostgreSQL")
	return db, nil
}

// ensureSchema creates the executions table if it does not exist yet.
func (db *DB) ensureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS executions (
			id BIGSERIAL PRIMARY KEY,
			request_id TEXT NOT NULL,
			symbol TEXT NOT NULL,
			quote_amount DOUBLE PRECISION NOT NULL,
			average_price DOUBLE PRECISION NOT NULL,
			filled_quantity DOUBLE PRECISION NOT NULL,
			take_profit_price TEXT NOT NULL DEFAULT '',
			stop_trigger_price TEXT NOT NULL DEFAULT '',
			stop_limit_price TEXT NOT NULL DEFAULT '',
			order_list_id BIGINT NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`

	if _, err := db.Pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("unable to create executions table: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() {
	if db != nil && db.Pool != nil {
		db.Pool.Close()
	}
}
