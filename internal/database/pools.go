package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/lastprice/internal/config"
)

// schema creates the price history table. Safe to run on every start.
const schema = `
CREATE TABLE IF NOT EXISTS price_history (
	completion_id UUID        NOT NULL,
	batch_id      BIGINT      NOT NULL,
	instrument    TEXT        NOT NULL,
	as_of         BIGINT      NOT NULL,
	payload       BYTEA       NOT NULL,
	completed_at  BIGINT      NOT NULL,
	PRIMARY KEY (completion_id, instrument)
)`

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	connStr := BuildConnString(cfg)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// EnsureSchema creates the tables used by the price history writer.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create price_history: %w", err)
	}
	return nil
}
