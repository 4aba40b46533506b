package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/viper"
)

// Connect opens the audit database pool. An unset database.url is not
// an error: the service runs without persistence and returns nil.
func Connect(ctx context.Context) (*pgxpool.Pool, error) {
	connString := viper.GetString("database.url")
	if connString == "" {
		return nil, nil
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
