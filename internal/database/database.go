package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the subset of pgxpool.Pool the health handlers depend on
type Pool interface {
	Ping(ctx context.Context) error
	Close()
}

// PoolConfig bounds the pgx connection pool. Zero or negative fields
// fall back to the package defaults.
type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
	MaxConnLifetime time.Duration
}

// NewPool opens a pgx pool with the given sizing bounds and verifies the
// database is reachable before handing it back
func NewPool(ctx context.Context, connString string, pc PoolConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToParseConnString, err)
	}

	if pc.MaxConns <= 0 {
		pc.MaxConns = DefaultMaxConnections
	}
	if pc.MinConns <= 0 {
		pc.MinConns = DefaultMinConnections
	}
	if pc.MaxConnIdleTime <= 0 {
		pc.MaxConnIdleTime = DefaultMaxConnIdleTime
	}
	if pc.MaxConnLifetime <= 0 {
		pc.MaxConnLifetime = DefaultMaxConnLifetime
	}

	config.MaxConns = pc.MaxConns
	config.MinConns = pc.MinConns
	config.MaxConnIdleTime = pc.MaxConnIdleTime
	config.MaxConnLifetime = pc.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToCreatePool, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToPingDatabase, err)
	}

	slog.Default().Info(LogMsgSuccessfullyConnectedToDatabase,
		"max_conns", pc.MaxConns, "min_conns", pc.MinConns)
	return pool, nil
}
