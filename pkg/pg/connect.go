package pg

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a connection pool for one physical tenant database, retrying
// with linear backoff so a briefly unavailable server does not fail request
// processing outright.
func Connect(ctx context.Context, cfg Config, dbName string) (*pgxpool.Pool, error) {
	if dbName == "" {
		return nil, ErrEmptyDatabaseName
	}

	connConfig, err := pgxpool.ParseConfig(cfg.ConnString(dbName))
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}
	connConfig.MaxConns = cfg.MaxOpenConns
	connConfig.MinConns = cfg.MaxIdleConns
	connConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	connConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	connConfig.MaxConnLifetime = cfg.MaxConnLifetime

	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	for i := range attempts {
		pool, err := pgxpool.NewWithConfig(ctx, connConfig)
		if err == nil {
			// Ping to catch authentication and permission problems up front;
			// pgxpool creation alone does not touch the network.
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}

		if ctx.Err() != nil {
			return nil, errors.Join(ErrFailedToOpenDBConnection, ctx.Err())
		}
		if i < attempts-1 {
			time.Sleep(time.Duration(i+1) * cfg.RetryInterval)
		}
	}

	return nil, ErrFailedToOpenDBConnection
}
