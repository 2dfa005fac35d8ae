package tenantdb

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Conn is a live, tenant-bound data-access handle. All persistence
// operations of business collaborators flow through it. Callers must never
// cache a Conn beyond the current execution context.
type Conn interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// IsOpen reports liveness cheaply, without a network round-trip.
	IsOpen() bool

	// Close releases the underlying connection. Idempotent.
	Close(ctx context.Context) error
}

// pgxConn adapts one connection checked out of a pgxpool to the Conn
// interface. Close returns the connection to the pool rather than
// terminating it; pool teardown belongs to the Pooler.
type pgxConn struct {
	mu     sync.Mutex
	conn   *pgxpool.Conn
	closed bool
}

func (c *pgxConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return c.conn.QueryRow(ctx, sql, args...)
}

func (c *pgxConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return c.conn.Query(ctx, sql, args...)
}

func (c *pgxConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return c.conn.Exec(ctx, sql, args...)
}

func (c *pgxConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.conn != nil && !c.conn.Conn().IsClosed()
}

func (c *pgxConn) Close(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.conn.Release()
	return nil
}
