package tenantdb

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grupooptimo/tenantkit/pkg/pg"
)

// Pooler hands out connections to physical tenant databases. Pooling itself
// is the driver's job; implementations only decide how pools are created,
// reset and torn down.
type Pooler interface {
	// Acquire checks a connection out for dbName, creating the pool on
	// first use.
	Acquire(ctx context.Context, dbName string) (Conn, error)

	// Reset discards the pool for dbName so the next Acquire builds a
	// fresh one. Used for the single reset-and-reacquire retry.
	Reset(ctx context.Context, dbName string) error

	// Shutdown closes every known pool. Errors on individual databases are
	// tolerated so one broken tenant cannot block cleanup of the others.
	Shutdown(ctx context.Context)
}

// PGPooler implements Pooler with one pgxpool.Pool per physical database,
// built lazily from a shared pg.Config template. Pools are process-wide and
// safely shared; the per-execution-context isolation lives in Cache, which
// hands out individually checked-out connections.
type PGPooler struct {
	cfg pg.Config
	log *slog.Logger

	mu    sync.Mutex
	pools map[string]*pgxpool.Pool
}

// PGPoolerOption configures a PGPooler.
type PGPoolerOption func(*PGPooler)

// WithPoolerLogger sets the logger for pool lifecycle events.
func WithPoolerLogger(log *slog.Logger) PGPoolerOption {
	return func(p *PGPooler) {
		p.log = log
	}
}

// NewPGPooler creates a pooler over the given server configuration.
func NewPGPooler(cfg pg.Config, opts ...PGPoolerOption) *PGPooler {
	p := &PGPooler{
		cfg:   cfg,
		log:   slog.Default(),
		pools: make(map[string]*pgxpool.Pool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *PGPooler) Acquire(ctx context.Context, dbName string) (Conn, error) {
	pool, err := p.pool(ctx, dbName)
	if err != nil {
		return nil, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection to %s: %w", dbName, err)
	}
	return &pgxConn{conn: conn}, nil
}

func (p *PGPooler) Reset(ctx context.Context, dbName string) error {
	p.mu.Lock()
	pool, ok := p.pools[dbName]
	delete(p.pools, dbName)
	p.mu.Unlock()

	if ok {
		p.log.InfoContext(ctx, "resetting tenant database pool", "database", dbName)
		pool.Close()
	}
	return nil
}

func (p *PGPooler) Shutdown(ctx context.Context) {
	p.mu.Lock()
	pools := p.pools
	p.pools = make(map[string]*pgxpool.Pool)
	p.mu.Unlock()

	for dbName, pool := range pools {
		pool.Close()
		p.log.InfoContext(ctx, "closed tenant database pool", "database", dbName)
	}
}

// pool returns the pool for dbName, creating it on first use. Creation runs
// outside the map lock so one slow database does not stall the others; the
// rare duplicate pool from a race is closed immediately.
func (p *PGPooler) pool(ctx context.Context, dbName string) (*pgxpool.Pool, error) {
	p.mu.Lock()
	if pool, ok := p.pools[dbName]; ok {
		p.mu.Unlock()
		return pool, nil
	}
	p.mu.Unlock()

	pool, err := pg.Connect(ctx, p.cfg, dbName)
	if err != nil {
		return nil, fmt.Errorf("open pool for %s: %w", dbName, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.pools[dbName]; ok {
		pool.Close()
		return existing, nil
	}
	p.pools[dbName] = pool
	return pool, nil
}
