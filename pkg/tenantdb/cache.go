package tenantdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/grupooptimo/tenantkit/pkg/tenant"
)

// Manager owns the process-wide pieces of the data-access layer: the pooler
// and the registry binding tenants to physical databases. Per-request state
// lives in the Caches it creates.
type Manager struct {
	registry *tenant.Registry
	pooler   Pooler
	log      *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger for session lifecycle diagnostics.
func WithManagerLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.log = log
	}
}

// NewManager creates a manager over the given registry and pooler.
func NewManager(reg *tenant.Registry, pooler Pooler, opts ...ManagerOption) *Manager {
	m := &Manager{
		registry: reg,
		pooler:   pooler,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewCache creates the connection cache for one execution context. Each
// request or CLI run gets its own; caches are never shared.
func (m *Manager) NewCache() *Cache {
	return &Cache{m: m}
}

// ReleaseAll closes every pool known to the process. Shutdown or
// administrative "reset everything" operation; individual failures are
// handled inside the pooler and never abort the sweep.
func (m *Manager) ReleaseAll(ctx context.Context) {
	m.pooler.Shutdown(ctx)
}

// cachedSession is the single validated session an execution context holds.
type cachedSession struct {
	tenant    tenant.ID
	conn      Conn
	validated bool
}

// Cache holds at most one validated, live data-access session for one
// execution context. It implements tenant.SessionReleaser so tenant
// switches evict the previous tenant's session automatically.
type Cache struct {
	m *Manager

	mu  sync.Mutex
	cur *cachedSession
}

// Session returns the validated session for id, reusing the cached one when
// it belongs to the same tenant and still reports itself open. Liveness is
// not re-probed on every call; the validating round-trip runs only on fresh
// acquisitions, where it is mandatory and never skipped.
func (c *Cache) Session(ctx context.Context, id tenant.ID) (Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cur != nil && c.cur.tenant == id && c.cur.validated && c.cur.conn.IsOpen() {
		return c.cur.conn, nil
	}

	// Whatever is cached is for another tenant or no longer open: evict
	// before acquiring so the context never holds two sessions.
	c.evictLocked(ctx)

	expected, err := c.m.registry.DatabaseName(ctx, id)
	if err != nil {
		return nil, err
	}

	conn, err := c.acquireValidated(ctx, id, expected)
	if err != nil {
		return nil, err
	}

	c.cur = &cachedSession{tenant: id, conn: conn, validated: true}
	return conn, nil
}

// acquireValidated obtains a fresh connection for the tenant's database and
// runs the mandatory validation round-trip. Transient failures (acquisition
// error, connection not open, failed probe) get exactly one retry via
// reset-and-reacquire; a database mismatch is fatal immediately.
func (c *Cache) acquireValidated(ctx context.Context, id tenant.ID, expected string) (Conn, error) {
	var lastErr error
	for attempt := range 2 {
		if attempt > 0 {
			acquireRetriesTotal.Inc()
			if err := c.m.pooler.Reset(ctx, expected); err != nil {
				c.m.log.ErrorContext(ctx, "pool reset failed", "database", expected, "error", err)
			}
		}

		conn, err := c.m.pooler.Acquire(ctx, expected)
		if err != nil {
			lastErr = err
			continue
		}
		if !conn.IsOpen() {
			_ = conn.Close(ctx)
			lastErr = fmt.Errorf("connection to %s not open after acquire", expected)
			continue
		}

		actual, err := c.validate(ctx, conn, expected)
		if err == nil {
			validationsTotal.WithLabelValues("ok").Inc()
			return conn, nil
		}
		_ = conn.Close(ctx)

		if errors.Is(err, ErrDatabaseMismatch) {
			validationsTotal.WithLabelValues("mismatch").Inc()
			c.m.log.ErrorContext(ctx, "tenant database mismatch",
				"tenant", id.String(), "expected", expected, "actual", actual)
			return nil, err
		}
		validationsTotal.WithLabelValues("error").Inc()
		lastErr = err
	}

	return nil, fmt.Errorf("%w: tenant %q database %q: %w", ErrSessionAcquisition, id, expected, lastErr)
}

// validate forces a real round-trip and compares the connection's actual
// bound database against the registry's expectation. Returns the actual
// name for diagnostics.
func (c *Cache) validate(ctx context.Context, conn Conn, expected string) (string, error) {
	var actual string
	if err := conn.QueryRow(ctx, "SELECT current_database()").Scan(&actual); err != nil {
		return "", fmt.Errorf("validation probe: %w", err)
	}
	if actual != expected {
		return actual, fmt.Errorf("%w: expected %q, connected to %q", ErrDatabaseMismatch, expected, actual)
	}
	return actual, nil
}

// Release implements tenant.SessionReleaser: it closes and evicts the
// cached session if it belongs to id.
func (c *Cache) Release(ctx context.Context, id tenant.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cur == nil || c.cur.tenant != id {
		return nil
	}
	conn := c.cur.conn
	c.cur = nil
	evictionsTotal.Inc()
	return conn.Close(ctx)
}

// Close releases whatever session the cache still holds. Errors are logged
// and swallowed; teardown must not surface to the caller.
func (c *Cache) Close(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked(ctx)
}

// evictLocked closes the current session best-effort. Lock must be held.
func (c *Cache) evictLocked(ctx context.Context) {
	if c.cur == nil {
		return
	}
	evictionsTotal.Inc()
	if err := c.cur.conn.Close(ctx); err != nil {
		c.m.log.ErrorContext(ctx, "failed to close tenant session",
			"tenant", c.cur.tenant.String(), "error", err)
	}
	c.cur = nil
}
