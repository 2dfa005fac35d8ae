package tenantdb_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grupooptimo/tenantkit/pkg/tenant"
	"github.com/grupooptimo/tenantkit/pkg/tenantdb"
)

type fakeRow struct {
	val string
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) > 0 {
		if p, ok := dest[0].(*string); ok {
			*p = r.val
		}
	}
	return nil
}

// fakeConn reports a configurable bound database for the validation probe.
type fakeConn struct {
	mu       sync.Mutex
	actual   string
	open     bool
	probes   int
	probeErr error
	closeErr error
}

func (c *fakeConn) QueryRow(context.Context, string, ...any) pgx.Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes++
	return fakeRow{val: c.actual, err: c.probeErr}
}

func (c *fakeConn) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (c *fakeConn) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (c *fakeConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *fakeConn) Close(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return c.closeErr
}

func (c *fakeConn) probeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.probes
}

// fakePooler builds fakeConns, with knobs for the failure modes the cache
// must survive.
type fakePooler struct {
	mu        sync.Mutex
	conns     []*fakeConn
	acquires  int
	resets    []string
	shutdowns int

	failFirstAcquire bool
	failAllAcquires  bool
	notOpenFirst     bool
	probeErrFirst    error
	misbind          map[string]string // requested database -> actually bound database
}

func (p *fakePooler) Acquire(_ context.Context, dbName string) (tenantdb.Conn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.acquires++

	if p.failAllAcquires || (p.failFirstAcquire && p.acquires == 1) {
		return nil, errors.New("driver refused connection")
	}

	actual := dbName
	if bound, ok := p.misbind[dbName]; ok {
		actual = bound
	}
	conn := &fakeConn{actual: actual, open: !(p.notOpenFirst && p.acquires == 1)}
	if p.acquires == 1 && p.probeErrFirst != nil {
		conn.probeErr = p.probeErrFirst
	}
	p.conns = append(p.conns, conn)
	return conn, nil
}

func (p *fakePooler) Reset(_ context.Context, dbName string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resets = append(p.resets, dbName)
	return nil
}

func (p *fakePooler) Shutdown(context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdowns++
}

func (p *fakePooler) acquireCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquires
}

func (p *fakePooler) resetDatabases() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.resets...)
}

func newManager(pooler tenantdb.Pooler) *tenantdb.Manager {
	return tenantdb.NewManager(tenant.NewRegistry(), pooler)
}

func TestCache_SessionValidatedAndReused(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	pooler := &fakePooler{}
	c := newManager(pooler).NewCache()

	conn, err := c.Session(ctx, "rs")
	require.NoError(t, err)

	fc := pooler.conns[0]
	assert.Equal(t, "msc-app-rs", fc.actual)
	assert.Equal(t, 1, fc.probeCount(), "fresh acquisition must run the validation round-trip")

	// Reuse: same conn, no extra acquire, no extra probe.
	again, err := c.Session(ctx, "rs")
	require.NoError(t, err)
	assert.Same(t, conn, again)
	assert.Equal(t, 1, pooler.acquireCount())
	assert.Equal(t, 1, fc.probeCount(), "cached sessions are not re-probed on every call")
}

func TestCache_DatabaseMismatchIsFatal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	pooler := &fakePooler{misbind: map[string]string{"msc-app-rs": "msc-app-ts"}}
	c := newManager(pooler).NewCache()

	_, err := c.Session(ctx, "rs")
	require.ErrorIs(t, err, tenantdb.ErrDatabaseMismatch,
		"a wrongly bound connection must never be returned as a usable handle")
	assert.Contains(t, err.Error(), "msc-app-rs")
	assert.Contains(t, err.Error(), "msc-app-ts")

	assert.False(t, pooler.conns[0].IsOpen(), "mismatched connection must be closed")
	assert.Equal(t, 1, pooler.acquireCount(), "mismatch is not retried")
	assert.Empty(t, pooler.resetDatabases())
}

func TestCache_UnknownTenant(t *testing.T) {
	t.Parallel()

	pooler := &fakePooler{}
	c := newManager(pooler).NewCache()

	_, err := c.Session(context.Background(), "ghost")
	require.ErrorIs(t, err, tenant.ErrUnknownTenant)
	assert.Zero(t, pooler.acquireCount(), "no connection may be opened for an unknown tenant")
}

func TestCache_RetriesAcquisitionOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	pooler := &fakePooler{failFirstAcquire: true}
	c := newManager(pooler).NewCache()

	conn, err := c.Session(ctx, "rs")
	require.NoError(t, err)
	assert.True(t, conn.IsOpen())
	assert.Equal(t, 2, pooler.acquireCount())
	assert.Equal(t, []string{"msc-app-rs"}, pooler.resetDatabases(),
		"the retry must go through reset-and-reacquire")
}

func TestCache_RetriesNotOpenConnection(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	pooler := &fakePooler{notOpenFirst: true}
	c := newManager(pooler).NewCache()

	conn, err := c.Session(ctx, "rs")
	require.NoError(t, err)
	assert.True(t, conn.IsOpen())
	assert.Equal(t, 2, pooler.acquireCount())
}

func TestCache_RetriesFailedProbe(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	pooler := &fakePooler{probeErrFirst: errors.New("connection reset by peer")}
	c := newManager(pooler).NewCache()

	conn, err := c.Session(ctx, "rs")
	require.NoError(t, err)
	assert.True(t, conn.IsOpen())
	assert.False(t, pooler.conns[0].IsOpen(), "the conn with the failed probe must be closed")
}

func TestCache_AcquisitionFatalAfterRetry(t *testing.T) {
	t.Parallel()

	pooler := &fakePooler{failAllAcquires: true}
	c := newManager(pooler).NewCache()

	_, err := c.Session(context.Background(), "rs")
	require.ErrorIs(t, err, tenantdb.ErrSessionAcquisition)
	assert.Equal(t, 2, pooler.acquireCount(), "exactly one retry, then fatal")
}

func TestCache_SwitchEvictsPreviousSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	pooler := &fakePooler{}
	c := newManager(pooler).NewCache()

	first, err := c.Session(ctx, "rs")
	require.NoError(t, err)

	second, err := c.Session(ctx, "ts")
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.False(t, pooler.conns[0].IsOpen(), "previous tenant's session must be closed")
	assert.Equal(t, "msc-app-ts", pooler.conns[1].actual)
}

func TestCache_ReacquiresWhenSessionWentStale(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	pooler := &fakePooler{}
	c := newManager(pooler).NewCache()

	conn, err := c.Session(ctx, "rs")
	require.NoError(t, err)
	require.NoError(t, conn.Close(ctx)) // connection died underneath us

	fresh, err := c.Session(ctx, "rs")
	require.NoError(t, err)
	assert.NotSame(t, conn, fresh)
	assert.Equal(t, 2, pooler.acquireCount())
}

func TestCache_Release(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	pooler := &fakePooler{}
	c := newManager(pooler).NewCache()

	_, err := c.Session(ctx, "rs")
	require.NoError(t, err)

	// Releasing a different tenant leaves the cached session alone.
	require.NoError(t, c.Release(ctx, "ts"))
	assert.True(t, pooler.conns[0].IsOpen())

	require.NoError(t, c.Release(ctx, "rs"))
	assert.False(t, pooler.conns[0].IsOpen())

	// Released means gone: next call builds a fresh session.
	_, err = c.Session(ctx, "rs")
	require.NoError(t, err)
	assert.Equal(t, 2, pooler.acquireCount())
}

func TestCache_CloseIsIdempotentAndSwallowsErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	pooler := &fakePooler{}
	c := newManager(pooler).NewCache()

	_, err := c.Session(ctx, "rs")
	require.NoError(t, err)
	pooler.conns[0].closeErr = errors.New("close exploded")

	c.Close(ctx) // must not panic or propagate
	c.Close(ctx)
	assert.False(t, pooler.conns[0].IsOpen())
}

func TestManager_ReleaseAll(t *testing.T) {
	t.Parallel()

	pooler := &fakePooler{}
	m := newManager(pooler)
	m.ReleaseAll(context.Background())
	assert.Equal(t, 1, pooler.shutdowns)
}

func TestHandle_Errors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	_, err := tenantdb.Handle(ctx)
	assert.ErrorIs(t, err, tenant.ErrNoExecutionContext)

	c := newManager(&fakePooler{}).NewCache()
	ctx = tenantdb.WithCache(ctx, c)
	_, err = tenantdb.Handle(ctx)
	assert.ErrorIs(t, err, tenantdb.ErrNoActiveTenant)
}

func TestCaches_ConcurrentContextsGetDistinctConnections(t *testing.T) {
	t.Parallel()

	pooler := &fakePooler{}
	m := newManager(pooler)

	const workers = 16
	conns := make([]tenantdb.Conn, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := tenant.ID("rs")
			if i%2 == 1 {
				id = "ts"
			}
			conn, err := m.NewCache().Session(context.Background(), id)
			if err != nil {
				t.Error(err)
				return
			}
			conns[i] = conn
		}(i)
	}
	wg.Wait()

	seen := make(map[tenantdb.Conn]bool, workers)
	for _, conn := range conns {
		require.NotNil(t, conn)
		assert.False(t, seen[conn], "two execution contexts shared a connection")
		seen[conn] = true
	}
}
