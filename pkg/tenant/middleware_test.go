package tenant_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grupooptimo/tenantkit/pkg/session"
	"github.com/grupooptimo/tenantkit/pkg/tenant"
)

func TestMiddleware_ResolvesTenant(t *testing.T) {
	t.Parallel()

	reg := tenant.NewRegistry()
	mw := tenant.Middleware(reg, tenant.DefaultChain(reg))

	var seen tenant.ID
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := tenant.CurrentTenant(r.Context())
		require.True(t, ok)
		seen = id
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/rs/login", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tenant.ID("rs"), seen)
}

func TestMiddleware_UnknownTenantIs404(t *testing.T) {
	t.Parallel()

	// No default tenant configured, so an unmatched request cannot fall
	// through to a valid tenant.
	table := tenant.Table{Tenants: map[tenant.ID]string{"rs": "msc-app-rs"}}
	reg := tenant.NewRegistry(tenant.WithTable(table))
	mw := tenant.Middleware(reg, tenant.DefaultChain(reg))

	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for an unresolved tenant")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ghost/login", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMiddleware_SkipPaths(t *testing.T) {
	t.Parallel()

	table := tenant.Table{Tenants: map[tenant.ID]string{"rs": "msc-app-rs"}}
	reg := tenant.NewRegistry(tenant.WithTable(table))
	mw := tenant.Middleware(reg, tenant.DefaultChain(reg),
		tenant.WithSkipPaths([]string{"/health", "/metrics"}))

	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := tenant.CurrentTenant(r.Context())
		assert.False(t, ok, "skipped paths get no tenant resolution")
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware_CustomErrorHandler(t *testing.T) {
	t.Parallel()

	table := tenant.Table{Tenants: map[tenant.ID]string{"rs": "msc-app-rs"}}
	reg := tenant.NewRegistry(tenant.WithTable(table))

	var handled error
	mw := tenant.Middleware(reg, tenant.DefaultChain(reg),
		tenant.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			handled = err
			w.WriteHeader(http.StatusTeapot)
		}))

	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ghost/x", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.ErrorIs(t, handled, tenant.ErrUnknownTenant)
}

func TestMiddleware_SessionPersistence(t *testing.T) {
	t.Parallel()

	reg := tenant.NewRegistry()
	sess := session.NewMemoryStore()
	sess.Start()

	mw := tenant.Middleware(reg, tenant.DefaultChain(reg),
		tenant.WithSessionProvider(func(*http.Request) session.Store { return sess }))

	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	// First request selects the tenant via the path.
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/SNT/login", nil))
	assert.Equal(t, "SNT", session.GetString(t.Context(), sess, session.TenantKey))

	// Second request has no tenant in the path but stays pinned.
	var seen tenant.ID
	h2 := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = tenant.CurrentTenant(r.Context())
	}))
	h2.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, tenant.ID("SNT"), seen)
}

func TestMiddleware_TeardownReleasesSession(t *testing.T) {
	t.Parallel()

	reg := tenant.NewRegistry()
	mw := tenant.Middleware(reg, tenant.DefaultChain(reg))

	releaser := &fakeReleaser{}
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant.MustFromContext(r.Context()).SetReleaser(releaser)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/rs/x", nil))
	assert.Equal(t, []tenant.ID{"rs"}, releaser.releasedTenants(),
		"teardown must release the bound tenant's session")
}

func TestRequireTenant(t *testing.T) {
	t.Parallel()

	guard := tenant.RequireTenant(nil)
	h := guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	reg := tenant.NewRegistry()
	ec := tenant.NewExecutionContext(reg)
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	r = r.WithContext(tenant.WithExecutionContext(r.Context(), ec))
	require.NoError(t, ec.SetTenant(r.Context(), "rs"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
}
