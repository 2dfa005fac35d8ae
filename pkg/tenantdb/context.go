package tenantdb

import (
	"context"

	"github.com/grupooptimo/tenantkit/pkg/tenant"
)

type cacheKey struct{}

// WithCache attaches an execution context's connection cache to the context
// chain.
func WithCache(ctx context.Context, c *Cache) context.Context {
	return context.WithValue(ctx, cacheKey{}, c)
}

// CacheFromContext retrieves the connection cache, if any.
func CacheFromContext(ctx context.Context) (*Cache, bool) {
	c, ok := ctx.Value(cacheKey{}).(*Cache)
	return c, ok
}

// Handle returns the validated, tenant-bound data-access handle for the
// surrounding execution context. This is the single entry point business
// collaborators use for persistence; the returned Conn must not be cached
// beyond the current request or CLI run.
func Handle(ctx context.Context) (Conn, error) {
	c, ok := CacheFromContext(ctx)
	if !ok {
		return nil, tenant.ErrNoExecutionContext
	}
	id, ok := tenant.CurrentTenant(ctx)
	if !ok {
		return nil, ErrNoActiveTenant
	}
	return c.Session(ctx, id)
}
