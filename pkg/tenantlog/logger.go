package tenantlog

import (
	"context"
	"log/slog"
	"os"

	"github.com/grupooptimo/tenantkit/pkg/cache"
	"github.com/grupooptimo/tenantkit/pkg/tenant"
)

// loggerCacheSize bounds the cached per-tenant loggers. Far above the
// realistic tenant count; the bound only guards against identifier abuse.
const loggerCacheSize = 128

// HandlerFactory builds the slog handler for one tenant's logger. Used to
// route tenants to separate outputs (per-tenant log files, streams).
type HandlerFactory func(id tenant.ID) slog.Handler

// Factory hands out per-tenant loggers. Every logger carries a "tenant"
// attribute; with a custom HandlerFactory each tenant can additionally get
// its own output. Loggers are cached per tenant for the life of the process.
type Factory struct {
	newHandler HandlerFactory
	fallback   tenant.ID
	loggers    *cache.LRU[tenant.ID, *slog.Logger]
}

// Option configures a Factory.
type Option func(*Factory)

// WithHandlerFactory routes each tenant's records through its own handler.
func WithHandlerFactory(fn HandlerFactory) Option {
	return func(f *Factory) {
		f.newHandler = fn
	}
}

// WithFallback sets the tenant used when the context carries none.
func WithFallback(id tenant.ID) Option {
	return func(f *Factory) {
		f.fallback = id
	}
}

// New creates a logger factory. By default all tenants share a text handler
// on stderr and differ only by the "tenant" attribute.
func New(opts ...Option) *Factory {
	shared := slog.NewTextHandler(os.Stderr, nil)
	f := &Factory{
		newHandler: func(tenant.ID) slog.Handler { return shared },
		loggers:    cache.NewLRU[tenant.ID, *slog.Logger](loggerCacheSize),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// For returns the logger for id, creating and caching it on first use.
func (f *Factory) For(id tenant.ID) *slog.Logger {
	if l, ok := f.loggers.Get(id); ok {
		return l
	}

	l := slog.New(f.newHandler(id)).With("tenant", id.String())
	f.loggers.Put(id, l)
	return l
}

// FromContext returns the logger for the execution context's active tenant.
// Outside an execution context, or while unbound, the fallback tenant's
// logger is returned so logging never fails.
func (f *Factory) FromContext(ctx context.Context) *slog.Logger {
	if id, ok := tenant.CurrentTenant(ctx); ok {
		return f.For(id)
	}
	return f.For(f.fallback)
}

// ActiveTenants lists tenants with a cached logger, most recent first.
func (f *Factory) ActiveTenants() []tenant.ID {
	return f.loggers.Keys()
}

// ClearCache drops all cached loggers.
func (f *Factory) ClearCache() {
	f.loggers.Purge()
}
