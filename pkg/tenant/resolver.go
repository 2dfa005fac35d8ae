package tenant

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/grupooptimo/tenantkit/pkg/session"
)

// RouteParam is the routing attribute carrying the tenant slug, as set by
// routes like /{dominio}/login.
const RouteParam = "dominio"

// Resolver extracts a candidate tenant identifier from an HTTP request.
// Returning "" means this signal has nothing to offer; candidates are
// validated against the registry by the Chain, not by individual resolvers.
type Resolver interface {
	Resolve(r *http.Request) (ID, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(r *http.Request) (ID, error)

func (f ResolverFunc) Resolve(r *http.Request) (ID, error) { return f(r) }

// RouteResolver extracts the tenant from the request's routing attributes.
// It prefers the chi URL parameter and falls back to the first path segment
// for requests that bypassed the router.
type RouteResolver struct {
	Param string
}

// NewRouteResolver creates a route resolver for the given parameter name,
// defaulting to RouteParam.
func NewRouteResolver(param string) *RouteResolver {
	if param == "" {
		param = RouteParam
	}
	return &RouteResolver{Param: param}
}

func (rr *RouteResolver) Resolve(r *http.Request) (ID, error) {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if v := rctx.URLParam(rr.Param); v != "" {
			return ID(v), nil
		}
	}

	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		return "", nil
	}
	if idx := strings.IndexByte(path, '/'); idx != -1 {
		path = path[:idx]
	}
	return ID(path), nil
}

// SessionResolver reads the tenant persisted in the caller's browser
// session, keeping subsequent requests pinned to the same tenant without
// re-deriving it from the path every time.
type SessionResolver struct{}

func (SessionResolver) Resolve(r *http.Request) (ID, error) {
	ec, ok := FromContext(r.Context())
	if !ok {
		return "", nil
	}
	return ID(session.GetString(r.Context(), ec.Session(), session.TenantKey)), nil
}

// HostResolver maps the request host to a default tenant via the registry's
// domain table. Fallback signal for callers hitting a fixed domain without
// an explicit tenant path.
type HostResolver struct {
	Registry *Registry
}

func (hr *HostResolver) Resolve(r *http.Request) (ID, error) {
	if id, ok := hr.Registry.TenantForHost(r.Host); ok {
		return id, nil
	}
	return "", nil
}

// Chain resolves the single active tenant for a request by trying a strict
// priority order, first match wins:
//
//  1. CLI-pinned tenant (batch invocations only)
//  2. tenant already adopted by the execution context
//  3. route/path-derived tenant — explicit path selection is the strongest
//     signal of caller intent and dominates session and host
//  4. session-stored tenant
//  5. host/domain-derived tenant
//  6. configured default tenant
//
// Every candidate must pass registry validation before it is adopted; a
// signal producing an invalid identifier is skipped, not fatal.
type Chain struct {
	registry  *Registry
	resolvers []Resolver
	log       *slog.Logger
}

// NewChain builds a resolution chain over the given request signals, tried
// in order after the execution-context tiers.
func NewChain(reg *Registry, resolvers ...Resolver) *Chain {
	return &Chain{
		registry:  reg,
		resolvers: resolvers,
		log:       slog.Default(),
	}
}

// DefaultChain wires the standard route > session > host order.
func DefaultChain(reg *Registry) *Chain {
	return NewChain(reg,
		NewRouteResolver(RouteParam),
		SessionResolver{},
		&HostResolver{Registry: reg},
	)
}

// Resolve determines the active tenant for the request and adopts it on the
// surrounding execution context, triggering the switch sequence if the
// context was bound to a different tenant. Fails with ErrUnknownTenant only
// when no signal yields a valid tenant and no default is configured.
func (c *Chain) Resolve(ctx context.Context, r *http.Request) (ID, error) {
	ec, hasEC := FromContext(ctx)

	if hasEC {
		if id, ok := ec.Pinned(); ok && c.registry.IsValid(ctx, id) {
			return c.adopt(ctx, ec, id)
		}
		if id := ec.Current(); id != "" {
			return id, nil
		}
	}

	for _, resolver := range c.resolvers {
		id, err := resolver.Resolve(r)
		if err != nil {
			c.log.DebugContext(ctx, "tenant signal failed", "error", err)
			continue
		}
		if id == "" || !c.registry.IsValid(ctx, id) {
			continue
		}
		return c.adopt(ctx, ec, id)
	}

	if def := c.registry.DefaultTenant(); def != "" && c.registry.IsValid(ctx, def) {
		return c.adopt(ctx, ec, def)
	}

	return "", fmt.Errorf("%w: no resolution signal matched for %s", ErrUnknownTenant, r.URL.Path)
}

func (c *Chain) adopt(ctx context.Context, ec *ExecutionContext, id ID) (ID, error) {
	if ec == nil {
		return id, nil
	}
	if err := ec.SetTenant(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}
