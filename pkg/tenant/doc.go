// Package tenant decides which tenant an inbound unit of work belongs to
// and owns the per-request state that keeps tenants isolated from each
// other.
//
// Every request served by the application runs against exactly one of
// several fully isolated tenant databases. Getting that decision wrong is
// the worst failure mode a multi-tenant system has — data read from or
// written into another customer's database — so this package treats tenant
// resolution as a first-class subsystem rather than a router detail.
//
// # Architecture
//
// The package is built around four cooperating pieces:
//
//  1. Registry — authoritative tenant → database mapping. A small immutable
//     fast-path table is consulted first; records loaded from the
//     control-plane (Master) database enrich it. When the control plane is
//     unreachable the registry degrades to the fast-path table instead of
//     failing callers.
//  2. Resolvers and Chain — extract candidate identifiers from the request
//     and apply the strict priority order: CLI pin > already-resolved
//     context > route path > session > host mapping > configured default.
//  3. ExecutionContext — per-unit-of-work tenant state, provisioned fresh
//     for every request or CLI run and carried via context.Context. Never a
//     process-wide global: sharing this state across concurrent requests is
//     precisely how cross-tenant leaks happen.
//  4. Middleware — wires the three together around an http.Handler and
//     tears the execution context down when the request completes.
//
// # Usage
//
//	reg := tenant.NewRegistry(tenant.WithStore(tenant.NewPGStore(masterPool)))
//	chain := tenant.DefaultChain(reg)
//
//	r := chi.NewRouter()
//	r.Use(tenant.Middleware(reg, chain,
//		tenant.WithSkipPaths([]string{"/health"}),
//	))
//	r.Route("/{dominio}", func(r chi.Router) {
//		r.Get("/dashboard", dashboardHandler)
//	})
//
// Handlers read the decision through the narrow external interface:
//
//	id, ok := tenant.CurrentTenant(r.Context())
//
// and authentication middleware or CLI entry points override it explicitly:
//
//	err := tenant.SetTenant(ctx, "rs")   // verified credential
//	err := tenant.PinTenant(ctx, "ts")   // batch job
//
// # Switching tenants
//
// Adopting a different tenant inside a bound execution context triggers the
// switch sequence: tenant-scoped session keys ("tenant_" prefix) are purged,
// the previous tenant's data-access session is released, and the new
// selection is persisted into the browser session only if that session is
// already active. Cleanup failures are logged and swallowed; they never
// surface to the caller.
//
// # Error handling
//
// ErrUnknownTenant is fatal for the unit of work and maps to a 404 in the
// default middleware error handler. Control-plane unavailability is not an
// error callers see: validation and database-name lookups fall back to the
// fast-path table and only report ErrUnknownTenant when an identifier is
// absent from both tiers.
package tenant
