// Package tenantdb manages the tenant-bound data-access sessions that all
// persistence operations flow through.
//
// It sits directly below pkg/tenant: once the active tenant of an execution
// context is known, this package obtains a live connection to that tenant's
// physical database, proves the connection is bound to the right database,
// and caches it for the remainder of the request or CLI run.
//
// # Validation
//
// Driver-level pooling can hand back a connection still attached to a
// previous tenant's database. Every fresh acquisition therefore runs a
// mandatory round-trip — SELECT current_database() — and compares the result
// against the registry's expected name. A mismatch is ErrDatabaseMismatch:
// fatal, logged with both names, never silently returned as a usable handle.
// Cached sessions are reused without re-probing; liveness is assumed cheap
// (IsOpen) to keep hot paths free of extra round-trips.
//
// # Lifecycle
//
// A Manager holds the process-wide pooler (one pgxpool per physical
// database). Each execution context gets its own Cache holding at most one
// validated session; caches are never shared across concurrent contexts.
// Transient acquisition failures get exactly one reset-and-reacquire retry,
// then fail with ErrSessionAcquisition.
//
// # Usage
//
//	pooler := tenantdb.NewPGPooler(pgCfg)
//	manager := tenantdb.NewManager(registry, pooler)
//
//	r.Use(tenant.Middleware(registry, chain))
//	r.Use(tenantdb.Middleware(manager))
//
// Business handlers obtain the handle from the request context:
//
//	conn, err := tenantdb.Handle(r.Context())
//	if err != nil { ... }
//	row := conn.QueryRow(ctx, "SELECT ...")
//
// At shutdown, Manager.ReleaseAll closes every pool, tolerating failures on
// individual databases.
package tenantdb
