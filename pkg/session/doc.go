// Package session provides the keyed-value session store abstraction the
// tenancy layer depends on.
//
// This is "session" in the HTTP sense: per-browser state such as the
// persisted tenant selection, distinct from the data-access sessions managed
// by pkg/tenantdb. The Store interface is deliberately small (get/set/delete
// keyed values) and may be entirely absent for stateless API calls — every
// caller in the kit tolerates a nil Store.
//
// Two implementations ship with the package:
//
//   - MemoryStore: in-process map, for tests and single-node setups
//   - RedisStore: Redis-hash-backed, for multi-instance deployments
//
// Keys prefixed with "tenant_" are tenant-scoped and purged wholesale when
// the active tenant changes (see PurgeTenantScoped); all other keys survive
// a tenant switch untouched.
package session
