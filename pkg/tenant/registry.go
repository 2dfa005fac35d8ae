package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"

	"github.com/grupooptimo/tenantkit/pkg/cache"
)

// validationCacheSize bounds the memoized validity results. Invalid lookups
// (bots probing random paths) would otherwise grow the cache without limit.
const validationCacheSize = 1024

// Store is the control-plane lookup: the central database holding the
// authoritative, dynamic list of tenants. It may be unreachable; the
// registry degrades to its fast-path table in that case.
type Store interface {
	// ListActive returns every active tenant record.
	ListActive(ctx context.Context) ([]Record, error)
}

// Registry holds the authoritative tenant → database mapping, merging the
// immutable fast-path table with records loaded from the control-plane
// store. All methods are safe for concurrent use; the registry itself is
// shared across execution contexts.
type Registry struct {
	table Table
	store Store
	log   *slog.Logger

	mu      sync.RWMutex
	dynamic map[ID]string // control-plane mapping, nil until first load attempt
	loaded  bool

	domMu   sync.RWMutex
	domains map[string]ID

	validity *cache.LRU[ID, bool]
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithTable replaces the built-in fast-path table.
func WithTable(t Table) RegistryOption {
	return func(r *Registry) {
		r.table = t
	}
}

// WithStore attaches the control-plane store. Without one the registry
// serves the fast-path table only.
func WithStore(s Store) RegistryOption {
	return func(r *Registry) {
		r.store = s
	}
}

// WithRegistryLogger sets the logger for registry diagnostics.
func WithRegistryLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.log = log
	}
}

// NewRegistry creates a registry over the default fast-path table.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		table:    DefaultTable(),
		log:      slog.Default(),
		validity: cache.NewLRU[ID, bool](validationCacheSize),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.domains = make(map[string]ID, len(r.table.Domains))
	maps.Copy(r.domains, r.table.Domains)
	return r
}

// IsValid reports whether id names a known tenant. Reserved static-asset
// tokens are rejected outright. Results are memoized for the life of the
// process; validity of an existing id rarely flips, and ClearValidationCache
// exists for administrative invalidation.
func (r *Registry) IsValid(ctx context.Context, id ID) bool {
	if id == "" || IsReservedToken(id) {
		return false
	}

	if valid, ok := r.validity.Get(id); ok {
		return valid
	}

	if _, ok := r.table.Tenants[id]; ok {
		r.validity.Put(id, true)
		return true
	}

	_, valid := r.allowed(ctx)[id]
	r.validity.Put(id, valid)
	return valid
}

// DatabaseName returns the physical database for id, checking the fast-path
// table first and the control-plane mapping second.
func (r *Registry) DatabaseName(ctx context.Context, id ID) (string, error) {
	if name, ok := r.table.Tenants[id]; ok {
		return name, nil
	}
	if name, ok := r.allowed(ctx)[id]; ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: no database configured for %q", ErrUnknownTenant, id)
}

// AllowedTenants returns the merged tenant → database mapping. When the
// control-plane store is unreachable the fast-path table is returned alone;
// this method never fails the caller.
func (r *Registry) AllowedTenants(ctx context.Context) map[ID]string {
	merged := make(map[ID]string, len(r.table.Tenants))
	maps.Copy(merged, r.table.Tenants)
	// Control-plane records win on conflict: they are the authoritative source.
	maps.Copy(merged, r.allowed(ctx))
	return merged
}

// allowed returns the control-plane mapping, loading it on first use. The
// load is attempted once; a failed attempt leaves the fast-path table in
// charge until an explicit Refresh.
func (r *Registry) allowed(ctx context.Context) map[ID]string {
	r.mu.RLock()
	if r.loaded {
		defer r.mu.RUnlock()
		return r.dynamic
	}
	r.mu.RUnlock()

	if err := r.Refresh(ctx); err != nil {
		r.log.WarnContext(ctx, "control-plane lookup failed, serving fast-path table only", "error", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dynamic
}

// Refresh reloads the control-plane mapping. Best-effort: on failure the
// previous mapping (possibly empty) stays in place and the error is returned
// wrapped in ErrRegistryUnavailable for callers that care.
func (r *Registry) Refresh(ctx context.Context) error {
	r.mu.Lock()
	if !r.loaded {
		// Mark attempted even if the store is down, so request paths do not
		// hammer an unreachable control plane.
		r.loaded = true
	}
	r.mu.Unlock()

	if r.store == nil {
		return nil
	}

	records, err := r.store.ListActive(ctx)
	if err != nil {
		return errors.Join(ErrRegistryUnavailable, err)
	}

	dynamic := make(map[ID]string, len(records))
	for _, rec := range records {
		if rec.Slug == "" || rec.DatabaseName == "" {
			continue
		}
		dynamic[rec.Slug] = rec.DatabaseName
	}

	r.mu.Lock()
	r.dynamic = dynamic
	r.mu.Unlock()
	return nil
}

// ClearValidationCache drops all memoized validity results. Administrative
// operation, paired with Refresh when tenants are added or retired.
func (r *Registry) ClearValidationCache() {
	r.validity.Purge()
}

// DefaultTenant returns the configured last-resort tenant, or "".
func (r *Registry) DefaultTenant() ID {
	return r.table.Default
}

// AddDomainMapping maps a request host to its default tenant.
func (r *Registry) AddDomainMapping(host string, id ID) {
	r.domMu.Lock()
	defer r.domMu.Unlock()
	r.domains[host] = id
}

// TenantForHost returns the default tenant for a request host, stripping a
// port suffix if the exact host has no mapping.
func (r *Registry) TenantForHost(host string) (ID, bool) {
	r.domMu.RLock()
	defer r.domMu.RUnlock()

	if id, ok := r.domains[host]; ok {
		return id, true
	}
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		if id, ok := r.domains[host[:idx]]; ok {
			return id, true
		}
	}
	return "", false
}
