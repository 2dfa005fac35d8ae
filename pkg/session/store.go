package session

import "context"

const (
	// TenantKey is the session key under which the resolved tenant
	// identifier is persisted between requests.
	TenantKey = "_tenant"

	// TenantScopedPrefix marks session keys that belong to a single tenant
	// and must not survive a tenant switch.
	TenantScopedPrefix = "tenant_"
)

// Store is a keyed-value store scoped to one browser session. A Store may be
// absent (nil) for stateless calls; all callers must tolerate that.
//
// Active reports whether the session has been started. Writing to an
// inactive store starts it implicitly, which is why callers that only want
// to persist convenience state (like the tenant selection) must check
// Active first instead of forcing a session into existence.
type Store interface {
	// Get returns the value stored under key.
	Get(ctx context.Context, key string) (any, bool)

	// Set stores value under key, starting the session if needed.
	Set(ctx context.Context, key string, value any) error

	// Delete removes key from the session.
	Delete(ctx context.Context, key string) error

	// Keys lists every key currently present in the session.
	Keys(ctx context.Context) ([]string, error)

	// Active reports whether the session has been started.
	Active() bool
}

// GetString returns the string stored under key, or "" when the store is
// nil, the key is absent, or the value is not a string.
func GetString(ctx context.Context, s Store, key string) string {
	if s == nil {
		return ""
	}
	v, ok := s.Get(ctx, key)
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return str
}

// PurgeTenantScoped removes every tenant-scoped key from the store while
// preserving all other session state. A nil or inactive store is a no-op.
func PurgeTenantScoped(ctx context.Context, s Store) error {
	if s == nil || !s.Active() {
		return nil
	}

	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if len(key) >= len(TenantScopedPrefix) && key[:len(TenantScopedPrefix)] == TenantScopedPrefix {
			if err := s.Delete(ctx, key); err != nil {
				return err
			}
		}
	}
	return nil
}
