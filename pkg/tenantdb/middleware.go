package tenantdb

import (
	"net/http"

	"github.com/grupooptimo/tenantkit/pkg/tenant"
)

// Middleware binds a fresh connection cache to each request's execution
// context and tears it down afterwards. Mount inside tenant.Middleware so
// the execution context already exists; requests without one pass through
// untouched.
func Middleware(m *Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ec, ok := tenant.FromContext(r.Context())
			if !ok {
				m.log.WarnContext(r.Context(), "no execution context, data access unavailable", "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}

			cache := m.NewCache()
			ec.SetReleaser(cache)
			ctx := WithCache(r.Context(), cache)
			defer cache.Close(ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
