package tenant

import (
	"log/slog"
	"net/http"
	"strings"
)

// Middleware provisions a fresh execution context per request, resolves the
// active tenant through the chain and tears the context down afterwards.
// Resolution failure aborts the request before any handler runs; no
// business logic may execute against an unresolved tenant.
func Middleware(reg *Registry, chain *Chain, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		errorHandler: defaultErrorHandler,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			ecOpts := []ExecOption{WithContextLogger(cfg.logger)}
			if cfg.sessions != nil {
				ecOpts = append(ecOpts, WithSessionStore(cfg.sessions(r)))
			}

			ec := NewExecutionContext(reg, ecOpts...)
			ctx := WithExecutionContext(r.Context(), ec)
			defer ec.Close(ctx)

			id, err := chain.Resolve(ctx, r)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}
			cfg.logger.DebugContext(ctx, "tenant resolved", "tenant", id.String(), "path", r.URL.Path)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTenant ensures a tenant is bound before the handler runs. Guard for
// routes mounted outside the resolving middleware.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := CurrentTenant(r.Context()); !ok {
				errorHandler(w, r, ErrNoExecutionContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
