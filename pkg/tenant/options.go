package tenant

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/grupooptimo/tenantkit/pkg/session"
)

// ErrorHandler handles errors raised during tenant resolution.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// SessionProvider returns the browser-session store for a request, or nil
// for stateless calls.
type SessionProvider func(r *http.Request) session.Store

// config holds middleware configuration.
type config struct {
	errorHandler ErrorHandler
	sessions     SessionProvider
	skipPaths    []string
	logger       *slog.Logger
}

// Option configures the middleware.
type Option func(*config)

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) {
		c.errorHandler = handler
	}
}

// WithSessionProvider sets how the middleware obtains the per-request
// session store.
func WithSessionProvider(p SessionProvider) Option {
	return func(c *config) {
		c.sessions = p
	}
}

// WithSkipPaths sets path prefixes that bypass tenant resolution.
func WithSkipPaths(paths []string) Option {
	return func(c *config) {
		c.skipPaths = paths
	}
}

// WithLogger sets a custom logger for the middleware.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUnknownTenant):
		http.Error(w, "Tenant not found", http.StatusNotFound)
	case errors.Is(err, ErrNoExecutionContext):
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
