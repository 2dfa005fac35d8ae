package tenant

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/grupooptimo/tenantkit/pkg/session"
)

// Mode distinguishes the two kinds of execution contexts.
type Mode int

const (
	// ModeHTTP is an execution context serving one inbound HTTP request.
	ModeHTTP Mode = iota
	// ModeCLI is an execution context serving one batch/CLI invocation.
	ModeCLI
)

// SessionReleaser releases the tenant-bound data-access state held for an
// execution context. Implemented by the connection cache in pkg/tenantdb;
// declared here so the lifecycle code stays free of database imports.
type SessionReleaser interface {
	Release(ctx context.Context, id ID) error
}

// ExecutionContext is the per-unit-of-work tenant state: exactly one tenant
// is active per execution context at any time, and the state is never shared
// across concurrent units of work. One is provisioned fresh per HTTP request
// by the middleware, or explicitly by CLI entry points.
//
// Lifecycle: unbound → bound(t) → bound(t') on switch → closed. A switch
// purges tenant-scoped session keys and releases the previous tenant's
// data-access session before adopting the new tenant.
type ExecutionContext struct {
	registry *Registry
	log      *slog.Logger

	mu       sync.Mutex
	mode     Mode
	current  ID
	pinned   ID
	sess     session.Store
	releaser SessionReleaser
	closed   bool
}

// ExecOption configures a new ExecutionContext.
type ExecOption func(*ExecutionContext)

// WithSessionStore attaches the caller's browser-session store. May be
// omitted for stateless calls.
func WithSessionStore(s session.Store) ExecOption {
	return func(ec *ExecutionContext) {
		ec.sess = s
	}
}

// AsCLI marks the execution context as a batch/CLI invocation.
func AsCLI() ExecOption {
	return func(ec *ExecutionContext) {
		ec.mode = ModeCLI
	}
}

// WithContextLogger sets the logger for lifecycle diagnostics.
func WithContextLogger(log *slog.Logger) ExecOption {
	return func(ec *ExecutionContext) {
		ec.log = log
	}
}

// NewExecutionContext creates an unbound execution context. The registry is
// consulted for every tenant adoption, so an invalid identifier can never
// become the active tenant.
func NewExecutionContext(reg *Registry, opts ...ExecOption) *ExecutionContext {
	ec := &ExecutionContext{
		registry: reg,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(ec)
	}
	return ec
}

// Current returns the active tenant, or "" while unbound.
func (ec *ExecutionContext) Current() ID {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.current
}

// Pinned returns the CLI-pinned tenant, if any.
func (ec *ExecutionContext) Pinned() (ID, bool) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.pinned, ec.mode == ModeCLI && ec.pinned != ""
}

// Mode reports whether this context serves an HTTP request or a CLI run.
func (ec *ExecutionContext) Mode() Mode {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.mode
}

// Session returns the attached browser-session store, possibly nil.
func (ec *ExecutionContext) Session() session.Store {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.sess
}

// SetReleaser binds the data-access cache that must be notified when the
// tenant changes or the context closes.
func (ec *ExecutionContext) SetReleaser(r SessionReleaser) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.releaser = r
}

// Pin fixes the tenant for a CLI invocation. Pinned tenants take precedence
// over every other resolution signal.
func (ec *ExecutionContext) Pin(ctx context.Context, id ID) error {
	if !ec.registry.IsValid(ctx, id) {
		return fmt.Errorf("%w: %q", ErrUnknownTenant, id)
	}

	ec.mu.Lock()
	ec.mode = ModeCLI
	ec.pinned = id
	ec.mu.Unlock()

	return ec.SetTenant(ctx, id)
}

// SetTenant adopts id as the active tenant. Setting the already-active
// tenant is a no-op. When the context is already bound to a different
// tenant, the switch sequence runs first: tenant-scoped session keys are
// purged and the previous tenant's data-access session is released, both
// best-effort. The new tenant is persisted into the browser session only if
// that session is already active; a session is never started just to record
// a tenant selection.
func (ec *ExecutionContext) SetTenant(ctx context.Context, id ID) error {
	ec.mu.Lock()
	if ec.closed {
		ec.mu.Unlock()
		return ErrContextClosed
	}
	if ec.current == id {
		ec.mu.Unlock()
		return nil
	}
	prev := ec.current
	sess := ec.sess
	releaser := ec.releaser
	ec.mu.Unlock()

	if !ec.registry.IsValid(ctx, id) {
		return fmt.Errorf("%w: %q", ErrUnknownTenant, id)
	}

	if prev != "" {
		ec.log.InfoContext(ctx, "tenant switch", "from", prev.String(), "to", id.String())

		if err := session.PurgeTenantScoped(ctx, sess); err != nil {
			ec.log.ErrorContext(ctx, "failed to purge tenant-scoped session keys", "tenant", prev.String(), "error", err)
		}
		if releaser != nil {
			if err := releaser.Release(ctx, prev); err != nil {
				ec.log.ErrorContext(ctx, "failed to release tenant session", "tenant", prev.String(), "error", err)
			}
		}
	}

	ec.mu.Lock()
	ec.current = id
	ec.mu.Unlock()

	if sess != nil && sess.Active() {
		if err := sess.Set(ctx, session.TenantKey, id.String()); err != nil {
			ec.log.ErrorContext(ctx, "failed to persist tenant selection", "tenant", id.String(), "error", err)
		}
	}
	return nil
}

// Close releases the active tenant's data-access session and marks the
// context unusable. Errors during release are logged and swallowed; cleanup
// must never mask a response already produced. Safe to call more than once.
func (ec *ExecutionContext) Close(ctx context.Context) {
	ec.mu.Lock()
	if ec.closed {
		ec.mu.Unlock()
		return
	}
	ec.closed = true
	current := ec.current
	releaser := ec.releaser
	ec.mu.Unlock()

	if current != "" && releaser != nil {
		if err := releaser.Release(ctx, current); err != nil {
			ec.log.ErrorContext(ctx, "failed to release tenant session on teardown", "tenant", current.String(), "error", err)
		}
	}
}

type contextKey struct{}

// WithExecutionContext attaches ec to the context chain.
func WithExecutionContext(ctx context.Context, ec *ExecutionContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ec)
}

// FromContext retrieves the execution context, if any.
func FromContext(ctx context.Context) (*ExecutionContext, bool) {
	ec, ok := ctx.Value(contextKey{}).(*ExecutionContext)
	return ec, ok
}

// MustFromContext retrieves the execution context or panics. Use only in
// handlers that cannot run without one.
func MustFromContext(ctx context.Context) *ExecutionContext {
	ec, ok := FromContext(ctx)
	if !ok || ec == nil {
		panic("tenant: no execution context")
	}
	return ec
}

// CurrentTenant returns the active tenant of the surrounding execution
// context. Read-only accessor for logging and auditing.
func CurrentTenant(ctx context.Context) (ID, bool) {
	ec, ok := FromContext(ctx)
	if !ok {
		return "", false
	}
	id := ec.Current()
	return id, id != ""
}

// SetTenant adopts id on the surrounding execution context. Entry point for
// authentication middleware pinning the tenant derived from a verified
// credential.
func SetTenant(ctx context.Context, id ID) error {
	ec, ok := FromContext(ctx)
	if !ok {
		return ErrNoExecutionContext
	}
	return ec.SetTenant(ctx, id)
}

// PinTenant pins id on the surrounding execution context for a CLI run.
func PinTenant(ctx context.Context, id ID) error {
	ec, ok := FromContext(ctx)
	if !ok {
		return ErrNoExecutionContext
	}
	return ec.Pin(ctx, id)
}

// LoggerExtractor returns a context extractor for slog-based loggers that
// annotates records with the active tenant.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := CurrentTenant(ctx); ok {
			return slog.String("tenant", id.String()), true
		}
		return slog.Attr{}, false
	}
}
