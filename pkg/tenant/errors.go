package tenant

import "errors"

var (
	// ErrUnknownTenant is returned when an identifier matches no registry
	// entry. Fatal for the current unit of work.
	ErrUnknownTenant = errors.New("unknown tenant")

	// ErrRegistryUnavailable indicates the control-plane store could not be
	// reached. Recovered internally by falling back to the fast-path table;
	// surfaces only from explicit Refresh calls.
	ErrRegistryUnavailable = errors.New("control-plane registry unavailable")

	// ErrNoExecutionContext is returned when an operation requiring an
	// execution context runs outside of one.
	ErrNoExecutionContext = errors.New("no execution context")

	// ErrContextClosed is returned when a closed execution context is used.
	ErrContextClosed = errors.New("execution context already closed")
)
