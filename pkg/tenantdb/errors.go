package tenantdb

import "errors"

var (
	// ErrDatabaseMismatch means a live connection turned out to be bound to
	// a different physical database than the registry expects for its
	// tenant. Correctness-critical and fatal: driver-level pooling can
	// silently hand back a connection still attached to a previous
	// tenant's database, and continuing would read or write the wrong
	// customer's data.
	ErrDatabaseMismatch = errors.New("tenant database mismatch")

	// ErrSessionAcquisition means the underlying driver could not open a
	// connection. Retried once via reset-and-reacquire, then fatal.
	ErrSessionAcquisition = errors.New("failed to acquire tenant session")

	// ErrNoActiveTenant is returned by Handle when the surrounding
	// execution context has no bound tenant.
	ErrNoActiveTenant = errors.New("no active tenant for data access")
)
