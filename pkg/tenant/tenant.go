package tenant

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ID is the short tenant slug used everywhere a tenant must be named: in
// URLs ("/rs/login"), session state, log attributes and the registry.
type ID string

func (id ID) String() string { return string(id) }

// Status of a tenant record in the control-plane store.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Record is one tenant as registered in the control-plane store. Records are
// created and updated out of band; this subsystem only reads them.
type Record struct {
	ID           uuid.UUID `json:"id"`
	Slug         ID        `json:"slug"`
	DatabaseName string    `json:"database_name"`
	Name         string    `json:"name"`
	LogoURL      string    `json:"logo_url"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// IsReservedToken reports whether id looks like a static-asset request
// rather than a tenant slug. Browsers routinely ask for favicon.ico and
// similar paths; those must never be treated as tenants, not even by
// querying the registry.
func IsReservedToken(id ID) bool {
	s := string(id)
	return s == "favicon.ico" ||
		strings.HasSuffix(s, ".ico") ||
		strings.HasSuffix(s, ".css") ||
		strings.HasSuffix(s, ".js")
}
