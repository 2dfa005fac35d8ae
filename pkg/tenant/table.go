package tenant

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Table is the fast-path tenant configuration: a small hardcoded mapping of
// tenant slugs to physical database names, host defaults, and the last-resort
// default tenant. It is immutable after registry construction and always
// available, so tenant validation keeps working even when the control-plane
// store is down.
type Table struct {
	Tenants map[ID]string `yaml:"tenants"`
	Domains map[string]ID `yaml:"domains"`
	Default ID            `yaml:"default"`
}

// DefaultTable returns the built-in table covering the known deployments.
func DefaultTable() Table {
	return Table{
		Tenants: map[ID]string{
			"ts":      "msc-app-ts",
			"rs":      "msc-app-rs",
			"SNT":     "msc-app-snt",
			"issemym": "msc-app-issemym",
			"Master":  "Master",
			"app":     "msc-app-main",
		},
		Domains: map[string]ID{
			"sindicato.grupooptimo.mx": "rs",
		},
		Default: "ts",
	}
}

// LoadTable reads a table from a YAML file:
//
//	tenants:
//	  rs: msc-app-rs
//	  ts: msc-app-ts
//	domains:
//	  sindicato.grupooptimo.mx: rs
//	default: ts
func LoadTable(path string) (Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("tenant: read table %s: %w", path, err)
	}

	var t Table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return Table{}, fmt.Errorf("tenant: parse table %s: %w", path, err)
	}
	if t.Tenants == nil {
		t.Tenants = make(map[ID]string)
	}
	if t.Domains == nil {
		t.Domains = make(map[string]ID)
	}
	return t, nil
}
