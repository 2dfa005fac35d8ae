// Command tenantctl is the operator tool for the tenancy layer: it lists
// the tenants a deployment will accept and verifies that a tenant's
// database is reachable and correctly bound, using the exact same
// resolution and validation path the application serves requests with.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/grupooptimo/tenantkit/pkg/config"
	"github.com/grupooptimo/tenantkit/pkg/pg"
	"github.com/grupooptimo/tenantkit/pkg/tenant"
	"github.com/grupooptimo/tenantkit/pkg/tenantdb"
)

type appConfig struct {
	TableFile string        `env:"TENANT_TABLE_FILE"`                // Optional YAML fast-path table; built-in defaults otherwise.
	MasterDB  string        `env:"MASTER_DB_NAME" envDefault:"Master"` // Control-plane database name.
	Timeout   time.Duration `env:"TENANTCTL_TIMEOUT" envDefault:"15s"`
}

func main() {
	var (
		tenantFlag = flag.String("tenant", "", "tenant slug to pin for this invocation")
		listFlag   = flag.Bool("list", false, "list allowed tenants and their databases")
		checkFlag  = flag.Bool("check", false, "open and validate a session for the pinned tenant")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(log)

	if err := run(*tenantFlag, *listFlag, *checkFlag, log); err != nil {
		log.Error("tenantctl failed", "error", err)
		os.Exit(1)
	}
}

func run(tenantFlag string, list, check bool, log *slog.Logger) error {
	var appCfg appConfig
	if err := config.Load(&appCfg); err != nil {
		return err
	}
	var pgCfg pg.Config
	if err := config.Load(&pgCfg); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), appCfg.Timeout)
	defer cancel()

	table := tenant.DefaultTable()
	if appCfg.TableFile != "" {
		var err error
		if table, err = tenant.LoadTable(appCfg.TableFile); err != nil {
			return err
		}
	}

	regOpts := []tenant.RegistryOption{
		tenant.WithTable(table),
		tenant.WithRegistryLogger(log),
	}
	// The control plane is optional here: listing must keep working from
	// the fast-path table when Master is down.
	if masterPool, err := pg.Connect(ctx, pgCfg, appCfg.MasterDB); err != nil {
		log.Warn("control-plane database unreachable, using fast-path table only", "error", err)
	} else {
		defer masterPool.Close()
		regOpts = append(regOpts, tenant.WithStore(tenant.NewPGStore(masterPool)))
	}
	reg := tenant.NewRegistry(regOpts...)

	pooler := tenantdb.NewPGPooler(pgCfg, tenantdb.WithPoolerLogger(log))
	manager := tenantdb.NewManager(reg, pooler, tenantdb.WithManagerLogger(log))
	defer manager.ReleaseAll(context.WithoutCancel(ctx))

	ec := tenant.NewExecutionContext(reg, tenant.AsCLI(), tenant.WithContextLogger(log))
	ctx = tenant.WithExecutionContext(ctx, ec)
	cache := manager.NewCache()
	ec.SetReleaser(cache)
	ctx = tenantdb.WithCache(ctx, cache)
	defer ec.Close(ctx)

	if tenantFlag != "" {
		if err := tenant.PinTenant(ctx, tenant.ID(tenantFlag)); err != nil {
			return err
		}
	}

	if list {
		printTenants(reg.AllowedTenants(ctx))
	}

	if check {
		if _, ok := tenant.CurrentTenant(ctx); !ok {
			return fmt.Errorf("-check requires -tenant")
		}
		conn, err := tenantdb.Handle(ctx)
		if err != nil {
			return err
		}
		var version string
		if err := conn.QueryRow(ctx, "SELECT version()").Scan(&version); err != nil {
			return err
		}
		id, _ := tenant.CurrentTenant(ctx)
		dbName, _ := reg.DatabaseName(ctx, id)
		fmt.Printf("tenant %s ok: database %s (%s)\n", id, dbName, version)
	}

	if !list && !check {
		flag.Usage()
	}
	return nil
}

func printTenants(allowed map[tenant.ID]string) {
	slugs := make([]string, 0, len(allowed))
	for id := range allowed {
		slugs = append(slugs, id.String())
	}
	sort.Strings(slugs)
	for _, slug := range slugs {
		fmt.Printf("%-12s %s\n", slug, allowed[tenant.ID(slug)])
	}
}
