// Package pg builds PostgreSQL connection pools for a database-per-tenant
// deployment using the pgx/v5 driver.
//
// Unlike a typical single-database setup, Config carries no database name:
// it is a template (host, credentials, pool limits) from which Connect
// derives one *pgxpool.Pool per physical tenant database. Pooling itself is
// delegated entirely to pgxpool; this package only decides how pools are
// configured and verified at creation time.
//
// # Usage
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg, "msc-app-rs")
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
// Connect retries with linear backoff and pings the database before handing
// the pool back, so callers never receive a pool that has not proven basic
// connectivity at least once.
//
// # Error Handling
//
// Helpers such as [IsNotFoundError] and [IsDuplicateKeyError] classify
// pgx/pgconn errors without forcing callers to inspect SQLSTATE codes.
// [IsUndefinedTableError] is particularly relevant here: a missing relation
// on a tenant database is the classic symptom of a connection bound to the
// wrong database.
package pg
