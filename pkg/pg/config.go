package pg

import (
	"fmt"
	"net/url"
	"time"
)

// Config describes how to reach the PostgreSQL server hosting the tenant
// databases. The database name is deliberately absent: every tenant lives in
// its own database on the same server, so pools are built per database from
// this shared template.
type Config struct {
	Host     string `env:"PG_HOST" envDefault:"localhost"` // Host is the database server hostname.
	Port     int    `env:"PG_PORT" envDefault:"5432"`      // Port is the database server port.
	User     string `env:"PG_USER,required"`               // User is the role used for all tenant databases.
	Password string `env:"PG_PASSWORD,required"`           // Password for User.
	SSLMode  string `env:"PG_SSLMODE" envDefault:"prefer"` // SSLMode is passed through to the driver.

	MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`      // MaxOpenConns caps connections per tenant pool.
	MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"2"`       // MaxIdleConns is the minimum idle connections kept per pool.
	HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`  // HealthCheckPeriod is the period between pool health checks.
	MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"` // MaxConnIdleTime is how long a connection may sit idle before being closed.
	MaxConnLifetime   time.Duration `env:"PG_MAX_CONN_LIFETIME" envDefault:"30m"`  // MaxConnLifetime is the maximum age of a pooled connection.

	RetryAttempts int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`  // RetryAttempts is the number of connection attempts per database.
	RetryInterval time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"` // RetryInterval is the base wait between attempts.
}

// ConnString renders the connection URL for one physical database.
func (c Config) ConnString(dbName string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + dbName,
	}
	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
