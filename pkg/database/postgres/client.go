package pg

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	"github.com/pkg/errors"

	// Registers the "nrpgx" driver, which wraps pgx with New Relic segments
	_ "github.com/newrelic/go-agent/v3/integrations/nrpgx"
)

const (
	driverName = "nrpgx"
)

// Config holds the connection parameters for a Postgres connection pool.
type Config struct {
	User               string
	Password           string
	Host               string
	Port               int
	DbName             string
	SslMode            string
	MaxOpenConnections int
	MaxIdleConnections int
}

// DSN returns the connection URL for the config. SslMode defaults to
// "disable".
func (c *Config) DSN() string {
	sslMode := c.SslMode
	if sslMode == "" {
		sslMode = "disable"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.DbName,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}
	return u.String()
}

// Open returns a connection pool over the New Relic instrumented pgx driver
// and verifies the database is reachable.
func Open(ctx context.Context, config *Config) (*sql.DB, error) {
	db, err := sql.Open(driverName, config.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres connection pool")
	}

	if config.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(config.MaxOpenConnections)
	}
	if config.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(config.MaxIdleConnections)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to reach postgres at %s:%d", config.Host, config.Port)
	}

	return db, nil
}
