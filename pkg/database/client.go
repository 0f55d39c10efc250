// Package database opens the SQL database holding the prebuilt index. Two
// drivers are supported: PostgreSQL through lib/pq and an embedded SQLite file
// through the pure-Go glebarez driver.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/glebarez/sqlite"
	_ "github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/Web-Search-Engine/pkg/config"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Client struct {
	DB     *sql.DB
	Driver string
}

// New opens the database selected by cfg.Store and verifies it with a ping.
func New(cfg *config.Config) (*Client, error) {
	switch cfg.Store.Driver {
	case DriverPostgres:
		return open(DriverPostgres, cfg.Postgres.DSN(), cfg.Postgres)
	case DriverSQLite:
		// The index is only read at query time, so a small reader pool is enough.
		return open(DriverSQLite, cfg.Store.SQLitePath, config.PostgresConfig{
			MaxOpenConns: 4,
			MaxIdleConns: 4,
		})
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}

// Open wraps an existing *sql.DB. Tests use it with in-memory SQLite.
func Open(db *sql.DB, driver string) *Client {
	return &Client{DB: db, Driver: driver}
}

func open(driver, dsn string, pool config.PostgresConfig) (*Client, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", driver, err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s: %w", driver, err)
	}
	return &Client{DB: db, Driver: driver}, nil
}

// Rebind rewrites '?' placeholders into the driver's syntax.
func (c *Client) Rebind(query string) string {
	if c.Driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *Client) Close() error {
	return c.DB.Close()
}

// InTx runs fn inside a transaction, rolling back when fn fails.
func (c *Client) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back transaction after error %v: %w", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
