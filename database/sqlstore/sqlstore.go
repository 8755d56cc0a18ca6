// Package sqlstore implements the users and videos stores on top of sqlx.
// The DSN selects the driver: a postgres:// URL opens through lib/pq,
// anything else is treated as a sqlite filename.
package sqlstore

import (
	"runtime"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/amadorflix/amadorflix-server/database/model"
)

type conn struct {
	// Read db handle
	read *sqlx.DB
	// Handle specifically for writes
	write  *sqlx.DB
	driver string
}

func open(dsn string) (*conn, error) {
	if dsn == "" {
		return nil, model.ErrNoConfiguration
	}

	driver := "sqlite3"
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver = "postgres"
	}

	read, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, err
	}
	read.SetMaxOpenConns(max(4, runtime.NumCPU()))

	write := read
	if driver == "sqlite3" {
		// sqlite needs to have a single writer
		write, err = sqlx.Connect(driver, dsn)
		if err != nil {
			return nil, err
		}
		write.SetMaxOpenConns(1)
	}

	return &conn{
		read:   read,
		write:  write,
		driver: driver,
	}, nil
}

// rebind translates ?-style placeholders to the driver's bindvar format.
func (c *conn) rebind(query string) string {
	return c.read.Rebind(query)
}

// ddl rewrites sqlite flavored DDL for postgres.
func (c *conn) ddl(query string) string {
	if c.driver == "postgres" {
		query = strings.ReplaceAll(query,
			"INTEGER PRIMARY KEY AUTOINCREMENT", "BIGSERIAL PRIMARY KEY")
		query = strings.ReplaceAll(query, "DATETIME", "TIMESTAMPTZ")
	}
	return query
}

// prefixColumns qualifies a comma separated column list with a table alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func (c *conn) initSchema(schema []string) error {
	if c.driver == "sqlite3" {
		// This is needed to improve concurrent reads and writes.
		if _, err := c.write.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
			return err
		}
	}
	for _, query := range schema {
		if _, err := c.write.Exec(c.ddl(query)); err != nil {
			return err
		}
	}
	return nil
}
