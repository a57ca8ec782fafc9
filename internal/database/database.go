// Package database centralises sqlx connection helpers for the DB section.
// The driver is go-sql-driver/mysql, which also works with MariaDB and any
// server speaking the MySQL wire protocol.
//
// Public entry points:
//
//	DSN(cfg)                – driver DSN with credentials revealed.
//	Open(ctx, cfg)          – pool sized from DB.PERF, pinged and checked.
//	Check(ctx, db, schemas) – ping plus a presence check per schema.
//
// Callers should Close() the returned *sqlx.DB when no longer needed.
package database

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/multierr"

	"github.com/yanizio/confstack/internal/settings"
)

const schemaQuery = "SELECT COUNT(*) FROM information_schema.SCHEMATA WHERE SCHEMA_NAME = ?"

// DSN renders cfg as a go-sql-driver DSN.  The result contains the
// password; never log it.
func DSN(cfg settings.Database) string {
	c := mysql.NewConfig()
	c.User = cfg.Username.Reveal()
	c.Passwd = cfg.Password.Reveal()
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	c.DBName = cfg.Name
	c.ParseTime = true
	c.Timeout = 5 * time.Second
	return c.FormatDSN()
}

// Open returns a pool sized from cfg.Perf.  It pings the server and checks
// every schema in cfg.SchemaNames before returning so callers can fail fast
// during bootstrap.
func Open(ctx context.Context, cfg settings.Database) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", DSN(cfg))
	if err != nil {
		return nil, err
	}
	configure(db, cfg.Perf)

	if err := Check(ctx, db, cfg.SchemaNames); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// configure caps open connections at POOL_SIZE and keeps one idle
// connection per web worker.
func configure(db *sqlx.DB, p settings.DBPerf) {
	db.SetMaxOpenConns(p.PoolSize)
	db.SetMaxIdleConns(min(p.WebConcurrency, p.PoolSize))
	db.SetConnMaxLifetime(30 * time.Minute)
}

// Check pings db and verifies each schema exists.  Every missing schema is
// reported, not just the first.
func Check(ctx context.Context, db *sqlx.DB, schemas []string) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}

	var errs error
	for _, name := range schemas {
		var n int
		if err := db.GetContext(ctx, &n, schemaQuery, name); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("schema %q: %w", name, err))
			continue
		}
		if n == 0 {
			errs = multierr.Append(errs, fmt.Errorf("schema %q does not exist", name))
		}
	}
	return errs
}
