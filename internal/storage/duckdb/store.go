// Package duckdb owns the persistent table store: a single DuckDB database
// file holding one table per canonical fund identifier. It covers the store
// lifecycle (open/close), the one-time reference-schema bootstrap, the
// per-run table ingestor, and the read-only query-to-CSV path used by the
// insights utility.
package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	// DuckDB driver, registered as "duckdb".
	_ "github.com/duckdb/duckdb-go/v2"
)

// ErrStoreUnavailable reports that the store handle is not usable (closed or
// never opened). Unlike per-file conditions it is fatal to a run: nothing
// further can be ingested without a handle.
var ErrStoreUnavailable = errors.New("store unavailable")

// classify wraps err with ErrStoreUnavailable when it indicates a dead
// handle rather than a statement-level failure.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		strings.Contains(err.Error(), "database is closed") {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}

// Open opens the DuckDB database file at path, creating it when absent, and
// returns the handle plus a close function. The close function must run on
// every exit path: a leaked handle keeps the store file locked for other
// processes.
func Open(ctx context.Context, path string) (*sql.DB, func(), error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil, fmt.Errorf("duckdb: database path must not be empty")
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, nil, fmt.Errorf("duckdb: open %s: %w", path, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("duckdb: ping %s: %w", path, err)
	}

	closeFn := func() { db.Close() }
	return db, closeFn, nil
}

// OpenReadOnly opens an existing store file without write access, for ad hoc
// queries that must not interfere with a concurrent ingestion run.
func OpenReadOnly(ctx context.Context, path string) (*sql.DB, func(), error) {
	return Open(ctx, path+"?access_mode=read_only")
}

// ExecScript executes the SQL script at path against the store. It backs the
// bootstrap step that installs the master reference schema before any
// ingestion happens; the script content is executed as-is.
func ExecScript(ctx context.Context, db *sql.DB, path string) error {
	script, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("duckdb: read script %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, string(script)); err != nil {
		return fmt.Errorf("duckdb: exec script %s: %w", path, err)
	}
	return nil
}

// quoteIdent escapes a DuckDB identifier with double quotes.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// quoteString escapes a DuckDB string literal.
func quoteString(s string) string {
	return `'` + strings.ReplaceAll(s, `'`, `''`) + `'`
}
