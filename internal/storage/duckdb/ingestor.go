package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
)

// ErrSchemaMismatch reports that a file's column set disagrees with the
// schema established for its table earlier in the run. The append is refused
// before any statement reaches the store, so rows already committed by other
// files stay intact.
var ErrSchemaMismatch = errors.New("schema mismatch with established table")

// Ingestor writes transformed CSV files into the store. It tracks which
// tables have had their schema established during the current run; the
// registry lives only for the run while the tables themselves persist in the
// store file.
//
// Ingestor does not own the database handle lifecycle; the caller opens and
// closes it. Methods are not safe for concurrent use: schema establishment
// and appends for a table must be serialized, so any fan-out has to funnel
// through one writer.
type Ingestor struct {
	db *sql.DB

	// established maps table name to the column order fixed at first
	// encounter this run.
	established map[string][]string
}

// NewIngestor returns an Ingestor with an empty table registry.
func NewIngestor(db *sql.DB) *Ingestor {
	return &Ingestor{db: db, established: make(map[string][]string)}
}

// EnsureSchema establishes the destination table for the first file of a run
// that maps to it, using DuckDB's CSV sniffing over the file itself:
//
//	CREATE OR REPLACE TABLE <t> AS SELECT * FROM read_csv_auto('<f>') LIMIT 0
//
// This is create-or-replace, not create-if-absent: a same-named table left in
// the store by a previous run is dropped together with all its data and
// replaced by an empty relation matching the incoming columns. Within the
// run, later files mapping to the same table append to it; EnsureSchema is a
// no-op once the table is registered.
func (ing *Ingestor) EnsureSchema(ctx context.Context, table string, columns []string, csvPath string) error {
	if _, ok := ing.established[table]; ok {
		return nil
	}

	stmt := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto(%s) LIMIT 0",
		quoteIdent(table), quoteString(csvPath),
	)
	if _, err := ing.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("duckdb: create table %s: %w", table, classify(err))
	}

	ing.established[table] = slices.Clone(columns)
	return nil
}

// AppendCSV appends the rows of csvPath into table. The file's columns must
// equal the schema established this run, names and order both; otherwise
// ErrSchemaMismatch is returned and the store is left untouched. On match the
// data is loaded with:
//
//	COPY <t> FROM '<f>' (FORMAT CSV, HEADER TRUE)
func (ing *Ingestor) AppendCSV(ctx context.Context, table string, columns []string, csvPath string) error {
	want, ok := ing.established[table]
	if !ok {
		return fmt.Errorf("duckdb: table %s has no established schema this run", table)
	}
	if !slices.Equal(columns, want) {
		return fmt.Errorf("duckdb: append %s to table %s: got columns %v, established %v: %w",
			csvPath, table, columns, want, ErrSchemaMismatch)
	}

	stmt := fmt.Sprintf(
		"COPY %s FROM %s (FORMAT CSV, HEADER TRUE)",
		quoteIdent(table), quoteString(csvPath),
	)
	if _, err := ing.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("duckdb: copy into %s: %w", table, classify(err))
	}
	return nil
}

// Established reports whether the table's schema was established during this
// run, and under which column order.
func (ing *Ingestor) Established(table string) ([]string, bool) {
	cols, ok := ing.established[table]
	return cols, ok
}
