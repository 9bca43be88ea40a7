package duckdb

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
)

// QueryToCSV executes query against the store and streams the result to w as
// CSV, column names first. NULLs are written as empty fields. It returns the
// number of data rows written.
func QueryToCSV(ctx context.Context, db *sql.DB, query string, w io.Writer) (int, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("duckdb: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, fmt.Errorf("duckdb: columns: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	vals := make([]sql.NullString, len(cols))
	scan := make([]any, len(cols))
	for i := range vals {
		scan[i] = &vals[i]
	}

	record := make([]string, len(cols))
	n := 0
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return n, fmt.Errorf("duckdb: scan row %d: %w", n+1, err)
		}
		for i, v := range vals {
			if v.Valid {
				record[i] = v.String
			} else {
				record[i] = ""
			}
		}
		if err := cw.Write(record); err != nil {
			return n, fmt.Errorf("write row %d: %w", n+1, err)
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return n, fmt.Errorf("duckdb: rows: %w", err)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return n, fmt.Errorf("flush csv: %w", err)
	}
	return n, nil
}
