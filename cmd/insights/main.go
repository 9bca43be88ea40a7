package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"fundetl/internal/storage/duckdb"
)

// main runs an ad hoc SQL query against the store and writes the result as
// CSV under the output directory. The query text comes from the file named on
// the command line; the result lands in <out-dir>/<stem>_result.csv.
func main() {
	var (
		dbPath string
		outDir string
	)
	flag.StringVar(&dbPath, "db", "financial_data.duckdb", "store database file")
	flag.StringVar(&outDir, "out", "./query_output", "directory for result CSVs")
	flag.Parse()

	if flag.NArg() != 1 {
		fatalf("usage: %s [-db file] [-out dir] <query.sql>", os.Args[0])
	}
	queryPath := flag.Arg(0)

	query, err := os.ReadFile(queryPath)
	if err != nil {
		fatalf("read query: %v", err)
	}
	if strings.TrimSpace(string(query)) == "" {
		fatalf("query file %s is empty", queryPath)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fatalf("create output directory: %v", err)
	}

	ctx := context.Background()

	// Read-only so a concurrent ingestion run keeps exclusive write access.
	db, closeDB, err := duckdb.OpenReadOnly(ctx, dbPath)
	if err != nil {
		fatalf("open store: %v", err)
	}
	defer closeDB()

	stem := strings.TrimSuffix(filepath.Base(queryPath), filepath.Ext(queryPath))
	resultPath := filepath.Join(outDir, stem+"_result.csv")

	out, err := os.Create(resultPath)
	if err != nil {
		fatalf("create result file: %v", err)
	}

	rows, err := duckdb.QueryToCSV(ctx, db, string(query), out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(resultPath)
		fatalf("query: %v", err)
	}

	fmt.Printf("%s: %d rows\n", resultPath, rows)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
