package transform

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"

	"github.com/zeebo/xxh3"

	fundcsv "fundetl/internal/parser/csv"
)

// Error kinds File wraps its failures with, so callers can classify an
// outcome without string matching.
var (
	// ErrUnreadable marks open/parse failures of the source file.
	ErrUnreadable = errors.New("unreadable source")

	// ErrWrite marks failures writing the transformed output.
	ErrWrite = errors.New("write transformed output")
)

// FileResult summarizes one transformed file.
type FileResult struct {
	// Rows is the number of data rows written (header excluded).
	Rows int

	// Fingerprint is the xxh3 hash of the bytes written to the output file.
	// It gives runs a cheap way to tell whether a re-transformed file
	// actually changed.
	Fingerprint uint64
}

// File reads the CSV at srcPath, normalizes its header, consolidates
// instrument identifiers, injects the asOf/source metadata columns, and
// writes the result to dstPath. Row values and row order are otherwise
// unchanged.
//
// The output is assembled in memory and written in one WriteFile call so a
// failed transform never leaves a truncated file in the output directory.
func File(ctx context.Context, parser *fundcsv.Parser, srcPath, dstPath, asOf, source string) (FileResult, error) {
	select {
	case <-ctx.Done():
		return FileResult{}, ctx.Err()
	default:
	}

	f, err := os.Open(srcPath)
	if err != nil {
		return FileResult{}, fmt.Errorf("%w: open %s: %v", ErrUnreadable, srcPath, err)
	}
	defer f.Close()

	header, rows, err := parser.Parse(f)
	if err != nil {
		return FileResult{}, fmt.Errorf("%w: parse %s: %v", ErrUnreadable, srcPath, err)
	}

	header = NormalizeHeader(header)
	header, rows = ConsolidateIdentifiers(header, rows)
	header, rows = Enrich(header, rows, asOf, source)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return FileResult{}, fmt.Errorf("write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return FileResult{}, fmt.Errorf("write rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return FileResult{}, fmt.Errorf("flush csv: %w", err)
	}

	if err := os.WriteFile(dstPath, buf.Bytes(), 0o644); err != nil {
		return FileResult{}, fmt.Errorf("%w: %s: %v", ErrWrite, dstPath, err)
	}

	return FileResult{Rows: len(rows), Fingerprint: xxh3.Hash(buf.Bytes())}, nil
}
