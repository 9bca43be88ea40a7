// Package etl drives the directory-level fan-out over external fund files:
// transform (normalize + enrich into the intermediate directory) and load
// (append into the DuckDB store). Each phase walks one directory and gives
// every file exactly one terminal outcome; a single bad file never aborts the
// batch.
package etl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"fundetl/internal/config"
	"fundetl/internal/naming"
	fundcsv "fundetl/internal/parser/csv"
	"fundetl/internal/storage/duckdb"
	"fundetl/internal/transform"
)

// TableStore is the ingestion boundary the load phase writes through. It is
// implemented by duckdb.Ingestor; tests substitute a fake.
type TableStore interface {
	// EnsureSchema establishes the destination table on the first encounter
	// of an identifier this run and is a no-op afterwards.
	EnsureSchema(ctx context.Context, table string, columns []string, csvPath string) error

	// AppendCSV appends the file's rows; the columns must match the
	// established schema.
	AppendCSV(ctx context.Context, table string, columns []string, csvPath string) error
}

// Runner executes the two phases for one validated configuration.
type Runner struct {
	cfg      config.Config
	patterns []*regexp.Regexp
	parser   *fundcsv.Parser
	log      zerolog.Logger
}

// NewRunner builds a Runner from an already-validated config. Pattern
// compilation failures surface here for callers that skipped Validate.
func NewRunner(cfg config.Config, log zerolog.Logger) (*Runner, error) {
	patterns, err := cfg.CompilePatterns()
	if err != nil {
		return nil, err
	}
	parser := fundcsv.NewParser(fundcsv.Options{
		Comma:     cfg.Parser.CommaRune(),
		TrimSpace: cfg.Parser.TrimSpace,
		Encoding:  cfg.Parser.Encoding,
	})
	return &Runner{cfg: cfg, patterns: patterns, parser: parser, log: log}, nil
}

// listCSV returns the .csv entries of dir in directory-listing order,
// matching the extension case-insensitively.
func listCSV(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Transform normalizes every CSV in the input directory into the output
// directory. Files carry no shared state in this phase, so the per-file work
// fans out across cfg.Runtime.TransformWorkers goroutines; outcomes keep
// listing order regardless of completion order.
func (r *Runner) Transform(ctx context.Context) (Report, error) {
	files, err := listCSV(r.cfg.InputDirectory)
	if err != nil {
		return Report{}, err
	}

	outcomes := make([]Outcome, len(files))

	g, ctx := errgroup.WithContext(ctx)
	workers := r.cfg.Runtime.TransformWorkers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for i, name := range files {
		g.Go(func() error {
			outcomes[i] = r.transformOne(ctx, name)
			return nil
		})
	}
	// Workers record failures in their outcome instead of returning them, so
	// Wait only surfaces context cancellation.
	if err := g.Wait(); err != nil {
		return Report{Outcomes: outcomes}, err
	}

	report := Report{Outcomes: outcomes}
	r.log.Info().Str("phase", "transform").Str("summary", report.Summary()).Msg("phase complete")
	return report, nil
}

func (r *Runner) transformOne(ctx context.Context, name string) Outcome {
	log := r.log.With().Str("file", name).Logger()

	table, ok := naming.TableName(name)
	if !ok {
		log.Warn().Msg("no identifiable table name; skipping")
		return Outcome{File: name, Kind: OutcomeSkipped, Reason: ReasonNoTableName}
	}

	asOf, ok := naming.ExtractDate(name, r.patterns, r.cfg.DateFormat)
	if !ok {
		log.Warn().Str("table", table).Msg("no valid date found in filename; skipping")
		return Outcome{File: name, Kind: OutcomeSkipped, Reason: ReasonNoDatePattern, Table: table}
	}

	src := filepath.Join(r.cfg.InputDirectory, name)
	dst := filepath.Join(r.cfg.OutputDirectory, name)
	res, err := transform.File(ctx, r.parser, src, dst, asOf, table)
	if err != nil {
		reason := ReasonWriteFailed
		if errors.Is(err, transform.ErrUnreadable) {
			reason = ReasonUnreadableFile
		}
		log.Error().Err(err).Str("table", table).Msg("transform failed")
		return Outcome{File: name, Kind: OutcomeFailed, Reason: reason, Err: err, Table: table, AsOf: asOf}
	}

	log.Info().
		Str("table", table).
		Str("data_date", asOf).
		Int("rows", res.Rows).
		Uint64("fingerprint", res.Fingerprint).
		Msg("transformed")
	return Outcome{
		File: name, Kind: OutcomeTransformed, Table: table, AsOf: asOf,
		Rows: res.Rows, Fingerprint: res.Fingerprint,
	}
}

// Load ingests every CSV in the output directory into the store, strictly
// sequentially: schema establishment and appends for a table must serialize,
// and one table commonly receives appends from several files. A store-level
// failure (duckdb.ErrStoreUnavailable) aborts the phase; everything else is a
// per-file outcome.
func (r *Runner) Load(ctx context.Context, store TableStore) (Report, error) {
	files, err := listCSV(r.cfg.OutputDirectory)
	if err != nil {
		return Report{}, err
	}

	var report Report
	for _, name := range files {
		outcome := r.loadOne(ctx, store, name)
		report.Outcomes = append(report.Outcomes, outcome)
		if errors.Is(outcome.Err, duckdb.ErrStoreUnavailable) {
			return report, fmt.Errorf("load %s: %w", name, outcome.Err)
		}
	}

	r.log.Info().Str("phase", "load").Str("summary", report.Summary()).Msg("phase complete")
	return report, nil
}

func (r *Runner) loadOne(ctx context.Context, store TableStore, name string) Outcome {
	log := r.log.With().Str("file", name).Logger()

	table, ok := naming.TableName(name)
	if !ok {
		log.Warn().Msg("could not extract table name; skipping")
		return Outcome{File: name, Kind: OutcomeSkipped, Reason: ReasonNoTableName}
	}

	path := filepath.Join(r.cfg.OutputDirectory, name)
	f, err := os.Open(path)
	if err != nil {
		log.Error().Err(err).Msg("open failed")
		return Outcome{File: name, Kind: OutcomeFailed, Reason: ReasonUnreadableFile, Err: err, Table: table}
	}
	header, err := r.parser.ReadHeader(f)
	f.Close()
	if err != nil {
		log.Error().Err(err).Msg("header read failed")
		return Outcome{File: name, Kind: OutcomeFailed, Reason: ReasonUnreadableFile, Err: err, Table: table}
	}

	if err := store.EnsureSchema(ctx, table, header, path); err != nil {
		log.Error().Err(err).Str("table", table).Msg("schema establishment failed")
		return Outcome{File: name, Kind: OutcomeFailed, Reason: loadReason(err), Err: err, Table: table}
	}
	if err := store.AppendCSV(ctx, table, header, path); err != nil {
		log.Error().Err(err).Str("table", table).Msg("append failed")
		return Outcome{File: name, Kind: OutcomeFailed, Reason: loadReason(err), Err: err, Table: table}
	}

	log.Info().Str("table", table).Msg("ingested")
	return Outcome{File: name, Kind: OutcomeIngested, Table: table}
}

func loadReason(err error) Reason {
	switch {
	case errors.Is(err, duckdb.ErrSchemaMismatch):
		return ReasonSchemaMismatch
	case errors.Is(err, duckdb.ErrStoreUnavailable):
		return ReasonStoreUnavailable
	default:
		return ReasonUnreadableFile
	}
}
