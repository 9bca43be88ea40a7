// Package config defines the canonical, JSON-serializable configuration for
// the external fund ingestion run. It is intentionally small and explicit so
// a run can be described by one file on disk and passed through the program
// without additional glue code; decoding is performed by the standard
// library.
//
// A zero config file is valid: every field has a default matching the
// conventional layout (./external_funds in, ./external_funds_transformed
// out, financial_data.duckdb as the store).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// Config describes one ingestion run. It is immutable for the duration of the
// run and validated once (see Validate) before any file is touched.
type Config struct {
	// Job labels metrics and log lines for this run.
	Job string `json:"job"`

	// InputDirectory holds the original external fund CSV exports.
	InputDirectory string `json:"input_directory"`

	// OutputDirectory receives the normalized intermediate CSVs; the load
	// phase reads from here.
	OutputDirectory string `json:"output_directory"`

	// DatabaseFile is the DuckDB store file.
	DatabaseFile string `json:"database_file"`

	// ReferenceSQL is the master reference script executed once before
	// ingestion.
	ReferenceSQL string `json:"reference_sql"`

	// DatePatterns are tried in order against each filename; the first
	// matching pattern wins. Each pattern should capture the date text in
	// group 1.
	DatePatterns []string `json:"date_patterns"`

	// DateFormat is the strftime template for the DATA_DATE column value.
	DateFormat string `json:"date_format"`

	Parser  ParserConfig  `json:"parser"`
	Runtime RuntimeConfig `json:"runtime"`
}

// ParserConfig carries CSV parser options.
type ParserConfig struct {
	// Comma is the field delimiter as a one-character string. Empty means ','.
	Comma string `json:"comma"`

	// TrimSpace trims leading/trailing spaces from every field.
	TrimSpace bool `json:"trim_space"`

	// Encoding optionally names the source charset (IANA name).
	Encoding string `json:"encoding"`
}

// RuntimeConfig controls transform-phase concurrency. The load phase is
// always sequential: schema establishment and appends must serialize per
// table.
type RuntimeConfig struct {
	TransformWorkers int `json:"transform_workers"`
}

// DefaultDatePatterns are the four recognized filename date shapes, in
// precedence order.
var DefaultDatePatterns = []string{
	`(\d{4}-\d{2}-\d{2})`, // e.g. 2023-03-31
	`(\d{2}-\d{2}-\d{4})`, // e.g. 30-06-2023 or 05-31-2023
	`(\d{2}_\d{2}_\d{4})`, // e.g. 30_04_2023 or 04_30_2023
	`(\d{8})`,             // e.g. 20220930
}

// Default returns the conventional run configuration.
func Default() Config {
	return Config{
		Job:             "external_funds",
		InputDirectory:  "./external_funds",
		OutputDirectory: "./external_funds_transformed",
		DatabaseFile:    "financial_data.duckdb",
		ReferenceSQL:    "./master-reference-sql.sql",
		DatePatterns:    append([]string(nil), DefaultDatePatterns...),
		DateFormat:      "%Y-%m-%d",
		Runtime:         RuntimeConfig{TransformWorkers: 1},
	}
}

// Load reads a JSON config file and overlays it on Default. Fields absent
// from the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	if cfg.Runtime.TransformWorkers == 0 {
		cfg.Runtime.TransformWorkers = 1
	}
	return cfg, nil
}

// CompilePatterns compiles DatePatterns preserving order.
func (c Config) CompilePatterns() ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(c.DatePatterns))
	for _, p := range c.DatePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("date pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// CommaRune returns the configured delimiter, or 0 when unset.
func (p ParserConfig) CommaRune() rune {
	if p.Comma == "" {
		return 0
	}
	return []rune(p.Comma)[0]
}
