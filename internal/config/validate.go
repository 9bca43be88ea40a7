// Package config provides configuration models and helpers for ingestion
// runs.
//
// This file adds a lightweight linter/validator for Config values. It
// performs static checks over a decoded Config and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ncruces/go-strftime"
	"golang.org/x/text/encoding/ianaindex"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Config.
//
// Path is a dotted path into the config (e.g. "input_directory",
// "date_patterns[1]"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasError reports whether any issue carries error severity.
func HasError(issues []Issue) bool {
	for _, i := range issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static validation of a Config. It does not mutate the
// config; it returns a slice of Issue values and is intended to run exactly
// once, before the first file is processed.
func Validate(cfg Config) []Issue {
	var issues []Issue

	issues = append(issues, requireDirectory("input_directory", cfg.InputDirectory)...)

	// The output directory is created on demand; only an empty path or a
	// non-directory in the way blocks the run.
	if strings.TrimSpace(cfg.OutputDirectory) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output_directory",
			Message:  "output_directory must not be empty",
		})
	} else if info, err := os.Stat(cfg.OutputDirectory); err == nil && !info.IsDir() {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output_directory",
			Message:  fmt.Sprintf("%s is not a directory", cfg.OutputDirectory),
		})
	}

	if strings.TrimSpace(cfg.DatabaseFile) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "database_file",
			Message:  "database_file must not be empty",
		})
	}

	if cfg.ReferenceSQL != "" {
		if _, err := os.Stat(cfg.ReferenceSQL); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "reference_sql",
				Message:  fmt.Sprintf("reference script not readable: %v; the bootstrap phase will fail", err),
			})
		}
	}

	if len(cfg.DatePatterns) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "date_patterns",
			Message:  "no date patterns configured; every input file will be skipped for missing as-of date",
		})
	}
	for i, p := range cfg.DatePatterns {
		if _, err := regexp.Compile(p); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("date_patterns[%d]", i),
				Message:  fmt.Sprintf("pattern does not compile: %v", err),
			})
		}
	}

	if _, err := strftime.Layout(cfg.DateFormat); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "date_format",
			Message:  fmt.Sprintf("not a usable strftime template: %v", err),
		})
	}

	if n := len([]rune(cfg.Parser.Comma)); n > 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.comma",
			Message:  fmt.Sprintf("delimiter must be a single character, got %q", cfg.Parser.Comma),
		})
	}
	if name := strings.TrimSpace(cfg.Parser.Encoding); name != "" && !strings.EqualFold(name, "utf-8") {
		if enc, err := ianaindex.IANA.Encoding(name); err != nil || enc == nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "parser.encoding",
				Message:  fmt.Sprintf("unknown IANA charset %q", name),
			})
		}
	}

	if cfg.Runtime.TransformWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.transform_workers",
			Message:  "transform_workers must not be negative",
		})
	}

	return issues
}

func requireDirectory(path, dir string) []Issue {
	if strings.TrimSpace(dir) == "" {
		return []Issue{{
			Severity: SeverityError,
			Path:     path,
			Message:  path + " must not be empty",
		}}
	}
	info, err := os.Stat(dir)
	if err != nil {
		return []Issue{{
			Severity: SeverityError,
			Path:     path,
			Message:  fmt.Sprintf("directory not accessible: %v", err),
		}}
	}
	if !info.IsDir() {
		return []Issue{{
			Severity: SeverityError,
			Path:     path,
			Message:  fmt.Sprintf("%s is not a directory", dir),
		}}
	}
	return nil
}
