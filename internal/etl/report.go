package etl

import "fmt"

// OutcomeKind is the terminal state of one input file. Every listed file ends
// in exactly one of these; no partial outcome is legal.
type OutcomeKind string

const (
	// OutcomeTransformed: normalized+enriched CSV written to the output
	// directory (transform phase).
	OutcomeTransformed OutcomeKind = "transformed"
	// OutcomeIngested: rows appended into the store (load phase).
	OutcomeIngested OutcomeKind = "ingested"
	// OutcomeSkipped: no identifiable table name or as-of date; not an error.
	OutcomeSkipped OutcomeKind = "skipped"
	// OutcomeFailed: per-file failure, recorded with its reason; the batch
	// continues.
	OutcomeFailed OutcomeKind = "failed"
)

// Reason classifies skip and failure outcomes.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonUnreadableFile   Reason = "unreadable_file"
	ReasonNoTableName      Reason = "no_identifiable_table_name"
	ReasonNoDatePattern    Reason = "no_matching_date_pattern"
	ReasonSchemaMismatch   Reason = "schema_mismatch"
	ReasonStoreUnavailable Reason = "store_unavailable"
	ReasonWriteFailed      Reason = "write_failed"
)

// Outcome records the terminal state of one file.
type Outcome struct {
	File   string
	Kind   OutcomeKind
	Reason Reason
	Err    error

	// Table and AsOf are set when metadata extraction succeeded.
	Table string
	AsOf  string

	// Rows and Fingerprint are set on transformed outcomes.
	Rows        int
	Fingerprint uint64
}

// Report aggregates the per-file outcomes of one phase. The caller decides
// exit status from the report, not from log output.
type Report struct {
	Outcomes []Outcome
}

// Count returns the number of outcomes of the given kind.
func (r Report) Count(kind OutcomeKind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

// Failed reports whether any file ended in a failure outcome.
func (r Report) Failed() bool { return r.Count(OutcomeFailed) > 0 }

// Summary is a single-line digest for logs.
func (r Report) Summary() string {
	return fmt.Sprintf("files=%d transformed=%d ingested=%d skipped=%d failed=%d",
		len(r.Outcomes),
		r.Count(OutcomeTransformed),
		r.Count(OutcomeIngested),
		r.Count(OutcomeSkipped),
		r.Count(OutcomeFailed),
	)
}
